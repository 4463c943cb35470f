// Package config loads the optional resource-status YAML configuration.
// Command line flags take precedence over anything set here.
package config
