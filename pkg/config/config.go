package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/cuemby/resource-status/pkg/query"
	"github.com/cuemby/resource-status/pkg/snapshot"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. A missing file is fine.
const DefaultPath = "/etc/resource-status/config.yaml"

// Config holds resource-status settings
type Config struct {
	// StatusFile, when set, is read instead of running crm_mon
	StatusFile  string           `yaml:"status_file"`
	CrmMon      CrmMonConfig     `yaml:"crm_mon"`
	Log         LogConfig        `yaml:"log"`
	Quantifiers QuantifierConfig `yaml:"quantifiers"`
	Metrics     MetricsConfig    `yaml:"metrics"`
}

// CrmMonConfig controls how the live status is acquired
type CrmMonConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig controls diagnostics on stderr
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// QuantifierConfig sets the aggregation used when a query names none
type QuantifierConfig struct {
	Members   string `yaml:"members"`
	Instances string `yaml:"instances"`
}

// MetricsConfig controls the optional textfile export
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		CrmMon: CrmMonConfig{
			Command: append([]string(nil), snapshot.DefaultCrmMonCommand...),
			Timeout: snapshot.DefaultTimeout,
		},
		Log: LogConfig{Level: "warn"},
		Quantifiers: QuantifierConfig{
			Members:   string(query.QuantifierAll),
			Instances: string(query.QuantifierAny),
		},
	}
}

// Load reads a YAML configuration on top of the defaults. When optional is
// set a missing file yields the defaults.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if len(c.CrmMon.Command) == 0 {
		return fmt.Errorf("crm_mon.command must not be empty")
	}
	if c.CrmMon.Timeout <= 0 {
		return fmt.Errorf("crm_mon.timeout must be positive")
	}
	_, err := c.Defaults()
	return err
}

// Defaults returns the configured default quantifiers for the query engine
func (c *Config) Defaults() (query.Defaults, error) {
	members, err := query.ParseQuantifier(c.Quantifiers.Members)
	if err != nil {
		return query.Defaults{}, fmt.Errorf("quantifiers.members: %w", err)
	}
	instances, err := query.ParseQuantifier(c.Quantifiers.Instances)
	if err != nil {
		return query.Defaults{}, fmt.Errorf("quantifiers.instances: %w", err)
	}
	return query.Defaults{Members: members, Instances: instances}, nil
}
