/*
Package log provides structured logging for resource-status using zerolog.

The package keeps one global zerolog.Logger. It discards everything until
Init is called, so library code can log freely and stay silent when used
outside the command line tool.

Logs go to stderr by default: stdout carries query answers that scripts
parse, and must not be mixed with diagnostics.

# Usage

Initializing the logger:

	log.Init(log.Config{
		Level:      log.ParseLevel("debug"),
		JSONOutput: false,
	})

Component loggers:

	logger := log.WithComponent("query")
	logger.Debug().Int("records", n).Msg("Snapshot indexed")

	log.WithResourceID("web-ip").Warn().Msg("Resource is orphaned")
	log.WithNode("node1").Warn().Msg("Node not present in status")

# Levels

The default level is warn. Debug shows snapshot acquisition, index
statistics and each evaluated state query.
*/
package log
