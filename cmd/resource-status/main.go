package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/resource-status/pkg/config"
	"github.com/cuemby/resource-status/pkg/log"
	"github.com/cuemby/resource-status/pkg/metrics"
	"github.com/cuemby/resource-status/pkg/query"
	"github.com/cuemby/resource-status/pkg/snapshot"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Exit codes shared by every boolean verb
const (
	exitTrue  = 0
	exitError = 1
	exitFalse = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCodeFor(err, rootCmd.ErrOrStderr()))
}

// exitStatus carries a non-error exit code out of a command
type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// exitCodeFor maps a command result to the process exit code. Real errors
// are printed, a false answer is not.
func exitCodeFor(err error, stderr io.Writer) int {
	if err == nil {
		return exitTrue
	}
	var status *exitStatus
	if errors.As(err, &status) {
		return status.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitError
}

type rootOptions struct {
	configPath      string
	statusFile      string
	crmMonTimeout   time.Duration
	logLevel        string
	logJSON         bool
	metricsTextfile string
}

// app is the state shared by the subcommands of one invocation
type app struct {
	cfg     *config.Config
	metrics *metrics.Metrics
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "resource-status",
		Short: "Query the status of pacemaker cluster resources",
		Long: `resource-status answers questions about the resources of a pacemaker
cluster: whether they exist, what they are, where they run and which state
they are in.

Boolean queries exit with 0 when true, 2 when false and 1 when the query
could not be evaluated.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, opts)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"resource-status version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath, "Configuration file")
	flags.StringVar(&opts.statusFile, "status-file", "", "Read a cached crm_mon XML or YAML status instead of running crm_mon")
	flags.DurationVar(&opts.crmMonTimeout, "crm-mon-timeout", snapshot.DefaultTimeout, "Timeout for the crm_mon call")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.BoolVar(&opts.logJSON, "log-json", false, "Log in JSON format")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write query metrics to this file for the node_exporter textfile collector")

	rootCmd.AddCommand(newQueryCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newNodesCmd(a))

	return rootCmd
}

// setup loads the configuration, applies flag overrides and initializes logging
func (a *app) setup(cmd *cobra.Command, opts *rootOptions) error {
	flags := cmd.Flags()

	cfg, err := config.Load(opts.configPath, !flags.Changed("config"))
	if err != nil {
		return err
	}

	if flags.Changed("status-file") {
		cfg.StatusFile = opts.statusFile
	}
	if flags.Changed("crm-mon-timeout") {
		cfg.CrmMon.Timeout = opts.crmMonTimeout
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = opts.logJSON
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = opts.metricsTextfile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      log.ParseLevel(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
		Output:     cmd.ErrOrStderr(),
	})

	a.cfg = cfg
	a.metrics = metrics.New()
	return nil
}

func (a *app) source() snapshot.Source {
	if a.cfg.StatusFile != "" {
		return snapshot.NewFileSource(a.cfg.StatusFile)
	}
	return snapshot.NewCrmMonSource().
		WithCommand(a.cfg.CrmMon.Command).
		WithTimeout(a.cfg.CrmMon.Timeout)
}

// loadFacade acquires the snapshot and indexes it
func (a *app) loadFacade(ctx context.Context) (*query.Facade, error) {
	timer := metrics.NewTimer()
	snap, err := a.source().Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster status: %w", err)
	}
	a.metrics.RecordSnapshot(snap, timer)

	defaults, err := a.cfg.Defaults()
	if err != nil {
		return nil, err
	}
	return query.New(snap, defaults)
}

// flushMetrics writes the textfile when one is configured. A failure is
// logged and never changes the answer.
func (a *app) flushMetrics() {
	if a.cfg == nil || a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		l := log.WithComponent("metrics")
		l.Warn().Err(err).
			Str("path", a.cfg.Metrics.Textfile).
			Msg("Failed to write metrics textfile")
	}
}
