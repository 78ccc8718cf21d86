// Package main provides the reqdocx command line tool
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/memtensor/reqdocx/pkg/config"
	"github.com/memtensor/reqdocx/pkg/interfaces"
	"github.com/memtensor/reqdocx/pkg/logger"
	"github.com/memtensor/reqdocx/pkg/metrics"
	"github.com/memtensor/reqdocx/pkg/parsers"
	"github.com/memtensor/reqdocx/pkg/store"
)

// Version information (set by build process)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// cli carries the global flags and the state built from them before a
// subcommand runs
type cli struct {
	configFile string
	logLevel   string

	cfg     *config.AppConfig
	logger  interfaces.Logger
	metrics *metrics.InMemoryMetrics
	closers []func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, rootCmd := newCLI()
	if err := c.execute(ctx, rootCmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	_, rootCmd := newCLI()
	return rootCmd
}

func newCLI() (*cli, *cobra.Command) {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "reqdocx",
		Short: "Extract requirement records from \"All Data\" Word exports",
		Long: `reqdocx reads the .docx "All Data" export of a requirements management
tool and turns it into structured requirement records.

Records can be printed as JSON, YAML, CSV, Markdown or HTML, stored in a
local SQLite database, served over HTTP, or re-extracted whenever the
export changes on disk.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Path to configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")

	rootCmd.AddCommand(parseCmd(c))
	rootCmd.AddCommand(blocksCmd(c))
	rootCmd.AddCommand(serveCmd(c))
	rootCmd.AddCommand(watchCmd(c))
	rootCmd.AddCommand(configCmd(c))
	rootCmd.AddCommand(versionCmd())

	return c, rootCmd
}

// execute runs the command tree and releases what setup opened. cobra skips
// PersistentPostRunE when RunE fails, so closing cannot be left to the hook.
func (c *cli) execute(ctx context.Context, rootCmd *cobra.Command) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}

// setup loads the configuration and builds the logger
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.cfg = cfg

	if cfg.Log.File != "" {
		fileLogger, err := logger.NewFileLogger(cfg.Log.Level, cfg.Log.File)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		c.logger = fileLogger
		c.closers = append(c.closers, fileLogger.Close)
	} else {
		c.logger = logger.NewWriterLogger(cfg.Log.Level, cmd.ErrOrStderr())
	}

	c.metrics = metrics.NewInMemoryMetrics()
	return nil
}

func (c *cli) close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}

func (c *cli) factory() *parsers.ParserFactory {
	return parsers.NewParserFactory(c.cfg.Parser.Options(c.logger), c.metrics)
}

// openStore opens the configured database. force opens it even when the
// store section is disabled.
func (c *cli) openStore(force bool) (*store.Store, error) {
	if !c.cfg.Store.Enabled && !force {
		return nil, nil
	}
	path := c.cfg.Store.Path
	if path == "" {
		path = config.NewStoreConfig().Path
	}

	st, err := store.Open(path, c.cfg.Store.Debug, c.logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, st.Close)
	return st, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "reqdocx %s\n", Version)
			fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}
