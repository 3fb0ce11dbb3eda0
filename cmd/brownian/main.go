// Package main provides the CLI entrypoint for brownian.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/brownian/internal/config"
	"github.com/verte-zerg/brownian/internal/logging"
	"github.com/verte-zerg/brownian/internal/simui"
	"github.com/verte-zerg/brownian/internal/stats"
	"github.com/verte-zerg/brownian/internal/store"
)

const (
	defaultDrift      = 0.05
	defaultVolatility = 1.0
	defaultBarrier    = 2.0
	defaultHorizon    = 10.0
	defaultStepSize   = 0.01
	defaultPaths      = 1000

	defaultArcsinePaths    = 5000
	defaultArcsineHorizon  = 1.0
	defaultArcsineStepSize = 0.001
	defaultBins            = stats.DefaultBinCount
)

const logFileName = "brownian.log"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	seed       uint64
	workers    int
	format     string
	logLevel   string
	dbPath     string
	configPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "brownian",
		Short:         "Monte Carlo explorer for Brownian motion with drift",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runViewerCmd(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.Uint64Var(&opts.seed, "seed", 0, "random seed (0 = time-based)")
	flags.IntVar(&opts.workers, "workers", 0, "simulation goroutines (0 = GOMAXPROCS)")
	flags.StringVar(&opts.format, "format", formatText, "output format: text, json or yaml")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: trace, debug, info, warn or error")
	flags.StringVar(&opts.dbPath, "db", "", "preset database path (default: XDG data dir)")
	flags.StringVar(&opts.configPath, "config", "", "config file path (default: XDG config dir)")

	rootCmd.AddCommand(newPassageCmd(opts))
	rootCmd.AddCommand(newArcsineCmd(opts))
	rootCmd.AddCommand(newCDFCmd(opts))
	rootCmd.AddCommand(newPresetCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newMCPCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))

	return rootCmd
}

func runViewerCmd(cmd *cobra.Command, opts *rootOptions) error {
	fileCfg, err := loadFileConfig(cmd, opts)
	if err != nil {
		return err
	}
	passage := defaultPassageOptions()
	passage.apply(cmd, fileCfg)
	arcsine := defaultArcsineOptions()
	arcsine.apply(cmd, fileCfg)

	logger, closeLog, err := logging.OpenFile(opts.logLevel, config.DefaultDataDir(), logFileName)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	var st *store.Store
	if s, err := openStore(opts); err != nil {
		logErrf("presets unavailable: %v\n", err)
	} else {
		st = s
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	model := simui.New(cmd.Context(), simui.Options{
		Passage: passage.config(),
		Arcsine: arcsine.config(),
		Bins:    arcsine.bins,
		Seed:    opts.seed,
		Workers: opts.workers,
		Logger:  logger,
		Store:   st,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// loadFileConfig reads the config file and folds its engine and logging
// values into opts for flags the user did not set.
func loadFileConfig(cmd *cobra.Command, opts *rootOptions) (config.FileConfig, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := fileCfg.Validate(); err != nil {
		return config.FileConfig{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	applyUintConfig(cmd, "seed", &opts.seed, fileCfg.Engine.Seed)
	applyIntConfig(cmd, "workers", &opts.workers, fileCfg.Engine.Workers)
	applyStringConfig(cmd, "log-level", &opts.logLevel, fileCfg.Logging.Level)

	if err := logging.ValidateLevel(opts.logLevel); err != nil {
		return config.FileConfig{}, err
	}
	if err := validateFormat(opts.format); err != nil {
		return config.FileConfig{}, err
	}
	if opts.workers < 0 {
		return config.FileConfig{}, fmt.Errorf("--workers must be >= 0")
	}
	return fileCfg, nil
}

func openStore(opts *rootOptions) (*store.Store, error) {
	path := opts.dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyUintConfig(cmd *cobra.Command, name string, target, value *uint64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
