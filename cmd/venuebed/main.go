// Command venuebed runs the venue engine over pool files.
//
// Usage:
//
//	venuebed overrides pool.yaml --blocklist "Old Name"
//	venuebed rank pool.yaml --suggest
//	venuebed slice pool.yaml --lat 40.72 --lng -73.99 --lat-span 0.05 --lng-span 0.06
//
// A pool file is YAML or JSON with an optional default `source` and a
// `venues` list of records.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andreiashu/venuebed"
	"github.com/andreiashu/venuebed/internal/config"
	"github.com/andreiashu/venuebed/internal/logger"
	"github.com/andreiashu/venuebed/internal/metrics"
)

// app is the state shared by subcommands, built before any of them run.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	engine   *venuebed.Engine
	registry *prometheus.Registry
}

var (
	configPath  string
	envFlag     string
	logLevel    string
	showMetrics bool

	state app
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "venuebed",
		Short:             "Deduplicate, classify and rank halal venue pools",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			defer state.log.Sync() //nolint:errcheck
			if showMetrics {
				return printMetrics(cmd)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "environment: local, dev or prod (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print engine counters after the command")

	rootCmd.AddCommand(createDedupeCmd())
	rootCmd.AddCommand(createOverridesCmd())
	rootCmd.AddCommand(createClassifyCmd())
	rootCmd.AddCommand(createRankCmd())
	rootCmd.AddCommand(createSliceCmd())
	return rootCmd
}

func setup(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if envFlag != "" {
		cfg.Env = envFlag
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.NewLogger(cfg.Env, cfg.Logging.Level)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	engine, err := venuebed.NewEngine(append(opts, venuebed.WithLogger(log))...)
	if err != nil {
		return err
	}

	state = app{cfg: cfg, log: log, engine: engine, registry: registry}
	log.Debug("Engine ready",
		zap.String("env", cfg.Env),
		zap.Int("top_n", engine.Config().TopN),
	)
	return nil
}

func printMetrics(cmd *cobra.Command) error {
	families, err := state.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
