package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rparkin1/wealthNavigator-sub000/internal/config"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/planner"
	"github.com/rparkin1/wealthNavigator-sub000/internal/snapshot"
)

var version = "dev"

var (
	flagConfig            string
	flagLogLevel          string
	flagJSON              bool
	flagAsOf              string
	flagGoals             string
	flagHorizon           int
	flagConditionalAsHard bool
	flagOutput            string
	flagFormat            string
	flagMaxParallel       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "goalgraph",
		Short: "Schedule financial goals around their dependencies",
		Long: `goalgraph validates dependency graphs between financial goals, computes
critical-path scheduling windows, and recommends which goals to pursue in
sequence and which in parallel. It runs as an HTTP service or directly on
snapshot files.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagAsOf, "as-of", "", "Schedule start date (YYYY-MM-DD); defaults to the snapshot's as_of or today")
	rootCmd.PersistentFlags().IntVar(&flagHorizon, "horizon", 0, "Horizon in months for chain-length warnings (0 uses config)")
	rootCmd.PersistentFlags().BoolVar(&flagConditionalAsHard, "conditional-as-hard", false, "Treat conditional edges as hard precedence")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(batchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagHorizon > 0 {
		cfg.Engine.HorizonMonths = flagHorizon
	}
	if cmd.Flags().Changed("conditional-as-hard") {
		cfg.Engine.ConditionalAsHard = flagConditionalAsHard
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. JSON output is used for the server
// or when configured; CLI commands log text to stderr.
func newLogger(cfg config.LogConfig, forceJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if forceJSON || cfg.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// loadSnapshot reads a snapshot and narrows it to --goals when given.
// Without --goals every goal and edge is passed on, so dangling references
// reach the graph builder.
func loadSnapshot(path string) (*snapshot.Snapshot, []goal.Goal, []goal.DependencyEdge, error) {
	s, err := snapshot.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	if flagGoals == "" {
		return s, s.Goals, s.Dependencies, nil
	}
	ids := strings.Split(flagGoals, ",")
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
	}
	goals, edges, err := s.Select(ids)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, goals, edges, nil
}

// resolveAsOf picks --as-of, then the snapshot's date, then today.
func resolveAsOf(s *snapshot.Snapshot) (goal.Date, error) {
	if flagAsOf != "" {
		d, err := goal.ParseDate(flagAsOf)
		if err != nil {
			return goal.Date{}, fmt.Errorf("--as-of: %w", err)
		}
		return d, nil
	}
	if s != nil && !s.AsOf.IsZero() {
		return s.AsOf, nil
	}
	return goal.DateOf(time.Now()), nil
}

func plannerOptions(cfg *config.Config, asOf goal.Date) planner.Options {
	return planner.Options{
		AsOf:              asOf,
		HorizonMonths:     cfg.Engine.HorizonMonths,
		ConditionalAsHard: cfg.Engine.ConditionalAsHard,
	}
}
