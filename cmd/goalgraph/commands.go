package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rparkin1/wealthNavigator-sub000/internal/batch"
	"github.com/rparkin1/wealthNavigator-sub000/internal/engine"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/planner"
	"github.com/rparkin1/wealthNavigator-sub000/internal/reporter"
	"github.com/rparkin1/wealthNavigator-sub000/internal/ui"
	"github.com/rparkin1/wealthNavigator-sub000/internal/validator"
)

var errInvalid = errors.New("dependency graph is invalid")

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <snapshot>",
		Short: "Check a snapshot for cycles, referential errors and timeline warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			newLogger(cfg.Log, false)

			s, goals, edges, err := loadSnapshot(args[0])
			if err != nil {
				return err
			}
			asOf, err := resolveAsOf(s)
			if err != nil {
				return err
			}
			ctx, cancel := engineContext(cmd.Context(), cfg.Engine.Timeout)
			defer cancel()

			r, err := validator.Validate(ctx, goals, edges, validator.Options{
				AsOf:              asOf,
				HorizonMonths:     cfg.Engine.HorizonMonths,
				ConditionalAsHard: cfg.Engine.ConditionalAsHard,
			})
			if err != nil {
				return err
			}
			if flagJSON {
				if err := reporter.JSON(os.Stdout, r); err != nil {
					return err
				}
			} else {
				reporter.PrintValidation(os.Stdout, r)
			}
			if !r.IsValid {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagGoals, "goals", "", "Comma-separated goal ids to include (default: all)")
	return cmd
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <snapshot>",
		Short: "Compute the critical path, parallel groups and optimised sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			newLogger(cfg.Log, false)

			s, goals, edges, err := loadSnapshot(args[0])
			if err != nil {
				return err
			}
			asOf, err := resolveAsOf(s)
			if err != nil {
				return err
			}
			ctx, cancel := engineContext(cmd.Context(), cfg.Engine.Timeout)
			defer cancel()

			plan, err := planner.Optimize(ctx, goals, edges, plannerOptions(cfg, asOf))
			if err != nil {
				return err
			}

			if flagOutput != "" {
				f, err := os.Create(flagOutput)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				if err := reporter.JSON(f, plan); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "📝 Plan written to %s\n", flagOutput)
			}
			if flagJSON {
				return reporter.JSON(os.Stdout, plan)
			}
			reporter.PrintPlan(os.Stdout, plan)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagGoals, "goals", "", "Comma-separated goal ids to include (default: all)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Also write the plan as JSON to this file")
	return cmd
}

func timelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline <snapshot>",
		Short: "Show each goal's earliest and latest start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			newLogger(cfg.Log, false)

			s, goals, edges, err := loadSnapshot(args[0])
			if err != nil {
				return err
			}
			asOf, err := resolveAsOf(s)
			if err != nil {
				return err
			}
			ctx, cancel := engineContext(cmd.Context(), cfg.Engine.Timeout)
			defer cancel()

			entries, err := engine.BuildTimeline(ctx, goals, edges, asOf, cfg.Engine.ConditionalAsHard)
			if err != nil {
				return err
			}
			if flagJSON {
				return reporter.JSON(os.Stdout, entries)
			}
			reporter.PrintTimeline(os.Stdout, entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagGoals, "goals", "", "Comma-separated goal ids to include (default: all)")
	return cmd
}

func vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz <snapshot>",
		Short: "Render the goal dependency graph (ascii or dot)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			newLogger(cfg.Log, false)

			s, goals, edges, err := loadSnapshot(args[0])
			if err != nil {
				return err
			}
			asOf, err := resolveAsOf(s)
			if err != nil {
				return err
			}
			ctx, cancel := engineContext(cmd.Context(), cfg.Engine.Timeout)
			defer cancel()
			plan, err := planner.Optimize(ctx, goals, edges, plannerOptions(cfg, asOf))
			if err != nil {
				return err
			}

			switch flagFormat {
			case "dot":
				reporter.PrintDOT(os.Stdout, plan.Schedule, plan.Graph)
			case "ascii":
				reporter.PrintASCII(os.Stdout, plan.Schedule, plan.Graph)
			default:
				return fmt.Errorf("unsupported format %q (use ascii or dot)", flagFormat)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")
	cmd.Flags().StringVar(&flagGoals, "goals", "", "Comma-separated goal ids to include (default: all)")
	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <snapshot|dir>...",
		Short: "Optimise many snapshot files concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log, false)

			paths, err := expandSnapshots(args)
			if err != nil {
				return err
			}
			var asOf goal.Date
			if flagAsOf != "" {
				if asOf, err = goal.ParseDate(flagAsOf); err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			outcomes, err := batch.Run(ctx, paths, batch.Config{
				MaxParallel: flagMaxParallel,
				Options:     plannerOptions(cfg, asOf),
				Logger:      logger,
				OnDone: func(o batch.Outcome) {
					if flagJSON {
						return
					}
					status := ui.SeverityIcon("ok")
					if o.Err != nil {
						status = ui.SeverityIcon("error")
					}
					fmt.Fprintf(os.Stderr, "%s %s %s\n", status, ui.GoalPrefix(filepath.Base(o.Path)), ui.Dim(o.Elapsed.String()))
				},
			})
			if err != nil {
				return err
			}

			if flagJSON {
				type result struct {
					Path  string        `json:"path"`
					Plan  *planner.Plan `json:"plan,omitempty"`
					Error string        `json:"error,omitempty"`
				}
				out := make([]result, len(outcomes))
				for i, o := range outcomes {
					out[i] = result{Path: o.Path, Plan: o.Plan}
					if o.Err != nil {
						out[i].Error = o.Err.Error()
					}
				}
				return reporter.JSON(os.Stdout, out)
			}
			if failed := reporter.PrintBatch(os.Stdout, outcomes); failed > 0 {
				return fmt.Errorf("%d snapshot(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&flagMaxParallel, "max-parallel", 4, "Max snapshots optimised concurrently")
	return cmd
}

// expandSnapshots replaces directories with the snapshot files they hold.
func expandSnapshots(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(arg, pattern))
			if err != nil {
				return nil, err
			}
			paths = append(paths, matches...)
		}
	}
	if len(paths) == 0 {
		return nil, errors.New("no snapshot files found")
	}
	return paths, nil
}

func engineContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
