// Package batch optimises many snapshot files concurrently.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/planner"
	"github.com/rparkin1/wealthNavigator-sub000/internal/snapshot"
)

// Config controls a batch run.
type Config struct {
	MaxParallel int
	// Options applies to every snapshot. A snapshot's own as_of wins over
	// Options.AsOf; when both are empty Now supplies the date.
	Options planner.Options
	Now     func() time.Time
	Logger  *slog.Logger
	// OnDone, if set, is called as each snapshot finishes. Calls are
	// serialised.
	OnDone func(Outcome)
}

// Outcome is the result for one snapshot file.
type Outcome struct {
	Path    string
	Plan    *planner.Plan
	Err     error
	Elapsed time.Duration
}

// Run optimises each file and returns outcomes in input order. A failing
// snapshot is recorded in its Outcome and does not stop the others; Run
// itself only fails when ctx is cancelled.
func Run(ctx context.Context, paths []string, cfg Config) ([]Outcome, error) {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	outcomes := make([]Outcome, len(paths))
	done := make(chan Outcome)
	reported := make(chan struct{})
	go func() {
		defer close(reported)
		for o := range done {
			if cfg.OnDone != nil {
				cfg.OnDone(o)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxParallel)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			plan, err := optimizeFile(gctx, path, cfg)
			o := Outcome{Path: path, Plan: plan, Err: err, Elapsed: time.Since(start)}
			outcomes[i] = o
			if err != nil {
				cfg.Logger.Warn("snapshot failed", "path", path, "kind", goal.ErrorKind(err), "error", err)
			} else {
				cfg.Logger.Debug("snapshot optimised", "path", path, "goals", len(plan.OptimizedSequence), "elapsed", o.Elapsed)
			}
			done <- o
			return nil
		})
	}
	err := g.Wait()
	close(done)
	<-reported

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return outcomes, fmt.Errorf("batch cancelled: %w", err)
	}
	return outcomes, nil
}

func optimizeFile(ctx context.Context, path string, cfg Config) (*planner.Plan, error) {
	s, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	opts := cfg.Options
	switch {
	case !s.AsOf.IsZero():
		opts.AsOf = s.AsOf
	case opts.AsOf.IsZero():
		opts.AsOf = goal.DateOf(cfg.Now())
	}
	return planner.Optimize(ctx, s.Goals, s.Dependencies, opts)
}

// Summary counts successful and failed outcomes.
func Summary(outcomes []Outcome) (ok, failed int) {
	for _, o := range outcomes {
		if o.Err != nil || o.Plan == nil {
			failed++
			continue
		}
		ok++
	}
	return ok, failed
}
