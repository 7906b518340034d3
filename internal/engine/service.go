// Package engine is the service facade over the scheduling engine. It
// resolves goal ids through a goal source, selects the stored edges between
// those goals, applies deadlines and caches results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goalstore"
	"github.com/rparkin1/wealthNavigator-sub000/internal/metrics"
	"github.com/rparkin1/wealthNavigator-sub000/internal/planner"
	"github.com/rparkin1/wealthNavigator-sub000/internal/snapshot"
	"github.com/rparkin1/wealthNavigator-sub000/internal/store"
	"github.com/rparkin1/wealthNavigator-sub000/internal/validator"
)

var zeroTime time.Time

// Options configures engine computations.
type Options struct {
	HorizonMonths     int           `json:"horizon_months"`
	ConditionalAsHard bool          `json:"conditional_as_hard"`
	Timeout           time.Duration `json:"timeout"`
}

// Request names the goals a computation covers. A zero AsOf means today.
type Request struct {
	GoalIDs []string
	AsOf    goal.Date
}

// Service wires a goal source and an edge store to the engine.
type Service struct {
	goals   goalstore.Source
	edges   *store.Store
	cache   *Cache
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

func WithCache(c *Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the clock that supplies the default as-of date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTracer(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(tracerName) }
}

const tracerName = "github.com/rparkin1/wealthNavigator-sub000/internal/engine"

// New returns a Service.
func New(goals goalstore.Source, edges *store.Store, opts Options, options ...Option) *Service {
	s := &Service{
		goals:  goals,
		edges:  edges,
		opts:   opts,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, o := range options {
		o(s)
	}
	s.logger = s.logger.With("component", "engine")
	return s
}

// snapshotFor loads the requested goals and the stored edges between them.
func (s *Service) snapshotFor(ctx context.Context, req Request) ([]goal.Goal, []goal.DependencyEdge, error) {
	if len(req.GoalIDs) == 0 {
		return nil, nil, &goal.ReferentialError{Kind: goal.KindUnknownGoal, Detail: "goal_ids must not be empty"}
	}
	goals, err := s.goals.Goals(ctx, req.GoalIDs)
	if err != nil {
		s.logger.Warn("goal lookup failed", "goals", len(req.GoalIDs), "error", err)
		return nil, nil, timeoutOr(err)
	}
	all, err := s.edges.List(ctx)
	if err != nil {
		return nil, nil, timeoutOr(err)
	}
	in := make(map[string]bool, len(goals))
	for _, g := range goals {
		in[g.ID] = true
	}
	return goals, snapshot.EdgesWithin(all, in), nil
}

func (s *Service) asOf(req Request) goal.Date {
	if !req.AsOf.IsZero() {
		return req.AsOf
	}
	return goal.DateOf(s.now())
}

// run wraps one engine operation with deadline, span, cache and metrics.
func (s *Service) run(ctx context.Context, op string, req Request, compute func(context.Context, []goal.Goal, []goal.DependencyEdge, goal.Date) (any, error)) (any, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "engine."+op, trace.WithAttributes(
		attribute.Int("goalgraph.goal_count", len(req.GoalIDs)),
	))
	defer span.End()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	result, err := func() (any, error) {
		goals, edges, err := s.snapshotFor(ctx, req)
		if err != nil {
			return nil, err
		}
		asOf := s.asOf(req)
		span.SetAttributes(attribute.Int("goalgraph.edge_count", len(edges)), attribute.String("goalgraph.as_of", asOf.String()))

		key, kerr := cacheKey(op, asOf, s.opts, goals, edges)
		if kerr == nil {
			if v, ok := s.cache.get(key); ok {
				s.metrics.CacheResult(op, true)
				s.logger.Debug("cache hit", "op", op, "goals", len(goals))
				span.SetAttributes(attribute.Bool("goalgraph.cache_hit", true))
				return v, nil
			}
			s.metrics.CacheResult(op, false)
		}

		v, err := compute(ctx, goals, edges, asOf)
		if err != nil {
			return nil, timeoutOr(err)
		}
		if kerr == nil {
			s.cache.set(key, v)
		}
		return v, nil
	}()

	s.metrics.ObserveCompute(op, err, len(req.GoalIDs), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, goal.ErrorKind(err))
	}
	return result, err
}

// Validate reports errors and warnings for the requested goals.
func (s *Service) Validate(ctx context.Context, req Request) (*validator.Report, error) {
	v, err := s.run(ctx, "validate", req, func(ctx context.Context, goals []goal.Goal, edges []goal.DependencyEdge, asOf goal.Date) (any, error) {
		r, err := validator.Validate(ctx, goals, edges, validator.Options{
			AsOf:              asOf,
			HorizonMonths:     s.opts.HorizonMonths,
			ConditionalAsHard: s.opts.ConditionalAsHard,
		})
		if err == nil {
			s.metrics.AddCycles(len(r.CyclesDetected))
		}
		return r, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*validator.Report), nil
}

// Optimize builds the optimised plan for the requested goals.
func (s *Service) Optimize(ctx context.Context, req Request) (*planner.Plan, error) {
	v, err := s.run(ctx, "optimize", req, func(ctx context.Context, goals []goal.Goal, edges []goal.DependencyEdge, asOf goal.Date) (any, error) {
		return planner.Optimize(ctx, goals, edges, planner.Options{
			AsOf:              asOf,
			HorizonMonths:     s.opts.HorizonMonths,
			ConditionalAsHard: s.opts.ConditionalAsHard,
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*planner.Plan), nil
}

// Timeline returns one scheduling window per requested goal.
func (s *Service) Timeline(ctx context.Context, req Request) ([]TimelineEntry, error) {
	v, err := s.run(ctx, "timeline", req, func(ctx context.Context, goals []goal.Goal, edges []goal.DependencyEdge, asOf goal.Date) (any, error) {
		return BuildTimeline(ctx, goals, edges, asOf, s.opts.ConditionalAsHard)
	})
	if err != nil {
		return nil, err
	}
	return v.([]TimelineEntry), nil
}

func timeoutOr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, goal.ErrTimeout) {
		return fmt.Errorf("%w: %v", goal.ErrTimeout, err)
	}
	return err
}
