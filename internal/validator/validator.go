// Package validator checks a goal snapshot and its dependency edges and
// reports hard errors separately from advisory warnings.
package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rparkin1/wealthNavigator-sub000/internal/cpm"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/graph"
)

// DefaultHorizonMonths is the longest plan considered plausible (50 years).
const DefaultHorizonMonths = 600

// Warning kinds.
const (
	KindInfeasibleTimeline   = "infeasible_timeline"
	KindLinkedWindowMismatch = "linked_window_mismatch"
	KindHorizonExceeded      = "horizon_exceeded"
	KindConditionalAmbiguity = "conditional_ambiguity"
	KindCycle                = "cycle"
)

// Options configures a validation run.
type Options struct {
	AsOf              goal.Date
	HorizonMonths     int
	ConditionalAsHard bool
}

func (o Options) horizon() int {
	if o.HorizonMonths <= 0 {
		return DefaultHorizonMonths
	}
	return o.HorizonMonths
}

// Issue is one error or warning in a Report.
type Issue struct {
	Kind    string `json:"kind"`
	GoalID  string `json:"goal_id,omitempty"`
	EdgeID  string `json:"edge_id,omitempty"`
	Message string `json:"message"`
}

// Report is the outcome of Validate. Warnings never affect IsValid.
type Report struct {
	IsValid        bool       `json:"is_valid"`
	Errors         []Issue    `json:"errors"`
	Warnings       []Issue    `json:"warnings"`
	CyclesDetected [][]string `json:"cycles_detected"`
}

// Inspection carries the intermediate results of a validation run so that
// callers can reuse the graph and schedule.
type Inspection struct {
	Report *Report
	Graph  *graph.Graph
	// Schedule is nil when the snapshot is cyclic or holds invalid goals.
	Schedule *cpm.Schedule
	// Problems are the typed errors behind Report.Errors, excluding cycles.
	Problems []error
}

// Validate runs every check and returns the report. The only error it
// returns is goal.ErrTimeout when ctx expires.
func Validate(ctx context.Context, goals []goal.Goal, edges []goal.DependencyEdge, opts Options) (*Report, error) {
	in, err := Inspect(ctx, goals, edges, opts)
	if err != nil {
		return nil, err
	}
	return in.Report, nil
}

// Inspect is Validate that also returns the graph and schedule it built.
func Inspect(ctx context.Context, goals []goal.Goal, edges []goal.DependencyEdge, opts Options) (*Inspection, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", goal.ErrTimeout, err)
	}
	in := &Inspection{Report: &Report{
		Errors:         []Issue{},
		Warnings:       []Issue{},
		CyclesDetected: [][]string{},
	}}
	r := in.Report

	goalsOK := true
	for _, gl := range goals {
		if err := goal.CheckGoal(gl); err != nil {
			goalsOK = false
			in.addProblem(err)
		}
	}

	g, err := graph.BuildPartial(goals, edges, graph.Options{ConditionalAsHard: opts.ConditionalAsHard})
	var be *graph.BuildError
	if errors.As(err, &be) {
		for _, p := range be.Problems {
			in.addProblem(p)
		}
	}
	in.Graph = g

	for _, e := range g.Edges() {
		if err := goal.CheckCondition(e); err != nil {
			in.addProblem(err)
		}
	}

	cycles := graph.FindCycles(g)
	for _, c := range cycles {
		r.CyclesDetected = append(r.CyclesDetected, c)
		r.Errors = append(r.Errors, Issue{
			Kind:    KindCycle,
			GoalID:  c[0],
			Message: "dependency cycle detected: " + goal.FormatCycle(c),
		})
	}

	reach := graph.NewReachability(g)
	if !opts.ConditionalAsHard {
		r.Warnings = append(r.Warnings, conditionalAmbiguities(g, reach)...)
	}

	if len(cycles) == 0 && goalsOK {
		s, err := cpm.Analyze(ctx, g, opts.AsOf)
		if err != nil {
			return nil, err
		}
		in.Schedule = s
		r.Warnings = append(r.Warnings, infeasible(s, g)...)
		r.Warnings = append(r.Warnings, linkedMismatches(s, g)...)
		r.Warnings = append(r.Warnings, horizonExceeded(s, g, opts.horizon())...)
	}

	r.IsValid = len(r.Errors) == 0
	return in, nil
}

func (in *Inspection) addProblem(err error) {
	in.Problems = append(in.Problems, err)
	issue := Issue{Kind: goal.ErrorKind(err), Message: err.Error()}
	var ref *goal.ReferentialError
	var sem *goal.SemanticError
	switch {
	case errors.As(err, &ref):
		issue.GoalID, issue.EdgeID = ref.GoalID, ref.EdgeID
	case errors.As(err, &sem):
		issue.GoalID, issue.EdgeID = sem.GoalID, sem.EdgeID
	}
	in.Report.Errors = append(in.Report.Errors, issue)
}

// conditionalAmbiguities flags conditional edges pointing against an
// existing hard chain: source depends on target conditionally while target
// already depends on source.
func conditionalAmbiguities(g *graph.Graph, reach *graph.Reachability) []Issue {
	var out []Issue
	for _, e := range g.Advisory {
		if !reach.Precedes(e.SourceGoalID, e.TargetGoalID) {
			continue
		}
		out = append(out, Issue{
			Kind:   KindConditionalAmbiguity,
			GoalID: e.SourceGoalID,
			EdgeID: e.ID,
			Message: fmt.Sprintf("conditional dependency %s -> %s (%q) conflicts with hard ordering: %s already depends on %s",
				e.SourceGoalID, e.TargetGoalID, e.Condition, e.TargetGoalID, e.SourceGoalID),
		})
	}
	return out
}

func infeasible(s *cpm.Schedule, g *graph.Graph) []Issue {
	var out []Issue
	for _, id := range g.Order {
		n := s.Nodes[id]
		if !n.Infeasible() {
			continue
		}
		var msg string
		if n.EF > n.Target {
			msg = fmt.Sprintf("goal %s cannot finish before %s, after its target date %s (%d months late)",
				id, s.Date(n.EF), g.Goals[id].TargetDate, n.EF-n.Target)
		} else {
			msg = fmt.Sprintf("goal %s must finish by %s for dependent goals to meet their targets, but cannot finish before %s",
				id, s.Date(n.DeadlineFinish), s.Date(n.EF))
		}
		out = append(out, Issue{Kind: KindInfeasibleTimeline, GoalID: id, Message: msg})
	}
	return out
}

func linkedMismatches(s *cpm.Schedule, g *graph.Graph) []Issue {
	var out []Issue
	for _, e := range g.Links {
		a, b := s.Nodes[e.SourceGoalID], s.Nodes[e.TargetGoalID]
		if max(a.ES, b.ES) <= min(a.LS, b.LS) {
			continue
		}
		out = append(out, Issue{
			Kind:   KindLinkedWindowMismatch,
			GoalID: e.SourceGoalID,
			EdgeID: e.ID,
			Message: fmt.Sprintf("linked goals %s and %s have non-overlapping start windows (%s..%s vs %s..%s)",
				e.SourceGoalID, e.TargetGoalID,
				s.Date(a.ES), s.Date(a.LS), s.Date(b.ES), s.Date(b.LS)),
		})
	}
	return out
}

func horizonExceeded(s *cpm.Schedule, g *graph.Graph, horizon int) []Issue {
	var out []Issue
	for _, id := range g.Leaves {
		n := s.Nodes[id]
		if n.EF <= horizon {
			continue
		}
		out = append(out, Issue{
			Kind:   KindHorizonExceeded,
			GoalID: id,
			Message: fmt.Sprintf("dependency chain ending at %s runs %d months, beyond the %d-month planning horizon; check durations for data-entry errors",
				id, n.EF, horizon),
		})
	}
	return out
}
