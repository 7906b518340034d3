// Package planner turns a validated goal snapshot into an optimised plan:
// a deterministic goal sequence, parallel groups, the critical path and
// plain-language recommendations.
package planner

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/rparkin1/wealthNavigator-sub000/internal/cpm"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/graph"
	"github.com/rparkin1/wealthNavigator-sub000/internal/grouper"
	"github.com/rparkin1/wealthNavigator-sub000/internal/validator"
)

// Optimize validates the snapshot and, if it is acyclic and well formed,
// schedules it and builds a Plan. Cycles yield *goal.CyclicGraphError;
// referential or semantic problems are returned as-is (joined when there
// are several).
func Optimize(ctx context.Context, goals []goal.Goal, edges []goal.DependencyEdge, opts Options) (*Plan, error) {
	in, err := validator.Inspect(ctx, goals, edges, opts.validatorOptions())
	if err != nil {
		return nil, err
	}
	if cycles := in.Report.CyclesDetected; len(cycles) > 0 {
		return nil, &goal.CyclicGraphError{Cycles: cycles}
	}
	switch len(in.Problems) {
	case 0:
	case 1:
		return nil, in.Problems[0]
	default:
		return nil, errors.Join(in.Problems...)
	}

	s, g := in.Schedule, in.Graph
	order, err := sequence(ctx, s, g)
	if err != nil {
		return nil, err
	}
	groups := grouper.GroupParallel(s, g)

	recs, err := recommend(s, g, groups, in.Report.Warnings, opts.slackNotice())
	if err != nil {
		return nil, fmt.Errorf("render recommendations: %w", err)
	}

	p := &Plan{
		OptimizedSequence:   order,
		ParallelGroups:      groups,
		CriticalPath:        s.CriticalPath,
		TotalDurationMonths: s.TotalDuration,
		Recommendations:     recs,
		Warnings:            in.Report.Warnings,
		Schedule:            s,
		Graph:               g,
	}
	if p.ParallelGroups == nil {
		p.ParallelGroups = [][]string{}
	}
	if p.CriticalPath == nil {
		p.CriticalPath = []string{}
	}
	return p, nil
}

// sequence is a topological order that releases ready goals by ascending
// slack, then priority (essential first), then earliest start, then id.
func sequence(ctx context.Context, s *cpm.Schedule, g *graph.Graph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Order))
	ready := &readyQueue{s: s, g: g}
	for _, id := range g.Order {
		inDegree[id] = len(g.RevAdj[id])
		if inDegree[id] == 0 {
			ready.ids = append(ready.ids, id)
		}
	}
	heap.Init(ready)

	order := make([]string, 0, len(g.Order))
	for ready.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", goal.ErrTimeout, err)
		}
		id := heap.Pop(ready).(string)
		order = append(order, id)
		for _, succ := range g.Adj[id] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				heap.Push(ready, succ)
			}
		}
	}
	return order, nil
}

type readyQueue struct {
	ids []string
	s   *cpm.Schedule
	g   *graph.Graph
}

func (q *readyQueue) Len() int { return len(q.ids) }

func (q *readyQueue) Less(i, j int) bool {
	a, b := q.s.Nodes[q.ids[i]], q.s.Nodes[q.ids[j]]
	if a.Slack != b.Slack {
		return a.Slack < b.Slack
	}
	pa, pb := q.g.Goals[a.GoalID].Priority, q.g.Goals[b.GoalID].Priority
	if pa != pb {
		return pa > pb
	}
	if a.ES != b.ES {
		return a.ES < b.ES
	}
	return a.GoalID < b.GoalID
}

func (q *readyQueue) Swap(i, j int) { q.ids[i], q.ids[j] = q.ids[j], q.ids[i] }

func (q *readyQueue) Push(x any) { q.ids = append(q.ids, x.(string)) }

func (q *readyQueue) Pop() any {
	old := q.ids
	n := len(old)
	id := old[n-1]
	q.ids = old[:n-1]
	return id
}
