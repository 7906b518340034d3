package cpm

import (
	"context"
	"fmt"
	"sort"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/graph"
)

// Analyze performs critical path analysis on the hard-precedence subgraph
// of g. Durations come from each goal's DurationMonths. A cyclic graph
// yields *goal.CyclicGraphError; an expired ctx yields goal.ErrTimeout.
func Analyze(ctx context.Context, g *graph.Graph, asOf goal.Date) (*Schedule, error) {
	if cycles := graph.FindCycles(g); len(cycles) > 0 {
		return nil, &goal.CyclicGraphError{Cycles: cycles}
	}
	order, err := topoSort(ctx, g)
	if err != nil {
		return nil, err
	}

	s := &Schedule{
		AsOf:      asOf,
		Nodes:     make(map[string]*Node, len(order)),
		TopoOrder: order,
	}
	for _, id := range order {
		gl := g.Goals[id]
		s.Nodes[id] = &Node{
			GoalID:   id,
			Duration: gl.DurationMonths,
			Target:   goal.MonthsBetween(asOf, gl.TargetDate),
		}
	}

	// Forward pass: ES = max EF of prerequisites
	for _, id := range order {
		if err := checkDeadline(ctx); err != nil {
			return nil, err
		}
		n := s.Nodes[id]
		es := 0
		for _, pred := range g.RevAdj[id] {
			if ef := s.Nodes[pred].EF; ef > es {
				es = ef
			}
		}
		n.ES = es
		n.EF = es + n.Duration
		if n.EF > s.TotalDuration {
			s.TotalDuration = n.EF
		}
	}

	// Backward pass against the plan horizon; a parallel pass against
	// target dates yields the feasibility margin.
	for i := len(order) - 1; i >= 0; i-- {
		if err := checkDeadline(ctx); err != nil {
			return nil, err
		}
		id := order[i]
		n := s.Nodes[id]

		lf := s.TotalDuration
		df := n.Target
		for _, succ := range g.Adj[id] {
			sn := s.Nodes[succ]
			if sn.LS < lf {
				lf = sn.LS
			}
			if d := sn.DeadlineFinish - sn.Duration; d < df {
				df = d
			}
		}
		n.LF = lf
		n.LS = lf - n.Duration
		n.Slack = n.LS - n.ES
		n.DeadlineFinish = df
		n.Margin = df - n.EF
	}

	s.CriticalPath = criticalPath(s, g)
	for _, id := range s.CriticalPath {
		s.Nodes[id].OnCriticalPath = true
	}
	s.Stages = computeStages(s)

	return s, nil
}

func checkDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", goal.ErrTimeout, err)
	}
	return nil
}

// topoSort performs Kahn's algorithm; ready goals are released in caller
// order.
func topoSort(ctx context.Context, g *graph.Graph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Order))
	var ready []string
	for _, id := range g.Order {
		inDegree[id] = len(g.RevAdj[id])
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(g.Order))
	for len(ready) > 0 {
		if err := checkDeadline(ctx); err != nil {
			return nil, err
		}
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)

		released := false
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready = append(ready, succ)
				released = true
			}
		}
		if released {
			sort.SliceStable(ready, func(a, b int) bool {
				return g.Index(ready[a]) < g.Index(ready[b])
			})
		}
	}

	if len(order) != len(g.Order) {
		return nil, fmt.Errorf("topological sort failed: %d of %d goals sorted", len(order), len(g.Order))
	}
	return order, nil
}

// criticalPath walks zero-slack chains from each zero-slack source, taking
// the lexicographically smallest tight successor at every branch, and keeps
// the longest chain that reaches a sink.
func criticalPath(s *Schedule, g *graph.Graph) []string {
	var best []string
	bestLen := -1

	for _, src := range s.Sources(g.RevAdj) {
		if !s.Nodes[src].ZeroSlack() {
			continue
		}
		chain := []string{src}
		length := s.Nodes[src].Duration
		cur := src
		for len(g.Adj[cur]) > 0 {
			next := ""
			for _, succ := range g.Adj[cur] {
				sn := s.Nodes[succ]
				if !sn.ZeroSlack() || sn.ES != s.Nodes[cur].EF {
					continue
				}
				if next == "" || succ < next {
					next = succ
				}
			}
			if next == "" {
				break
			}
			chain = append(chain, next)
			length += s.Nodes[next].Duration
			cur = next
		}
		if len(g.Adj[cur]) > 0 {
			continue
		}

		switch {
		case length > bestLen:
		case length == bestLen && src < best[0]:
		default:
			continue
		}
		best, bestLen = chain, length
	}
	return best
}

// computeStages groups goals by earliest start, zero-slack goals first.
func computeStages(s *Schedule) []Stage {
	byStart := make(map[int][]string)
	for _, id := range s.TopoOrder {
		es := s.Nodes[id].ES
		byStart[es] = append(byStart[es], id)
	}

	starts := make([]int, 0, len(byStart))
	for es := range byStart {
		starts = append(starts, es)
	}
	sort.Ints(starts)

	stages := make([]Stage, len(starts))
	for i, es := range starts {
		ids := byStart[es]
		sort.Strings(ids)

		hasCritical := false
		for _, id := range ids {
			s.Nodes[id].Stage = i
			if s.Nodes[id].ZeroSlack() {
				hasCritical = true
			}
		}
		sort.SliceStable(ids, func(a, b int) bool {
			return s.Nodes[ids[a]].ZeroSlack() && !s.Nodes[ids[b]].ZeroSlack()
		})

		stages[i] = Stage{Index: i, GoalIDs: ids, IsCritical: hasCritical}
	}
	return stages
}
