package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

// BuildError collects every referential problem found while building a
// graph. Unwrap exposes the individual errors to errors.As.
type BuildError struct {
	Problems []error
}

func (e *BuildError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return fmt.Sprintf("invalid dependency graph: %s", strings.Join(msgs, "; "))
}

func (e *BuildError) Unwrap() []error { return e.Problems }

// Build constructs a Graph from a goal set and its edges. Any edge that
// references an unknown goal, points at itself, repeats an existing
// (source, target, type) triple or carries an invalid type fails the whole
// build.
func Build(goals []goal.Goal, edges []goal.DependencyEdge, opts Options) (*Graph, error) {
	g, err := BuildPartial(goals, edges, opts)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// BuildPartial is Build for callers that want to keep going: the returned
// graph excludes rejected edges and the *BuildError lists them.
func BuildPartial(goals []goal.Goal, edges []goal.DependencyEdge, opts Options) (*Graph, error) {
	g := &Graph{
		Goals:  make(map[string]goal.Goal, len(goals)),
		Adj:    make(map[string][]string),
		RevAdj: make(map[string][]string),
		opts:   opts,
		index:  make(map[string]int, len(goals)),
	}
	var problems []error

	for _, gl := range goals {
		if _, dup := g.Goals[gl.ID]; dup {
			problems = append(problems, &goal.ReferentialError{
				Kind:   goal.KindDuplicateGoal,
				GoalID: gl.ID,
				Detail: fmt.Sprintf("goal %q appears more than once", gl.ID),
			})
			continue
		}
		g.index[gl.ID] = len(g.Order)
		g.Order = append(g.Order, gl.ID)
		g.Goals[gl.ID] = gl
	}

	seen := make(map[goal.EdgeKey]string)
	pairs := make(map[[2]string]bool)
	addPrecedence := func(prereq, dependent string) {
		key := [2]string{prereq, dependent}
		if pairs[key] {
			return
		}
		pairs[key] = true
		g.Adj[prereq] = append(g.Adj[prereq], dependent)
		g.RevAdj[dependent] = append(g.RevAdj[dependent], prereq)
	}

	for _, e := range edges {
		if err := g.checkEdge(e, seen); err != nil {
			problems = append(problems, err)
			continue
		}
		seen[e.Key()] = e.ID

		switch e.Type.Class() {
		case goal.ClassHard:
			g.Precedence = append(g.Precedence, e)
			addPrecedence(e.TargetGoalID, e.SourceGoalID)
		case goal.ClassAdvisory:
			g.Advisory = append(g.Advisory, e)
			if opts.ConditionalAsHard {
				addPrecedence(e.TargetGoalID, e.SourceGoalID)
			}
		case goal.ClassLink:
			g.Links = append(g.Links, e)
		case goal.ClassNone:
		}
	}

	// Adjacency follows goal order so traversals are deterministic.
	for k := range g.Adj {
		g.sortByOrder(g.Adj[k])
	}
	for k := range g.RevAdj {
		g.sortByOrder(g.RevAdj[k])
	}

	for _, id := range g.Order {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	if len(problems) > 0 {
		return g, &BuildError{Problems: problems}
	}
	return g, nil
}

func (g *Graph) checkEdge(e goal.DependencyEdge, seen map[goal.EdgeKey]string) error {
	for _, id := range []string{e.SourceGoalID, e.TargetGoalID} {
		if _, ok := g.Goals[id]; !ok {
			return &goal.ReferentialError{
				Kind:   goal.KindUnknownGoal,
				EdgeID: e.ID,
				GoalID: id,
				Detail: fmt.Sprintf("dependency %s references unknown goal %q", edgeLabel(e), id),
			}
		}
	}
	if e.SourceGoalID == e.TargetGoalID {
		return &goal.ReferentialError{
			Kind:   goal.KindSelfEdge,
			EdgeID: e.ID,
			GoalID: e.SourceGoalID,
			Detail: fmt.Sprintf("goal %q cannot depend on itself", e.SourceGoalID),
		}
	}
	if !e.Type.Valid() {
		return &goal.SemanticError{
			Kind:   goal.KindInvalidType,
			EdgeID: e.ID,
			Detail: fmt.Sprintf("dependency %s has invalid type", edgeLabel(e)),
		}
	}
	if prev, dup := seen[e.Key()]; dup {
		return &goal.ReferentialError{
			Kind:   goal.KindDuplicateEdge,
			EdgeID: e.ID,
			GoalID: e.SourceGoalID,
			Detail: fmt.Sprintf("dependency %s duplicates %s %s -> %s (%q)", edgeLabel(e), e.Type, e.SourceGoalID, e.TargetGoalID, prev),
		}
	}
	return nil
}

func edgeLabel(e goal.DependencyEdge) string {
	if e.ID != "" {
		return fmt.Sprintf("%q", e.ID)
	}
	return fmt.Sprintf("%s -> %s", e.SourceGoalID, e.TargetGoalID)
}

func (g *Graph) sortByOrder(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return g.index[ids[i]] < g.index[ids[j]]
	})
}

// FindCycles returns every distinct cycle in the hard-precedence subgraph,
// or nil if it is acyclic. Each cycle lists goals in depends-on order: the
// first goal depends on the second, and so on, and the last depends on the
// first. Goals are visited in caller order, so identical input yields
// identical output.
// Uses DFS with coloring: white (unvisited), gray (on the stack), black (done).
func FindCycles(g *Graph) [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.Order))
	var stack []string
	var cycles [][]string
	reported := make(map[string]bool)

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		stack = append(stack, node)
		for _, prereq := range g.RevAdj[node] {
			switch color[prereq] {
			case gray:
				start := len(stack) - 1
				for stack[start] != prereq {
					start--
				}
				cycle := append([]string(nil), stack[start:]...)
				key := canonicalKey(cycle)
				if !reported[key] {
					reported[key] = true
					cycles = append(cycles, cycle)
				}
			case white:
				dfs(prereq)
			}
		}
		stack = stack[:len(stack)-1]
		color[node] = black
	}

	for _, id := range g.Order {
		if color[id] == white {
			dfs(id)
		}
	}
	return cycles
}

// canonicalKey identifies a cycle independent of where it starts.
func canonicalKey(cycle []string) string {
	lo := 0
	for i := range cycle {
		if cycle[i] < cycle[lo] {
			lo = i
		}
	}
	rotated := append(append([]string(nil), cycle[lo:]...), cycle[:lo]...)
	return strings.Join(rotated, "\x00")
}

// Reachability answers hard-precedence ancestry questions. It is computed
// once per graph.
type Reachability struct {
	descendants map[string]map[string]bool
}

// NewReachability computes, for every goal, the set of goals that depend on
// it directly or transitively.
func NewReachability(g *Graph) *Reachability {
	r := &Reachability{descendants: make(map[string]map[string]bool, len(g.Order))}
	for _, id := range g.Order {
		seen := make(map[string]bool)
		queue := append([]string(nil), g.Adj[id]...)
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			if seen[n] {
				continue
			}
			seen[n] = true
			queue = append(queue, g.Adj[n]...)
		}
		r.descendants[id] = seen
	}
	return r
}

// Precedes reports whether b depends on a through a chain of hard edges.
func (r *Reachability) Precedes(a, b string) bool {
	return r.descendants[a][b]
}

// Related reports whether either goal is a hard-precedence ancestor of the
// other.
func (r *Reachability) Related(a, b string) bool {
	return r.Precedes(a, b) || r.Precedes(b, a)
}
