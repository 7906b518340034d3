package graph

import "github.com/rparkin1/wealthNavigator-sub000/internal/goal"

// Options controls how dependency types map onto precedence.
type Options struct {
	// ConditionalAsHard promotes conditional edges into hard precedence so
	// they take part in cycle detection and scheduling.
	ConditionalAsHard bool
}

// Graph is the per-call view of a goal snapshot. Hard-precedence edges are
// indexed in both directions; advisory and link edges are kept as lists.
type Graph struct {
	Goals map[string]goal.Goal
	Order []string // goal ids in caller-supplied order

	Adj    map[string][]string // prerequisite -> goals that depend on it
	RevAdj map[string][]string // goal -> its hard prerequisites
	Roots  []string            // goals with no hard prerequisites
	Leaves []string            // goals nothing depends on

	Precedence []goal.DependencyEdge
	Advisory   []goal.DependencyEdge
	Links      []goal.DependencyEdge

	opts  Options
	index map[string]int
}

// GoalCount returns the number of goals in the graph.
func (g *Graph) GoalCount() int {
	return len(g.Order)
}

// Index returns the position of id in the caller-supplied goal order, or -1.
func (g *Graph) Index(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Options returns the options the graph was built with.
func (g *Graph) Options() Options { return g.opts }

// Edges returns every accepted edge in input order.
func (g *Graph) Edges() []goal.DependencyEdge {
	out := make([]goal.DependencyEdge, 0, len(g.Precedence)+len(g.Advisory)+len(g.Links))
	out = append(out, g.Precedence...)
	out = append(out, g.Advisory...)
	out = append(out, g.Links...)
	return out
}

// IsHard reports whether e constrains scheduling under the graph's options.
func (g *Graph) IsHard(e goal.DependencyEdge) bool {
	return isHard(e.Type, g.opts)
}

func isHard(t goal.DependencyType, opts Options) bool {
	switch t.Class() {
	case goal.ClassHard:
		return true
	case goal.ClassAdvisory:
		return opts.ConditionalAsHard
	case goal.ClassLink, goal.ClassNone:
		return false
	}
	return false
}
