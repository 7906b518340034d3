package cpm

import "github.com/rparkin1/wealthNavigator-sub000/internal/goal"

// Schedule holds the complete critical path analysis. All times are whole
// months relative to AsOf.
type Schedule struct {
	AsOf          goal.Date
	Nodes         map[string]*Node
	CriticalPath  []string // ordered goal ids, prerequisite first
	TotalDuration int
	Stages        []Stage
	TopoOrder     []string
}

// Node holds the scheduling window for a single goal.
type Node struct {
	GoalID         string
	Duration       int
	ES, EF         int // earliest start/finish
	LS, LF         int // latest start/finish
	Slack          int
	OnCriticalPath bool
	Stage          int

	// Target is the goal's target date in months from AsOf. DeadlineFinish
	// is the latest finish that still lets this goal and everything
	// depending on it meet their targets.
	Target         int
	DeadlineFinish int
	Margin         int // DeadlineFinish - EF; negative means infeasible
}

// ZeroSlack reports whether delaying the goal delays the whole plan.
func (n *Node) ZeroSlack() bool { return n.Slack == 0 }

// Infeasible reports whether the goal, or something gated by it, cannot
// meet its target date under the current dependencies.
func (n *Node) Infeasible() bool { return n.Margin < 0 }

// Stage groups goals that share an earliest start.
type Stage struct {
	Index      int
	GoalIDs    []string
	IsCritical bool // true if the stage holds a zero-slack goal
}

// Date converts a month offset to a calendar date.
func (s *Schedule) Date(months int) goal.Date {
	return s.AsOf.AddMonths(months)
}

// Sources returns the goals with no hard prerequisites, in topological order.
func (s *Schedule) Sources(predecessors map[string][]string) []string {
	var out []string
	for _, id := range s.TopoOrder {
		if len(predecessors[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}
