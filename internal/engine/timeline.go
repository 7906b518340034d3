package engine

import (
	"context"

	"github.com/rparkin1/wealthNavigator-sub000/internal/cpm"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/graph"
)

// TimelineEntry is one goal's scheduling window. Dependencies and
// dependents list neighbours over every edge type.
type TimelineEntry struct {
	GoalID         string    `json:"goal_id"`
	GoalTitle      string    `json:"goal_title"`
	EarliestStart  goal.Date `json:"earliest_start"`
	LatestStart    goal.Date `json:"latest_start"`
	DurationMonths int       `json:"duration_months"`
	Dependencies   []string  `json:"dependencies"`
	Dependents     []string  `json:"dependents"`
}

// BuildTimeline schedules goals and returns their windows in goal order.
func BuildTimeline(ctx context.Context, goals []goal.Goal, edges []goal.DependencyEdge, asOf goal.Date, conditionalAsHard bool) ([]TimelineEntry, error) {
	for _, g := range goals {
		if err := goal.CheckGoal(g); err != nil {
			return nil, err
		}
	}
	g, err := graph.Build(goals, edges, graph.Options{ConditionalAsHard: conditionalAsHard})
	if err != nil {
		return nil, err
	}
	s, err := cpm.Analyze(ctx, g, asOf)
	if err != nil {
		return nil, err
	}
	return timelineFrom(s, g), nil
}

func timelineFrom(s *cpm.Schedule, g *graph.Graph) []TimelineEntry {
	deps := make(map[string][]string)
	dependents := make(map[string][]string)
	seen := make(map[[2]string]bool)
	for _, e := range g.Edges() {
		pair := [2]string{e.SourceGoalID, e.TargetGoalID}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		deps[e.SourceGoalID] = append(deps[e.SourceGoalID], e.TargetGoalID)
		dependents[e.TargetGoalID] = append(dependents[e.TargetGoalID], e.SourceGoalID)
	}

	out := make([]TimelineEntry, 0, len(g.Order))
	for _, id := range g.Order {
		n := s.Nodes[id]
		entry := TimelineEntry{
			GoalID:         id,
			GoalTitle:      g.Goals[id].DisplayName(),
			EarliestStart:  s.Date(n.ES),
			LatestStart:    s.Date(n.LS),
			DurationMonths: n.Duration,
			Dependencies:   deps[id],
			Dependents:     dependents[id],
		}
		if entry.Dependencies == nil {
			entry.Dependencies = []string{}
		}
		if entry.Dependents == nil {
			entry.Dependents = []string{}
		}
		out = append(out, entry)
	}
	return out
}
