// Package goalstore resolves goal ids to the goal records the engine reads.
// Goals are owned elsewhere; sources here are read-only.
package goalstore

import (
	"context"
	"fmt"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

// Source looks up goals by id. Implementations return the goals in the
// order requested and a *goal.ReferentialError for unknown ids.
type Source interface {
	Goals(ctx context.Context, ids []string) ([]goal.Goal, error)
}

// Static serves goals from an in-memory set, typically a snapshot file.
type Static struct {
	goals map[string]goal.Goal
}

// NewStatic indexes goals by id. Later duplicates replace earlier ones.
func NewStatic(goals []goal.Goal) *Static {
	s := &Static{goals: make(map[string]goal.Goal, len(goals))}
	for _, g := range goals {
		s.goals[g.ID] = g
	}
	return s
}

func (s *Static) Goals(ctx context.Context, ids []string) ([]goal.Goal, error) {
	out := make([]goal.Goal, 0, len(ids))
	for _, id := range ids {
		g, ok := s.goals[id]
		if !ok {
			return nil, unknownGoal(id)
		}
		out = append(out, g)
	}
	return out, nil
}

func unknownGoal(id string) error {
	return &goal.ReferentialError{
		Kind:   goal.KindUnknownGoal,
		GoalID: id,
		Detail: fmt.Sprintf("goal %q does not exist", id),
	}
}
