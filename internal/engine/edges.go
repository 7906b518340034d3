package engine

import (
	"context"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/store"
)

// CreateEdge validates e, checks that both goals exist and stores it.
// Self-dependencies and malformed edges are rejected before any goal
// lookup.
func (s *Service) CreateEdge(ctx context.Context, e goal.DependencyEdge) (goal.DependencyEdge, error) {
	created, err := s.createEdge(ctx, e)
	s.metrics.EdgeMutation("create", err)
	return created, err
}

func (s *Service) createEdge(ctx context.Context, e goal.DependencyEdge) (goal.DependencyEdge, error) {
	if err := goal.CheckEdge(e); err != nil {
		return goal.DependencyEdge{}, err
	}
	if _, err := s.goals.Goals(ctx, []string{e.SourceGoalID, e.TargetGoalID}); err != nil {
		return goal.DependencyEdge{}, timeoutOr(err)
	}
	created, err := s.edges.Create(ctx, e)
	if err != nil {
		return goal.DependencyEdge{}, err
	}
	s.logger.Info("dependency created", "id", created.ID, "source", created.SourceGoalID, "target", created.TargetGoalID, "type", created.Type.String())
	return created, nil
}

// Edge returns one stored edge.
func (s *Service) Edge(ctx context.Context, id string) (goal.DependencyEdge, error) {
	return s.edges.Get(ctx, id)
}

// Edges lists every stored edge.
func (s *Service) Edges(ctx context.Context) ([]goal.DependencyEdge, error) {
	return s.edges.List(ctx)
}

// EdgesForGoal returns the edges where goalID is the dependent
// (dependencies) and where it is the prerequisite (dependents).
func (s *Service) EdgesForGoal(ctx context.Context, goalID string) (dependencies, dependents []goal.DependencyEdge, err error) {
	return s.edges.ForGoal(ctx, goalID)
}

// UpdateEdge applies a patch to a stored edge.
func (s *Service) UpdateEdge(ctx context.Context, id string, p store.Patch) (goal.DependencyEdge, error) {
	e, err := s.edges.Update(ctx, id, p)
	s.metrics.EdgeMutation("update", err)
	if err == nil {
		s.logger.Info("dependency updated", "id", id)
	}
	return e, err
}

// DeleteEdge removes a stored edge.
func (s *Service) DeleteEdge(ctx context.Context, id string) error {
	err := s.edges.Delete(ctx, id)
	s.metrics.EdgeMutation("delete", err)
	if err == nil {
		s.logger.Info("dependency deleted", "id", id)
	}
	return err
}
