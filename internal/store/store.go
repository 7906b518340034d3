// Package store persists dependency edges. Goals live in the goal service;
// this package only owns the edges between them.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

// backend is the raw key/value surface each storage engine provides. get
// and remove return goal.ErrNotFound for unknown ids.
type backend interface {
	put(ctx context.Context, e goal.DependencyEdge) error
	get(ctx context.Context, id string) (goal.DependencyEdge, error)
	all(ctx context.Context) ([]goal.DependencyEdge, error)
	remove(ctx context.Context, id string) error
	close() error
}

// Store validates and persists dependency edges. Every backend shares the
// same rules: edges pass goal.CheckEdge and no two edges share a
// (source, target, type) triple.
type Store struct {
	b      backend
	name   string
	logger *slog.Logger

	// mu serialises writes so the duplicate check and the write are atomic.
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func newStore(name string, b backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		b:      b,
		name:   name,
		logger: logger.With("component", "store", "backend", name),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Backend names the storage engine behind the store.
func (s *Store) Backend() string { return s.name }

// Patch lists the fields Update may change. Nil fields are left alone.
type Patch struct {
	Type        *goal.DependencyType
	Description *string
	Condition   *string
}

// Create assigns an id and timestamps and stores e.
func (s *Store) Create(ctx context.Context, e goal.DependencyEdge) (goal.DependencyEdge, error) {
	if err := goal.CheckEdge(e); err != nil {
		return goal.DependencyEdge{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDuplicate(ctx, e, ""); err != nil {
		return goal.DependencyEdge{}, err
	}
	e.ID = s.newID()
	e.CreatedAt = s.now().UTC()
	e.UpdatedAt = e.CreatedAt
	if err := s.b.put(ctx, e); err != nil {
		return goal.DependencyEdge{}, fmt.Errorf("store dependency: %w", err)
	}
	s.logger.Debug("dependency created", "id", e.ID, "source", e.SourceGoalID, "target", e.TargetGoalID, "type", e.Type.String())
	return e, nil
}

// Get returns the edge with the given id.
func (s *Store) Get(ctx context.Context, id string) (goal.DependencyEdge, error) {
	e, err := s.b.get(ctx, id)
	if err != nil {
		return goal.DependencyEdge{}, wrapNotFound(id, err)
	}
	return e, nil
}

// List returns every edge, oldest first.
func (s *Store) List(ctx context.Context) ([]goal.DependencyEdge, error) {
	edges, err := s.b.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.Before(edges[j].CreatedAt)
		}
		return edges[i].ID < edges[j].ID
	})
	return edges, nil
}

// ForGoal splits the edges touching goalID into its dependencies (edges
// where it is the source) and its dependents (edges where it is the
// target).
func (s *Store) ForGoal(ctx context.Context, goalID string) (dependencies, dependents []goal.DependencyEdge, err error) {
	edges, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	dependencies = []goal.DependencyEdge{}
	dependents = []goal.DependencyEdge{}
	for _, e := range edges {
		switch goalID {
		case e.SourceGoalID:
			dependencies = append(dependencies, e)
		case e.TargetGoalID:
			dependents = append(dependents, e)
		}
	}
	return dependencies, dependents, nil
}

// Update applies p to the edge with the given id.
func (s *Store) Update(ctx context.Context, id string, p Patch) (goal.DependencyEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.b.get(ctx, id)
	if err != nil {
		return goal.DependencyEdge{}, wrapNotFound(id, err)
	}
	if p.Type != nil {
		e.Type = *p.Type
		if e.Type.Class() != goal.ClassAdvisory && p.Condition == nil {
			e.Condition = ""
		}
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Condition != nil {
		e.Condition = *p.Condition
	}
	if err := goal.CheckEdge(e); err != nil {
		return goal.DependencyEdge{}, err
	}
	if err := s.checkDuplicate(ctx, e, id); err != nil {
		return goal.DependencyEdge{}, err
	}
	e.UpdatedAt = s.now().UTC()
	if err := s.b.put(ctx, e); err != nil {
		return goal.DependencyEdge{}, fmt.Errorf("update dependency: %w", err)
	}
	s.logger.Debug("dependency updated", "id", id)
	return e, nil
}

// Delete removes the edge with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.b.remove(ctx, id); err != nil {
		return wrapNotFound(id, err)
	}
	s.logger.Debug("dependency deleted", "id", id)
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.b.close()
}

func (s *Store) checkDuplicate(ctx context.Context, e goal.DependencyEdge, self string) error {
	edges, err := s.b.all(ctx)
	if err != nil {
		return fmt.Errorf("list dependencies: %w", err)
	}
	for _, other := range edges {
		if other.ID != self && other.Key() == e.Key() {
			return &goal.ReferentialError{
				Kind:   goal.KindDuplicateEdge,
				EdgeID: other.ID,
				GoalID: e.SourceGoalID,
				Detail: fmt.Sprintf("%s dependency %s -> %s already exists (%s)", e.Type, e.SourceGoalID, e.TargetGoalID, other.ID),
			}
		}
	}
	return nil
}

func wrapNotFound(id string, err error) error {
	if errors.Is(err, goal.ErrNotFound) {
		return fmt.Errorf("dependency %q: %w", id, goal.ErrNotFound)
	}
	return err
}
