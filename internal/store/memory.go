package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

type memoryBackend struct {
	mu    sync.RWMutex
	edges map[string]goal.DependencyEdge
}

// NewMemory returns a Store that keeps edges in process memory.
func NewMemory(logger *slog.Logger) *Store {
	return newStore("memory", &memoryBackend{edges: make(map[string]goal.DependencyEdge)}, logger)
}

func (m *memoryBackend) put(_ context.Context, e goal.DependencyEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[e.ID] = e
	return nil
}

func (m *memoryBackend) get(_ context.Context, id string) (goal.DependencyEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.edges[id]
	if !ok {
		return goal.DependencyEdge{}, goal.ErrNotFound
	}
	return e, nil
}

func (m *memoryBackend) all(_ context.Context) ([]goal.DependencyEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]goal.DependencyEdge, 0, len(m.edges))
	for _, e := range m.edges {
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryBackend) remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.edges[id]; !ok {
		return goal.ErrNotFound
	}
	delete(m.edges, id)
	return nil
}

func (m *memoryBackend) close() error { return nil }
