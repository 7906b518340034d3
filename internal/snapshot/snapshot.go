// Package snapshot reads and writes goal snapshots: the goals and
// dependency edges a computation runs over, as JSON or YAML files.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

// Format is a snapshot file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension; anything that is not
// .yaml or .yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Snapshot is a self-contained goal set with its dependency edges.
type Snapshot struct {
	AsOf         goal.Date             `json:"as_of,omitzero" yaml:"as_of,omitempty"`
	Goals        []goal.Goal           `json:"goals" yaml:"goals"`
	Dependencies []goal.DependencyEdge `json:"dependencies" yaml:"dependencies"`

	mu   sync.Mutex
	path string
}

// Load reads a snapshot from disk.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	s, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	s.path = path
	return s, nil
}

// Parse decodes a snapshot from memory.
func Parse(data []byte, format Format) (*Snapshot, error) {
	var s Snapshot
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &s)
	default:
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Path returns the file the snapshot was loaded from, if any.
func (s *Snapshot) Path() string { return s.path }

// Save writes the snapshot to path in the format its extension implies.
func (s *Snapshot) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	var err error
	switch FormatFor(path) {
	case FormatYAML:
		data, err = yaml.Marshal(s)
	default:
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.path = path
	return nil
}

// GoalIDs returns the goal ids in file order.
func (s *Snapshot) GoalIDs() []string {
	ids := make([]string, 0, len(s.Goals))
	for _, g := range s.Goals {
		ids = append(ids, g.ID)
	}
	return ids
}

// Select returns the goals named by ids, in the order given, and the edges
// that touch them. An edge is dropped only when one of its endpoints is a
// snapshot goal outside the selection; edges naming goals the snapshot
// does not hold are kept so graph building reports them. Unknown ids yield
// a *goal.ReferentialError.
func (s *Snapshot) Select(ids []string) ([]goal.Goal, []goal.DependencyEdge, error) {
	byID := make(map[string]goal.Goal, len(s.Goals))
	for _, g := range s.Goals {
		byID[g.ID] = g
	}
	goals := make([]goal.Goal, 0, len(ids))
	in := make(map[string]bool, len(ids))
	for _, id := range ids {
		g, ok := byID[id]
		if !ok {
			return nil, nil, &goal.ReferentialError{
				Kind:   goal.KindUnknownGoal,
				GoalID: id,
				Detail: fmt.Sprintf("goal %q not found in snapshot", id),
			}
		}
		goals = append(goals, g)
		in[id] = true
	}
	excluded := func(id string) bool {
		_, known := byID[id]
		return known && !in[id]
	}
	edges := make([]goal.DependencyEdge, 0, len(s.Dependencies))
	for _, e := range s.Dependencies {
		if excluded(e.SourceGoalID) || excluded(e.TargetGoalID) {
			continue
		}
		edges = append(edges, e)
	}
	return goals, edges, nil
}

// EdgesWithin keeps the edges whose source and target are both in ids.
func EdgesWithin(edges []goal.DependencyEdge, ids map[string]bool) []goal.DependencyEdge {
	out := make([]goal.DependencyEdge, 0, len(edges))
	for _, e := range edges {
		if ids[e.SourceGoalID] && ids[e.TargetGoalID] {
			out = append(out, e)
		}
	}
	return out
}
