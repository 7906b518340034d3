package goal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a goal or dependency id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTimeout is returned when a computation exceeds its deadline.
	ErrTimeout = errors.New("computation deadline exceeded")
)

type ReferentialKind string

const (
	KindUnknownGoal   ReferentialKind = "unknown_goal"
	KindSelfEdge      ReferentialKind = "self_edge"
	KindDuplicateEdge ReferentialKind = "duplicate_edge"
	KindDuplicateGoal ReferentialKind = "duplicate_goal"
)

// ReferentialError reports an edge or goal that does not fit the goal set:
// unknown endpoints, self-dependencies and duplicates.
type ReferentialError struct {
	Kind   ReferentialKind
	EdgeID string
	GoalID string
	Detail string
}

func (e *ReferentialError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s (edge %q, goal %q)", e.Kind, e.EdgeID, e.GoalID)
}

type SemanticKind string

const (
	KindMissingCondition    SemanticKind = "missing_condition"
	KindUnexpectedCondition SemanticKind = "unexpected_condition"
	KindInvalidType         SemanticKind = "invalid_type"
	KindInvalidDuration     SemanticKind = "invalid_duration"
	KindInvalidGoal         SemanticKind = "invalid_goal"
)

// SemanticError reports a well-referenced edge or goal whose fields are
// inconsistent.
type SemanticError struct {
	Kind   SemanticKind
	EdgeID string
	GoalID string
	Detail string
}

func (e *SemanticError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s (edge %q, goal %q)", e.Kind, e.EdgeID, e.GoalID)
}

// CyclicGraphError is returned by operations that need an acyclic hard
// graph. Each cycle lists goal ids in dependency order, without repeating
// the first id at the end.
type CyclicGraphError struct {
	Cycles [][]string
}

func (e *CyclicGraphError) Error() string {
	parts := make([]string, 0, len(e.Cycles))
	for _, c := range e.Cycles {
		parts = append(parts, FormatCycle(c))
	}
	return fmt.Sprintf("dependency graph contains %d cycle(s): %s", len(e.Cycles), strings.Join(parts, "; "))
}

// FormatCycle renders a cycle as "A -> B -> A".
func FormatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, cycle...), cycle[0]), " -> ")
}

// ErrorKind returns a short machine-readable label for err, used in API
// error bodies and log attributes.
func ErrorKind(err error) string {
	var ref *ReferentialError
	var sem *SemanticError
	var cyc *CyclicGraphError
	switch {
	case errors.As(err, &ref):
		return string(ref.Kind)
	case errors.As(err, &sem):
		return string(sem.Kind)
	case errors.As(err, &cyc):
		return "cycle"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	}
	return "internal"
}
