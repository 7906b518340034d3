package goal

import (
	"fmt"
	"strings"
	"time"
)

// DependencyType is the closed set of relationships a goal can have with a
// prerequisite goal. Adding a member means updating Class, which every
// consumer switches on.
type DependencyType uint8

const (
	DependencyInvalid DependencyType = iota
	DependencySequential
	DependencyConditional
	DependencyBlocking
	DependencyLinked
)

// Class is the scheduling meaning of a DependencyType.
type Class uint8

const (
	ClassNone Class = iota
	// ClassHard edges order the schedule: the target finishes before the
	// source starts.
	ClassHard
	// ClassAdvisory edges are recorded and validated but do not constrain
	// timing.
	ClassAdvisory
	// ClassLink edges imply no order; both goals should share a group.
	ClassLink
)

// AllDependencyTypes lists the valid types in wire order.
var AllDependencyTypes = []DependencyType{
	DependencySequential,
	DependencyConditional,
	DependencyBlocking,
	DependencyLinked,
}

// ParseDependencyType converts the wire form into a DependencyType.
func ParseDependencyType(s string) (DependencyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential":
		return DependencySequential, nil
	case "conditional":
		return DependencyConditional, nil
	case "blocking":
		return DependencyBlocking, nil
	case "linked":
		return DependencyLinked, nil
	}
	return DependencyInvalid, &SemanticError{
		Kind:   KindInvalidType,
		Detail: fmt.Sprintf("unknown dependency type %q", s),
	}
}

func (t DependencyType) String() string {
	switch t {
	case DependencySequential:
		return "sequential"
	case DependencyConditional:
		return "conditional"
	case DependencyBlocking:
		return "blocking"
	case DependencyLinked:
		return "linked"
	case DependencyInvalid:
		return "invalid"
	}
	return "invalid"
}

// Class returns the scheduling class of t.
func (t DependencyType) Class() Class {
	switch t {
	case DependencySequential, DependencyBlocking:
		return ClassHard
	case DependencyConditional:
		return ClassAdvisory
	case DependencyLinked:
		return ClassLink
	case DependencyInvalid:
		return ClassNone
	}
	return ClassNone
}

// Valid reports whether t is a member of the closed set.
func (t DependencyType) Valid() bool { return t.Class() != ClassNone }

func (t DependencyType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid dependency type %d", t)
	}
	return []byte(t.String()), nil
}

func (t *DependencyType) UnmarshalText(b []byte) error {
	v, err := ParseDependencyType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// DependencyEdge says SourceGoalID depends on TargetGoalID.
type DependencyEdge struct {
	ID           string         `json:"id" yaml:"id"`
	SourceGoalID string         `json:"source_goal_id" yaml:"source_goal_id"`
	TargetGoalID string         `json:"target_goal_id" yaml:"target_goal_id"`
	Type         DependencyType `json:"dependency_type" yaml:"dependency_type"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty"`
	Condition    string         `json:"condition,omitempty" yaml:"condition,omitempty"`
	CreatedAt    time.Time      `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

// Key identifies an edge for duplicate detection.
func (e DependencyEdge) Key() EdgeKey {
	return EdgeKey{Source: e.SourceGoalID, Target: e.TargetGoalID, Type: e.Type}
}

// EdgeKey is the (source, target, type) triple two edges may not share.
type EdgeKey struct {
	Source string
	Target string
	Type   DependencyType
}

// CheckEdge applies the creation-time rules to a single edge: both goal ids
// present, no self-dependency, a valid type, and a condition exactly when the
// type is conditional. Goal existence is checked by the caller.
func CheckEdge(e DependencyEdge) error {
	if e.SourceGoalID == "" || e.TargetGoalID == "" {
		return &ReferentialError{
			Kind:   KindUnknownGoal,
			EdgeID: e.ID,
			Detail: "source_goal_id and target_goal_id are required",
		}
	}
	if e.SourceGoalID == e.TargetGoalID {
		return &ReferentialError{
			Kind:   KindSelfEdge,
			EdgeID: e.ID,
			GoalID: e.SourceGoalID,
			Detail: fmt.Sprintf("goal %q cannot depend on itself", e.SourceGoalID),
		}
	}
	if !e.Type.Valid() {
		return &SemanticError{
			Kind:   KindInvalidType,
			EdgeID: e.ID,
			Detail: "dependency_type must be one of sequential, conditional, blocking, linked",
		}
	}
	return CheckCondition(e)
}

// CheckCondition enforces that conditional edges, and only conditional
// edges, carry a non-blank condition.
func CheckCondition(e DependencyEdge) error {
	hasCondition := strings.TrimSpace(e.Condition) != ""
	switch e.Type.Class() {
	case ClassAdvisory:
		if !hasCondition {
			return &SemanticError{
				Kind:   KindMissingCondition,
				EdgeID: e.ID,
				GoalID: e.SourceGoalID,
				Detail: fmt.Sprintf("conditional dependency %s -> %s requires a condition", e.SourceGoalID, e.TargetGoalID),
			}
		}
	case ClassHard, ClassLink:
		if hasCondition {
			return &SemanticError{
				Kind:   KindUnexpectedCondition,
				EdgeID: e.ID,
				GoalID: e.SourceGoalID,
				Detail: fmt.Sprintf("%s dependency %s -> %s cannot carry a condition", e.Type, e.SourceGoalID, e.TargetGoalID),
			}
		}
	case ClassNone:
	}
	return nil
}

// CheckGoal validates the fields the scheduler relies on.
func CheckGoal(g Goal) error {
	switch {
	case strings.TrimSpace(g.ID) == "":
		return &SemanticError{Kind: KindInvalidGoal, Detail: "goal id is required"}
	case g.DurationMonths < 0:
		return &SemanticError{
			Kind:   KindInvalidDuration,
			GoalID: g.ID,
			Detail: fmt.Sprintf("goal %q has negative duration %d", g.ID, g.DurationMonths),
		}
	case g.TargetDate.IsZero():
		return &SemanticError{
			Kind:   KindInvalidGoal,
			GoalID: g.ID,
			Detail: fmt.Sprintf("goal %q has no target date", g.ID),
		}
	case !g.Priority.Valid():
		return &SemanticError{
			Kind:   KindInvalidGoal,
			GoalID: g.ID,
			Detail: fmt.Sprintf("goal %q has no valid priority", g.ID),
		}
	}
	return nil
}
