package goal

import (
	"fmt"
	"strings"
)

// Priority ranks how important a goal is to the household. Higher values
// sort first when the optimizer breaks ties.
type Priority int

const (
	PriorityUnknown Priority = iota
	PriorityAspirational
	PriorityImportant
	PriorityEssential
)

// ParsePriority converts the wire form ("essential", "important",
// "aspirational") into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "essential":
		return PriorityEssential, nil
	case "important":
		return PriorityImportant, nil
	case "aspirational":
		return PriorityAspirational, nil
	}
	return PriorityUnknown, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) String() string {
	switch p {
	case PriorityEssential:
		return "essential"
	case PriorityImportant:
		return "important"
	case PriorityAspirational:
		return "aspirational"
	}
	return "unknown"
}

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	return p >= PriorityAspirational && p <= PriorityEssential
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Goal is the engine's read-only view of a financial goal owned by the goal
// store. DurationMonths is the funding horizon supplied by the caller; the
// engine never derives it.
type Goal struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title,omitempty" yaml:"title,omitempty"`
	TargetDate     Date     `json:"target_date" yaml:"target_date"`
	Priority       Priority `json:"priority" yaml:"priority"`
	DurationMonths int      `json:"duration_months" yaml:"duration_months"`
}

// DisplayName returns the title when present, otherwise the id.
func (g Goal) DisplayName() string {
	if g.Title != "" {
		return g.Title
	}
	return g.ID
}
