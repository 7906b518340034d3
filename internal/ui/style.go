package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintBanner renders the goalgraph banner to w.
func PrintBanner(w io.Writer, tagline string) {
	frame := color.New(color.FgCyan)
	nodes := color.New(color.FgYellow)
	brand := color.New(color.Bold, color.FgMagenta)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +-----------------------------+")
	nodes.Fprintln(w, "   |  o---o---o       o---o      |")
	nodes.Fprintln(w, "   |       \\     o---/           |")
	brand.Fprintln(w, "   |  G O A L G R A P H          |")
	frame.Fprintln(w, "   +-----------------------------+")
	fmt.Fprintf(w, "   %s\n\n", Dim(tagline))
}

// goalColors is a palette of distinct bold colors for differentiating goals.
var goalColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

func goalColorIndex(id string) int {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(goalColors)))
}

// GoalPrefix returns a colored [goal-id] prefix string. The same id always
// gets the same color.
func GoalPrefix(id string) string {
	c := goalColors[goalColorIndex(id)]
	return Dim("[") + c(id) + Dim("]")
}

// PriorityLabel colors a goal priority.
func PriorityLabel(p goal.Priority) string {
	switch p {
	case goal.PriorityEssential:
		return BoldRed(p.String())
	case goal.PriorityImportant:
		return Yellow(p.String())
	case goal.PriorityAspirational:
		return Cyan(p.String())
	default:
		return Dim("unknown")
	}
}

// SeverityIcon returns a colored icon for a validation issue.
func SeverityIcon(severity string) string {
	switch severity {
	case "error":
		return Red("✗")
	case "warning":
		return Yellow("⚠")
	case "ok":
		return Green("✓")
	default:
		return Dim("◌")
	}
}

// SlackLabel colors a slack value: zero is critical, negative margins are
// reported elsewhere.
func SlackLabel(months int) string {
	s := fmt.Sprintf("%dmo", months)
	switch {
	case months == 0:
		return BoldYellow(s)
	case months < 12:
		return Yellow(s)
	default:
		return Green(s)
	}
}
