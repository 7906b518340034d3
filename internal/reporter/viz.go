package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/rparkin1/wealthNavigator-sub000/internal/cpm"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/graph"
	"github.com/rparkin1/wealthNavigator-sub000/internal/ui"
)

// PrintASCII draws the graph stage by stage, listing the goals each goal
// gates.
func PrintASCII(w io.Writer, s *cpm.Schedule, g *graph.Graph) {
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Goal Dependency Graph"))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════"))
	fmt.Fprintln(w)

	for _, st := range s.Stages {
		fmt.Fprintf(w, "%s Stage %d %s\n", ui.Cyan("──"), st.Index+1, ui.Cyan("──────────────────────────────"))
		for _, id := range st.GoalIDs {
			crit := " "
			if s.Nodes[id].OnCriticalPath {
				crit = ui.BoldYellow("⚡")
			}
			fmt.Fprintf(w, "  %s [%s] %s\n", crit, ui.BoldMagenta(id), g.Goals[id].Title)
			for _, dependent := range g.Adj[id] {
				fmt.Fprintf(w, "      %s %s\n", ui.Dim("└──→"), ui.Magenta(dependent))
			}
		}
		fmt.Fprintln(w)
	}

	soft := softEdges(g)
	if len(soft) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", ui.Dim("Soft edges:"))
	for _, e := range soft {
		fmt.Fprintf(w, "  %s %s %s\n", e.TargetGoalID, ui.Dim("┄"+e.Type.String()+"┄"), e.SourceGoalID)
	}
}

// softEdges returns the advisory and link edges that do not constrain the
// schedule.
func softEdges(g *graph.Graph) []goal.DependencyEdge {
	var out []goal.DependencyEdge
	for _, e := range append(append([]goal.DependencyEdge{}, g.Advisory...), g.Links...) {
		if !g.IsHard(e) {
			out = append(out, e)
		}
	}
	return out
}

// PrintDOT writes the graph in Graphviz format. Edges point from a
// prerequisite to the goal that depends on it; critical goals are red.
func PrintDOT(w io.Writer, s *cpm.Schedule, g *graph.Graph) {
	fmt.Fprintln(w, "digraph goalgraph {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	critical := func(id string) bool {
		n, ok := s.Nodes[id]
		return ok && n.OnCriticalPath
	}

	for _, id := range g.Order {
		attrs := fmt.Sprintf(`label="%s\n%dmo, slack %d"`,
			dotEscape.Replace(g.Goals[id].DisplayName()), s.Nodes[id].Duration, s.Nodes[id].Slack)
		if critical(id) {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", id, attrs)
	}
	fmt.Fprintln(w)

	for _, from := range g.Order {
		for _, to := range g.Adj[from] {
			style := ""
			if critical(from) && critical(to) {
				style = " [color=red, penwidth=2]"
			}
			fmt.Fprintf(w, "  %q -> %q%s;\n", from, to, style)
		}
	}
	for _, e := range softEdges(g) {
		style := "dashed"
		if e.Type == goal.DependencyLinked {
			style = "dotted"
		}
		fmt.Fprintf(w, "  %q -> %q [style=%s, label=%q];\n", e.TargetGoalID, e.SourceGoalID, style, e.Type.String())
	}
	fmt.Fprintln(w, "}")
}

// dotEscape quotes text for a DOT string; \n in the label is left as the
// DOT line break.
var dotEscape = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
