// Package reporter renders validation reports, plans and timelines for the
// terminal.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rparkin1/wealthNavigator-sub000/internal/batch"
	"github.com/rparkin1/wealthNavigator-sub000/internal/engine"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/planner"
	"github.com/rparkin1/wealthNavigator-sub000/internal/ui"
	"github.com/rparkin1/wealthNavigator-sub000/internal/validator"
)

// JSON renders v as indented JSON.
func JSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// PrintValidation writes a validation report.
func PrintValidation(w io.Writer, r *validator.Report) {
	status := ui.BoldGreen("valid")
	icon := ui.SeverityIcon("ok")
	if !r.IsValid {
		status = ui.BoldRed("invalid")
		icon = ui.SeverityIcon("error")
	}
	fmt.Fprintf(w, "\n%s %s %s\n", icon, ui.BoldCyan("Dependency Validation"), status)
	fmt.Fprintf(w, "%s\n", ui.Cyan("══════════════════════════"))

	if len(r.CyclesDetected) > 0 {
		fmt.Fprintf(w, "%s\n", ui.BoldRed("Cycles:"))
		for _, c := range r.CyclesDetected {
			fmt.Fprintf(w, "  %s %s\n", ui.Red("↻"), goal.FormatCycle(c))
		}
	}
	printIssues(w, "Errors:", "error", r.Errors)
	printIssues(w, "Warnings:", "warning", r.Warnings)
	fmt.Fprintf(w, "%s\n", ui.Cyan("──────────────────────────"))
	fmt.Fprintf(w, "Totals:  %s  %s\n",
		ui.Red(fmt.Sprintf("%d errors", len(r.Errors))),
		ui.Yellow(fmt.Sprintf("%d warnings", len(r.Warnings))))
}

func printIssues(w io.Writer, title, severity string, issues []validator.Issue) {
	if len(issues) == 0 {
		return
	}
	heading := ui.BoldRed(title)
	if severity == "warning" {
		heading = ui.BoldYellow(title)
	}
	fmt.Fprintf(w, "%s\n", heading)
	for _, is := range issues {
		subject := ""
		if is.GoalID != "" {
			subject = ui.GoalPrefix(is.GoalID) + " "
		}
		fmt.Fprintf(w, "  %s %s%s %s\n", ui.SeverityIcon(severity), subject, is.Message, ui.Dim("("+is.Kind+")"))
	}
}

// PrintPlan writes an optimised plan: stages with each goal's window, then
// parallel groups and recommendations.
func PrintPlan(w io.Writer, p *planner.Plan) {
	fmt.Fprintf(w, "\n🎯 %s\n", ui.BoldCyan("Goal Plan"))
	fmt.Fprintf(w, "%s\n", ui.Cyan("══════════════════════════"))
	if s := p.Schedule; s != nil {
		fmt.Fprintf(w, "As of:     %s\n", ui.Dim(s.AsOf.String()))
		fmt.Fprintf(w, "Finish:    %s\n", ui.Bold(s.Date(p.TotalDurationMonths).String()))
	}
	fmt.Fprintf(w, "Duration:  %s\n", ui.Bold(fmt.Sprintf("%d months", p.TotalDurationMonths)))
	fmt.Fprintf(w, "Goals:     %d\n\n", len(p.OptimizedSequence))

	if p.Schedule != nil && p.Graph != nil {
		for _, st := range p.Schedule.Stages {
			if len(st.GoalIDs) == 0 {
				continue
			}
			start := p.Schedule.Date(p.Schedule.Nodes[st.GoalIDs[0]].ES)
			fmt.Fprintf(w, "  %s %d  %s  (%d goals)\n", ui.BoldWhite("Stage"), st.Index+1, ui.Dim("from "+start.String()), len(st.GoalIDs))
			for _, id := range st.GoalIDs {
				printGoal(w, p, id)
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "%s\n", ui.Cyan("──────────────────────────"))
	fmt.Fprintf(w, "Sequence:  %s\n", strings.Join(p.OptimizedSequence, " → "))
	if len(p.CriticalPath) > 0 {
		fmt.Fprintf(w, "Critical:  %s\n", ui.BoldYellow("⚡ "+strings.Join(p.CriticalPath, " → ")))
	}
	for i, grp := range p.ParallelGroups {
		fmt.Fprintf(w, "Parallel %d: %s\n", i+1, ui.Green(strings.Join(grp, " ∥ ")))
	}
	if len(p.Recommendations) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.Bold("Recommendations:"))
		for _, rec := range p.Recommendations {
			fmt.Fprintf(w, "  • %s\n", rec)
		}
	}
	for _, is := range p.Warnings {
		fmt.Fprintf(w, "  %s %s\n", ui.SeverityIcon("warning"), is.Message)
	}
}

func printGoal(w io.Writer, p *planner.Plan, id string) {
	n := p.Schedule.Nodes[id]
	g := p.Graph.Goals[id]

	critical := " "
	if n.OnCriticalPath {
		critical = ui.BoldYellow("⚡")
	}
	title := truncate(g.DisplayName(), 32)
	margin := ""
	if n.Infeasible() {
		margin = ui.Red(fmt.Sprintf("[%d months late]", -n.Margin))
	}
	fmt.Fprintf(w, "    %s %s %-32s %-12s %s → %s  slack %s %s\n",
		critical, ui.GoalPrefix(id), title, ui.PriorityLabel(g.Priority),
		p.Schedule.Date(n.ES), p.Schedule.Date(n.EF), ui.SlackLabel(n.Slack), margin)
}

// PrintTimeline writes one row per timeline entry.
func PrintTimeline(w io.Writer, entries []engine.TimelineEntry) {
	fmt.Fprintf(w, "\n📅 %s\n", ui.BoldCyan("Goal Timeline"))
	fmt.Fprintf(w, "%s\n", ui.Cyan("══════════════════════════"))
	for _, e := range entries {
		title := e.GoalTitle
		if title == "" {
			title = e.GoalID
		}
		fmt.Fprintf(w, "  %s %-32s start %s (latest %s)  %s\n",
			ui.GoalPrefix(e.GoalID), title, e.EarliestStart, e.LatestStart,
			ui.Dim(fmt.Sprintf("%d months", e.DurationMonths)))
		if len(e.Dependencies) > 0 {
			fmt.Fprintf(w, "      %s %s\n", ui.Dim("after"), strings.Join(e.Dependencies, ", "))
		}
	}
}

// PrintBatch summarises a batch run. It returns the number of failures.
func PrintBatch(w io.Writer, outcomes []batch.Outcome) int {
	fmt.Fprintf(w, "\n%s\n", ui.BoldCyan("Batch Summary"))
	fmt.Fprintf(w, "%s\n", ui.Cyan("══════════════════════════"))
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "  %s %s  %s\n", ui.SeverityIcon("error"), o.Path, ui.Red(o.Err.Error()))
			continue
		}
		if o.Plan == nil {
			fmt.Fprintf(w, "  %s %s  %s\n", ui.SeverityIcon("skipped"), o.Path, ui.Dim("not run"))
			continue
		}
		fmt.Fprintf(w, "  %s %s  %d months, critical %s\n", ui.SeverityIcon("ok"), o.Path,
			o.Plan.TotalDurationMonths, strings.Join(o.Plan.CriticalPath, " → "))
	}
	ok, failed := batch.Summary(outcomes)
	fmt.Fprintf(w, "%s\n", ui.Cyan("──────────────────────────"))
	fmt.Fprintf(w, "Totals:  %s  %s\n",
		ui.Green(fmt.Sprintf("%d planned", ok)),
		ui.Red(fmt.Sprintf("%d failed", failed)))
	return failed
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
