package planner

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/rparkin1/wealthNavigator-sub000/internal/cpm"
	"github.com/rparkin1/wealthNavigator-sub000/internal/graph"
	"github.com/rparkin1/wealthNavigator-sub000/internal/validator"
)

const recommendationTemplates = `
{{define "path"}}Critical path: {{join .Goals " -> "}} ({{.Months}} months, complete by {{.Date}}).{{end}}
{{define "critical"}}Goal {{.Goal}} is on the critical path with zero slack; delaying it delays everything downstream.{{end}}
{{define "parallel"}}Goals {{list .Goals}} can be pursued simultaneously starting {{.Date}}.{{end}}
{{define "infeasible"}}Goal {{.Goal}} has negative feasibility margin ({{.Months}} months); consider extending its target date or reducing its duration.{{end}}
{{define "slack"}}Goal {{.Goal}} has {{.Months}} months of slack; it can start as late as {{.Date}} without delaying the plan.{{end}}
{{define "review"}}Review: {{.Message}}.{{end}}
`

var recommendations = template.Must(template.New("recommendations").Funcs(template.FuncMap{
	"join": strings.Join,
	"list": humanList,
}).Parse(recommendationTemplates))

// RecommendationData holds the fields any recommendation template may use.
type RecommendationData struct {
	Goal    string
	Goals   []string
	Months  int
	Date    string
	Message string
}

func render(name string, data RecommendationData) (string, error) {
	var buf bytes.Buffer
	if err := recommendations.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// humanList renders ["a","b","c"] as "a, b and c".
func humanList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// recommend applies the recommendation rules in a fixed order so the output
// is stable for identical input.
func recommend(s *cpm.Schedule, g *graph.Graph, groups [][]string, warnings []validator.Issue, slackNotice int) ([]string, error) {
	out := []string{}
	add := func(name string, data RecommendationData) error {
		text, err := render(name, data)
		if err != nil {
			return err
		}
		out = append(out, text)
		return nil
	}

	if len(s.CriticalPath) > 0 {
		if err := add("path", RecommendationData{
			Goals:  s.CriticalPath,
			Months: s.TotalDuration,
			Date:   s.Date(s.TotalDuration).String(),
		}); err != nil {
			return nil, err
		}
		for _, id := range s.CriticalPath {
			if err := add("critical", RecommendationData{Goal: id}); err != nil {
				return nil, err
			}
		}
	}

	for _, grp := range groups {
		if len(grp) < 2 {
			continue
		}
		start := s.Nodes[grp[0]].ES
		for _, id := range grp[1:] {
			start = min(start, s.Nodes[id].ES)
		}
		if err := add("parallel", RecommendationData{Goals: grp, Date: s.Date(start).String()}); err != nil {
			return nil, err
		}
	}

	for _, id := range g.Order {
		n := s.Nodes[id]
		if n.Infeasible() {
			if err := add("infeasible", RecommendationData{Goal: id, Months: n.Margin}); err != nil {
				return nil, err
			}
		}
	}

	for _, id := range g.Order {
		n := s.Nodes[id]
		if n.OnCriticalPath || n.Slack < slackNotice {
			continue
		}
		if err := add("slack", RecommendationData{Goal: id, Months: n.Slack, Date: s.Date(n.LS).String()}); err != nil {
			return nil, err
		}
	}

	for _, w := range warnings {
		if w.Kind == validator.KindInfeasibleTimeline {
			continue
		}
		if err := add("review", RecommendationData{Message: w.Message}); err != nil {
			return nil, err
		}
	}
	return out, nil
}
