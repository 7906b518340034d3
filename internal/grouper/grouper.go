// Package grouper partitions scheduled goals into sets that can be pursued
// at the same time.
package grouper

import (
	"sort"

	"github.com/rparkin1/wealthNavigator-sub000/internal/cpm"
	"github.com/rparkin1/wealthNavigator-sub000/internal/graph"
)

// GroupParallel returns disjoint groups of goals whose [ES, LS] windows
// overlap pairwise and where no member gates another through hard
// precedence. Goals left alone are emitted as singleton groups unless they
// sit on the critical path, which is reported separately. Members are
// ordered by slack, so critical goals lead their group.
func GroupParallel(s *cpm.Schedule, g *graph.Graph) [][]string {
	reach := graph.NewReachability(g)
	linked := linkPartners(g)

	ids := make([]string, 0, len(s.Nodes))
	for _, id := range g.Order {
		if _, ok := s.Nodes[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := s.Nodes[ids[i]], s.Nodes[ids[j]]
		if a.ES != b.ES {
			return a.ES < b.ES
		}
		return a.LS < b.LS
	})

	var groups [][]string
	for _, cluster := range sweep(ids, s) {
		for _, grp := range partition(cluster, s, reach, linked) {
			if len(grp) == 1 && s.Nodes[grp[0]].OnCriticalPath {
				continue
			}
			sortMembers(grp, s, g)
			groups = append(groups, grp)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := earliest(groups[i], s), earliest(groups[j], s)
		if a != b {
			return a < b
		}
		return g.Index(groups[i][0]) < g.Index(groups[j][0])
	})
	return groups
}

// sweep merges overlapping [ES, LS] windows into clusters. ids must be
// sorted by ES.
func sweep(ids []string, s *cpm.Schedule) [][]string {
	var clusters [][]string
	var cur []string
	end := 0
	for _, id := range ids {
		n := s.Nodes[id]
		if len(cur) > 0 && n.ES > end {
			clusters = append(clusters, cur)
			cur = nil
		}
		if len(cur) == 0 || n.LS > end {
			end = n.LS
		}
		cur = append(cur, id)
	}
	if len(cur) > 0 {
		clusters = append(clusters, cur)
	}
	return clusters
}

// partition splits a cluster into groups of mutually compatible goals. A
// goal joins the first group it is compatible with, preferring a group that
// already holds one of its linked partners.
func partition(cluster []string, s *cpm.Schedule, reach *graph.Reachability, linked map[string]map[string]bool) [][]string {
	var groups [][]string
	for _, id := range cluster {
		target := -1
		for i, grp := range groups {
			if !compatibleWithAll(id, grp, s, reach) {
				continue
			}
			if target == -1 {
				target = i
			}
			if hasPartner(id, grp, linked) {
				target = i
				break
			}
		}
		if target == -1 {
			groups = append(groups, []string{id})
			continue
		}
		groups[target] = append(groups[target], id)
	}
	return groups
}

func compatibleWithAll(id string, grp []string, s *cpm.Schedule, reach *graph.Reachability) bool {
	n := s.Nodes[id]
	for _, other := range grp {
		o := s.Nodes[other]
		if reach.Related(id, other) {
			return false
		}
		if max(n.ES, o.ES) > min(n.LS, o.LS) {
			return false
		}
	}
	return true
}

func hasPartner(id string, grp []string, linked map[string]map[string]bool) bool {
	for _, other := range grp {
		if linked[id][other] {
			return true
		}
	}
	return false
}

func linkPartners(g *graph.Graph) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	add := func(a, b string) {
		if out[a] == nil {
			out[a] = make(map[string]bool)
		}
		out[a][b] = true
	}
	for _, e := range g.Links {
		add(e.SourceGoalID, e.TargetGoalID)
		add(e.TargetGoalID, e.SourceGoalID)
	}
	return out
}

func sortMembers(grp []string, s *cpm.Schedule, g *graph.Graph) {
	sort.SliceStable(grp, func(i, j int) bool {
		a, b := s.Nodes[grp[i]], s.Nodes[grp[j]]
		if a.Slack != b.Slack {
			return a.Slack < b.Slack
		}
		return g.Index(grp[i]) < g.Index(grp[j])
	})
}

func earliest(grp []string, s *cpm.Schedule) int {
	es := s.Nodes[grp[0]].ES
	for _, id := range grp[1:] {
		es = min(es, s.Nodes[id].ES)
	}
	return es
}
