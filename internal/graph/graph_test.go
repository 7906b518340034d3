package graph

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

func mkGoals(ids ...string) []goal.Goal {
	out := make([]goal.Goal, 0, len(ids))
	for _, id := range ids {
		out = append(out, goal.Goal{
			ID:             id,
			TargetDate:     goal.NewDate(2040, time.January, 1),
			Priority:       goal.PriorityImportant,
			DurationMonths: 12,
		})
	}
	return out
}

func dep(id, source, target string, t goal.DependencyType) goal.DependencyEdge {
	e := goal.DependencyEdge{ID: id, SourceGoalID: source, TargetGoalID: target, Type: t}
	if t == goal.DependencyConditional {
		e.Condition = "if bonus arrives"
	}
	return e
}

func TestBuild_Diamond(t *testing.T) {
	// d depends on b and c, both depend on a
	edges := []goal.DependencyEdge{
		dep("e1", "b", "a", goal.DependencySequential),
		dep("e2", "c", "a", goal.DependencyBlocking),
		dep("e3", "d", "b", goal.DependencySequential),
		dep("e4", "d", "c", goal.DependencySequential),
	}

	g, err := Build(mkGoals("a", "b", "c", "d"), edges, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.GoalCount() != 4 {
		t.Errorf("expected 4 goals, got %d", g.GoalCount())
	}
	if !reflect.DeepEqual(g.Roots, []string{"a"}) {
		t.Errorf("expected roots=[a], got %v", g.Roots)
	}
	if !reflect.DeepEqual(g.Leaves, []string{"d"}) {
		t.Errorf("expected leaves=[d], got %v", g.Leaves)
	}
	if adj := g.Adj["a"]; !reflect.DeepEqual(adj, []string{"b", "c"}) {
		t.Errorf("expected a to unblock [b c], got %v", adj)
	}
	if rev := g.RevAdj["d"]; !reflect.DeepEqual(rev, []string{"b", "c"}) {
		t.Errorf("expected d to depend on [b c], got %v", rev)
	}
	if len(g.Precedence) != 4 {
		t.Errorf("expected 4 precedence edges, got %d", len(g.Precedence))
	}
}

func TestBuild_AdjacencyFollowsGoalOrder(t *testing.T) {
	edges := []goal.DependencyEdge{
		dep("e1", "z", "hub", goal.DependencySequential),
		dep("e2", "m", "hub", goal.DependencySequential),
	}
	g, err := Build(mkGoals("hub", "z", "m"), edges, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(g.Adj["hub"], []string{"z", "m"}) {
		t.Errorf("expected caller order [z m], got %v", g.Adj["hub"])
	}
}

func TestBuild_EdgeClasses(t *testing.T) {
	edges := []goal.DependencyEdge{
		dep("e1", "b", "a", goal.DependencySequential),
		dep("e2", "c", "a", goal.DependencyConditional),
		dep("e3", "c", "b", goal.DependencyLinked),
	}

	g, err := Build(mkGoals("a", "b", "c"), edges, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Precedence) != 1 || len(g.Advisory) != 1 || len(g.Links) != 1 {
		t.Fatalf("expected 1/1/1 edges, got %d/%d/%d", len(g.Precedence), len(g.Advisory), len(g.Links))
	}
	if len(g.RevAdj["c"]) != 0 {
		t.Errorf("conditional edge should not constrain c by default, got %v", g.RevAdj["c"])
	}

	g, err = Build(mkGoals("a", "b", "c"), edges, Options{ConditionalAsHard: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(g.RevAdj["c"], []string{"a"}) {
		t.Errorf("expected conditional edge promoted to hard, got %v", g.RevAdj["c"])
	}
}

func TestBuild_RejectsUnknownGoal(t *testing.T) {
	edges := []goal.DependencyEdge{dep("e1", "a", "ghost", goal.DependencySequential)}

	g, err := Build(mkGoals("a"), edges, Options{})
	if g != nil {
		t.Error("expected nil graph on error")
	}
	var ref *goal.ReferentialError
	if !errors.As(err, &ref) {
		t.Fatalf("expected ReferentialError, got %v", err)
	}
	if ref.Kind != goal.KindUnknownGoal || ref.GoalID != "ghost" {
		t.Errorf("unexpected error: %+v", ref)
	}
}

func TestBuild_RejectsSelfEdge(t *testing.T) {
	_, err := Build(mkGoals("a"), []goal.DependencyEdge{dep("e1", "a", "a", goal.DependencyBlocking)}, Options{})
	var ref *goal.ReferentialError
	if !errors.As(err, &ref) || ref.Kind != goal.KindSelfEdge {
		t.Fatalf("expected self_edge error, got %v", err)
	}
}

func TestBuild_RejectsDuplicateTriple(t *testing.T) {
	edges := []goal.DependencyEdge{
		dep("e1", "b", "a", goal.DependencySequential),
		dep("e2", "b", "a", goal.DependencySequential),
		dep("e3", "b", "a", goal.DependencyBlocking), // different type: allowed
	}
	g, err := BuildPartial(mkGoals("a", "b"), edges, Options{})

	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("expected BuildError, got %v", err)
	}
	if len(be.Problems) != 1 {
		t.Fatalf("expected 1 problem, got %v", be.Problems)
	}
	var ref *goal.ReferentialError
	if !errors.As(err, &ref) || ref.Kind != goal.KindDuplicateEdge || ref.EdgeID != "e2" {
		t.Errorf("expected duplicate_edge for e2, got %v", err)
	}
	if len(g.Precedence) != 2 {
		t.Errorf("expected 2 accepted edges, got %d", len(g.Precedence))
	}
	if len(g.RevAdj["b"]) != 1 {
		t.Errorf("parallel hard edges should collapse in adjacency, got %v", g.RevAdj["b"])
	}
}

func TestBuildPartial_CollectsAllProblems(t *testing.T) {
	edges := []goal.DependencyEdge{
		dep("e1", "a", "a", goal.DependencySequential),
		dep("e2", "a", "nope", goal.DependencySequential),
		{ID: "e3", SourceGoalID: "a", TargetGoalID: "b"},
		dep("e4", "b", "a", goal.DependencySequential),
	}
	g, err := BuildPartial(mkGoals("a", "b", "a"), edges, Options{})

	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("expected BuildError, got %v", err)
	}
	if len(be.Problems) != 4 {
		t.Fatalf("expected 4 problems (dup goal, self, unknown, type), got %d: %v", len(be.Problems), be.Problems)
	}
	var sem *goal.SemanticError
	if !errors.As(err, &sem) || sem.Kind != goal.KindInvalidType {
		t.Errorf("expected invalid_type among problems, got %v", err)
	}
	if g == nil || len(g.Precedence) != 1 {
		t.Errorf("expected partial graph with 1 edge, got %+v", g)
	}
}

func TestFindCycles_TwoNode(t *testing.T) {
	edges := []goal.DependencyEdge{
		dep("e1", "A", "B", goal.DependencySequential),
		dep("e2", "B", "A", goal.DependencySequential),
	}
	g, err := Build(mkGoals("A", "B"), edges, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cycles := FindCycles(g)
	if !reflect.DeepEqual(cycles, [][]string{{"A", "B"}}) {
		t.Errorf("expected [[A B]], got %v", cycles)
	}
}

func TestFindCycles_Acyclic(t *testing.T) {
	edges := []goal.DependencyEdge{
		dep("e1", "b", "a", goal.DependencySequential),
		dep("e2", "c", "b", goal.DependencyBlocking),
		dep("e3", "c", "a", goal.DependencySequential),
	}
	g, _ := Build(mkGoals("a", "b", "c"), edges, Options{})
	if cycles := FindCycles(g); len(cycles) != 0 {
		t.Errorf("expected no cycles, got %v", cycles)
	}
}

func TestFindCycles_ReportsDisjointCycles(t *testing.T) {
	edges := []goal.DependencyEdge{
		dep("e1", "a", "b", goal.DependencySequential),
		dep("e2", "b", "c", goal.DependencySequential),
		dep("e3", "c", "a", goal.DependencySequential),
		dep("e4", "x", "y", goal.DependencyBlocking),
		dep("e5", "y", "x", goal.DependencyBlocking),
		dep("e6", "free", "a", goal.DependencySequential),
	}
	g, _ := Build(mkGoals("a", "b", "c", "x", "y", "free"), edges, Options{})

	cycles := FindCycles(g)
	want := [][]string{{"a", "b", "c"}, {"x", "y"}}
	if !reflect.DeepEqual(cycles, want) {
		t.Errorf("expected %v, got %v", want, cycles)
	}
}

func TestFindCycles_StableUnderReordering(t *testing.T) {
	edges := []goal.DependencyEdge{
		dep("e1", "a", "b", goal.DependencySequential),
		dep("e2", "b", "c", goal.DependencySequential),
		dep("e3", "c", "a", goal.DependencySequential),
	}
	g1, _ := Build(mkGoals("a", "b", "c"), edges, Options{})
	g2, _ := Build(mkGoals("c", "b", "a"), []goal.DependencyEdge{edges[2], edges[0], edges[1]}, Options{})

	c1, c2 := FindCycles(g1), FindCycles(g2)
	if len(c1) != 1 || len(c2) != 1 {
		t.Fatalf("expected one cycle each, got %v and %v", c1, c2)
	}
	if canonicalKey(c1[0]) != canonicalKey(c2[0]) {
		t.Errorf("cycle sets differ: %v vs %v", c1, c2)
	}
	if !reflect.DeepEqual(FindCycles(g1), c1) {
		t.Error("repeated calls should return identical listings")
	}
}

func TestFindCycles_IgnoresConditionalByDefault(t *testing.T) {
	edges := []goal.DependencyEdge{
		dep("e1", "a", "b", goal.DependencySequential),
		dep("e2", "b", "a", goal.DependencyConditional),
		dep("e3", "a", "b", goal.DependencyLinked),
	}
	g, _ := Build(mkGoals("a", "b"), edges, Options{})
	if cycles := FindCycles(g); len(cycles) != 0 {
		t.Errorf("expected no hard cycles, got %v", cycles)
	}

	g, _ = Build(mkGoals("a", "b"), edges, Options{ConditionalAsHard: true})
	if cycles := FindCycles(g); len(cycles) != 1 {
		t.Errorf("expected conditional cycle when promoted, got %v", cycles)
	}
}

func TestReachability(t *testing.T) {
	// c -> b -> a, d independent
	edges := []goal.DependencyEdge{
		dep("e1", "b", "a", goal.DependencySequential),
		dep("e2", "c", "b", goal.DependencySequential),
	}
	g, _ := Build(mkGoals("a", "b", "c", "d"), edges, Options{})
	r := NewReachability(g)

	if !r.Precedes("a", "c") {
		t.Error("expected a to transitively precede c")
	}
	if r.Precedes("c", "a") {
		t.Error("c must not precede a")
	}
	if !r.Related("c", "a") {
		t.Error("expected a and c related")
	}
	if r.Related("a", "d") {
		t.Error("a and d are independent")
	}
}
