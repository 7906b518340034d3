package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

var asOf = goal.NewDate(2026, time.January, 1)

func mkGoal(id string, duration, due int, p goal.Priority) goal.Goal {
	return goal.Goal{
		ID:             id,
		TargetDate:     asOf.AddMonths(due),
		Priority:       p,
		DurationMonths: duration,
	}
}

func seq(id, source, target string) goal.DependencyEdge {
	return goal.DependencyEdge{ID: id, SourceGoalID: source, TargetGoalID: target, Type: goal.DependencySequential}
}

func TestOptimize_LinearChain(t *testing.T) {
	goals := []goal.Goal{
		mkGoal("Home", 24, 60, goal.PriorityImportant),
		mkGoal("Emergency", 6, 12, goal.PriorityEssential),
	}
	edges := []goal.DependencyEdge{seq("e1", "Home", "Emergency")}

	plan, err := Optimize(context.Background(), goals, edges, Options{AsOf: asOf})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}

	if !reflect.DeepEqual(plan.OptimizedSequence, []string{"Emergency", "Home"}) {
		t.Errorf("expected sequence [Emergency Home], got %v", plan.OptimizedSequence)
	}
	if !reflect.DeepEqual(plan.CriticalPath, []string{"Emergency", "Home"}) {
		t.Errorf("expected critical path [Emergency Home], got %v", plan.CriticalPath)
	}
	if plan.TotalDurationMonths != 30 {
		t.Errorf("expected 30 months, got %d", plan.TotalDurationMonths)
	}
	if len(plan.ParallelGroups) != 0 {
		t.Errorf("expected no parallel groups, got %v", plan.ParallelGroups)
	}

	want := []string{
		"Critical path: Emergency -> Home (30 months, complete by 2028-07-01).",
		"Goal Emergency is on the critical path with zero slack; delaying it delays everything downstream.",
		"Goal Home is on the critical path with zero slack; delaying it delays everything downstream.",
	}
	if !reflect.DeepEqual(plan.Recommendations, want) {
		t.Errorf("unexpected recommendations:\n%s", strings.Join(plan.Recommendations, "\n"))
	}
}

func TestOptimize_ParallelGoals(t *testing.T) {
	goals := []goal.Goal{
		mkGoal("Retirement", 360, 400, goal.PriorityEssential),
		mkGoal("CollegeFund", 216, 216, goal.PriorityImportant),
	}

	plan, err := Optimize(context.Background(), goals, nil, Options{AsOf: asOf})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !reflect.DeepEqual(plan.ParallelGroups, [][]string{{"Retirement", "CollegeFund"}}) {
		t.Errorf("expected [[Retirement CollegeFund]], got %v", plan.ParallelGroups)
	}
	if !reflect.DeepEqual(plan.CriticalPath, []string{"Retirement"}) {
		t.Errorf("expected critical path [Retirement], got %v", plan.CriticalPath)
	}

	recs := strings.Join(plan.Recommendations, "\n")
	for _, s := range []string{
		"Goals Retirement and CollegeFund can be pursued simultaneously starting 2026-01-01.",
		"Goal CollegeFund has 144 months of slack; it can start as late as 2038-01-01 without delaying the plan.",
	} {
		if !strings.Contains(recs, s) {
			t.Errorf("missing recommendation %q in:\n%s", s, recs)
		}
	}
}

func TestOptimize_CycleRefused(t *testing.T) {
	goals := []goal.Goal{mkGoal("A", 6, 60, goal.PriorityImportant), mkGoal("B", 6, 60, goal.PriorityImportant)}
	edges := []goal.DependencyEdge{seq("e1", "A", "B"), seq("e2", "B", "A")}

	_, err := Optimize(context.Background(), goals, edges, Options{AsOf: asOf})
	var cyc *goal.CyclicGraphError
	if !errors.As(err, &cyc) {
		t.Fatalf("expected CyclicGraphError, got %v", err)
	}
	if !reflect.DeepEqual(cyc.Cycles, [][]string{{"A", "B"}}) {
		t.Errorf("unexpected cycles %v", cyc.Cycles)
	}
}

func TestOptimize_ReferentialProblem(t *testing.T) {
	goals := []goal.Goal{mkGoal("A", 6, 60, goal.PriorityImportant)}
	edges := []goal.DependencyEdge{seq("e1", "A", "missing")}

	_, err := Optimize(context.Background(), goals, edges, Options{AsOf: asOf})
	var ref *goal.ReferentialError
	if !errors.As(err, &ref) || ref.Kind != goal.KindUnknownGoal {
		t.Fatalf("expected unknown_goal, got %v", err)
	}
}

func TestOptimize_SequenceTieBreaks(t *testing.T) {
	// All three have zero slack; priority decides. z has slack and goes last
	// even though it is essential.
	goals := []goal.Goal{
		mkGoal("a", 24, 120, goal.PriorityAspirational),
		mkGoal("b", 24, 120, goal.PriorityEssential),
		mkGoal("c", 24, 120, goal.PriorityImportant),
		mkGoal("z", 6, 120, goal.PriorityEssential),
	}

	plan, err := Optimize(context.Background(), goals, nil, Options{AsOf: asOf})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !reflect.DeepEqual(plan.OptimizedSequence, []string{"b", "c", "a", "z"}) {
		t.Errorf("expected [b c a z], got %v", plan.OptimizedSequence)
	}
}

func TestOptimize_SequenceRespectsPrecedence(t *testing.T) {
	// late depends on slow; quick floats with plenty of slack
	goals := []goal.Goal{
		mkGoal("quick", 2, 120, goal.PriorityEssential),
		mkGoal("late", 12, 120, goal.PriorityAspirational),
		mkGoal("slow", 12, 120, goal.PriorityAspirational),
	}
	edges := []goal.DependencyEdge{seq("e1", "late", "slow")}

	plan, err := Optimize(context.Background(), goals, edges, Options{AsOf: asOf})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !reflect.DeepEqual(plan.OptimizedSequence, []string{"slow", "late", "quick"}) {
		t.Errorf("expected [slow late quick], got %v", plan.OptimizedSequence)
	}
}

func TestOptimize_NegativeMarginRecommendation(t *testing.T) {
	goals := []goal.Goal{
		mkGoal("p", 24, 36, goal.PriorityImportant),
		mkGoal("q", 24, 36, goal.PriorityImportant),
	}
	edges := []goal.DependencyEdge{seq("e1", "q", "p")}

	plan, err := Optimize(context.Background(), goals, edges, Options{AsOf: asOf})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	want := "Goal q has negative feasibility margin (-12 months); consider extending its target date or reducing its duration."
	found := false
	for _, r := range plan.Recommendations {
		if r == want {
			found = true
		}
	}
	if !found {
		t.Errorf("missing %q in %v", want, plan.Recommendations)
	}
}

func TestOptimize_Idempotent(t *testing.T) {
	goals := []goal.Goal{
		mkGoal("a", 12, 60, goal.PriorityEssential),
		mkGoal("b", 24, 60, goal.PriorityImportant),
		mkGoal("c", 6, 60, goal.PriorityAspirational),
		mkGoal("d", 18, 90, goal.PriorityImportant),
	}
	edges := []goal.DependencyEdge{
		seq("e1", "b", "a"),
		seq("e2", "d", "c"),
		{ID: "e3", SourceGoalID: "c", TargetGoalID: "a", Type: goal.DependencyLinked},
	}

	first, err := Optimize(context.Background(), goals, edges, Options{AsOf: asOf})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	second, err := Optimize(context.Background(), goals, edges, Options{AsOf: asOf})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	b1, _ := json.Marshal(first)
	b2, _ := json.Marshal(second)
	if !bytes.Equal(b1, b2) {
		t.Errorf("outputs differ:\n%s\n%s", b1, b2)
	}
}

func TestHumanList(t *testing.T) {
	if got := humanList([]string{"a", "b", "c"}); got != "a, b and c" {
		t.Errorf("unexpected %q", got)
	}
	if got := humanList([]string{"a"}); got != "a" {
		t.Errorf("unexpected %q", got)
	}
}
