package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rparkin1/wealthNavigator-sub000/internal/engine"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goalstore"
	"github.com/rparkin1/wealthNavigator-sub000/internal/metrics"
	"github.com/rparkin1/wealthNavigator-sub000/internal/store"
)

var today = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	at := goal.DateOf(today)
	goals := goalstore.NewStatic([]goal.Goal{
		{ID: "Emergency", Title: "Emergency fund", TargetDate: at.AddMonths(12), Priority: goal.PriorityEssential, DurationMonths: 6},
		{ID: "Home", Title: "Home deposit", TargetDate: at.AddMonths(60), Priority: goal.PriorityImportant, DurationMonths: 24},
		{ID: "Retirement", TargetDate: at.AddMonths(400), Priority: goal.PriorityEssential, DurationMonths: 360},
		{ID: "CollegeFund", TargetDate: at.AddMonths(216), Priority: goal.PriorityImportant, DurationMonths: 216},
		{ID: "A", TargetDate: at.AddMonths(120), Priority: goal.PriorityImportant, DurationMonths: 12},
		{ID: "B", TargetDate: at.AddMonths(120), Priority: goal.PriorityImportant, DurationMonths: 12},
	})
	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := engine.New(goals, store.NewMemory(logger), engine.Options{},
		engine.WithLogger(logger),
		engine.WithClock(func() time.Time { return today }),
	)
	return NewRouter(svc, RouterConfig{Logger: logger, Metrics: metrics.New(reg), Gatherer: reg})
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createEdge(t *testing.T, r http.Handler, source, target, typ string) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/dependencies", gin.H{
		"source_goal_id":  source,
		"target_goal_id":  target,
		"dependency_type": typ,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[goal.DependencyEdge](t, w).ID
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCreateEdge_Rejections(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		name string
		body gin.H
		kind string
	}{
		{"conditional without condition", gin.H{"source_goal_id": "Home", "target_goal_id": "Emergency", "dependency_type": "conditional"}, "missing_condition"},
		{"self dependency", gin.H{"source_goal_id": "Home", "target_goal_id": "Home", "dependency_type": "sequential"}, "self_edge"},
		{"unknown type", gin.H{"source_goal_id": "Home", "target_goal_id": "Emergency", "dependency_type": "eventually"}, "invalid_type"},
		{"unknown goal", gin.H{"source_goal_id": "Home", "target_goal_id": "Yacht", "dependency_type": "blocking"}, "unknown_goal"},
		{"missing source", gin.H{"target_goal_id": "Home", "dependency_type": "blocking"}, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/dependencies", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.kind, decode[map[string]any](t, w)["kind"])
		})
	}
}

func TestEdgeLifecycle(t *testing.T) {
	r := newTestRouter(t)
	id := createEdge(t, r, "Home", "Emergency", "sequential")

	w := do(t, r, http.MethodPost, "/dependencies", gin.H{
		"source_goal_id": "Home", "target_goal_id": "Emergency", "dependency_type": "sequential",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "duplicate_edge", decode[map[string]any](t, w)["kind"])

	w = do(t, r, http.MethodGet, "/dependencies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]goal.DependencyEdge](t, w), 1)

	w = do(t, r, http.MethodGet, "/dependencies/goal/Emergency", nil)
	require.Equal(t, http.StatusOK, w.Code)
	scoped := decode[struct {
		Dependencies []goal.DependencyEdge `json:"dependencies"`
		Dependents   []goal.DependencyEdge `json:"dependents"`
	}](t, w)
	assert.Empty(t, scoped.Dependencies)
	require.Len(t, scoped.Dependents, 1)
	assert.Equal(t, id, scoped.Dependents[0].ID)

	w = do(t, r, http.MethodPatch, "/dependencies/"+id, gin.H{"dependency_type": "blocking", "description": "save first"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[goal.DependencyEdge](t, w)
	assert.Equal(t, goal.DependencyBlocking, updated.Type)
	assert.Equal(t, "save first", updated.Description)

	w = do(t, r, http.MethodPatch, "/dependencies/"+id, gin.H{"dependency_type": "sometimes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, "/dependencies/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodDelete, "/dependencies/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[map[string]any](t, w)["kind"])
}

func TestOptimize_LinearChain(t *testing.T) {
	r := newTestRouter(t)
	createEdge(t, r, "Home", "Emergency", "sequential")

	w := do(t, r, http.MethodPost, "/dependencies/optimize", gin.H{"goal_ids": []string{"Emergency", "Home"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plan struct {
		OptimizedSequence   []string   `json:"optimized_sequence"`
		ParallelGroups      [][]string `json:"parallel_groups"`
		CriticalPath        []string   `json:"critical_path"`
		TotalDurationMonths int        `json:"total_duration_months"`
		Recommendations     []string   `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, []string{"Emergency", "Home"}, plan.OptimizedSequence)
	assert.Equal(t, []string{"Emergency", "Home"}, plan.CriticalPath)
	assert.Equal(t, 30, plan.TotalDurationMonths)
	assert.Empty(t, plan.ParallelGroups)
	assert.NotEmpty(t, plan.Recommendations)
}

func TestOptimize_Parallel(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/dependencies/optimize", gin.H{"goal_ids": []string{"Retirement", "CollegeFund"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	plan := decode[map[string]any](t, w)
	assert.Equal(t, []any{[]any{"Retirement", "CollegeFund"}}, plan["parallel_groups"])
	assert.Equal(t, []any{"Retirement"}, plan["critical_path"])
}

func TestCycle_ValidateAndOptimize(t *testing.T) {
	r := newTestRouter(t)
	createEdge(t, r, "A", "B", "sequential")
	createEdge(t, r, "B", "A", "sequential")
	body := gin.H{"goal_ids": []string{"A", "B"}}

	w := do(t, r, http.MethodPost, "/dependencies/validate", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[validateResponse](t, w)
	assert.False(t, report.IsValid)
	assert.Equal(t, [][]string{{"A", "B"}}, report.CyclesDetected)
	assert.NotEmpty(t, report.Errors)

	w = do(t, r, http.MethodPost, "/dependencies/optimize", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "cycle", resp["kind"])
	assert.Equal(t, []any{[]any{"A", "B"}}, resp["cycles"])
}

func TestTimeline(t *testing.T) {
	r := newTestRouter(t)
	createEdge(t, r, "Home", "Emergency", "sequential")

	w := do(t, r, http.MethodPost, "/dependencies/timeline", gin.H{"goal_ids": []string{"Emergency", "Home"}, "as_of": "2026-01-01"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entries := decode[[]engine.TimelineEntry](t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, "Home", entries[1].GoalID)
	assert.Equal(t, "Home deposit", entries[1].GoalTitle)
	assert.Equal(t, "2026-07-01", entries[1].EarliestStart.String())
	assert.Equal(t, []string{"Emergency"}, entries[1].Dependencies)
	assert.Equal(t, []string{"Home"}, entries[0].Dependents)
}

func TestGoalsRequest_Invalid(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/dependencies/validate", gin.H{"as_of": "2026-01-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/dependencies/validate", gin.H{"goal_ids": []string{"Nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_goal", decode[map[string]any](t, w)["kind"])
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	do(t, r, http.MethodGet, "/health", nil)

	w := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `route="/health"`), w.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusRequestTimeout, statusFor(goal.ErrTimeout))
	assert.Equal(t, http.StatusConflict, statusFor(&goal.CyclicGraphError{Cycles: [][]string{{"a", "b"}}}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
