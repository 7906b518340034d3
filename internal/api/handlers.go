package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rparkin1/wealthNavigator-sub000/internal/engine"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/store"
	"github.com/rparkin1/wealthNavigator-sub000/internal/validator"
)

type createEdgeRequest struct {
	SourceGoalID   string `json:"source_goal_id" binding:"required"`
	TargetGoalID   string `json:"target_goal_id" binding:"required"`
	DependencyType string `json:"dependency_type" binding:"required,dependency_type"`
	Description    string `json:"description"`
	Condition      string `json:"condition"`
}

type updateEdgeRequest struct {
	DependencyType *string `json:"dependency_type" binding:"omitempty,dependency_type"`
	Description    *string `json:"description"`
	Condition      *string `json:"condition"`
}

type goalsRequest struct {
	GoalIDs []string  `json:"goal_ids" binding:"required,dive,required"`
	AsOf    goal.Date `json:"as_of"`
}

func (r goalsRequest) request() engine.Request {
	return engine.Request{GoalIDs: r.GoalIDs, AsOf: r.AsOf}
}

type validateResponse struct {
	IsValid        bool              `json:"is_valid"`
	Errors         []string          `json:"errors"`
	Warnings       []string          `json:"warnings"`
	CyclesDetected [][]string        `json:"cycles_detected"`
	Issues         []validator.Issue `json:"issues"`
}

func messages(issues []validator.Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Message
	}
	return out
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) createEdge(c *gin.Context) {
	var req createEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	typ, err := goal.ParseDependencyType(req.DependencyType)
	if err != nil {
		h.fail(c, err)
		return
	}
	e, err := h.svc.CreateEdge(c.Request.Context(), goal.DependencyEdge{
		SourceGoalID: req.SourceGoalID,
		TargetGoalID: req.TargetGoalID,
		Type:         typ,
		Description:  req.Description,
		Condition:    req.Condition,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *handler) listEdges(c *gin.Context) {
	edges, err := h.svc.Edges(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, edges)
}

func (h *handler) edgesForGoal(c *gin.Context) {
	id := c.Param("goalId")
	deps, dependents, err := h.svc.EdgesForGoal(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"goal_id":      id,
		"dependencies": deps,
		"dependents":   dependents,
	})
}

func (h *handler) updateEdge(c *gin.Context) {
	var req updateEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	p := store.Patch{Description: req.Description, Condition: req.Condition}
	if req.DependencyType != nil {
		typ, err := goal.ParseDependencyType(*req.DependencyType)
		if err != nil {
			h.fail(c, err)
			return
		}
		p.Type = &typ
	}
	e, err := h.svc.UpdateEdge(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *handler) deleteEdge(c *gin.Context) {
	if err := h.svc.DeleteEdge(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) validate(c *gin.Context) {
	var req goalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	r, err := h.svc.Validate(c.Request.Context(), req.request())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, validateResponse{
		IsValid:        r.IsValid,
		Errors:         messages(r.Errors),
		Warnings:       messages(r.Warnings),
		CyclesDetected: r.CyclesDetected,
		Issues:         append(append([]validator.Issue{}, r.Errors...), r.Warnings...),
	})
}

func (h *handler) timeline(c *gin.Context) {
	var req goalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	entries, err := h.svc.Timeline(c.Request.Context(), req.request())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *handler) optimize(c *gin.Context) {
	var req goalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	plan, err := h.svc.Optimize(c.Request.Context(), req.request())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}
