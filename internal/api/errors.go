package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

// statusFor maps engine errors onto HTTP statuses.
func statusFor(err error) int {
	var ref *goal.ReferentialError
	var sem *goal.SemanticError
	var cyc *goal.CyclicGraphError
	switch {
	case errors.As(err, &cyc):
		return http.StatusConflict
	case errors.As(err, &ref), errors.As(err, &sem):
		return http.StatusBadRequest
	case errors.Is(err, goal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, goal.ErrTimeout):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func (h *handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error(), "kind": goal.ErrorKind(err)}
	var cyc *goal.CyclicGraphError
	if errors.As(err, &cyc) {
		body["cycles"] = cyc.Cycles
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		body["error"] = "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}

// badRequest reports a body that failed to bind.
func (h *handler) badRequest(c *gin.Context, err error) {
	kind := "invalid_request"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "dependency_type" {
				kind = string(goal.KindInvalidType)
				break
			}
		}
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": kind})
}
