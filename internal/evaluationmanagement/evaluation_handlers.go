package evaluationmanagement

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ai-interview-platform/backend/internal/datastore"
)

// EvaluationHandlers exposes the evaluation cache over HTTP.
type EvaluationHandlers struct {
	service *EvaluationService
}

// NewEvaluationHandlers creates the handler set for the given service.
func NewEvaluationHandlers(service *EvaluationService) *EvaluationHandlers {
	return &EvaluationHandlers{service: service}
}

// GetEvaluationHandler serves GET /api/interviews/:interview_id/evaluation.
// An optional force_refresh=true query discards the cached state and
// recomputes.
func (h *EvaluationHandlers) GetEvaluationHandler(c *gin.Context) {
	interviewID := c.Param("interview_id")

	forceRefresh := false
	if raw := c.Query("force_refresh"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "force_refresh must be a boolean"})
			return
		}
		forceRefresh = parsed
	}

	interview, err := datastore.GetInterviewByInterviewID(c.Request.Context(), interviewID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Interview not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up interview: " + err.Error()})
		}
		return
	}

	view, err := h.service.GetOrCompute(c.Request.Context(), interviewID, interview.UserID, forceRefresh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate interview: " + err.Error()})
		return
	}

	c.JSON(statusCodeFor(view), view)
}

// RecomputeEvaluationHandler serves POST
// /api/interviews/:interview_id/evaluation/recompute, resetting the cached
// status and recomputing regardless of the stored state.
func (h *EvaluationHandlers) RecomputeEvaluationHandler(c *gin.Context) {
	interviewID := c.Param("interview_id")

	interview, err := datastore.GetInterviewByInterviewID(c.Request.Context(), interviewID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Interview not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up interview: " + err.Error()})
		}
		return
	}

	view, err := h.service.GetOrCompute(c.Request.Context(), interviewID, interview.UserID, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recompute evaluation: " + err.Error()})
		return
	}

	c.JSON(statusCodeFor(view), view)
}

// CompleteInterviewHandler serves POST /api/interviews/:interview_id/complete.
// It marks the interview completed and queues the evaluation without
// blocking the caller on the computation.
func (h *EvaluationHandlers) CompleteInterviewHandler(c *gin.Context) {
	interviewID := c.Param("interview_id")

	interview, err := datastore.GetInterviewByInterviewID(c.Request.Context(), interviewID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Interview not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up interview: " + err.Error()})
		}
		return
	}

	if err := datastore.UpdateInterviewStatus(c.Request.Context(), interviewID, datastore.InterviewStatusCompleted); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark interview completed: " + err.Error()})
		return
	}

	h.service.DispatchEvaluation(interviewID, interview.UserID)

	c.JSON(http.StatusAccepted, gin.H{
		"message":      "Interview marked as completed. Evaluation queued.",
		"interview_id": interviewID,
	})
}

// ListEvaluationsHandler serves GET /api/evaluations?status=..., a manager
// view over the evaluation records in one state (e.g. FAILED records that
// need a recompute).
func (h *EvaluationHandlers) ListEvaluationsHandler(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case datastore.EvaluationStatusInProgress,
		datastore.EvaluationStatusCompleted,
		datastore.EvaluationStatusFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of IN_PROGRESS, COMPLETED, FAILED"})
		return
	}

	results, err := datastore.ListEvaluationResultsByStatus(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list evaluations: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"evaluations": results, "count": len(results)})
}

// statusCodeFor maps an evaluation view to an HTTP status: a still-running
// computation is 202, everything else (including a retained failure notice)
// is a successful read of the stored state.
func statusCodeFor(view *EvaluationView) int {
	if view.Status == datastore.EvaluationStatusInProgress {
		return http.StatusAccepted
	}
	return http.StatusOK
}
