package evaluationmanagement

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"ai-interview-platform/backend/internal/datastore"
)

func TestStatusCodeFor(t *testing.T) {
	assert.Equal(t, http.StatusAccepted, statusCodeFor(&EvaluationView{Status: datastore.EvaluationStatusInProgress}))
	assert.Equal(t, http.StatusOK, statusCodeFor(&EvaluationView{Status: datastore.EvaluationStatusCompleted}))
	assert.Equal(t, http.StatusOK, statusCodeFor(&EvaluationView{Status: datastore.EvaluationStatusFailed}))
}

func TestGetEvaluationHandlerRejectsBadForceRefresh(t *testing.T) {
	gin.SetMode(gin.TestMode)

	service := NewEvaluationService(newFakeResultStore(), &fakeEngine{}, time.Minute)
	handlers := NewEvaluationHandlers(service)

	router := gin.New()
	router.GET("/api/interviews/:interview_id/evaluation", handlers.GetEvaluationHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/interviews/int-1/evaluation?force_refresh=maybe", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "force_refresh must be a boolean")
}

func TestListEvaluationsHandlerRejectsUnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	service := NewEvaluationService(newFakeResultStore(), &fakeEngine{}, time.Minute)
	handlers := NewEvaluationHandlers(service)

	router := gin.New()
	router.GET("/api/evaluations", handlers.ListEvaluationsHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/evaluations?status=DONE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "status must be one of")
}
