package apigateway

import (
	"github.com/gin-gonic/gin"

	"ai-interview-platform/backend/internal/auth"
	"ai-interview-platform/backend/internal/evaluationmanagement"
)

// SetupRouter initializes the main Gin router for the API gateway.
// It includes public routes and authenticated routes.
func SetupRouter(evalHandlers *evaluationmanagement.EvaluationHandlers) *gin.Engine {
	router := gin.Default()

	// Public routes (e.g., login)
	authRoutes := router.Group("/auth")
	{
		// LoadManagerCredentials must be called at application startup,
		// before the router is set up.
		authRoutes.POST("/login", auth.LoginHandler)
		authRoutes.POST("/logout", auth.LogoutHandler)
	}

	// Evaluation read path: candidates and managers view results here, so it
	// sits outside the manager session group.
	router.GET("/api/interviews/:interview_id/evaluation", evalHandlers.GetEvaluationHandler)

	// Manager-only routes behind the session middleware.
	managerRoutes := router.Group("/api")
	managerRoutes.Use(auth.AuthMiddleware())
	{
		managerRoutes.POST("/interviews/:interview_id/evaluation/recompute", evalHandlers.RecomputeEvaluationHandler)
		managerRoutes.POST("/interviews/:interview_id/complete", evalHandlers.CompleteInterviewHandler)
		managerRoutes.GET("/evaluations", evalHandlers.ListEvaluationsHandler)
	}

	return router
}
