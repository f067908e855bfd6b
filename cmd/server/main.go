package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"ai-interview-platform/backend/internal/apigateway"
	"ai-interview-platform/backend/internal/auth"
	"ai-interview-platform/backend/internal/coreengine/audioscorer"
	"ai-interview-platform/backend/internal/coreengine/evaluationengine"
	"ai-interview-platform/backend/internal/coreengine/questionscorer"
	"ai-interview-platform/backend/internal/coreengine/summarizer"
	"ai-interview-platform/backend/internal/datastore"
	"ai-interview-platform/backend/internal/evaluationmanagement"
	"ai-interview-platform/backend/internal/llmclient"
	"ai-interview-platform/backend/internal/objectstore"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded; using process environment.")
	}

	auth.LoadManagerCredentials()

	// Database connection from environment variables.
	dbHost := envOrDefault("DB_HOST", "localhost")
	dbPort := envOrDefault("DB_PORT", "5432")
	dbUser := envOrDefault("DB_USER", "postgres")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := envOrDefault("DB_NAME", "ai_interview_platform_db")
	dbSSLMode := envOrDefault("DB_SSLMODE", "disable")
	if dbPassword == "" {
		log.Println("WARNING: DB_PASSWORD environment variable not set.")
	}

	dataSourceName := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)

	if err := datastore.InitDB(dataSourceName); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer datastore.DB.Close()

	// Object storage for answer recordings.
	minioClient, err := objectstore.InitMinioClient()
	if err != nil {
		log.Fatalf("Failed to initialize MinIO client: %v", err)
	}

	// Completion clients are constructed once here and injected; their
	// lifetime is owned by the process, not by the first caller.
	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Println("WARNING: OPENAI_API_KEY environment variable not set.")
	}
	openAIModel := envOrDefault("OPENAI_MODEL", "gpt-4o-mini")
	openAIBaseURL := os.Getenv("OPENAI_BASE_URL")
	gradingClient := llmclient.NewOpenAIClient(openAIKey, openAIModel, openAIBaseURL, 0.4)
	summaryClient := llmclient.NewOpenAIClient(openAIKey, openAIModel, openAIBaseURL, 0.5)

	engine := evaluationengine.NewEngine(
		datastore.InterviewSource{},
		questionscorer.NewScorer(gradingClient),
		audioscorer.NewScorer(minioClient),
		summarizer.NewSummarizer(summaryClient),
	)

	evalTimeout := envDurationSeconds("EVALUATION_TIMEOUT_SECONDS", 120)
	evalService := evaluationmanagement.NewEvaluationService(datastore.ResultStore{}, engine, evalTimeout)

	// Reclaim sweep for evaluations abandoned mid-attempt (e.g. process
	// killed before a terminal state was written).
	reclaimInterval := envDurationSeconds("EVALUATION_RECLAIM_INTERVAL_SECONDS", 60)
	stuckAfter := envDurationSeconds("EVALUATION_STUCK_AFTER_SECONDS", 600)
	evalService.StartReclaimLoop(context.Background(), reclaimInterval, stuckAfter)

	router := apigateway.SetupRouter(evaluationmanagement.NewEvaluationHandlers(evalService))

	serverPort := envOrDefault("SERVER_PORT", "8080")
	log.Printf("Starting server on :%s", serverPort)
	if err := router.Run(":" + serverPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDurationSeconds(key string, fallbackSeconds int) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallbackSeconds) * time.Second
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		log.Printf("Warning: %s is not a positive integer ('%s'). Using default %ds.", key, raw, fallbackSeconds)
		return time.Duration(fallbackSeconds) * time.Second
	}
	return time.Duration(seconds) * time.Second
}
