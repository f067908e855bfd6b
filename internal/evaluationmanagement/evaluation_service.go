package evaluationmanagement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ai-interview-platform/backend/internal/coreengine/evaluationengine"
	"ai-interview-platform/backend/internal/datastore"
)

// Reader-facing notices for the non-computing branches.
const (
	messageStillRunning = "Evaluation is still in progress. Check back shortly."
	messageLastFailed   = "The last evaluation attempt failed."
)

// EvaluationEngine computes a full interview evaluation.
type EvaluationEngine interface {
	Evaluate(ctx context.Context, interviewID string) (*evaluationengine.InterviewResult, error)
}

// ResultStore is the persistence surface of the evaluation state machine.
// datastore.ResultStore is the production implementation.
type ResultStore interface {
	Get(ctx context.Context, interviewID, userID string) (*datastore.EvaluationResult, error)
	TryMarkInProgress(ctx context.Context, interviewID, userID, attemptID string) (bool, error)
	MarkInProgress(ctx context.Context, interviewID, userID, attemptID string) error
	Complete(ctx context.Context, interviewID, userID string, interviewResult json.RawMessage) error
	Fail(ctx context.Context, interviewID, userID, errMsg string) error
	ReclaimStuck(ctx context.Context, olderThan time.Duration) (int64, error)
}

// EvaluationView is what a caller of the cache observes: either a result, a
// still-running notice, or the retained error of the last failed attempt.
type EvaluationView struct {
	InterviewID     string          `json:"interview_id"`
	UserID          string          `json:"user_id"`
	Status          string          `json:"status"`
	Message         string          `json:"message,omitempty"`
	InterviewResult json.RawMessage `json:"interview_result,omitempty"`
	Error           string          `json:"error,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty"`
}

// EvaluationService owns the evaluation record state machine. It is the
// single writer of evaluation records; the engine never touches them.
type EvaluationService struct {
	store   ResultStore
	engine  EvaluationEngine
	timeout time.Duration
}

// NewEvaluationService wires the service. timeout bounds one computation
// attempt; an attempt that exceeds it terminates in FAILED rather than
// holding IN_PROGRESS indefinitely.
func NewEvaluationService(store ResultStore, engine EvaluationEngine, timeout time.Duration) *EvaluationService {
	return &EvaluationService{
		store:   store,
		engine:  engine,
		timeout: timeout,
	}
}

// GetOrCompute serves the evaluation for one (interview, user) key.
//
// With forceRefresh false: a COMPLETED record is returned as-is, an
// IN_PROGRESS record yields a still-running notice without triggering a
// second computation, and a FAILED record yields a notice carrying the
// stored error. Only when no record exists does it compute, guarded by the
// conditional IN_PROGRESS transition: first writer wins, losers observe
// the in-progress view.
//
// With forceRefresh true the record is moved to IN_PROGRESS unconditionally
// and recomputed; this may race an in-flight attempt, in which case the last
// writer to reach a terminal state wins the stored value.
func (s *EvaluationService) GetOrCompute(ctx context.Context, interviewID, userID string, forceRefresh bool) (*EvaluationView, error) {
	if !forceRefresh {
		record, err := s.store.Get(ctx, interviewID, userID)
		if err != nil && !errors.Is(err, datastore.ErrNotFound) {
			return nil, fmt.Errorf("failed to read evaluation record: %w", err)
		}
		if record != nil {
			switch record.Status {
			case datastore.EvaluationStatusCompleted:
				return completedView(record), nil
			case datastore.EvaluationStatusInProgress:
				return inProgressView(interviewID, userID, record.UpdatedAt), nil
			case datastore.EvaluationStatusFailed:
				return failedView(record), nil
			default:
				log.Printf("Evaluation record for interview %s has unexpected status %q; recomputing.", interviewID, record.Status)
			}
		}
	}

	attemptID := uuid.New().String()
	if forceRefresh {
		if err := s.store.MarkInProgress(ctx, interviewID, userID, attemptID); err != nil {
			return nil, err
		}
		log.Printf("Forced recompute for interview %s, attempt %s", interviewID, attemptID)
	} else {
		won, err := s.store.TryMarkInProgress(ctx, interviewID, userID, attemptID)
		if err != nil {
			return nil, err
		}
		if !won {
			// Another caller holds the computation; observe its progress
			// instead of starting a second one.
			log.Printf("Evaluation for interview %s already in progress; not starting a second computation.", interviewID)
			return inProgressView(interviewID, userID, time.Now()), nil
		}
		log.Printf("Starting evaluation for interview %s, attempt %s", interviewID, attemptID)
	}

	return s.runEvaluation(ctx, interviewID, userID)
}

// runEvaluation executes one attempt under the configured timeout and
// persists the terminal state. Every failure path, panics included, ends in
// FAILED so no record is left stuck IN_PROGRESS by this process.
func (s *EvaluationService) runEvaluation(ctx context.Context, interviewID, userID string) (view *EvaluationView, err error) {
	evalCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("Evaluation failed: panic: %v", r)
			log.Printf("Evaluation for interview %s panicked: %v", interviewID, r)
			s.persistFailure(interviewID, userID, msg)
			view = &EvaluationView{
				InterviewID: interviewID,
				UserID:      userID,
				Status:      datastore.EvaluationStatusFailed,
				Message:     messageLastFailed,
				Error:       msg,
				UpdatedAt:   time.Now(),
			}
			err = nil
		}
	}()

	result, evalErr := s.engine.Evaluate(evalCtx, interviewID)
	if evalErr != nil {
		msg := "Evaluation failed: " + evalErr.Error()
		log.Printf("Evaluation for interview %s failed: %v", interviewID, evalErr)
		s.persistFailure(interviewID, userID, msg)
		return &EvaluationView{
			InterviewID: interviewID,
			UserID:      userID,
			Status:      datastore.EvaluationStatusFailed,
			Message:     messageLastFailed,
			Error:       msg,
			UpdatedAt:   time.Now(),
		}, nil
	}

	resultJSON, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		msg := "Evaluation failed: could not encode result: " + marshalErr.Error()
		s.persistFailure(interviewID, userID, msg)
		return nil, fmt.Errorf("failed to encode evaluation result: %w", marshalErr)
	}

	persistCtx, persistCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer persistCancel()
	if storeErr := s.store.Complete(persistCtx, interviewID, userID, resultJSON); storeErr != nil {
		// The computation succeeded but the record may be stuck IN_PROGRESS;
		// the reclaim sweep will eventually flip it to FAILED.
		log.Printf("CRITICAL: failed to store completed evaluation for interview %s: %v", interviewID, storeErr)
		return nil, storeErr
	}

	log.Printf("Evaluation completed for interview %s", interviewID)
	return &EvaluationView{
		InterviewID:     interviewID,
		UserID:          userID,
		Status:          datastore.EvaluationStatusCompleted,
		InterviewResult: resultJSON,
		UpdatedAt:       time.Now(),
	}, nil
}

// persistFailure writes the FAILED terminal state on a fresh context, since
// the attempt's own context may already be expired or canceled.
func (s *EvaluationService) persistFailure(interviewID, userID, msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.Fail(ctx, interviewID, userID, msg); err != nil {
		log.Printf("CRITICAL: failed to store failed evaluation for interview %s: %v", interviewID, err)
	}
}

// DispatchEvaluation fires the evaluation as a detached task when an
// interview completes. The caller is never blocked and never observes the
// outcome; failures are only visible on a later read.
func (s *EvaluationService) DispatchEvaluation(interviewID, userID string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Background evaluation task for interview %s panicked: %v", interviewID, r)
			}
		}()

		view, err := s.GetOrCompute(context.Background(), interviewID, userID, false)
		if err != nil {
			log.Printf("Background evaluation task for interview %s failed: %v", interviewID, err)
			return
		}
		log.Printf("Background evaluation for interview %s finished with status %s", interviewID, view.Status)
	}()
	log.Printf("Evaluation task queued for interview %s", interviewID)
}

// StartReclaimLoop periodically flips IN_PROGRESS records with a stale
// updated_at to FAILED, reclaiming work abandoned by a killed process.
// It returns immediately; the loop stops when ctx is done.
func (s *EvaluationService) StartReclaimLoop(ctx context.Context, interval, olderThan time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reclaimed, err := s.store.ReclaimStuck(ctx, olderThan)
				if err != nil {
					log.Printf("Failed to reclaim stuck evaluations: %v", err)
					continue
				}
				if reclaimed > 0 {
					log.Printf("Reclaimed %d stuck evaluation(s) older than %s", reclaimed, olderThan)
				}
			}
		}
	}()
}

func completedView(record *datastore.EvaluationResult) *EvaluationView {
	return &EvaluationView{
		InterviewID:     record.InterviewID,
		UserID:          record.UserID,
		Status:          record.Status,
		InterviewResult: record.InterviewResult,
		UpdatedAt:       record.UpdatedAt,
	}
}

func inProgressView(interviewID, userID string, updatedAt time.Time) *EvaluationView {
	return &EvaluationView{
		InterviewID: interviewID,
		UserID:      userID,
		Status:      datastore.EvaluationStatusInProgress,
		Message:     messageStillRunning,
		UpdatedAt:   updatedAt,
	}
}

func failedView(record *datastore.EvaluationResult) *EvaluationView {
	return &EvaluationView{
		InterviewID: record.InterviewID,
		UserID:      record.UserID,
		Status:      record.Status,
		Message:     messageLastFailed,
		Error:       record.Error.String,
		UpdatedAt:   record.UpdatedAt,
	}
}
