package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GetEvaluationResult retrieves the evaluation record for one
// (interview_id, user_id) key. Returns ErrNotFound when no row exists.
func GetEvaluationResult(ctx context.Context, interviewID, userID string) (*EvaluationResult, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, interview_id, user_id, status, attempt_id, interview_result, error, created_at, updated_at
		FROM evaluation_results
		WHERE interview_id = $1 AND user_id = $2
	`
	er := &EvaluationResult{}
	var resultJSON []byte

	err := DB.QueryRowContext(ctx, query, interviewID, userID).Scan(
		&er.ID,
		&er.InterviewID,
		&er.UserID,
		&er.Status,
		&er.AttemptID,
		&resultJSON,
		&er.Error,
		&er.CreatedAt,
		&er.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("evaluation result for interview %s, user %s: %w", interviewID, userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get evaluation result: %w", err)
	}
	if resultJSON != nil && string(resultJSON) != "null" {
		er.InterviewResult = json.RawMessage(resultJSON)
	}

	return er, nil
}

// TryMarkEvaluationInProgress performs the atomic conditional state
// transition that guards the at-most-one-computation invariant: the row is
// created or moved to IN_PROGRESS only if its current status is not already
// IN_PROGRESS. Returns false when the caller lost the race and a computation
// is already running for this key.
//
// This is a single conditional upsert rather than a held lock, because a
// computation can take tens of seconds.
func TryMarkEvaluationInProgress(ctx context.Context, interviewID, userID, attemptID string) (bool, error) {
	if DB == nil {
		return false, errors.New("database connection not initialized")
	}

	query := `
		INSERT INTO evaluation_results (interview_id, user_id, status, attempt_id, interview_result, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, NULL, $5, $5)
		ON CONFLICT (interview_id, user_id) DO UPDATE
		SET status = $3, attempt_id = $4, error = NULL, updated_at = $5
		WHERE evaluation_results.status <> $3
	`
	result, err := DB.ExecContext(ctx, query, interviewID, userID, EvaluationStatusInProgress, attemptID, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to mark evaluation in progress for interview %s: %w", interviewID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for in-progress transition: %w", err)
	}
	return rowsAffected == 1, nil
}

// MarkEvaluationInProgress unconditionally moves the record to IN_PROGRESS
// with a fresh attempt id. Used by forced recompute, which is allowed to
// re-enter IN_PROGRESS even while an earlier attempt is still running; the
// last writer to reach a terminal state wins the stored value.
func MarkEvaluationInProgress(ctx context.Context, interviewID, userID, attemptID string) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	query := `
		INSERT INTO evaluation_results (interview_id, user_id, status, attempt_id, interview_result, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, NULL, $5, $5)
		ON CONFLICT (interview_id, user_id) DO UPDATE
		SET status = $3, attempt_id = $4, error = NULL, updated_at = $5
	`
	if _, err := DB.ExecContext(ctx, query, interviewID, userID, EvaluationStatusInProgress, attemptID, time.Now()); err != nil {
		return fmt.Errorf("failed to force evaluation in progress for interview %s: %w", interviewID, err)
	}
	return nil
}

// CompleteEvaluation stores a successful result and moves the record to
// COMPLETED, clearing any error from a previous failed attempt.
func CompleteEvaluation(ctx context.Context, interviewID, userID string, interviewResult json.RawMessage) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	resultJSON := []byte(interviewResult)
	if len(resultJSON) == 0 {
		resultJSON = []byte("null")
	}

	query := `
		INSERT INTO evaluation_results (interview_id, user_id, status, interview_result, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $5)
		ON CONFLICT (interview_id, user_id) DO UPDATE
		SET status = $3, interview_result = $4, error = NULL, updated_at = $5
	`
	if _, err := DB.ExecContext(ctx, query, interviewID, userID, EvaluationStatusCompleted, resultJSON, time.Now()); err != nil {
		return fmt.Errorf("failed to store completed evaluation for interview %s: %w", interviewID, err)
	}
	return nil
}

// FailEvaluation records a failed attempt. The error text is retained for
// later readers and only cleared by a successful recompute.
func FailEvaluation(ctx context.Context, interviewID, userID string, errMsg string) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	query := `
		INSERT INTO evaluation_results (interview_id, user_id, status, interview_result, error, created_at, updated_at)
		VALUES ($1, $2, $3, NULL, $4, $5, $5)
		ON CONFLICT (interview_id, user_id) DO UPDATE
		SET status = $3, error = $4, updated_at = $5
	`
	if _, err := DB.ExecContext(ctx, query, interviewID, userID, EvaluationStatusFailed, errMsg, time.Now()); err != nil {
		return fmt.Errorf("failed to store failed evaluation for interview %s: %w", interviewID, err)
	}
	return nil
}

// ListEvaluationResultsByStatus lists evaluation records in a given status,
// oldest first.
func ListEvaluationResultsByStatus(ctx context.Context, status string) ([]*EvaluationResult, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, interview_id, user_id, status, attempt_id, interview_result, error, created_at, updated_at
		FROM evaluation_results
		WHERE status = $1
		ORDER BY updated_at ASC
	`
	rows, err := DB.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation results by status %s: %w", status, err)
	}
	defer rows.Close()

	results := []*EvaluationResult{}
	for rows.Next() {
		er := &EvaluationResult{}
		var resultJSON []byte

		if err := rows.Scan(
			&er.ID,
			&er.InterviewID,
			&er.UserID,
			&er.Status,
			&er.AttemptID,
			&resultJSON,
			&er.Error,
			&er.CreatedAt,
			&er.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation result row: %w", err)
		}
		if resultJSON != nil && string(resultJSON) != "null" {
			er.InterviewResult = json.RawMessage(resultJSON)
		}
		results = append(results, er)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for evaluation results: %w", err)
	}

	return results, nil
}

// ReclaimStuckEvaluations flips IN_PROGRESS records whose updated_at is older
// than the cutoff to FAILED. A computation that died without writing a
// terminal state (process kill mid-attempt) would otherwise leave its record
// stuck IN_PROGRESS forever. Returns the number of reclaimed records.
func ReclaimStuckEvaluations(ctx context.Context, olderThan time.Duration) (int64, error) {
	if DB == nil {
		return 0, errors.New("database connection not initialized")
	}

	cutoff := time.Now().Add(-olderThan)
	query := `
		UPDATE evaluation_results
		SET status = $1, error = $2, updated_at = $3
		WHERE status = $4 AND updated_at < $5
	`
	errMsg := fmt.Sprintf("evaluation abandoned: no terminal state after %s", olderThan)
	result, err := DB.ExecContext(ctx, query, EvaluationStatusFailed, errMsg, time.Now(), EvaluationStatusInProgress, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stuck evaluations: %w", err)
	}
	reclaimed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for reclaim: %w", err)
	}
	return reclaimed, nil
}

// ResultStore adapts the package-level evaluation result functions to the
// store interface consumed by the evaluation management service.
type ResultStore struct{}

func (ResultStore) Get(ctx context.Context, interviewID, userID string) (*EvaluationResult, error) {
	return GetEvaluationResult(ctx, interviewID, userID)
}

func (ResultStore) TryMarkInProgress(ctx context.Context, interviewID, userID, attemptID string) (bool, error) {
	return TryMarkEvaluationInProgress(ctx, interviewID, userID, attemptID)
}

func (ResultStore) MarkInProgress(ctx context.Context, interviewID, userID, attemptID string) error {
	return MarkEvaluationInProgress(ctx, interviewID, userID, attemptID)
}

func (ResultStore) Complete(ctx context.Context, interviewID, userID string, interviewResult json.RawMessage) error {
	return CompleteEvaluation(ctx, interviewID, userID, interviewResult)
}

func (ResultStore) Fail(ctx context.Context, interviewID, userID, errMsg string) error {
	return FailEvaluation(ctx, interviewID, userID, errMsg)
}

func (ResultStore) ReclaimStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	return ReclaimStuckEvaluations(ctx, olderThan)
}
