package datastore

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Evaluation statuses as stored in the evaluation_results table.
// EvaluationStatusNotStarted is synthetic: it is reported when no row exists
// for a key, a row itself is only ever created IN_PROGRESS.
const (
	EvaluationStatusNotStarted = "NOT_STARTED"
	EvaluationStatusInProgress = "IN_PROGRESS"
	EvaluationStatusCompleted  = "COMPLETED"
	EvaluationStatusFailed     = "FAILED"
)

// EvaluationResult maps to the evaluation_results table. One row per
// (interview_id, user_id) pair, upserted across recomputes, never deleted.
//
// Invariants maintained by the store functions:
//   - status COMPLETED implies interview_result is set and error is NULL
//   - status FAILED implies error is set
//   - updated_at never moves backwards for a key
type EvaluationResult struct {
	ID              int             `json:"id"`
	InterviewID     string          `json:"interview_id"`
	UserID          string          `json:"user_id"`
	Status          string          `json:"status"`
	AttemptID       sql.NullString  `json:"attempt_id,omitempty"` // uuid of the computation that owns/produced this state
	InterviewResult json.RawMessage `json:"interview_result,omitempty"`
	Error           sql.NullString  `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
