package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetInterviewByInterviewID retrieves an interview and its recorded
// conversation by its external interview_id.
func GetInterviewByInterviewID(ctx context.Context, interviewID string) (*Interview, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, interview_id, user_id, status, conversation, created_at, updated_at
		FROM interviews
		WHERE interview_id = $1
	`
	iv := &Interview{}
	var conversationJSON []byte

	err := DB.QueryRowContext(ctx, query, interviewID).Scan(
		&iv.ID,
		&iv.InterviewID,
		&iv.UserID,
		&iv.Status,
		&conversationJSON,
		&iv.CreatedAt,
		&iv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("interview %s: %w", interviewID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get interview %s: %w", interviewID, err)
	}

	iv.Conversation, err = unmarshalConversation(conversationJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode conversation for interview %s: %w", interviewID, err)
	}

	return iv, nil
}

// UpdateInterviewStatus sets the lifecycle status of an interview.
func UpdateInterviewStatus(ctx context.Context, interviewID string, status string) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	query := `UPDATE interviews SET status = $1, updated_at = $2 WHERE interview_id = $3`
	result, err := DB.ExecContext(ctx, query, status, time.Now(), interviewID)
	if err != nil {
		return fmt.Errorf("failed to update status for interview %s: %w", interviewID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected when updating interview %s: %w", interviewID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("interview %s: %w", interviewID, ErrNotFound)
	}
	return nil
}

// InterviewSource adapts the package-level interview functions to the
// transcript-source interface consumed by the evaluation engine.
type InterviewSource struct{}

// FetchConversation returns the interview row, including the ordered turns.
func (InterviewSource) FetchConversation(ctx context.Context, interviewID string) (*Interview, error) {
	return GetInterviewByInterviewID(ctx, interviewID)
}
