package datastore

import (
	"encoding/json"
	"time"
)

// Interview lifecycle statuses as stored in the interviews table.
const (
	InterviewStatusAssigned  = "ASSIGNED"
	InterviewStatusActive    = "ACTIVE"
	InterviewStatusCompleted = "COMPLETED"
)

// ConversationTurn is one question/answer exchange within an interview.
// answer_audio_path is the object key of the recorded answer in object
// storage; it may be empty when no recording was kept.
type ConversationTurn struct {
	Question         string `json:"question"`
	AnswerTranscript string `json:"answer_transcript"`
	AnswerAudioPath  string `json:"answer_audio_path"`
}

// Interview maps to the interviews table. Conversation is the ordered list
// of turns, stored as a JSONB array.
type Interview struct {
	ID           int                `json:"id"`
	InterviewID  string             `json:"interview_id"`
	UserID       string             `json:"user_id"`
	Status       string             `json:"status"`
	Conversation []ConversationTurn `json:"conversation"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// unmarshalConversation decodes the JSONB conversation column. A SQL NULL or
// JSON null becomes an empty slice rather than an error.
func unmarshalConversation(data []byte) ([]ConversationTurn, error) {
	if len(data) == 0 || string(data) == "null" {
		return []ConversationTurn{}, nil
	}
	var turns []ConversationTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}
