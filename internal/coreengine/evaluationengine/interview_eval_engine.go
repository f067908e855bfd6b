package evaluationengine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"ai-interview-platform/backend/internal/coreengine/audioscorer"
	"ai-interview-platform/backend/internal/coreengine/questionscorer"
	"ai-interview-platform/backend/internal/coreengine/scoreaggregator"
	"ai-interview-platform/backend/internal/coreengine/summarizer"
	"ai-interview-platform/backend/internal/datastore"
)

// AggregatedScores is the fan-in summary stored with the evaluation.
// Strengths and ImprovementAreas are narrative paragraphs from the
// summarizer; CombinedFeedback is the plain concatenation of every turn's
// feedback, independent of any narrative.
type AggregatedScores struct {
	OverallScore     float64            `json:"overall_score"`
	CriteriaScores   map[string]float64 `json:"criteria_scores"`
	Strengths        string             `json:"strengths"`
	ImprovementAreas string             `json:"improvement_areas"`
	CombinedFeedback string             `json:"combined_feedback"`
	FeedbackSummary  string             `json:"feedback_summary"`
}

// InterviewResult is the complete evaluation output for one interview.
// Maps are keyed by 1-based turn number over the turns that had a non-empty
// answer.
type InterviewResult struct {
	TechnicalScores  map[int]questionscorer.QuestionScore `json:"technical_scores"`
	AudioResults     map[int]audioscorer.AudioScore       `json:"audio_results"`
	AggregatedScores AggregatedScores                     `json:"aggregated_scores"`
}

// TranscriptSource provides recorded interview conversations.
type TranscriptSource interface {
	FetchConversation(ctx context.Context, interviewID string) (*datastore.Interview, error)
}

// QuestionScorer grades one question/answer pair.
type QuestionScorer interface {
	ScoreAnswer(ctx context.Context, question, answer string) (questionscorer.QuestionScore, error)
}

// AudioScorer extracts heuristic signals from one answer recording.
type AudioScorer interface {
	Analyze(ctx context.Context, objectName string) audioscorer.AudioScore
}

// FeedbackSummarizer produces the narrative summary paragraphs.
type FeedbackSummarizer interface {
	Summarize(ctx context.Context, strengths, improvements []string, combinedFeedback string) (summarizer.Narratives, error)
}

// Engine orchestrates a full interview evaluation. It is a pure computation
// over its collaborators and never writes the evaluation record; persistence
// belongs to the evaluation management service.
type Engine struct {
	transcripts TranscriptSource
	questions   QuestionScorer
	audio       AudioScorer
	summaries   FeedbackSummarizer
}

// NewEngine wires the orchestrator from its collaborators.
func NewEngine(transcripts TranscriptSource, questions QuestionScorer, audio AudioScorer, summaries FeedbackSummarizer) *Engine {
	return &Engine{
		transcripts: transcripts,
		questions:   questions,
		audio:       audio,
		summaries:   summaries,
	}
}

// Evaluate scores every answered turn of the interview and aggregates the
// results. Turn scoring is independent per turn and fanned out concurrently.
// A missing transcript or an unreachable grading/generation service fails
// the attempt; malformed grading responses and bad recordings only degrade
// the affected turn.
func (e *Engine) Evaluate(ctx context.Context, interviewID string) (*InterviewResult, error) {
	log.Printf("Evaluating interview data for interview_id: %s", interviewID)

	interview, err := e.transcripts.FetchConversation(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interview conversation: %w", err)
	}

	// Only turns with a recorded answer are scored.
	type answeredTurn struct {
		number int
		turn   datastore.ConversationTurn
	}
	answered := []answeredTurn{}
	for _, turn := range interview.Conversation {
		if strings.TrimSpace(turn.AnswerTranscript) == "" {
			continue
		}
		answered = append(answered, answeredTurn{number: len(answered) + 1, turn: turn})
	}
	log.Printf("Interview %s has %d answered turns out of %d", interviewID, len(answered), len(interview.Conversation))

	technicalScores := make(map[int]questionscorer.QuestionScore, len(answered))
	audioResults := make(map[int]audioscorer.AudioScore, len(answered))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, at := range answered {
		at := at
		g.Go(func() error {
			score, err := e.questions.ScoreAnswer(gctx, at.turn.Question, at.turn.AnswerTranscript)
			if err != nil {
				return fmt.Errorf("scoring turn %d: %w", at.number, err)
			}
			audioScore := e.audio.Analyze(gctx, at.turn.AnswerAudioPath)

			mu.Lock()
			technicalScores[at.number] = score
			audioResults[at.number] = audioScore
			mu.Unlock()

			log.Printf("Evaluation result for question %d of interview %s", at.number, interviewID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pooled := scoreaggregator.Aggregate(technicalScores)
	log.Printf("Aggregated scores computed for interview_id %s", interviewID)

	narratives, err := e.summaries.Summarize(ctx, pooled.Strengths, pooled.Improvements, pooled.CombinedFeedback)
	if err != nil {
		return nil, err
	}

	return &InterviewResult{
		TechnicalScores: technicalScores,
		AudioResults:    audioResults,
		AggregatedScores: AggregatedScores{
			OverallScore:     pooled.OverallScore,
			CriteriaScores:   pooled.CriteriaScores,
			Strengths:        narratives.Strengths,
			ImprovementAreas: narratives.Improvements,
			CombinedFeedback: pooled.CombinedFeedback,
			FeedbackSummary:  narratives.FeedbackSummary,
		},
	}, nil
}
