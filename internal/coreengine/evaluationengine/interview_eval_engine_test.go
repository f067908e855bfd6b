package evaluationengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interview-platform/backend/internal/coreengine/audioscorer"
	"ai-interview-platform/backend/internal/coreengine/questionscorer"
	"ai-interview-platform/backend/internal/coreengine/summarizer"
	"ai-interview-platform/backend/internal/datastore"
)

type fakeTranscriptSource struct {
	interview *datastore.Interview
	err       error
}

func (f *fakeTranscriptSource) FetchConversation(_ context.Context, _ string) (*datastore.Interview, error) {
	return f.interview, f.err
}

// fakeQuestionScorer returns canned scores keyed by question text.
type fakeQuestionScorer struct {
	mu     sync.Mutex
	scores map[string]questionscorer.QuestionScore
	err    error
	asked  []string
}

func (f *fakeQuestionScorer) ScoreAnswer(_ context.Context, question, _ string) (questionscorer.QuestionScore, error) {
	f.mu.Lock()
	f.asked = append(f.asked, question)
	f.mu.Unlock()
	if f.err != nil {
		return questionscorer.QuestionScore{}, f.err
	}
	return f.scores[question], nil
}

// fakeAudioScorer returns canned results keyed by object name.
type fakeAudioScorer struct {
	results map[string]audioscorer.AudioScore
}

func (f *fakeAudioScorer) Analyze(_ context.Context, objectName string) audioscorer.AudioScore {
	if score, ok := f.results[objectName]; ok {
		return score
	}
	return audioscorer.AudioScore{Status: audioscorer.StatusFileNotFound}
}

type fakeSummarizer struct {
	narratives summarizer.Narratives
	err        error

	gotStrengths    []string
	gotImprovements []string
	gotFeedback     string
}

func (f *fakeSummarizer) Summarize(_ context.Context, strengths, improvements []string, combinedFeedback string) (summarizer.Narratives, error) {
	f.gotStrengths = strengths
	f.gotImprovements = improvements
	f.gotFeedback = combinedFeedback
	return f.narratives, f.err
}

func TestEvaluate(t *testing.T) {
	t.Run("scores answered turns and aggregates", func(t *testing.T) {
		interview := &datastore.Interview{
			InterviewID: "int-1",
			UserID:      "user-1",
			Conversation: []datastore.ConversationTurn{
				{Question: "Q1", AnswerTranscript: "A1", AnswerAudioPath: "rec/1.wav"},
				{Question: "Q2", AnswerTranscript: "   "}, // skipped: no answer
				{Question: "Q3", AnswerTranscript: "A3", AnswerAudioPath: "rec/3.wav"},
			},
		}
		questions := &fakeQuestionScorer{scores: map[string]questionscorer.QuestionScore{
			"Q1": {TechnicalScore: 8, DepthScore: 7, ClarityScore: 9, PracticalScore: 8, OverallScore: 80, Feedback: "Good.", Strengths: []string{"clear"}, Improvements: []string{"depth"}},
			"Q3": {TechnicalScore: 6, DepthScore: 6, ClarityScore: 6, PracticalScore: 6, OverallScore: 60, Feedback: "OK.", Strengths: []string{"structure"}, Improvements: []string{"depth"}},
		}}
		audio := &fakeAudioScorer{results: map[string]audioscorer.AudioScore{
			"rec/1.wav": {ConfidenceScore: 7.5, SpeechRate: 120, Status: audioscorer.StatusSuccess},
			"rec/3.wav": {ConfidenceScore: 6.0, SpeechRate: 110, Status: audioscorer.StatusSuccess},
		}}
		summaries := &fakeSummarizer{narratives: summarizer.Narratives{
			Strengths:       "Strengths paragraph.",
			Improvements:    "Improvements paragraph.",
			FeedbackSummary: "Summary paragraph.",
		}}

		engine := NewEngine(&fakeTranscriptSource{interview: interview}, questions, audio, summaries)

		result, err := engine.Evaluate(context.Background(), "int-1")
		require.NoError(t, err)
		require.NotNil(t, result)

		// Turns are renumbered over answered turns only, 1-based.
		require.Len(t, result.TechnicalScores, 2)
		require.Len(t, result.AudioResults, 2)
		assert.Equal(t, 80.0, result.TechnicalScores[1].OverallScore)
		assert.Equal(t, 60.0, result.TechnicalScores[2].OverallScore)
		assert.Equal(t, audioscorer.StatusSuccess, result.AudioResults[1].Status)
		assert.Equal(t, 6.0, result.AudioResults[2].ConfidenceScore)

		assert.InDelta(t, 70.0, result.AggregatedScores.OverallScore, 1e-9)
		assert.Equal(t, "Good. OK.", result.AggregatedScores.CombinedFeedback)
		assert.Equal(t, "Strengths paragraph.", result.AggregatedScores.Strengths)
		assert.Equal(t, "Improvements paragraph.", result.AggregatedScores.ImprovementAreas)
		assert.Equal(t, "Summary paragraph.", result.AggregatedScores.FeedbackSummary)

		// The summarizer received the pooled lists, not the narratives.
		assert.Equal(t, []string{"clear", "structure"}, summaries.gotStrengths)
		assert.Equal(t, []string{"depth"}, summaries.gotImprovements)
		assert.Equal(t, "Good. OK.", summaries.gotFeedback)
	})

	t.Run("missing transcript fails the attempt", func(t *testing.T) {
		source := &fakeTranscriptSource{err: fmt.Errorf("interview int-x: %w", datastore.ErrNotFound)}
		engine := NewEngine(source, &fakeQuestionScorer{}, &fakeAudioScorer{}, &fakeSummarizer{})

		_, err := engine.Evaluate(context.Background(), "int-x")
		require.Error(t, err)
		assert.ErrorIs(t, err, datastore.ErrNotFound)
	})

	t.Run("unreachable grading service fails the attempt", func(t *testing.T) {
		interview := &datastore.Interview{
			InterviewID: "int-2",
			Conversation: []datastore.ConversationTurn{
				{Question: "Q1", AnswerTranscript: "A1"},
			},
		}
		gradingErr := errors.New("dial tcp: connection refused")
		engine := NewEngine(
			&fakeTranscriptSource{interview: interview},
			&fakeQuestionScorer{err: gradingErr},
			&fakeAudioScorer{},
			&fakeSummarizer{},
		)

		_, err := engine.Evaluate(context.Background(), "int-2")
		require.Error(t, err)
		assert.ErrorIs(t, err, gradingErr)
	})

	t.Run("degraded turns still complete", func(t *testing.T) {
		interview := &datastore.Interview{
			InterviewID: "int-3",
			Conversation: []datastore.ConversationTurn{
				{Question: "Q1", AnswerTranscript: "A1", AnswerAudioPath: "rec/gone.wav"},
			},
		}
		// Zero-score record from an unparseable grading response plus a
		// missing recording: both degrade, neither aborts.
		questions := &fakeQuestionScorer{scores: map[string]questionscorer.QuestionScore{
			"Q1": {Feedback: "Failed to parse response", Strengths: []string{}, Improvements: []string{}},
		}}
		summaries := &fakeSummarizer{narratives: summarizer.Narratives{
			Strengths:       "No specific strengths identified.",
			Improvements:    "No major improvement areas noted.",
			FeedbackSummary: "Summary.",
		}}
		engine := NewEngine(&fakeTranscriptSource{interview: interview}, questions, &fakeAudioScorer{}, summaries)

		result, err := engine.Evaluate(context.Background(), "int-3")
		require.NoError(t, err)

		assert.Zero(t, result.TechnicalScores[1].OverallScore)
		assert.Equal(t, audioscorer.StatusFileNotFound, result.AudioResults[1].Status)
		assert.Zero(t, result.AggregatedScores.OverallScore)
	})

	t.Run("no answered turns yields empty maps", func(t *testing.T) {
		interview := &datastore.Interview{
			InterviewID: "int-4",
			Conversation: []datastore.ConversationTurn{
				{Question: "Q1", AnswerTranscript: ""},
			},
		}
		summaries := &fakeSummarizer{narratives: summarizer.Narratives{
			Strengths:       "No specific strengths identified.",
			Improvements:    "No major improvement areas noted.",
			FeedbackSummary: "No specific feedback provided.",
		}}
		engine := NewEngine(&fakeTranscriptSource{interview: interview}, &fakeQuestionScorer{}, &fakeAudioScorer{}, summaries)

		result, err := engine.Evaluate(context.Background(), "int-4")
		require.NoError(t, err)

		assert.Empty(t, result.TechnicalScores)
		assert.Empty(t, result.AudioResults)
		assert.Zero(t, result.AggregatedScores.OverallScore)
	})
}
