package questionscorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"

	"ai-interview-platform/backend/internal/llmclient"
)

// QuestionScore is the graded result for one question/answer pair.
// Criterion scores are on a 1-10 rubric scale; OverallScore is derived from
// them and rescaled to 0-100. Immutable once produced.
type QuestionScore struct {
	TechnicalScore float64  `json:"technical_score"`
	DepthScore     float64  `json:"depth_score"`
	ClarityScore   float64  `json:"clarity_score"`
	PracticalScore float64  `json:"practical_score"`
	OverallScore   float64  `json:"overall_score"`
	Feedback       string   `json:"feedback"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
}

const rubricPromptTemplate = `You are an expert interviewer.
Evaluate the candidate's answer below:
Question: %s
Answer: %s

Rate the following from 1-10:
- Technical correctness
- Depth of knowledge
- Clarity of explanation
- Practical understanding

Then summarize strengths and improvements in 2-3 sentences.
Always provide constructive feedback.
Your response must be in valid JSON format as shown below: Don't include any explanations outside the JSON.
Return output as JSON:
{
    "technical_score": ...,
    "depth_score": ...,
    "clarity_score": ...,
    "practical_score": ...,
    "feedback": "...",
    "strengths": [...],
    "improvements": [...]
}`

// Scorer grades answers against the fixed rubric via a completion service.
type Scorer struct {
	llm llmclient.CompletionClient
}

// NewScorer creates a Scorer using the given completion client.
func NewScorer(llm llmclient.CompletionClient) *Scorer {
	return &Scorer{llm: llm}
}

// rubricPayload mirrors the JSON the grading service is asked to return.
type rubricPayload struct {
	TechnicalScore float64  `json:"technical_score"`
	DepthScore     float64  `json:"depth_score"`
	ClarityScore   float64  `json:"clarity_score"`
	PracticalScore float64  `json:"practical_score"`
	Feedback       string   `json:"feedback"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
}

// parseOutcome is the tagged result of parsing a grading response: either a
// structured payload or a parse failure carrying the raw text.
type parseOutcome struct {
	ok      bool
	payload rubricPayload
	raw     string
}

// Responses often arrive wrapped in markdown code fences.
var fencePattern = regexp.MustCompile("^```(?:json)?|```$")

// parseRubricResponse strips formatting noise and attempts structured
// decoding. It never fails; the outcome tag says which branch applies.
func parseRubricResponse(response string) parseOutcome {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimSpace(fencePattern.ReplaceAllString(cleaned, ""))

	var payload rubricPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return parseOutcome{ok: false, raw: response}
	}
	if payload.Strengths == nil {
		payload.Strengths = []string{}
	}
	if payload.Improvements == nil {
		payload.Improvements = []string{}
	}
	return parseOutcome{ok: true, payload: payload}
}

// degradedScore is the fallback record emitted when a grading response
// cannot be parsed, so one bad turn never aborts the whole evaluation.
func degradedScore() QuestionScore {
	return QuestionScore{
		Feedback:     "Failed to parse response",
		Strengths:    []string{},
		Improvements: []string{},
	}
}

// ScoreAnswer grades one question/answer pair. A malformed grading response
// yields a degraded zero-score record and no error; only a failure to reach
// the grading service at all is returned as an error.
func (s *Scorer) ScoreAnswer(ctx context.Context, question, answer string) (QuestionScore, error) {
	prompt := fmt.Sprintf(rubricPromptTemplate, question, answer)

	response, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return QuestionScore{}, fmt.Errorf("grading service call failed: %w", err)
	}

	outcome := parseRubricResponse(response)
	if !outcome.ok {
		log.Printf("Failed to parse grading response, emitting degraded score. Raw response: %.200s", outcome.raw)
		return degradedScore(), nil
	}

	score := QuestionScore{
		TechnicalScore: outcome.payload.TechnicalScore,
		DepthScore:     outcome.payload.DepthScore,
		ClarityScore:   outcome.payload.ClarityScore,
		PracticalScore: outcome.payload.PracticalScore,
		Feedback:       outcome.payload.Feedback,
		Strengths:      outcome.payload.Strengths,
		Improvements:   outcome.payload.Improvements,
	}
	// Overall is derived from the four criteria, never requested from the
	// grading service: mean of the 1-10 ratings rescaled to 0-100.
	score.OverallScore = round2((score.TechnicalScore + score.DepthScore + score.ClarityScore + score.PracticalScore) / 4 * 10)

	return score, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
