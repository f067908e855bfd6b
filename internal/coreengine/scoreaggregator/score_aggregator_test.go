package scoreaggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interview-platform/backend/internal/coreengine/questionscorer"
)

func TestAggregate(t *testing.T) {
	t.Run("two turns worked example", func(t *testing.T) {
		scores := map[int]questionscorer.QuestionScore{
			1: {
				TechnicalScore: 8, DepthScore: 7, ClarityScore: 9, PracticalScore: 8,
				OverallScore: 80.0,
				Feedback:     "Strong answer.",
				Strengths:    []string{"clear reasoning"},
				Improvements: []string{"more examples"},
			},
			2: {
				TechnicalScore: 6, DepthScore: 6, ClarityScore: 6, PracticalScore: 6,
				OverallScore: 60.0,
				Feedback:     "Adequate answer.",
				Strengths:    []string{"good structure"},
				Improvements: []string{"more examples"},
			},
		}

		pooled := Aggregate(scores)

		// Overall is the mean of the per-turn 0-100 overalls, not a
		// re-derivation from the criteria means.
		assert.InDelta(t, 70.0, pooled.OverallScore, 1e-9)
		assert.InDelta(t, 70.0, pooled.CriteriaScores[CriterionTechnical], 1e-9)
		assert.InDelta(t, 65.0, pooled.CriteriaScores[CriterionDepth], 1e-9)
		assert.InDelta(t, 75.0, pooled.CriteriaScores[CriterionClarity], 1e-9)
		assert.InDelta(t, 70.0, pooled.CriteriaScores[CriterionPractical], 1e-9)

		assert.Equal(t, "Strong answer. Adequate answer.", pooled.CombinedFeedback)
		assert.Equal(t, []string{"clear reasoning", "good structure"}, pooled.Strengths)
		assert.Equal(t, []string{"more examples"}, pooled.Improvements)
	})

	t.Run("empty input defaults to zero", func(t *testing.T) {
		pooled := Aggregate(map[int]questionscorer.QuestionScore{})

		assert.Zero(t, pooled.OverallScore)
		for _, criterion := range []string{CriterionTechnical, CriterionDepth, CriterionClarity, CriterionPractical} {
			assert.Zero(t, pooled.CriteriaScores[criterion])
		}
		assert.Empty(t, pooled.Strengths)
		assert.Empty(t, pooled.Improvements)
		assert.Empty(t, pooled.CombinedFeedback)
	})

	t.Run("rounds to two decimals", func(t *testing.T) {
		scores := map[int]questionscorer.QuestionScore{
			1: {TechnicalScore: 7, OverallScore: 77.5},
			2: {TechnicalScore: 8, OverallScore: 70.0},
			3: {TechnicalScore: 8, OverallScore: 70.0},
		}

		pooled := Aggregate(scores)

		// mean(7,8,8)*10 = 76.666... -> 76.67
		assert.InDelta(t, 76.67, pooled.CriteriaScores[CriterionTechnical], 1e-9)
		// mean(77.5, 70, 70) = 72.5
		assert.InDelta(t, 72.5, pooled.OverallScore, 1e-9)
	})

	t.Run("pooling is deterministic and order preserving", func(t *testing.T) {
		scores := map[int]questionscorer.QuestionScore{
			3: {Strengths: []string{"c", "a"}, Improvements: []string{"z"}},
			1: {Strengths: []string{"a", "b"}, Improvements: []string{"x", "z"}},
			2: {Strengths: []string{"b"}, Improvements: []string{"y"}},
		}

		pooled := Aggregate(scores)

		require.Equal(t, []string{"a", "b", "c"}, pooled.Strengths)
		require.Equal(t, []string{"x", "z", "y"}, pooled.Improvements)
	})
}
