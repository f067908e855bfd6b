package scoreaggregator

import (
	"math"
	"sort"
	"strings"

	"ai-interview-platform/backend/internal/coreengine/questionscorer"
)

// Criterion keys used in the aggregated criteria_scores map.
const (
	CriterionTechnical = "technical_score"
	CriterionDepth     = "depth_score"
	CriterionClarity   = "clarity_score"
	CriterionPractical = "practical_score"
)

// PooledScores is the fan-in of all per-turn question scores.
//
// OverallScore is the mean of the per-turn overall scores, which are already
// on the 0-100 scale. It is intentionally not re-derived from the criteria
// means; the two are close but not required to be identical.
type PooledScores struct {
	OverallScore     float64
	CriteriaScores   map[string]float64
	Strengths        []string
	Improvements     []string
	CombinedFeedback string
}

// Aggregate combines per-turn scores keyed by turn index. Turns are
// processed in index order so pooling is deterministic. An empty input
// yields zeros and empty pools.
func Aggregate(scores map[int]questionscorer.QuestionScore) PooledScores {
	indexes := make([]int, 0, len(scores))
	for idx := range scores {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var technical, depth, clarity, practical, overall float64
	strengths := []string{}
	improvements := []string{}
	feedbacks := make([]string, 0, len(indexes))
	seenStrengths := map[string]bool{}
	seenImprovements := map[string]bool{}

	for _, idx := range indexes {
		score := scores[idx]
		technical += score.TechnicalScore
		depth += score.DepthScore
		clarity += score.ClarityScore
		practical += score.PracticalScore
		overall += score.OverallScore

		// Exact-string set union, first occurrence wins the position.
		for _, s := range score.Strengths {
			if !seenStrengths[s] {
				seenStrengths[s] = true
				strengths = append(strengths, s)
			}
		}
		for _, s := range score.Improvements {
			if !seenImprovements[s] {
				seenImprovements[s] = true
				improvements = append(improvements, s)
			}
		}
		feedbacks = append(feedbacks, score.Feedback)
	}

	n := float64(len(indexes))
	criteria := map[string]float64{
		CriterionTechnical: rescaledMean(technical, n),
		CriterionDepth:     rescaledMean(depth, n),
		CriterionClarity:   rescaledMean(clarity, n),
		CriterionPractical: rescaledMean(practical, n),
	}

	var overallMean float64
	if n > 0 {
		overallMean = round2(overall / n)
	}

	return PooledScores{
		OverallScore:     overallMean,
		CriteriaScores:   criteria,
		Strengths:        strengths,
		Improvements:     improvements,
		CombinedFeedback: strings.Join(feedbacks, " "),
	}
}

// rescaledMean turns a sum of 1-10 criterion ratings into a 0-100 mean.
func rescaledMean(sum, n float64) float64 {
	if n == 0 {
		return 0
	}
	return round2(sum / n * 10)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
