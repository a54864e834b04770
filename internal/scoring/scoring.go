// Package scoring enforces the score invariants of a match result: bounded
// scores, category ceilings, a breakdown that adds up to the score and a
// recommendation label that agrees with the score band.
package scoring

import (
	"math"

	"github.com/spigell/resume-screener/internal/schema"
)

// Band thresholds. Each band is a half-open interval [threshold, next).
const (
	StrongThreshold   = 8.5
	ModerateThreshold = 6.5
	WeakThreshold     = 4.5
)

// ConsistencyTolerance is the largest gap allowed between the overall score
// and the sum of the category scores before the sum wins.
const ConsistencyTolerance = 0.5

// Band maps a score to its recommendation.
func Band(score float64) schema.Recommendation {
	switch {
	case score >= StrongThreshold:
		return schema.RecommendStrong
	case score >= ModerateThreshold:
		return schema.RecommendModerate
	case score >= WeakThreshold:
		return schema.RecommendWeak
	default:
		return schema.RecommendNot
	}
}

// Reconcile returns a corrected copy of m:
//   - the score is clamped to [0, 10] and each category to its ceiling
//     (4, 3, 1.5, 1.5);
//   - when the categories add up to more than ConsistencyTolerance away from
//     the score, their sum rounded to one decimal becomes the score;
//   - total_score mirrors the score and confidence is clamped to [0, 1];
//   - the recommendation is always the band of the final score.
//
// Narrative fields are copied untouched. NaN values count as zero.
func Reconcile(m *schema.MatchResult) *schema.MatchResult {
	if m == nil {
		return nil
	}

	out := m.Clone()
	out.Score = clamp(out.Score, schema.MaxScore)

	b := &out.ScoreBreakdown
	b.SkillsScore = clamp(b.SkillsScore, schema.MaxSkillsScore)
	b.ExperienceScore = clamp(b.ExperienceScore, schema.MaxExperienceScore)
	b.EducationScore = clamp(b.EducationScore, schema.MaxEducationScore)
	b.AdditionalScore = clamp(b.AdditionalScore, schema.MaxAdditionalScore)

	if sum := b.Sum(); math.Abs(sum-out.Score) > ConsistencyTolerance {
		out.Score = clamp(math.Round(sum*10)/10, schema.MaxScore)
	}
	b.TotalScore = out.Score

	out.ConfidenceLevel = clamp(out.ConfidenceLevel, 1)
	out.Recommendation = Band(out.Score)

	return out
}

func clamp(v, ceiling float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(ceiling, v))
}
