package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-screener/internal/schema"
)

func TestBand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  schema.Recommendation
	}{
		{10, schema.RecommendStrong},
		{8.5, schema.RecommendStrong},
		{8.49, schema.RecommendModerate},
		{6.5, schema.RecommendModerate},
		{6.49, schema.RecommendWeak},
		{4.5, schema.RecommendWeak},
		{4.49, schema.RecommendNot},
		{0, schema.RecommendNot},
		{-1, schema.RecommendNot},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.score), "score %v", tt.score)
	}
}

func TestBandIsExhaustive(t *testing.T) {
	t.Parallel()

	for i := 0; i <= 1000; i++ {
		s := float64(i) / 100
		got := Band(s)

		matches := 0
		if s >= 8.5 && got == schema.RecommendStrong {
			matches++
		}
		if s >= 6.5 && s < 8.5 && got == schema.RecommendModerate {
			matches++
		}
		if s >= 4.5 && s < 6.5 && got == schema.RecommendWeak {
			matches++
		}
		if s < 4.5 && got == schema.RecommendNot {
			matches++
		}
		require.Equal(t, 1, matches, "score %v mapped to %q", s, got)
	}
}

func result(score float64, breakdown schema.ScoreBreakdown) *schema.MatchResult {
	return &schema.MatchResult{
		Score:           score,
		Recommendation:  schema.RecommendStrong,
		ConfidenceLevel: 0.9,
		ScoreBreakdown:  breakdown,
		Strengths:       []string{"Go"},
		Justification:   "model narrative",
	}
}

func TestReconcileClamps(t *testing.T) {
	t.Parallel()

	inputs := []float64{-20, -0.1, 0, 3.3, 10, 10.5, 250, math.NaN(), math.Inf(1), math.Inf(-1)}

	for _, score := range inputs {
		for _, sub := range inputs {
			out := Reconcile(result(score, schema.ScoreBreakdown{
				SkillsScore: sub, ExperienceScore: sub, EducationScore: sub, AdditionalScore: sub,
			}))

			assert.GreaterOrEqual(t, out.Score, 0.0)
			assert.LessOrEqual(t, out.Score, 10.0)

			b := out.ScoreBreakdown
			assert.True(t, b.SkillsScore >= 0 && b.SkillsScore <= 4, "skills %v", b.SkillsScore)
			assert.True(t, b.ExperienceScore >= 0 && b.ExperienceScore <= 3, "experience %v", b.ExperienceScore)
			assert.True(t, b.EducationScore >= 0 && b.EducationScore <= 1.5, "education %v", b.EducationScore)
			assert.True(t, b.AdditionalScore >= 0 && b.AdditionalScore <= 1.5, "additional %v", b.AdditionalScore)
			assert.Equal(t, out.Score, b.TotalScore)
			assert.Equal(t, Band(out.Score), out.Recommendation)
		}
	}
}

func TestReconcileConsistency(t *testing.T) {
	t.Parallel()

	t.Run("within tolerance keeps score", func(t *testing.T) {
		out := Reconcile(result(8.6, schema.ScoreBreakdown{SkillsScore: 4, ExperienceScore: 3, EducationScore: 1, AdditionalScore: 0.5}))
		assert.Equal(t, 8.6, out.Score)
		assert.Equal(t, schema.RecommendStrong, out.Recommendation)
	})

	t.Run("breakdown sum wins", func(t *testing.T) {
		out := Reconcile(result(9.5, schema.ScoreBreakdown{SkillsScore: 2, ExperienceScore: 2, EducationScore: 1, AdditionalScore: 0.5}))
		assert.Equal(t, 5.5, out.Score)
		assert.Equal(t, 5.5, out.ScoreBreakdown.TotalScore)
		assert.Equal(t, schema.RecommendWeak, out.Recommendation)
	})

	t.Run("over ceiling categories", func(t *testing.T) {
		out := Reconcile(result(9, schema.ScoreBreakdown{SkillsScore: 9, ExperienceScore: 9, EducationScore: 0, AdditionalScore: 0}))
		assert.Equal(t, 4.0, out.ScoreBreakdown.SkillsScore)
		assert.Equal(t, 3.0, out.ScoreBreakdown.ExperienceScore)
		assert.Equal(t, 7.0, out.Score)
		assert.Equal(t, schema.RecommendModerate, out.Recommendation)
	})
}

func TestReconcileKeepsNarrativeAndInput(t *testing.T) {
	t.Parallel()

	notes := "ask about Kafka"
	in := result(3, schema.ProportionalBreakdown(3))
	in.InterviewerNotes = &notes
	in.ConfidenceLevel = 1.7

	out := Reconcile(in)

	assert.Equal(t, "model narrative", out.Justification)
	assert.Equal(t, []string{"Go"}, out.Strengths)
	assert.Equal(t, "ask about Kafka", *out.InterviewerNotes)
	assert.Equal(t, 1.0, out.ConfidenceLevel)
	assert.Equal(t, schema.RecommendNot, out.Recommendation)

	assert.Equal(t, schema.RecommendStrong, in.Recommendation, "input must not change")
	assert.Equal(t, 1.7, in.ConfidenceLevel)
	out.Strengths[0] = "changed"
	assert.Equal(t, "Go", in.Strengths[0])

	assert.Nil(t, Reconcile(nil))
}
