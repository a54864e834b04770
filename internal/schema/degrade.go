package schema

import (
	"math"
	"slices"
)

// Fallback narrative used when a match could not be analyzed at all.
const (
	FallbackJustification = "Unable to complete analysis due to technical error."
	FallbackMissing       = "Unable to analyze"
	FallbackConcern       = "Analysis failed"
)

// DegradeProfile salvages every well-typed field of a decoded (possibly nil
// or invalid) profile payload and fills the rest with defaults. The result
// always satisfies ValidateProfile and carries DegradedConfidence.
func DegradeProfile(obj map[string]any) *Profile {
	profile := salvageProfile(NormalizeProfile(obj))
	profile.ConfidenceScore = DegradedConfidence
	return profile
}

// ProfileFromMap rebuilds a profile from a stored mapping, such as a profile
// persisted by a caller. Unlike DegradeProfile the stored confidence is kept.
func ProfileFromMap(obj map[string]any) *Profile {
	return salvageProfile(NormalizeProfile(obj))
}

// DegradeMatch salvages a decoded match payload. With no payload at all the
// fixed fallback analysis is returned. The result carries DegradedConfidence.
func DegradeMatch(obj map[string]any) *MatchResult {
	if len(obj) == 0 {
		return fallbackMatch()
	}

	doc := NormalizeMatch(obj)

	result := &MatchResult{
		Score:                 clamp(floatOr(doc["score"], 0), 0, MaxScore),
		Recommendation:        RecommendNot,
		ConfidenceLevel:       DegradedConfidence,
		MatchingPoints:        toStrings(doc["matching_points"]),
		MissingQualifications: toStrings(doc["missing_qualifications"]),
		Strengths:             toStrings(doc["strengths"]),
		Concerns:              toStrings(doc["concerns"]),
		Justification:         FallbackJustification,
		InterviewerNotes:      stringPtr(doc["interviewer_notes"]),
		degraded:              true,
	}

	if rec, ok := doc["recommendation"].(string); ok && slices.Contains(Recommendations, Recommendation(rec)) {
		result.Recommendation = Recommendation(rec)
	}
	if s, ok := doc["justification"].(string); ok && s != "" {
		result.Justification = s
	}

	result.ScoreBreakdown = ProportionalBreakdown(result.Score)
	if bd, ok := doc["score_breakdown"].(map[string]any); ok {
		salvaged := ScoreBreakdown{
			SkillsScore:     clamp(floatOr(bd["skills_score"], 0), 0, MaxScore),
			ExperienceScore: clamp(floatOr(bd["experience_score"], 0), 0, MaxScore),
			EducationScore:  clamp(floatOr(bd["education_score"], 0), 0, MaxScore),
			AdditionalScore: clamp(floatOr(bd["additional_score"], 0), 0, MaxScore),
			TotalScore:      result.Score,
		}
		if salvaged.Sum() > 0 {
			result.ScoreBreakdown = salvaged
		}
	}

	if sa, ok := doc["skills_analysis"].(map[string]any); ok {
		result.SkillsAnalysis = SkillsAnalysis{
			MatchingSkills:         toStrings(sa["matching_skills"]),
			MissingCriticalSkills:  toStrings(sa["missing_critical_skills"]),
			MissingPreferredSkills: toStrings(sa["missing_preferred_skills"]),
			BonusSkills:            toStrings(sa["bonus_skills"]),
		}
	}

	result.fillEmpty()
	return result
}

// JobFromMap builds job requirements from a decoded payload, salvaging what
// is usable. A nil payload yields DefaultJobRequirements.
func JobFromMap(obj map[string]any) *JobRequirements {
	if obj == nil {
		return DefaultJobRequirements()
	}

	doc := NormalizeJob(obj)
	job := &JobRequirements{
		Title:              stringOr(doc["title"], UnknownTitle),
		RequiredSkills:     toStrings(doc["required_skills"]),
		PreferredSkills:    toStrings(doc["preferred_skills"]),
		ExperienceRequired: stringOr(doc["experience_required"], NotSpecified),
		EducationRequired:  stringOr(doc["education_required"], NotSpecified),
		Responsibilities:   toStrings(doc["responsibilities"]),
		Qualifications:     toStrings(doc["qualifications"]),
		SalaryRange:        stringPtr(doc["salary_range"]),
		Location:           stringPtr(doc["location"]),
	}

	return job
}

func fallbackMatch() *MatchResult {
	return &MatchResult{
		Score:           0,
		Recommendation:  RecommendNot,
		ConfidenceLevel: DegradedConfidence,
		ScoreBreakdown:  ProportionalBreakdown(0),
		SkillsAnalysis: SkillsAnalysis{
			MatchingSkills:         []string{},
			MissingCriticalSkills:  []string{},
			MissingPreferredSkills: []string{},
			BonusSkills:            []string{},
		},
		MatchingPoints:        []string{},
		MissingQualifications: []string{FallbackMissing},
		Strengths:             []string{},
		Concerns:              []string{FallbackConcern},
		Justification:         FallbackJustification,
		degraded:              true,
	}
}

func salvageProfile(doc map[string]any) *Profile {
	profile := &Profile{
		Name:              stringPtr(doc["name"]),
		Email:             stringPtr(doc["email"]),
		Phone:             stringPtr(doc["phone"]),
		Location:          stringPtr(doc["location"]),
		TechnicalSkills:   toStrings(doc["technical_skills"]),
		SoftSkills:        toStrings(doc["soft_skills"]),
		ToolsTechnologies: toStrings(doc["tools_technologies"]),
		Certifications:    toStrings(doc["certifications"]),
		Languages:         toStrings(doc["languages"]),
		KeyAchievements:   toStrings(doc["key_achievements"]),
		ConfidenceScore:   DefaultConfidence,
	}

	if list, ok := doc["experience"].([]any); ok {
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			company, role, duration := stringOr(entry["company"], ""), stringOr(entry["role"], ""), stringOr(entry["duration"], "")
			if company == "" || role == "" || duration == "" {
				continue
			}
			profile.Experience = append(profile.Experience, Experience{
				Company:     company,
				Role:        role,
				Duration:    duration,
				Description: stringPtr(entry["description"]),
			})
		}
	}

	if list, ok := doc["education"].([]any); ok {
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			degree, institution := stringOr(entry["degree"], ""), stringOr(entry["institution"], "")
			if degree == "" || institution == "" {
				continue
			}
			profile.Education = append(profile.Education, Education{
				Degree:      degree,
				Institution: institution,
				Year:        stringPtr(entry["year"]),
				Field:       stringPtr(entry["field"]),
			})
		}
	}

	if years, ok := doc["total_experience_years"].(float64); ok && years >= 0 && !math.IsNaN(years) {
		profile.TotalExperienceYears = math.Min(years, MaxExperienceYears)
	}

	if level, ok := doc["career_level"].(string); ok && slices.Contains(CareerLevels, CareerLevel(level)) {
		cl := CareerLevel(level)
		profile.CareerLevel = &cl
	}

	if confidence, ok := doc["confidence_score"].(float64); ok && confidence >= 0 && confidence <= 1 {
		profile.ConfidenceScore = confidence
	}

	profile.fillEmpty()
	return profile
}

func stringPtr(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func floatOr(v any, def float64) float64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
