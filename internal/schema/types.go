// Package schema defines the structured payloads produced by the screener and
// the two passes applied to raw model output: Normalize* coerces legacy and
// loosely typed shapes, Validate* rejects anything that still violates the
// canonical shape.
package schema

import "math"

type CareerLevel string

const (
	CareerEntry     CareerLevel = "Entry Level"
	CareerJunior    CareerLevel = "Junior"
	CareerMid       CareerLevel = "Mid-Level"
	CareerSenior    CareerLevel = "Senior"
	CareerLead      CareerLevel = "Lead/Principal"
	CareerExecutive CareerLevel = "Executive"
)

// CareerLevels lists the accepted career levels from junior to senior.
var CareerLevels = []CareerLevel{CareerEntry, CareerJunior, CareerMid, CareerSenior, CareerLead, CareerExecutive}

type Recommendation string

const (
	RecommendStrong   Recommendation = "Strong Match - Highly Recommended"
	RecommendModerate Recommendation = "Moderate Match - Recommended with Reservations"
	RecommendWeak     Recommendation = "Weak Match - Not Ideal"
	RecommendNot      Recommendation = "Not Recommended"
)

// Recommendations lists the accepted recommendation labels from best to worst.
var Recommendations = []Recommendation{RecommendStrong, RecommendModerate, RecommendWeak, RecommendNot}

const (
	// MaxExperienceYears caps total_experience_years.
	MaxExperienceYears = 50.0
	// DefaultConfidence is used when the model does not report one.
	DefaultConfidence = 0.8
	// DegradedConfidence marks results synthesized after retries ran out.
	DegradedConfidence = 0.1
	// DefaultLanguage fills languages when none were extracted.
	DefaultLanguage = "English"
	// NotSpecified fills free-text job requirements that were not extracted.
	NotSpecified = "Not specified"
	// UnknownTitle fills a job title that was not extracted.
	UnknownTitle = "Unknown"
)

// Rubric ceilings per score category. They add up to 10.
const (
	MaxSkillsScore     = 4.0
	MaxExperienceScore = 3.0
	MaxEducationScore  = 1.5
	MaxAdditionalScore = 1.5
	MaxScore           = 10.0
)

// ProfileFields is the canonical key set of an encoded Profile.
var ProfileFields = []string{
	"name", "email", "phone", "location",
	"technical_skills", "soft_skills", "tools_technologies",
	"experience", "education", "certifications", "languages",
	"total_experience_years", "career_level", "key_achievements", "confidence_score",
}

// MatchFields is the canonical key set of an encoded MatchResult.
var MatchFields = []string{
	"score", "recommendation", "confidence_level", "score_breakdown", "skills_analysis",
	"matching_points", "missing_qualifications", "strengths", "concerns",
	"justification", "interviewer_notes",
}

type Experience struct {
	Company     string  `json:"company"`
	Role        string  `json:"role"`
	Duration    string  `json:"duration"`
	Description *string `json:"description"`
}

type Education struct {
	Degree      string  `json:"degree"`
	Institution string  `json:"institution"`
	Year        *string `json:"year"`
	Field       *string `json:"field"`
}

// Profile is the structured data extracted from a resume. Every field is
// always encoded; lists are never null.
type Profile struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`

	TechnicalSkills   []string `json:"technical_skills"`
	SoftSkills        []string `json:"soft_skills"`
	ToolsTechnologies []string `json:"tools_technologies"`

	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`

	Certifications       []string     `json:"certifications"`
	Languages            []string     `json:"languages"`
	TotalExperienceYears float64      `json:"total_experience_years"`
	CareerLevel          *CareerLevel `json:"career_level"`

	KeyAchievements []string `json:"key_achievements"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// RoundedExperienceYears is the display value of TotalExperienceYears.
func (p *Profile) RoundedExperienceYears() int {
	return int(math.Round(p.TotalExperienceYears))
}

// Skills returns technical skills followed by tools and technologies.
func (p *Profile) Skills() []string {
	skills := make([]string, 0, len(p.TechnicalSkills)+len(p.ToolsTechnologies))
	skills = append(skills, p.TechnicalSkills...)
	return append(skills, p.ToolsTechnologies...)
}

func (p *Profile) fillEmpty() {
	fill(&p.TechnicalSkills)
	fill(&p.SoftSkills)
	fill(&p.ToolsTechnologies)
	fill(&p.Certifications)
	fill(&p.KeyAchievements)
	if p.Experience == nil {
		p.Experience = []Experience{}
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
	if len(p.Languages) == 0 {
		p.Languages = []string{DefaultLanguage}
	}
}

// JobRequirements is the structured view of a job posting.
type JobRequirements struct {
	Title              string   `json:"title"`
	RequiredSkills     []string `json:"required_skills"`
	PreferredSkills    []string `json:"preferred_skills"`
	ExperienceRequired string   `json:"experience_required"`
	EducationRequired  string   `json:"education_required"`
	Responsibilities   []string `json:"responsibilities"`
	Qualifications     []string `json:"qualifications"`
	SalaryRange        *string  `json:"salary_range"`
	Location           *string  `json:"location"`
}

// DefaultJobRequirements is returned when nothing could be extracted from a posting.
func DefaultJobRequirements() *JobRequirements {
	return &JobRequirements{
		Title:              UnknownTitle,
		RequiredSkills:     []string{},
		PreferredSkills:    []string{},
		ExperienceRequired: NotSpecified,
		EducationRequired:  NotSpecified,
		Responsibilities:   []string{},
		Qualifications:     []string{},
	}
}

type ScoreBreakdown struct {
	SkillsScore     float64 `json:"skills_score"`
	ExperienceScore float64 `json:"experience_score"`
	EducationScore  float64 `json:"education_score"`
	AdditionalScore float64 `json:"additional_score"`
	TotalScore      float64 `json:"total_score"`
}

// Sum adds up the four category scores.
func (b ScoreBreakdown) Sum() float64 {
	return b.SkillsScore + b.ExperienceScore + b.EducationScore + b.AdditionalScore
}

// ProportionalBreakdown splits score across the categories by rubric weight.
func ProportionalBreakdown(score float64) ScoreBreakdown {
	return ScoreBreakdown{
		SkillsScore:     score * MaxSkillsScore / MaxScore,
		ExperienceScore: score * MaxExperienceScore / MaxScore,
		EducationScore:  score * MaxEducationScore / MaxScore,
		AdditionalScore: score * MaxAdditionalScore / MaxScore,
		TotalScore:      score,
	}
}

type SkillsAnalysis struct {
	MatchingSkills         []string `json:"matching_skills"`
	MissingCriticalSkills  []string `json:"missing_critical_skills"`
	MissingPreferredSkills []string `json:"missing_preferred_skills"`
	BonusSkills            []string `json:"bonus_skills"`
}

// MatchResult is the assessment of one candidate against one job.
type MatchResult struct {
	Score           float64        `json:"score"`
	Recommendation  Recommendation `json:"recommendation"`
	ConfidenceLevel float64        `json:"confidence_level"`

	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
	SkillsAnalysis SkillsAnalysis `json:"skills_analysis"`

	MatchingPoints        []string `json:"matching_points"`
	MissingQualifications []string `json:"missing_qualifications"`
	Strengths             []string `json:"strengths"`
	Concerns              []string `json:"concerns"`

	Justification    string  `json:"justification"`
	InterviewerNotes *string `json:"interviewer_notes"`

	// degraded is set only by DegradeMatch.
	degraded bool
}

// Degraded reports whether the result was synthesized by DegradeMatch
// rather than validated. A validated answer with low confidence is not
// degraded.
func (m *MatchResult) Degraded() bool {
	return m.degraded
}

// Clone returns a deep copy.
func (m *MatchResult) Clone() *MatchResult {
	out := *m
	out.SkillsAnalysis = SkillsAnalysis{
		MatchingSkills:         clone(m.SkillsAnalysis.MatchingSkills),
		MissingCriticalSkills:  clone(m.SkillsAnalysis.MissingCriticalSkills),
		MissingPreferredSkills: clone(m.SkillsAnalysis.MissingPreferredSkills),
		BonusSkills:            clone(m.SkillsAnalysis.BonusSkills),
	}
	out.MatchingPoints = clone(m.MatchingPoints)
	out.MissingQualifications = clone(m.MissingQualifications)
	out.Strengths = clone(m.Strengths)
	out.Concerns = clone(m.Concerns)
	if m.InterviewerNotes != nil {
		notes := *m.InterviewerNotes
		out.InterviewerNotes = &notes
	}
	return &out
}

func (m *MatchResult) fillEmpty() {
	fill(&m.SkillsAnalysis.MatchingSkills)
	fill(&m.SkillsAnalysis.MissingCriticalSkills)
	fill(&m.SkillsAnalysis.MissingPreferredSkills)
	fill(&m.SkillsAnalysis.BonusSkills)
	fill(&m.MatchingPoints)
	fill(&m.MissingQualifications)
	fill(&m.Strengths)
	fill(&m.Concerns)
}

func fill(list *[]string) {
	if *list == nil {
		*list = []string{}
	}
}

func clone(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}
