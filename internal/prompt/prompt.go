// Package prompt renders the model prompts for profile extraction, job
// requirement extraction and candidate matching. Rendering is pure and
// deterministic; over-long inputs are cut to fixed rune budgets.
package prompt

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/spigell/resume-screener/internal/schema"
	"github.com/spigell/resume-screener/internal/utils"
)

// Rune budgets for text inserted into prompts.
const (
	ProfileTextLimit = 4000
	JobTextLimit     = 4000
	MatchResumeLimit = 3000
	MatchJobLimit    = 2000
)

const (
	clarificationHeader = "Previous attempt had validation issues. Please correct these errors:"
	noneListed          = "None listed"
	notProvided         = "Not provided"
)

var (
	//go:embed templates/profile.md
	profileTemplate string
	//go:embed templates/profile_example.txt
	profileExampleResume string
	//go:embed templates/profile_example.json
	profileExampleOutput string
	//go:embed templates/job.md
	jobTemplate string
	//go:embed templates/match.md
	matchTemplate string
)

// Profile renders the resume extraction prompt. A non-empty clarification
// lists the problems of the previous attempt.
func Profile(resumeText, clarification string) string {
	return render(profileTemplate, map[string]string{
		"EXAMPLE_RESUME": strings.TrimSpace(profileExampleResume),
		"EXAMPLE_OUTPUT": strings.TrimSpace(profileExampleOutput),
		"CLARIFICATION":  clarificationBlock(clarification),
		"RESUME_TEXT":    utils.Truncate(strings.TrimSpace(resumeText), ProfileTextLimit),
	})
}

// Job renders the job requirement extraction prompt.
func Job(jobText string) string {
	return render(jobTemplate, map[string]string{
		"JOB_TEXT": utils.Truncate(strings.TrimSpace(jobText), JobTextLimit),
	})
}

// MatchInput carries everything the matching prompt is built from.
type MatchInput struct {
	Profile *schema.Profile
	// ResumeText is optional raw resume text shown next to the profile.
	ResumeText string
	JobText    string
	// Requirements are optional pre-extracted requirement lines.
	Requirements  []string
	Clarification string
}

// Match renders the candidate scoring prompt with the rubric and bands.
func Match(in MatchInput) string {
	excerpt := ""
	if text := strings.TrimSpace(in.ResumeText); text != "" {
		excerpt = fmt.Sprintf("\nResume excerpt:\n\"\"\"\n%s\n\"\"\"\n", utils.Truncate(text, MatchResumeLimit))
	}

	requirements := ""
	if len(in.Requirements) > 0 {
		requirements = "\nKey requirements:\n" + bullets(in.Requirements) + "\n"
	}

	return render(matchTemplate, map[string]string{
		"CLARIFICATION":  clarificationBlock(in.Clarification),
		"CANDIDATE":      Candidate(in.Profile),
		"RESUME_EXCERPT": excerpt,
		"JOB_TEXT":       utils.Truncate(strings.TrimSpace(in.JobText), MatchJobLimit),
		"REQUIREMENTS":   requirements,
	})
}

// Candidate formats the profile summary used in matching prompts.
func Candidate(p *schema.Profile) string {
	if p == nil {
		p = schema.ProfileFromMap(nil)
	}

	level := "Not specified"
	if p.CareerLevel != nil {
		level = string(*p.CareerLevel)
	}

	education := make([]string, 0, len(p.Education))
	for _, e := range p.Education {
		line := e.Degree + ", " + e.Institution
		if e.Year != nil {
			line += " (" + *e.Year + ")"
		}
		education = append(education, line)
	}

	lines := []string{
		"Name: " + deref(p.Name, notProvided),
		"Technical Skills: " + list(p.TechnicalSkills),
		"Soft Skills: " + list(p.SoftSkills),
		"Tools & Technologies: " + list(p.ToolsTechnologies),
		fmt.Sprintf("Total Experience: %d years", p.RoundedExperienceYears()),
		"Career Level: " + level,
		"Education: " + joinOr(education, "; "),
		"Certifications: " + list(p.Certifications),
		"Languages: " + list(p.Languages),
		"Key Achievements: " + joinOr(p.KeyAchievements, "; "),
	}

	return strings.Join(lines, "\n")
}

func clarificationBlock(clarification string) string {
	clarification = strings.TrimSpace(clarification)
	if clarification == "" {
		return ""
	}
	return clarificationHeader + "\n" + clarification + "\n\n"
}

// render substitutes {{KEY}} placeholders in one pass, so placeholder-like
// text inside inserted values is left alone.
func render(template string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, "{{"+key+"}}", values[key])
	}

	return strings.NewReplacer(pairs...).Replace(template)
}

func bullets(items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			lines = append(lines, "- "+item)
		}
	}
	return strings.Join(lines, "\n")
}

func list(items []string) string {
	return joinOr(items, ", ")
}

func joinOr(items []string, sep string) string {
	if len(items) == 0 {
		return noneListed
	}
	return strings.Join(items, sep)
}

func deref(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
