package schema

import (
	"fmt"
	"strings"
)

// MaxFlattenedResponsibilities bounds the responsibilities kept when
// requirements are flattened into display strings.
const MaxFlattenedResponsibilities = 3

// FlattenRequirements turns requirements into display strings. Lists pass
// through. A structured requirements object ({"required_skills": [...],
// "experience_required": "..."}) becomes one line per non-empty category in
// the order required skills, preferred skills, experience, education,
// responsibilities. Nothing is invented: an empty object gives an empty list.
func FlattenRequirements(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case *JobRequirements:
		if val == nil {
			return []string{}
		}
		return val.Flatten()
	case JobRequirements:
		return val.Flatten()
	case map[string]any:
		return flattenCategories(
			toStrings(stringList(val["required_skills"], true)),
			toStrings(stringList(val["preferred_skills"], true)),
			coerceString(val["experience_required"]),
			coerceString(val["education_required"]),
			toStrings(stringList(val["responsibilities"], false)),
		)
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
		return []string{}
	default:
		return toStrings(stringList(v, false))
	}
}

// Flatten renders the requirements as display strings, see FlattenRequirements.
// Placeholder values such as "Not specified" are skipped.
func (j *JobRequirements) Flatten() []string {
	experience, education := j.ExperienceRequired, j.EducationRequired
	if experience == NotSpecified {
		experience = ""
	}
	if education == NotSpecified {
		education = ""
	}
	return flattenCategories(j.RequiredSkills, j.PreferredSkills, experience, education, j.Responsibilities)
}

func flattenCategories(required, preferred []string, experience, education string, responsibilities []string) []string {
	out := make([]string, 0, 4+MaxFlattenedResponsibilities)

	if len(required) > 0 {
		out = append(out, "Required Skills: "+strings.Join(required, ", "))
	}
	if len(preferred) > 0 {
		out = append(out, "Preferred Skills: "+strings.Join(preferred, ", "))
	}
	if experience = strings.TrimSpace(experience); experience != "" {
		out = append(out, "Experience: "+experience)
	}
	if education = strings.TrimSpace(education); education != "" {
		out = append(out, "Education: "+education)
	}
	for i, r := range responsibilities {
		if i == MaxFlattenedResponsibilities {
			break
		}
		out = append(out, fmt.Sprintf("Responsibility: %s", r))
	}

	return out
}
