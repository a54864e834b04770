package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeProfile coerces a decoded profile payload into the canonical shape
// without rejecting anything:
//   - identity strings are trimmed, blank ones become null;
//   - skill, tool and language lists accept a comma separated string, items
//     shaped as {"name": ...} collapse to the name, duplicates are dropped
//     case-insensitively keeping the first spelling;
//   - structured certifications collapse to "Name (Issuer, Year)";
//   - languages default to English;
//   - numeric strings are parsed, total_experience_years is capped at 50 and
//     confidence_score defaults to 0.8;
//   - career_level aliases ("senior", "Sr", "mid") map to the canonical label.
//
// Values of the wrong kind are left in place for ValidateProfile to report.
// Unknown keys are dropped. The input map is not modified.
func NormalizeProfile(in map[string]any) map[string]any {
	out := make(map[string]any, len(ProfileFields))

	for _, key := range []string{"name", "email", "phone", "location"} {
		out[key] = optionalString(in[key])
	}

	out["technical_skills"] = stringList(in["technical_skills"], true)
	out["soft_skills"] = stringList(in["soft_skills"], true)
	out["tools_technologies"] = stringList(in["tools_technologies"], true)
	out["key_achievements"] = stringList(in["key_achievements"], false)

	out["experience"] = entries(in["experience"], []string{"company", "role", "duration"}, []string{"description"})
	out["education"] = entries(in["education"], []string{"degree", "institution"}, []string{"year", "field"})

	out["certifications"] = certifications(in["certifications"])

	languages := stringList(in["languages"], true)
	if list, ok := languages.([]any); ok && len(list) == 0 {
		languages = []any{DefaultLanguage}
	}
	out["languages"] = languages

	years := number(in["total_experience_years"], 0.0)
	if f, ok := years.(float64); ok && f > MaxExperienceYears {
		years = MaxExperienceYears
	}
	out["total_experience_years"] = years

	out["career_level"] = careerLevel(in["career_level"])
	out["confidence_score"] = number(in["confidence_score"], DefaultConfidence)

	return out
}

// NormalizeMatch coerces a decoded match payload. Numeric strings are parsed,
// recommendation aliases ("strong", "weak match") map to the canonical label,
// narrative lists default to empty and skill lists are deduplicated.
// Required values that are absent stay absent.
func NormalizeMatch(in map[string]any) map[string]any {
	out := make(map[string]any, len(MatchFields))

	if v, ok := in["score"]; ok {
		out["score"] = number(v, nil)
	}
	if v, ok := in["recommendation"]; ok {
		out["recommendation"] = recommendation(v)
	}
	if v, ok := in["confidence_level"]; ok {
		out["confidence_level"] = number(v, nil)
	}

	if v, ok := in["score_breakdown"]; ok {
		out["score_breakdown"] = breakdown(v)
	}
	if v, ok := in["skills_analysis"]; ok {
		out["skills_analysis"] = skillsAnalysis(v)
	}

	for _, key := range []string{"matching_points", "missing_qualifications", "strengths", "concerns"} {
		out[key] = stringList(in[key], false)
	}

	if v, ok := in["justification"]; ok {
		out["justification"] = trimmed(v)
	}
	out["interviewer_notes"] = optionalString(in["interviewer_notes"])

	return out
}

// NormalizeJob coerces a decoded job requirements payload. Job payloads are
// not validated strictly, so every field receives a usable default here.
func NormalizeJob(in map[string]any) map[string]any {
	out := make(map[string]any, 9)

	title := optionalString(in["title"])
	if title == nil {
		title = UnknownTitle
	}
	out["title"] = title

	out["required_skills"] = stringList(in["required_skills"], true)
	out["preferred_skills"] = stringList(in["preferred_skills"], true)
	out["responsibilities"] = stringList(in["responsibilities"], false)
	out["qualifications"] = stringList(in["qualifications"], false)

	for _, key := range []string{"experience_required", "education_required"} {
		value := in[key]
		if list, ok := value.([]any); ok {
			value = strings.Join(toStrings(stringList(list, false)), "; ")
		}
		text := optionalString(value)
		if text == nil {
			text = NotSpecified
		}
		out[key] = text
	}

	out["salary_range"] = optionalString(in["salary_range"])
	out["location"] = optionalString(in["location"])

	return out
}

// CertificationString renders a structured certification as
// "Name (Issuer, Year)", dropping whichever of issuer and year is missing.
func CertificationString(cert map[string]any) string {
	name := coerceString(cert["name"])
	if name == "" {
		name = coerceString(cert["title"])
	}
	if name == "" {
		name = UnknownTitle
	}

	details := make([]string, 0, 2)
	for _, key := range []string{"issuer", "year"} {
		if value := coerceString(cert[key]); value != "" {
			details = append(details, value)
		}
	}

	if len(details) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(details, ", "))
}

func certifications(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return []any{CertificationString(val)}
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			switch cert := item.(type) {
			case map[string]any:
				out = append(out, CertificationString(cert))
			case string:
				if s := strings.TrimSpace(cert); s != "" {
					out = append(out, s)
				}
			case nil:
			default:
				out = append(out, item)
			}
		}
		return out
	default:
		return stringList(v, false)
	}
}

func entries(v any, required, optional []string) any {
	if v == nil {
		return []any{}
	}
	if single, ok := v.(map[string]any); ok {
		v = []any{single}
	}

	list, ok := v.([]any)
	if !ok {
		return v
	}

	out := make([]any, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			if item != nil {
				out = append(out, item)
			}
			continue
		}

		normalized := make(map[string]any, len(required)+len(optional))
		for _, key := range required {
			if value, ok := entry[key]; ok && value != nil {
				normalized[key] = trimmed(value)
			}
		}
		for _, key := range optional {
			normalized[key] = optionalString(entry[key])
		}
		out = append(out, normalized)
	}

	return out
}

func breakdown(v any) any {
	in, ok := v.(map[string]any)
	if !ok {
		return v
	}

	out := make(map[string]any, 5)
	for _, key := range []string{"skills_score", "experience_score", "education_score", "additional_score", "total_score"} {
		if value, ok := in[key]; ok {
			out[key] = number(value, nil)
		}
	}
	return out
}

func skillsAnalysis(v any) any {
	if v == nil {
		return map[string]any{
			"matching_skills":          []any{},
			"missing_critical_skills":  []any{},
			"missing_preferred_skills": []any{},
			"bonus_skills":             []any{},
		}
	}

	in, ok := v.(map[string]any)
	if !ok {
		return v
	}

	out := make(map[string]any, 4)
	for _, key := range []string{"matching_skills", "missing_critical_skills", "missing_preferred_skills", "bonus_skills"} {
		out[key] = stringList(in[key], true)
	}
	return out
}

// stringList returns []any of trimmed strings. A plain string is split on
// commas when split is set, otherwise kept as a single item.
func stringList(v any, split bool) any {
	var items []any

	switch val := v.(type) {
	case nil:
		return []any{}
	case string:
		if !split {
			items = []any{val}
			break
		}
		for _, part := range strings.Split(val, ",") {
			items = append(items, part)
		}
	case []string:
		for _, s := range val {
			items = append(items, s)
		}
	case []any:
		items = val
	default:
		return v
	}

	out := make([]any, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		switch val := item.(type) {
		case nil:
			continue
		case map[string]any:
			name := coerceString(val["name"])
			if name == "" {
				name = coerceString(val["title"])
			}
			if name == "" {
				out = append(out, item)
				continue
			}
			item = name
		case float64, bool, json.Number:
			item = coerceString(val)
		case string:
			item = strings.TrimSpace(val)
		}

		s, ok := item.(string)
		if !ok {
			out = append(out, item)
			continue
		}
		if s == "" {
			continue
		}

		if split {
			key := strings.ToLower(s)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, s)
	}

	return out
}

func optionalString(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return s
		}
		return nil
	case float64, bool, json.Number:
		return coerceString(val)
	default:
		return v
	}
}

func trimmed(v any) any {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64, json.Number:
		return coerceString(val)
	default:
		return v
	}
}

// number parses numeric strings. Absent values become def; def == nil keeps
// them absent-as-null for validation to report.
func number(v any, def any) any {
	switch val := v.(type) {
	case nil:
		return def
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return v
	case string:
		if f := coerceFloat(val); !math.IsNaN(f) {
			return f
		}
		if strings.TrimSpace(val) == "" {
			return def
		}
		return v
	default:
		return v
	}
}

func careerLevel(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}

	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return nil
	}

	for _, level := range CareerLevels {
		if key == strings.ToLower(string(level)) {
			return string(level)
		}
	}

	key = strings.NewReplacer(" ", "", "-", "", "_", "", ".", "").Replace(key)
	switch key {
	case "entry", "entrylevel", "intern", "graduate":
		return string(CareerEntry)
	case "junior", "jr":
		return string(CareerJunior)
	case "mid", "midlevel", "middle", "intermediate":
		return string(CareerMid)
	case "senior", "sr":
		return string(CareerSenior)
	case "lead", "principal", "leadprincipal", "lead/principal", "staff":
		return string(CareerLead)
	case "executive", "exec", "clevel", "director", "vp":
		return string(CareerExecutive)
	}

	return strings.TrimSpace(s)
}

func recommendation(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}

	key := strings.ToLower(strings.TrimSpace(s))
	for _, rec := range Recommendations {
		if key == strings.ToLower(string(rec)) {
			return string(rec)
		}
	}

	switch {
	case strings.HasPrefix(key, "strong"):
		return string(RecommendStrong)
	case strings.HasPrefix(key, "moderate"):
		return string(RecommendModerate)
	case strings.HasPrefix(key, "weak"):
		return string(RecommendWeak)
	case strings.HasPrefix(key, "not"), strings.HasPrefix(key, "no "):
		return string(RecommendNot)
	}

	return strings.TrimSpace(s)
}

func toStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
