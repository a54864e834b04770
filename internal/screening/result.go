package screening

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/resume-screener/internal/schema"
	"github.com/spigell/resume-screener/internal/screener"
)

// Result is the outcome of screening one candidate against the job.
type Result struct {
	Candidate *Candidate          `json:"candidate"`
	Profile   *schema.Profile     `json:"profile"`
	Match     *schema.MatchResult `json:"match"`
}

type Results struct {
	Job   *screener.PreparedJob `json:"job"`
	Items []*Result             `json:"items"`
}

func (r *Results) Len() int {
	return len(r.Items)
}

// FindByCandidateID returns the result for the candidate or nil.
func (r *Results) FindByCandidateID(id string) *Result {
	for _, item := range r.Items {
		if item.Candidate.ID == id {
			return item
		}
	}
	return nil
}

// Sort orders results by score, best first. Ties are broken by candidate
// name and then ID so the order is deterministic.
func (r *Results) Sort() {
	sort.SliceStable(r.Items, func(i, j int) bool {
		a, b := r.Items[i], r.Items[j]
		if a.Match.Score != b.Match.Score {
			return a.Match.Score > b.Match.Score
		}
		if a.Candidate.Name != b.Candidate.Name {
			return a.Candidate.Name < b.Candidate.Name
		}
		return a.Candidate.ID < b.Candidate.ID
	})
}

// Top keeps the first n results. n <= 0 keeps everything. The removed
// results are returned.
func (r *Results) Top(n int) []*Result {
	if n <= 0 || n >= len(r.Items) {
		return nil
	}
	dropped := r.Items[n:]
	r.Items = r.Items[:n]
	return dropped
}

// Remove drops results for which drop returns true and returns them.
func (r *Results) Remove(drop func(*Result) bool) []*Result {
	var removed []*Result
	kept := r.Items[:0]
	for _, item := range r.Items {
		if drop(item) {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	r.Items = kept
	return removed
}

func (r *Results) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "screening_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ToExcluded converts results into exclude file entries.
func ToExcluded(results []*Result, reason string) *ExcludedCandidates {
	excluded := &ExcludedCandidates{}
	now := time.Now().UTC()
	for _, result := range results {
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			ID:         result.Candidate.ID,
			Name:       result.Candidate.Name,
			Reason:     reason,
			ExcludedAt: now,
		})
	}
	return excluded
}

// ReportByRecommendation groups results under their recommendation label.
func (r *Results) ReportByRecommendation() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, result := range r.Items {
		key := string(result.Match.Recommendation)
		entry := map[string]string{
			"id":         result.Candidate.ID,
			"name":       result.Candidate.Name,
			"score":      strconv.FormatFloat(result.Match.Score, 'f', 1, 64),
			"confidence": strconv.FormatFloat(result.Match.ConfidenceLevel, 'f', 2, 64),
			"degraded":   strconv.FormatBool(result.Match.Degraded()),
			"breakdown": fmt.Sprintf("skills %.1f, experience %.1f, education %.1f, additional %.1f",
				result.Match.ScoreBreakdown.SkillsScore,
				result.Match.ScoreBreakdown.ExperienceScore,
				result.Match.ScoreBreakdown.EducationScore,
				result.Match.ScoreBreakdown.AdditionalScore,
			),
			"justification": result.Match.Justification,
		}
		if len(result.Match.Strengths) > 0 {
			entry["strengths"] = strings.Join(result.Match.Strengths, "; ")
		}
		if len(result.Match.Concerns) > 0 {
			entry["concerns"] = strings.Join(result.Match.Concerns, "; ")
		}
		if result.Profile != nil {
			entry["experience_years"] = strconv.Itoa(result.Profile.RoundedExperienceYears())
		}
		report[key] = append(report[key], entry)
	}
	return report
}
