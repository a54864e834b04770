package screening

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Candidate is one applicant to screen. Profile is a previously extracted
// profile mapping; when it is nil the profile is extracted from ResumeText.
type Candidate struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	Source     string         `json:"source,omitempty"`
	ResumeText string         `json:"resume_text,omitempty"`
	Profile    map[string]any `json:"profile,omitempty"`
}

type Candidates struct {
	Items []*Candidate `json:"items"`
}

// NewCandidate builds a candidate with a random ID.
func NewCandidate(name, resumeText string) *Candidate {
	return &Candidate{
		ID:         uuid.NewString(),
		Name:       name,
		ResumeText: resumeText,
	}
}

// CandidatesFromFiles reads one resume per file. The file name without
// extension becomes the candidate name.
func CandidatesFromFiles(paths []string) (*Candidates, error) {
	candidates := &Candidates{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read resume %q: %w", path, err)
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		candidate := NewCandidate(name, string(data))
		// Stable IDs let exclude files refer to the same resume across runs.
		candidate.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.Clean(path))).String()
		candidate.Source = path
		candidates.Items = append(candidates.Items, candidate)
	}
	return candidates, nil
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

func (c *Candidates) FindByID(id string) *Candidate {
	for _, candidate := range c.Items {
		if candidate.ID == id {
			return candidate
		}
	}
	return nil
}

// Add appends candidates whose ID is not present yet and returns the IDs of
// the skipped duplicates.
func (c *Candidates) Add(more ...*Candidate) []string {
	var duplicates []string
	for _, candidate := range more {
		if c.FindByID(candidate.ID) != nil {
			duplicates = append(duplicates, candidate.ID)
			continue
		}
		c.Items = append(c.Items, candidate)
	}
	return duplicates
}

// Exclude removes candidates with the given IDs and returns the removed IDs.
// Order of the remaining candidates is kept.
func (c *Candidates) Exclude(ids []string) []string {
	skip := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}

	var excluded []string
	kept := c.Items[:0]
	for _, candidate := range c.Items {
		if _, ok := skip[candidate.ID]; ok {
			excluded = append(excluded, candidate.ID)
			continue
		}
		kept = append(kept, candidate)
	}
	c.Items = kept

	return excluded
}

// ExcludedCandidates is the content of an exclude file: candidates that were
// rejected before and should not be screened again.
type ExcludedCandidates struct {
	Items []*ExcludedCandidate
}

type ExcludedCandidate struct {
	ID         string
	Name       string
	Reason     string
	ExcludedAt time.Time
}

// ExcludedFromFile loads an exclude file. A missing or empty file is an empty
// list.
func ExcludedFromFile(path string) (*ExcludedCandidates, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedCandidates{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return &ExcludedCandidates{}, nil
	}

	var excluded ExcludedCandidates
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedCandidates) Append(s *ExcludedCandidates) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedCandidates) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, candidate := range e.Items {
		ids = append(ids, candidate.ID)
	}
	return ids
}

func (e *ExcludedCandidates) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
