package screener

import (
	"context"
	"strings"

	"github.com/spigell/resume-screener/internal/schema"
)

// JobPosting is a job as supplied by a caller. Requirements may be a list of
// requirement strings, a structured requirements object or nil.
type JobPosting struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements any    `json:"requirements"`
}

// PreparedJob is a posting ready for matching.
type PreparedJob struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	// Extracted is set when requirements came from the model.
	Extracted *schema.JobRequirements `json:"extracted,omitempty"`
}

// PrepareJob flattens requirements supplied with the posting or, when there
// are none, extracts them from the description.
func (s *Service) PrepareJob(ctx context.Context, posting JobPosting) (*PreparedJob, error) {
	description := strings.TrimSpace(posting.Description)
	if description == "" {
		return nil, &CallerContractError{Operation: OperationExtractJob, Argument: "description", Reason: "must not be empty"}
	}

	job := &PreparedJob{
		Title:        strings.TrimSpace(posting.Title),
		Description:  description,
		Requirements: schema.FlattenRequirements(posting.Requirements),
	}

	if len(job.Requirements) == 0 {
		extracted, err := s.ExtractJobRequirements(ctx, description)
		if err != nil {
			return nil, err
		}
		job.Extracted = extracted
		job.Requirements = extracted.Flatten()
		if job.Title == "" && extracted.Title != schema.UnknownTitle {
			job.Title = extracted.Title
		}
	}

	if job.Title == "" {
		job.Title = schema.UnknownTitle
	}

	return job, nil
}

// MatchOptions prepends the job's requirement lines to opts.
func (j *PreparedJob) MatchOptions(opts ...MatchOption) []MatchOption {
	if len(j.Requirements) == 0 {
		return opts
	}
	return append([]MatchOption{WithRequirements(j.Requirements)}, opts...)
}
