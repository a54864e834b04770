// Package screening matches a batch of candidates against one job, ranks them
// by score and narrows the ranking with filters.
package screening

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/schema"
	"github.com/spigell/resume-screener/internal/screener"
)

const DefaultConcurrency = 4

// Matcher is the part of *screener.Service used for screening.
type Matcher interface {
	ExtractProfile(ctx context.Context, resumeText string) (*schema.Profile, error)
	MatchProfile(ctx context.Context, profile *schema.Profile, jobText string, opts ...screener.MatchOption) (*schema.MatchResult, error)
}

// Config controls a screening run.
type Config struct {
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	// MinimumScore drops results below it. Zero keeps every score.
	MinimumScore float64 `mapstructure:"minimum-score" validate:"gte=0,lte=10"`
	// MinimumRecommendation keeps results at this band or better.
	MinimumRecommendation string `mapstructure:"minimum-recommendation" validate:"omitempty,oneof='Strong Match - Highly Recommended' 'Moderate Match - Recommended with Reservations' 'Weak Match - Not Ideal' 'Not Recommended'"`
	Top                   int    `mapstructure:"top" validate:"gte=0"`
	ExcludeDegraded       bool   `mapstructure:"exclude-degraded"`
	// ExcludeFile lists candidates skipped before matching. Rejected
	// candidates are appended to it when RecordRejected is set.
	ExcludeFile    string `mapstructure:"exclude-file"`
	RecordRejected bool   `mapstructure:"record-rejected" validate:"excluded_without=ExcludeFile"`
}

func DefaultConfig() Config {
	return Config{Concurrency: DefaultConcurrency}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid screening config: %w", err)
	}
	return nil
}

// Filters builds the filter chain for cfg. Top always runs last.
func (c Config) Filters() []Filter {
	return []Filter{
		NewExcludeDegraded(c.ExcludeDegraded),
		NewMinimumScore(c.MinimumScore),
		NewRecommendation(schema.Recommendation(c.MinimumRecommendation)),
		NewTop(c.Top),
	}
}

// Screen profiles and matches every candidate with at most cfg.Concurrency
// calls in flight, then sorts the results by score. It fails only when ctx
// ends or a call breaks a caller precondition; model failures show up as
// degraded results.
func Screen(ctx context.Context, m Matcher, job *screener.PreparedJob, candidates *Candidates, cfg Config, log *zap.Logger) (*Results, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkInput(job, candidates); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	items := make([]*Result, candidates.Len())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i, candidate := range candidates.Items {
		g.Go(func() error {
			result, err := screenOne(ctx, m, job, candidate, log)
			if err != nil {
				return fmt.Errorf("candidate %s: %w", candidate.ID, err)
			}
			items[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := &Results{Job: job, Items: items}
	results.Sort()

	return results, nil
}

func checkInput(job *screener.PreparedJob, candidates *Candidates) error {
	if job == nil || strings.TrimSpace(job.Description) == "" {
		return &screener.CallerContractError{Operation: "screen", Argument: "job", Reason: "must have a description"}
	}
	if candidates == nil {
		return &screener.CallerContractError{Operation: "screen", Argument: "candidates", Reason: "are required"}
	}
	return nil
}

func screenOne(ctx context.Context, m Matcher, job *screener.PreparedJob, candidate *Candidate, log *zap.Logger) (*Result, error) {
	log = log.With(zap.String(logger.FieldCandidate, candidate.ID))

	var (
		profile *schema.Profile
		err     error
	)
	if candidate.Profile != nil {
		profile = schema.ProfileFromMap(candidate.Profile)
	} else {
		profile, err = m.ExtractProfile(ctx, candidate.ResumeText)
		if err != nil {
			return nil, fmt.Errorf("extract profile: %w", err)
		}
	}

	if candidate.Name == "" && profile.Name != nil {
		candidate.Name = *profile.Name
	}

	opts := job.MatchOptions()
	if candidate.ResumeText != "" {
		opts = append(opts, screener.WithResumeText(candidate.ResumeText))
	}

	match, err := m.MatchProfile(ctx, profile, job.Description, opts...)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}

	log.Info("candidate screened",
		zap.String("name", candidate.Name),
		zap.Float64("score", match.Score),
		zap.String("recommendation", string(match.Recommendation)),
		zap.Bool("degraded", match.Degraded()),
	)

	return &Result{Candidate: candidate, Profile: profile, Match: match}, nil
}
