package screener

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/decode"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/prompt"
	"github.com/spigell/resume-screener/internal/schema"
	"github.com/spigell/resume-screener/internal/scoring"
)

// ExtractProfile turns resume text into a validated profile. It does not fail
// on bad model output: after the last attempt a degraded profile with
// schema.DegradedConfidence is returned. Blank text degrades without a model
// call. The error is non-nil only when ctx ends first.
func (s *Service) ExtractProfile(ctx context.Context, resumeText string) (*schema.Profile, error) {
	if strings.TrimSpace(resumeText) == "" {
		s.logger.Warn("empty resume text, returning degraded profile", zap.String(logger.FieldOperation, OperationExtractProfile))
		return schema.DegradeProfile(nil), nil
	}

	return run(ctx, s, call[*schema.Profile]{
		operation: OperationExtractProfile,
		build: func(clarification string) string {
			return prompt.Profile(resumeText, clarification)
		},
		parse:   schema.ParseProfile,
		degrade: schema.DegradeProfile,
	})
}

// ExtractJobRequirements asks the model once for the requirements of a job
// posting. Any failure yields schema.DefaultJobRequirements; the payload is
// normalized but not strictly validated.
func (s *Service) ExtractJobRequirements(ctx context.Context, jobText string) (*schema.JobRequirements, error) {
	log := logger.WithCall(s.logger, OperationExtractJob, s.newID())

	if strings.TrimSpace(jobText) == "" {
		log.Warn("empty job text, returning default requirements")
		return schema.DefaultJobRequirements(), nil
	}
	if err := ctx.Err(); err != nil {
		return schema.DefaultJobRequirements(), err
	}

	raw, err := s.generator.GenerateContent(ctx, prompt.Job(jobText))
	if err != nil {
		log.Warn("model call failed, returning default requirements", zap.Error(s.transportError(err)))
		return schema.DefaultJobRequirements(), nil
	}

	obj, err := decode.Object(raw)
	if err != nil {
		log.Warn("response is not a json object, returning default requirements", zap.Error(err))
		return schema.DefaultJobRequirements(), nil
	}

	return schema.JobFromMap(obj), nil
}

type matchOptions struct {
	resumeText   string
	requirements []string
}

type MatchOption func(*matchOptions)

// WithResumeText adds raw resume text to the matching prompt.
func WithResumeText(text string) MatchOption {
	return func(o *matchOptions) {
		o.resumeText = text
	}
}

// WithRequirements adds pre-extracted requirement lines to the matching prompt.
func WithRequirements(requirements []string) MatchOption {
	return func(o *matchOptions) {
		o.requirements = requirements
	}
}

// Match scores a stored profile mapping against a job description. A nil
// profile or blank job text is a *CallerContractError; everything else
// resolves to a reconciled result, degraded when the model never produced a
// valid one.
func (s *Service) Match(ctx context.Context, profile map[string]any, jobText string, opts ...MatchOption) (*schema.MatchResult, error) {
	if profile == nil {
		return nil, &CallerContractError{Operation: OperationMatch, Argument: "profile", Reason: "is required"}
	}

	return s.MatchProfile(ctx, schema.ProfileFromMap(profile), jobText, opts...)
}

// MatchProfile is Match for an already typed profile.
func (s *Service) MatchProfile(ctx context.Context, profile *schema.Profile, jobText string, opts ...MatchOption) (*schema.MatchResult, error) {
	if profile == nil {
		return nil, &CallerContractError{Operation: OperationMatch, Argument: "profile", Reason: "is required"}
	}
	if strings.TrimSpace(jobText) == "" {
		return nil, &CallerContractError{Operation: OperationMatch, Argument: "job text", Reason: "must not be empty"}
	}

	var o matchOptions
	for _, opt := range opts {
		opt(&o)
	}

	return run(ctx, s, call[*schema.MatchResult]{
		operation: OperationMatch,
		build: func(clarification string) string {
			return prompt.Match(prompt.MatchInput{
				Profile:       profile,
				ResumeText:    o.resumeText,
				JobText:       jobText,
				Requirements:  o.requirements,
				Clarification: clarification,
			})
		},
		parse: func(obj map[string]any) (*schema.MatchResult, error) {
			result, err := schema.ParseMatch(obj)
			if err != nil {
				return nil, err
			}
			return scoring.Reconcile(result), nil
		},
		degrade: func(last map[string]any) *schema.MatchResult {
			return scoring.Reconcile(schema.DegradeMatch(last))
		},
	})
}
