// Package screener runs model calls for profile extraction, job requirement
// extraction and candidate matching inside a bounded retry loop. Model output
// that cannot be decoded or validated is retried with feedback and finally
// degraded into a low-confidence result, so only caller mistakes and
// cancellation surface as errors.
package screener

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/decode"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/schema"
	"github.com/spigell/resume-screener/internal/utils"
)

const (
	OperationExtractProfile = "extract_profile"
	OperationExtractJob     = "extract_job"
	OperationMatch          = "match"
)

// decodeClarification is sent after a response that held no JSON object.
const decodeClarification = "Validation errors:\n- Field '(root)': the response must be exactly one JSON object"

// Service is safe for concurrent use; it keeps no state between calls.
type Service struct {
	generator ai.Generator
	cfg       Config
	logger    *zap.Logger
	newID     func() string
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Service around generator.
func New(generator ai.Generator, cfg Config, opts ...Option) (*Service, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		generator: generator,
		cfg:       cfg,
		logger:    zap.NewNop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// call describes one operation for the retry loop.
type call[T any] struct {
	operation string
	build     func(clarification string) string
	parse     func(obj map[string]any) (T, error)
	degrade   func(last map[string]any) T
}

// run drives Invoke, Decode and Validate for up to MaxRetries+1 attempts.
// The last decoded payload feeds degrade when attempts run out. Cancellation
// is honoured between attempts and returns the degraded value with ctx.Err().
func run[T any](ctx context.Context, s *Service, c call[T]) (T, error) {
	log := logger.WithCall(s.logger, c.operation, s.newID())

	var (
		last          map[string]any
		clarification string
		lastErr       error
	)

	attempts := s.cfg.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := utils.WaitFor(ctx, s.cfg.RetryDelay); err != nil {
				log.Warn("call cancelled, degrading", zap.Int(logger.FieldAttempt, attempt), zap.Error(err))
				return c.degrade(last), err
			}
		}
		if err := ctx.Err(); err != nil {
			log.Warn("call cancelled, degrading", zap.Int(logger.FieldAttempt, attempt), zap.Error(err))
			return c.degrade(last), err
		}

		attemptLog := log.With(zap.Int(logger.FieldAttempt, attempt))
		prompt := c.build(clarification)

		attemptLog.Debug("model request",
			zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
			zap.String("prompt_preview", utils.TruncateForLog(prompt, s.cfg.MaxLogLength)),
		)

		raw, err := s.generator.GenerateContent(ctx, prompt)
		if err != nil {
			lastErr = s.transportError(err)
			attemptLog.Warn("model call failed", zap.Error(lastErr))
			continue
		}

		attemptLog.Debug("model response",
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.TruncateForLog(raw, s.cfg.MaxLogLength)),
		)

		obj, err := decode.Object(raw)
		if err != nil {
			lastErr = err
			clarification = decodeClarification
			attemptLog.Warn("response is not a json object", zap.Error(err))
			continue
		}
		last = obj

		value, err := c.parse(obj)
		if err != nil {
			lastErr = err
			var verr *schema.ValidationError
			if errors.As(err, &verr) {
				clarification = verr.Clarification()
				attemptLog.Warn("response failed validation", zap.Strings("fields", verr.Fields()))
			} else {
				attemptLog.Warn("response rejected", zap.Error(err))
			}
			continue
		}

		attemptLog.Info("call succeeded")
		return value, nil
	}

	log.Warn("attempts exhausted, degrading",
		zap.Int("attempts", attempts),
		zap.Bool("has_payload", last != nil),
		zap.Error(lastErr),
	)

	return c.degrade(last), nil
}

func (s *Service) transportError(err error) error {
	var terr *ai.TransportError
	if errors.As(err, &terr) {
		return err
	}
	return &ai.TransportError{Provider: "unknown", Model: s.generator.Model(), Err: err}
}
