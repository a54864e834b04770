package screening

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/screener"
)

const rejectedReason = "rejected by screening filters"

// Run is the full batch flow: candidates listed in the exclude file are
// skipped, the rest are screened and filtered, and filtered-out candidates
// are recorded in the exclude file when configured.
func Run(ctx context.Context, m Matcher, job *screener.PreparedJob, candidates *Candidates, cfg Config, log *zap.Logger) (*Results, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := checkInput(job, candidates); err != nil {
		return nil, err
	}
	path := strings.TrimSpace(cfg.ExcludeFile)

	if path != "" {
		excluded, err := ExcludedFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("getting excluded candidates from file: %w", err)
		}
		if skipped := candidates.Exclude(excluded.IDs()); len(skipped) > 0 {
			log.Info("excluding candidates based on exclude file",
				zap.String("path", path),
				zap.Strings("excluded_candidates", skipped),
				zap.Int("candidates_left", candidates.Len()),
			)
		}
	}

	results, err := Screen(ctx, m, job, candidates, cfg, log)
	if err != nil {
		return nil, err
	}

	results, rejected, err := RunFilters(ctx, Deps{Logger: log}, cfg.Filters(), results)
	if err != nil {
		return nil, err
	}

	if cfg.RecordRejected && len(rejected) > 0 {
		if err := appendToExcludeFile(path, rejected); err != nil {
			log.Warn("failed to append candidates to exclude file", zap.String("exclude_file", path), zap.Error(err))
		} else {
			log.Info("candidates appended to exclude file",
				zap.String("exclude_file", path),
				zap.Strings("candidates", candidateIDs(rejected)),
			)
		}
	}

	return results, nil
}

func appendToExcludeFile(path string, rejected []*Result) error {
	excluded, err := ExcludedFromFile(path)
	if err != nil {
		return fmt.Errorf("load excluded candidates: %w", err)
	}

	excluded.Append(ToExcluded(rejected, rejectedReason))

	if err := excluded.ToFile(path); err != nil {
		return fmt.Errorf("write excluded candidates: %w", err)
	}
	return nil
}
