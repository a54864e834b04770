package screening

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/schema"
)

// Filter is a single step applied to sorted screening results.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, deps Deps, r *Results) (*Results, Step, error)
}

// Deps aggregates dependencies shared across filters.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filter.
type Step struct {
	Initial int
	Dropped int
	Left    int
	// Removed holds the dropped results.
	Removed []*Result
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// RunFilters applies the enabled filters in order and returns the remaining
// results together with everything the filters dropped.
func RunFilters(ctx context.Context, deps Deps, steps []Filter, r *Results) (*Results, []*Result, error) {
	var removed []*Result
	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, r)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		r = next
		removed = append(removed, info.Removed...)
	}

	return r, removed, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// toggle carries the enabled state shared by every filter.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func apply(r *Results, drop func(*Result) bool) (*Results, Step) {
	initial := r.Len()
	removed := r.Remove(drop)
	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len(), Removed: removed}
}

type minimumScoreFilter struct {
	toggle
	minimum float64
}

// NewMinimumScore drops results scoring below minimum. A zero minimum
// disables the filter.
func NewMinimumScore(minimum float64) Filter {
	f := &minimumScoreFilter{minimum: minimum}
	if minimum <= 0 {
		f.Disable("minimum score is not set")
	}
	return f
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Apply(_ context.Context, _ Deps, r *Results) (*Results, Step, error) {
	next, step := apply(r, func(res *Result) bool { return res.Match.Score < f.minimum })
	return next, step, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum_score": strconv.FormatFloat(f.minimum, 'f', 1, 64)},
	}
}

type recommendationFilter struct {
	toggle
	worst schema.Recommendation
}

// NewRecommendation keeps results whose recommendation is worst or better.
// An empty label disables the filter.
func NewRecommendation(worst schema.Recommendation) Filter {
	f := &recommendationFilter{worst: worst}
	if worst == "" {
		f.Disable("minimum recommendation is not set")
	}
	return f
}

func (f *recommendationFilter) Name() string { return "recommendation" }

func (f *recommendationFilter) Apply(_ context.Context, _ Deps, r *Results) (*Results, Step, error) {
	limit := slices.Index(schema.Recommendations, f.worst)
	if limit < 0 {
		return r, Step{}, fmt.Errorf("unknown recommendation %q", f.worst)
	}

	next, step := apply(r, func(res *Result) bool {
		return slices.Index(schema.Recommendations, res.Match.Recommendation) > limit
	})
	return next, step, nil
}

func (f *recommendationFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum_recommendation": string(f.worst)},
	}
}

type degradedFilter struct {
	toggle
}

// NewExcludeDegraded drops results synthesized after the model never
// produced a valid answer.
func NewExcludeDegraded(enabled bool) Filter {
	f := &degradedFilter{}
	if !enabled {
		f.Disable("degraded results are kept")
	}
	return f
}

func (f *degradedFilter) Name() string { return "exclude_degraded" }

func (f *degradedFilter) Apply(_ context.Context, deps Deps, r *Results) (*Results, Step, error) {
	next, step := apply(r, func(res *Result) bool { return res.Match.Degraded() })
	if deps.Logger != nil && step.Dropped > 0 {
		deps.Logger.Warn("excluding degraded results", zap.Strings("candidates", candidateIDs(step.Removed)))
	}
	return next, step, nil
}

type topFilter struct {
	toggle
	n int
}

// NewTop keeps the n best results. Results must already be sorted.
func NewTop(n int) Filter {
	f := &topFilter{n: n}
	if n <= 0 {
		f.Disable("all results are kept")
	}
	return f
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Apply(_ context.Context, _ Deps, r *Results) (*Results, Step, error) {
	initial := r.Len()
	removed := r.Top(f.n)
	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len(), Removed: removed}, nil
}

func (f *topFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"top": strconv.Itoa(f.n)},
	}
}

func candidateIDs(results []*Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Candidate.ID)
	}
	return ids
}
