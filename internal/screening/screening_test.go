package screening

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-screener/internal/schema"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/screener"
)

// stubMatcher scores a candidate by the first line of the resume, which is
// used as the candidate name.
type stubMatcher struct {
	scores map[string]float64
	delay  time.Duration
	err    error

	extracted atomic.Int32
	inFlight  atomic.Int32
	peak      atomic.Int32

	mu      sync.Mutex
	options map[string]int
}

func (s *stubMatcher) ExtractProfile(_ context.Context, resumeText string) (*schema.Profile, error) {
	s.extracted.Add(1)
	name := strings.SplitN(resumeText, "\n", 2)[0]
	return schema.ProfileFromMap(map[string]any{"name": name}), nil
}

func (s *stubMatcher) MatchProfile(ctx context.Context, profile *schema.Profile, _ string, opts ...screener.MatchOption) (*schema.MatchResult, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := ""
	if profile.Name != nil {
		name = *profile.Name
	}

	s.mu.Lock()
	if s.options == nil {
		s.options = map[string]int{}
	}
	s.options[name] = len(opts)
	s.mu.Unlock()

	score := s.scores[name]
	if score < 0 {
		return scoring.Reconcile(schema.DegradeMatch(nil)), nil
	}

	return scoring.Reconcile(&schema.MatchResult{
		Score:           score,
		ConfidenceLevel: 0.9,
		ScoreBreakdown:  schema.ProportionalBreakdown(score),
		Justification:   "stub",
	}), nil
}

func candidates(names ...string) *Candidates {
	c := &Candidates{}
	for _, name := range names {
		c.Items = append(c.Items, NewCandidate("", name+"\nresume body"))
	}
	return c
}

func testJob() *screener.PreparedJob {
	return &screener.PreparedJob{
		Title:        "Backend Engineer",
		Description:  "Python and FastAPI",
		Requirements: []string{"Required Skills: Python"},
	}
}

func names(r *Results) []string {
	out := make([]string, 0, r.Len())
	for _, item := range r.Items {
		out = append(out, item.Candidate.Name)
	}
	return out
}

func TestScreenSortsByScore(t *testing.T) {
	t.Parallel()

	m := &stubMatcher{scores: map[string]float64{"ann": 5, "bob": 9, "cid": 7, "dan": 7}}

	results, err := Screen(context.Background(), m, testJob(), candidates("ann", "bob", "dan", "cid"), DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"bob", "cid", "dan", "ann"}, names(results))
	assert.Equal(t, schema.RecommendStrong, results.Items[0].Match.Recommendation)
	assert.EqualValues(t, 4, m.extracted.Load())
	// requirements and resume text
	assert.Equal(t, 2, m.options["bob"])
}

func TestScreenUsesStoredProfile(t *testing.T) {
	t.Parallel()

	m := &stubMatcher{scores: map[string]float64{"eve": 8}}
	c := &Candidates{Items: []*Candidate{{ID: "1", Profile: map[string]any{"name": "eve"}}}}

	results, err := Screen(context.Background(), m, testJob(), c, DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Zero(t, m.extracted.Load())
	require.Equal(t, 1, results.Len())
	assert.Equal(t, "eve", results.Items[0].Candidate.Name)
	assert.Equal(t, 8.0, results.Items[0].Match.Score)
	assert.Equal(t, 1, m.options["eve"])
}

func TestScreenRespectsConcurrency(t *testing.T) {
	t.Parallel()

	m := &stubMatcher{delay: 10 * time.Millisecond}
	cfg := DefaultConfig()
	cfg.Concurrency = 2

	results, err := Screen(context.Background(), m, testJob(), candidates("a", "b", "c", "d", "e", "f"), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 6, results.Len())
	assert.LessOrEqual(t, m.peak.Load(), int32(2))
}

func TestScreenFailsOnCancellation(t *testing.T) {
	t.Parallel()

	m := &stubMatcher{err: context.Canceled}

	_, err := Screen(context.Background(), m, testJob(), candidates("a", "b"), DefaultConfig(), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScreenRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	m := &stubMatcher{}

	_, err := Screen(context.Background(), m, &screener.PreparedJob{Title: "x"}, candidates("a"), DefaultConfig(), nil)
	var contractErr *screener.CallerContractError
	require.ErrorAs(t, err, &contractErr)

	_, err = Screen(context.Background(), m, testJob(), nil, DefaultConfig(), nil)
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, "candidates", contractErr.Argument)

	cfg := DefaultConfig()
	cfg.Concurrency = 0
	_, err = Screen(context.Background(), m, testJob(), candidates("a"), cfg, nil)
	require.Error(t, err)
}

func TestRunRejectsNilCandidates(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ExcludeFile = filepath.Join(t.TempDir(), "exclude.json")

	_, err := Run(context.Background(), &stubMatcher{}, testJob(), nil, cfg, nil)

	var contractErr *screener.CallerContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, "candidates", contractErr.Argument)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.MinimumRecommendation = string(schema.RecommendModerate)
	require.NoError(t, cfg.Validate())

	cfg.MinimumRecommendation = "Great"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RecordRejected = true
	require.Error(t, cfg.Validate())

	cfg.ExcludeFile = "exclude.json"
	require.NoError(t, cfg.Validate())
}

func TestRunFilters(t *testing.T) {
	t.Parallel()

	m := &stubMatcher{scores: map[string]float64{"a": 9, "b": 7, "c": 5, "d": 3, "e": -1}}
	results, err := Screen(context.Background(), m, testJob(), candidates("a", "b", "c", "d", "e"), DefaultConfig(), nil)
	require.NoError(t, err)

	cfg := Config{
		Concurrency:           1,
		MinimumScore:          4,
		MinimumRecommendation: string(schema.RecommendModerate),
		ExcludeDegraded:       true,
		Top:                   1,
	}

	filtered, removed, err := RunFilters(context.Background(), Deps{}, cfg.Filters(), results)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, names(filtered))
	assert.Len(t, removed, 4)
}

func TestExcludeDegradedKeepsLowConfidenceAnswers(t *testing.T) {
	t.Parallel()

	validated, err := schema.ParseMatch(map[string]any{
		"score":            5.0,
		"recommendation":   string(schema.RecommendWeak),
		"confidence_level": 0.05,
		"score_breakdown":  map[string]any{"skills_score": 2.0, "experience_score": 2.0, "education_score": 0.5, "additional_score": 0.5},
		"skills_analysis":  map[string]any{},
		"justification":    "Partial overlap.",
	})
	require.NoError(t, err)

	results := &Results{Items: []*Result{
		{Candidate: &Candidate{ID: "low", Name: "low"}, Match: scoring.Reconcile(validated)},
		{Candidate: &Candidate{ID: "fallback", Name: "fallback"}, Match: scoring.Reconcile(schema.DegradeMatch(nil))},
	}}

	filtered, removed, err := RunFilters(context.Background(), Deps{}, []Filter{NewExcludeDegraded(true)}, results)
	require.NoError(t, err)

	assert.Equal(t, []string{"low"}, names(filtered))
	require.Len(t, removed, 1)
	assert.Equal(t, "fallback", removed[0].Candidate.ID)
}

func TestDescribeFilters(t *testing.T) {
	t.Parallel()

	statuses := Describe(DefaultConfig().Filters())
	require.Len(t, statuses, 4)
	for _, status := range statuses {
		assert.False(t, status.Enabled, status.Name)
	}

	steps := Config{MinimumScore: 6}.Filters()
	DisableByName(steps, "minimum_score", "manual")
	status := Describe(steps)[1]
	assert.Equal(t, "minimum_score", status.Name)
	assert.False(t, status.Enabled)
	assert.Equal(t, "manual", status.Reason)
	assert.Equal(t, "6.0", status.Details["minimum_score"])
}

func TestRunRecordsRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resumes := make([]string, 0, 3)
	for _, name := range []string{"ann", "bob", "cid"} {
		path := filepath.Join(dir, name+".txt")
		require.NoError(t, os.WriteFile(path, []byte(name+"\nresume"), 0o600))
		resumes = append(resumes, path)
	}

	cfg := DefaultConfig()
	cfg.MinimumScore = 6
	cfg.ExcludeFile = filepath.Join(dir, "exclude.json")
	cfg.RecordRejected = true

	m := &stubMatcher{scores: map[string]float64{"ann": 8, "bob": 2, "cid": 7}}

	first, err := CandidatesFromFiles(resumes)
	require.NoError(t, err)
	results, err := Run(context.Background(), m, testJob(), first, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ann", "cid"}, names(results))

	excluded, err := ExcludedFromFile(cfg.ExcludeFile)
	require.NoError(t, err)
	require.Len(t, excluded.Items, 1)
	assert.Equal(t, "bob", excluded.Items[0].Name)
	assert.Equal(t, rejectedReason, excluded.Items[0].Reason)

	second, err := CandidatesFromFiles(resumes)
	require.NoError(t, err)
	assert.NotNil(t, second.FindByID(excluded.Items[0].ID), "candidate ids are stable across runs")

	m.extracted.Store(0)
	results, err = Run(context.Background(), m, testJob(), second, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ann", "cid"}, names(results))
	assert.EqualValues(t, 2, m.extracted.Load())
}

func TestCandidatesExclude(t *testing.T) {
	t.Parallel()

	c := &Candidates{Items: []*Candidate{{ID: "1"}, {ID: "2"}, {ID: "3"}}}

	assert.Equal(t, []string{"2"}, c.Exclude([]string{"2", "9"}))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "1", c.Items[0].ID)
	assert.Equal(t, "3", c.Items[1].ID)
	assert.Nil(t, c.FindByID("2"))
}

func TestCandidatesAddSkipsDuplicates(t *testing.T) {
	t.Parallel()

	c := &Candidates{Items: []*Candidate{{ID: "1"}}}

	duplicates := c.Add(&Candidate{ID: "2"}, &Candidate{ID: "1"}, &Candidate{ID: "2"})
	assert.Equal(t, []string{"1", "2"}, duplicates)
	assert.Equal(t, 2, c.Len())
	assert.NotNil(t, c.FindByID("2"))
}

func TestResultsFindByCandidateID(t *testing.T) {
	t.Parallel()

	m := &stubMatcher{scores: map[string]float64{"ann": 9, "bob": 4}}
	results, err := Screen(context.Background(), m, testJob(), candidates("ann", "bob"), DefaultConfig(), nil)
	require.NoError(t, err)

	bob := results.Items[1]
	assert.Same(t, bob, results.FindByCandidateID(bob.Candidate.ID))
	assert.Nil(t, results.FindByCandidateID("missing"))
}

func TestExcludedFromMissingFile(t *testing.T) {
	t.Parallel()

	excluded, err := ExcludedFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, excluded.IDs())
}

func TestReportByRecommendation(t *testing.T) {
	t.Parallel()

	m := &stubMatcher{scores: map[string]float64{"ann": 9, "bob": 7, "cid": -1}}
	results, err := Screen(context.Background(), m, testJob(), candidates("ann", "bob", "cid"), DefaultConfig(), nil)
	require.NoError(t, err)

	report := results.ReportByRecommendation()

	strong := report[string(schema.RecommendStrong)]
	require.Len(t, strong, 1)
	assert.Equal(t, "ann", strong[0]["name"])
	assert.Equal(t, "9.0", strong[0]["score"])
	assert.Equal(t, "false", strong[0]["degraded"])
	assert.Equal(t, "skills 3.6, experience 2.7, education 1.4, additional 1.4", strong[0]["breakdown"])

	require.Len(t, report[string(schema.RecommendModerate)], 1)

	not := report[string(schema.RecommendNot)]
	require.Len(t, not, 1)
	assert.Equal(t, "true", not[0]["degraded"])
}

func TestDumpToTmpFile(t *testing.T) {
	t.Parallel()

	m := &stubMatcher{scores: map[string]float64{"ann": 9}}
	results, err := Screen(context.Background(), m, testJob(), candidates("ann"), DefaultConfig(), nil)
	require.NoError(t, err)

	path, err := results.DumpToTmpFile()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(path) })

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		Job   map[string]any   `json:"job"`
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Backend Engineer", decoded.Job["title"])
	require.Len(t, decoded.Items, 1)
	assert.Contains(t, decoded.Items[0], "match")
}
