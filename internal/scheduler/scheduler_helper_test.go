package scheduler_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/aggregator"
	"github.com/rohmanhakim/test-redirection/internal/config"
	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/internal/resolver"
	"github.com/rohmanhakim/test-redirection/internal/runner"
	"github.com/rohmanhakim/test-redirection/internal/scheduler"
	"github.com/rohmanhakim/test-redirection/internal/storage"
	"github.com/stretchr/testify/require"
)

// fakeResolver maps a starting URL to its final URL and tracks how many
// resolutions overlap.
type fakeResolver struct {
	finals   map[string]string
	loops    map[string]bool
	hold     time.Duration
	calls    atomic.Int64
	inflight atomic.Int64
	peak     atomic.Int64
}

func newFakeResolver(finals map[string]string) *fakeResolver {
	return &fakeResolver{finals: finals, loops: map[string]bool{}}
}

func (f *fakeResolver) Resolve(ctx context.Context, param resolver.ResolveParam) (string, *resolver.ResolveError) {
	f.calls.Add(1)
	current := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	if f.hold > 0 {
		time.Sleep(f.hold)
	}

	if f.loops[param.Target()] {
		return "", &resolver.ResolveError{
			Message: param.Target() + " was visited twice",
			Cause:   resolver.ErrCauseRedirectLoop,
			Partial: param.Target(),
		}
	}
	return f.finals[param.Target()], nil
}

type reporterMock struct {
	mu        sync.Mutex
	results   []runner.TestResult
	summaries []aggregator.Summary
	fatals    []error
}

func (r *reporterMock) RecordResult(result runner.TestResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *reporterMock) RecordSummary(summary aggregator.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, summary)
}

func (r *reporterMock) RecordFatal(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fatals = append(r.fatals, err)
}

// mockFinalizer captures run start, report and final stats.
type mockFinalizer struct {
	started *capturedStart
	report  *capturedReport
	stats   *capturedStats
}

type capturedReport struct {
	path        string
	contentHash string
}

type capturedStart struct {
	source string
	digest string
	cases  int
}

type capturedStats struct {
	total    int
	passed   int
	failed   int
	duration time.Duration
}

func (m *mockFinalizer) RecordRunStart(source string, digest string, cases int) {
	m.started = &capturedStart{source: source, digest: digest, cases: cases}
}

func (m *mockFinalizer) RecordReportWritten(path string, contentHash string) {
	m.report = &capturedReport{path: path, contentHash: contentHash}
}

func (m *mockFinalizer) RecordFinalRunStats(total int, passed int, failed int, duration time.Duration) {
	m.stats = &capturedStats{total: total, passed: passed, failed: failed, duration: duration}
}

// errorRecordingSink counts errors and settled cases.
type errorRecordingSink struct {
	mu         sync.Mutex
	errorCount int
	causes     []metadata.ErrorCause
	resolves   int
}

func (e *errorRecordingSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errorCount++
	e.causes = append(e.causes, cause)
}

func (e *errorRecordingSink) RecordResolve(from string, observed string, status string, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resolves++
}

type fixture struct {
	scheduler scheduler.Scheduler
	resolver  *fakeResolver
	reporter  *reporterMock
	finalizer *mockFinalizer
	sink      *errorRecordingSink
}

func newFixture(t *testing.T, builder *config.Config, res *fakeResolver) fixture {
	t.Helper()
	cfg, err := builder.WithDelay(0).Build()
	require.NoError(t, err)

	f := fixture{
		resolver:  res,
		reporter:  &reporterMock{},
		finalizer: &mockFinalizer{},
		sink:      &errorRecordingSink{},
	}
	f.scheduler = scheduler.NewSchedulerWithDeps(cfg, res, f.reporter, storage.NewLocalSink(f.sink), f.sink, f.finalizer)
	return f
}

func writeSource(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
