package scheduler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/config"
	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/internal/redirect"
	"github.com/rohmanhakim/test-redirection/internal/runner"
	"github.com/rohmanhakim/test-redirection/internal/storage"
	"github.com/rohmanhakim/test-redirection/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_PassAndMismatch(t *testing.T) {
	res := newFakeResolver(map[string]string{
		"http://s/a": "http://s/b",
		"http://s/c": "http://s/x",
	})
	f := newFixture(t, config.WithDefault(), res)
	path := writeSource(t, "redirects.json", `[
		{"from": "http://s/a", "to": "http://s/b"},
		{"from": "http://s/c", "to": "http://s/d"}
	]`)

	exec, err := f.scheduler.Execute(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, exec.Summary.Total)
	assert.Equal(t, 1, exec.Summary.Passed)
	assert.Equal(t, 1, exec.Summary.Failed)
	require.Len(t, exec.Summary.Failures, 1)
	assert.Equal(t, runner.StatusMismatch, exec.Summary.Failures[0].Status)
	assert.Equal(t, "http://s/x", exec.Summary.Failures[0].Observed)
	assert.False(t, exec.Summary.Success())

	require.Len(t, f.reporter.summaries, 1)
	assert.Equal(t, exec.Summary, f.reporter.summaries[0])
	assert.Empty(t, f.reporter.fatals)

	require.NotNil(t, f.finalizer.stats)
	assert.Equal(t, 2, f.finalizer.stats.total)
	assert.Equal(t, 1, f.finalizer.stats.passed)
	assert.Equal(t, 1, f.finalizer.stats.failed)
	require.NotNil(t, f.finalizer.started)
	assert.Equal(t, 2, f.finalizer.started.cases)
	assert.Equal(t, exec.Source.Digest, f.finalizer.started.digest)
	assert.Equal(t, 2, f.sink.resolves)
	assert.NotEmpty(t, exec.RunID)
}

func TestExecute_ZeroCases(t *testing.T) {
	res := newFakeResolver(nil)
	f := newFixture(t, config.WithDefault(), res)
	path := writeSource(t, "redirects.json", `[]`)

	exec, err := f.scheduler.Execute(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 0, exec.Summary.Total)
	assert.True(t, exec.Summary.Success())
	assert.Empty(t, f.reporter.results)
	require.Len(t, f.reporter.summaries, 1)
	assert.EqualValues(t, 0, res.calls.Load())
	require.NotNil(t, f.finalizer.stats)
	assert.Equal(t, 0, f.finalizer.stats.total)
}

func TestExecute_EveryCaseSettlesAndIsNumberedOnce(t *testing.T) {
	finals := map[string]string{}
	var entries []string
	for i := 0; i < 25; i++ {
		from := fmt.Sprintf("http://s/%d", i)
		finals[from] = fmt.Sprintf("http://s/%d/final", i)
		entries = append(entries, fmt.Sprintf(`{"from": %q, "to": %q}`, from, finals[from]))
	}
	res := newFakeResolver(finals)
	res.hold = time.Millisecond
	f := newFixture(t, config.WithDefault().WithConcurrency(4), res)
	path := writeSource(t, "redirects.json", "["+strings.Join(entries, ",")+"]")

	exec, err := f.scheduler.Execute(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 25, exec.Summary.Passed)
	require.Len(t, f.reporter.results, 25)

	indexes := make([]int, 0, 25)
	for _, r := range f.reporter.results {
		assert.Equal(t, 25, r.Total)
		indexes = append(indexes, r.Index)
	}
	sort.Ints(indexes)
	for i, idx := range indexes {
		assert.Equal(t, i+1, idx)
	}
}

func TestExecute_ConcurrencyOneNeverOverlaps(t *testing.T) {
	res := newFakeResolver(map[string]string{})
	res.hold = 5 * time.Millisecond
	f := newFixture(t, config.WithDefault().WithConcurrency(1), res)
	path := writeSource(t, "redirects.txt", "http://s/1 http://s/1\nhttp://s/2 http://s/2\nhttp://s/3 http://s/3\n")

	_, err := f.scheduler.Execute(context.Background(), path)
	require.NoError(t, err)

	assert.EqualValues(t, 3, res.calls.Load())
	assert.EqualValues(t, 1, res.peak.Load())
}

func TestExecute_ConcurrencyIsCapped(t *testing.T) {
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("http://s/%d http://s/%d", i, i))
	}
	res := newFakeResolver(map[string]string{})
	res.hold = 10 * time.Millisecond
	f := newFixture(t, config.WithDefault().WithConcurrency(3), res)
	path := writeSource(t, "redirects.csv", strings.Join(lines, "\n"))

	exec, err := f.scheduler.Execute(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 12, exec.Summary.Total)
	assert.LessOrEqual(t, res.peak.Load(), int64(3))
	assert.Greater(t, res.peak.Load(), int64(1))
}

func TestExecute_LoopDoesNotStopOtherCases(t *testing.T) {
	res := newFakeResolver(map[string]string{
		"http://s/ok": "http://s/ok2",
	})
	res.loops["http://s/loop"] = true
	f := newFixture(t, config.WithDefault().WithConcurrency(2), res)
	path := writeSource(t, "redirects.yaml", `
- from: http://s/loop
  to: http://s/anywhere
- from: http://s/ok
  to: http://s/ok2
`)

	exec, err := f.scheduler.Execute(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, exec.Summary.Passed)
	assert.Equal(t, 1, exec.Summary.Failed)
	require.Len(t, exec.Summary.Failures, 1)
	assert.Equal(t, runner.StatusLoopError, exec.Summary.Failures[0].Status)
	assert.Contains(t, exec.Summary.Failures[0].Err, "redirect loop")
}

func TestExecute_IgnoreQueryFromConfig(t *testing.T) {
	res := newFakeResolver(map[string]string{
		"http://s/a": "http://s/b?utm=1",
	})
	f := newFixture(t, config.WithDefault().WithIgnoreQueryParameters(true), res)
	path := writeSource(t, "redirects.json", `[{"from": "http://s/a", "to": "http://s/b"}]`)

	exec, err := f.scheduler.Execute(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, exec.Summary.Success())
}

func TestExecute_ReplaceHostRewritesBothSides(t *testing.T) {
	res := newFakeResolver(map[string]string{
		"http://staging.test/a": "http://staging.test/b",
	})
	f := newFixture(t, config.WithDefault().WithReplaceHost("staging.test"), res)
	path := writeSource(t, "redirects.json", `[{"from": "http://prod.test/a", "to": "http://prod.test/b"}]`)

	exec, err := f.scheduler.Execute(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, exec.Summary.Success())
	require.Len(t, f.reporter.results, 1)
	assert.Equal(t, "http://staging.test/a", f.reporter.results[0].From)
}

func TestExecute_RewriteFailureAbortsBeforeAnyRequest(t *testing.T) {
	res := newFakeResolver(map[string]string{})
	f := newFixture(t, config.WithDefault().WithReplaceHost("staging.test"), res)
	path := writeSource(t, "redirects.json", `[
		{"from": "http://prod.test/a", "to": "http://prod.test/b"},
		{"from": "/relative", "to": "http://prod.test/c"}
	]`)

	_, err := f.scheduler.Execute(context.Background(), path)
	require.Error(t, err)

	var rewriteErr *runner.RewriteError
	require.True(t, errors.As(err, &rewriteErr))
	assert.Equal(t, 1, rewriteErr.Position)
	assert.EqualValues(t, 0, res.calls.Load())
	assert.Empty(t, f.reporter.results)
	assert.Empty(t, f.reporter.summaries)
	require.Len(t, f.reporter.fatals, 1)

	require.NotNil(t, f.finalizer.stats)
	assert.Equal(t, 0, f.finalizer.stats.total)
}

func TestExecute_UnreadableSource(t *testing.T) {
	res := newFakeResolver(nil)
	f := newFixture(t, config.WithDefault(), res)

	_, err := f.scheduler.Execute(context.Background(), "/does/not/exist.json")
	require.Error(t, err)

	var loadErr *redirect.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, redirect.ErrCauseUnreadable, loadErr.Cause)
	assert.Equal(t, 1, f.sink.errorCount)
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseConfigInvalid}, f.sink.causes)
	require.Len(t, f.reporter.fatals, 1)
	assert.Nil(t, f.finalizer.started)
	require.NotNil(t, f.finalizer.stats)
}

func TestExecute_InvalidEntryIsReportedBeforeRunning(t *testing.T) {
	res := newFakeResolver(nil)
	f := newFixture(t, config.WithDefault(), res)
	path := writeSource(t, "redirects.json", `[{"from": "http://s/a"}]`)

	_, err := f.scheduler.Execute(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'to' failed rule 'required'")
	assert.EqualValues(t, 0, res.calls.Load())
}

func TestExecute_WritesReportFile(t *testing.T) {
	res := newFakeResolver(map[string]string{
		"http://s/a": "http://s/b",
		"http://s/c": "http://s/x",
	})
	reportPath := filepath.Join(t.TempDir(), "reports", "run.json")
	f := newFixture(t, config.WithDefault().WithReportFile(reportPath), res)
	path := writeSource(t, "redirects.txt", "http://s/a http://s/b\nhttp://s/c http://s/d\n")

	exec, err := f.scheduler.Execute(context.Background(), path)
	require.NoError(t, err)

	content, readErr := os.ReadFile(reportPath)
	require.NoError(t, readErr)

	var report storage.Report
	require.NoError(t, json.Unmarshal(content, &report))
	assert.Equal(t, exec.RunID, report.RunID)
	assert.Equal(t, exec.Source.Digest, report.Digest)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "http://s/c", report.Failures[0].From)
	assert.Equal(t, "mismatch", report.Failures[0].Status)

	expectedHash, hashErr := hashutil.HashBytes(content, hashutil.HashAlgoBLAKE3)
	require.NoError(t, hashErr)
	require.NotNil(t, f.finalizer.report)
	assert.Equal(t, reportPath, f.finalizer.report.path)
	assert.Equal(t, expectedHash, f.finalizer.report.contentHash)
}

func TestExecute_ReportWriteFailureIsReturned(t *testing.T) {
	res := newFakeResolver(map[string]string{"http://s/a": "http://s/b"})
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte{}, 0o644))
	f := newFixture(t, config.WithDefault().WithReportFile(filepath.Join(blocker, "run.json")), res)
	path := writeSource(t, "redirects.txt", "http://s/a http://s/b\n")

	exec, err := f.scheduler.Execute(context.Background(), path)
	require.Error(t, err)

	var storageErr *storage.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.True(t, exec.Summary.Success())
	require.Len(t, f.reporter.fatals, 1)
	assert.Contains(t, f.sink.causes, metadata.CauseStorageFailure)
	assert.Nil(t, f.finalizer.report)
}
