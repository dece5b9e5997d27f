package storage_test

import (
	"time"

	"github.com/rohmanhakim/test-redirection/internal/aggregator"
	"github.com/rohmanhakim/test-redirection/internal/diff"
	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/internal/redirect"
	"github.com/rohmanhakim/test-redirection/internal/runner"
	"github.com/rohmanhakim/test-redirection/internal/storage"
)

// metadataSinkMock is a mock for metadata.MetadataSink
type metadataSinkMock struct {
	recordErrorCalled  bool
	recordErrorAction  string
	recordErrorCause   metadata.ErrorCause
	recordErrorDetails string
	recordErrorAttrs   []metadata.Attribute
}

func (m *metadataSinkMock) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.recordErrorCalled = true
	m.recordErrorAction = action
	m.recordErrorCause = cause
	m.recordErrorDetails = details
	m.recordErrorAttrs = attrs
}

func (m *metadataSinkMock) RecordResolve(from string, observed string, status string, duration time.Duration) {
}

func sampleReport() storage.Report {
	summary := aggregator.Summary{
		Passed: 1,
		Failed: 2,
		Total:  3,
		Failures: []runner.TestResult{
			{
				Index:    1,
				Total:    3,
				Status:   runner.StatusMismatch,
				From:     "https://a.test/old",
				To:       "https://a.test/new",
				Observed: "https://a.test/other",
				Diff:     diff.Unified("https://a.test/new", "https://a.test/other"),
			},
			{
				Index:  3,
				Total:  3,
				Status: runner.StatusLoopError,
				From:   "https://a.test/loop",
				To:     "https://a.test/end",
				Err:    "resolver error: redirect loop: https://a.test/loop was visited twice",
			},
		},
	}
	source := redirect.Source{Path: "redirects.csv", Digest: "0123456789abcdef"}
	return storage.NewReport("run-1", source, summary, time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC))
}
