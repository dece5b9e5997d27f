package storage

import (
	"time"

	"github.com/rohmanhakim/test-redirection/internal/aggregator"
	"github.com/rohmanhakim/test-redirection/internal/redirect"
)

// Report is the persisted outcome of a run.
type Report struct {
	RunID      string          `json:"runId" yaml:"runId"`
	Source     string          `json:"source" yaml:"source"`
	Digest     string          `json:"digest" yaml:"digest"`
	FinishedAt time.Time       `json:"finishedAt" yaml:"finishedAt"`
	Total      int             `json:"total" yaml:"total"`
	Passed     int             `json:"passed" yaml:"passed"`
	Failed     int             `json:"failed" yaml:"failed"`
	Failures   []FailureRecord `json:"failures" yaml:"failures"`
}

type FailureRecord struct {
	Index    int    `json:"index" yaml:"index"`
	Status   string `json:"status" yaml:"status"`
	From     string `json:"from" yaml:"from"`
	To       string `json:"to" yaml:"to"`
	Observed string `json:"observed,omitempty" yaml:"observed,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Diff     string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

func NewReport(
	runID string,
	source redirect.Source,
	summary aggregator.Summary,
	finishedAt time.Time,
) Report {
	failures := make([]FailureRecord, 0, len(summary.Failures))
	for _, f := range summary.Failures {
		record := FailureRecord{
			Index:    f.Index,
			Status:   f.Status.String(),
			From:     f.From,
			To:       f.To,
			Observed: f.Observed,
			Error:    f.Err,
		}
		if f.Diff != nil {
			record.Diff = f.Diff.String()
		}
		failures = append(failures, record)
	}

	return Report{
		RunID:      runID,
		Source:     source.Path,
		Digest:     source.Digest,
		FinishedAt: finishedAt.UTC(),
		Total:      summary.Total,
		Passed:     summary.Passed,
		Failed:     summary.Failed,
		Failures:   failures,
	}
}

// Persistence

type WriteResult struct {
	path        string
	contentHash string
}

func NewWriteResult(
	path string,
	contentHash string,
) WriteResult {
	return WriteResult{
		path:        path,
		contentHash: contentHash,
	}
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}
