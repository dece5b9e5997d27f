package scheduler

import (
	"github.com/rohmanhakim/test-redirection/internal/aggregator"
	"github.com/rohmanhakim/test-redirection/internal/redirect"
	"github.com/rohmanhakim/test-redirection/internal/runner"
)

// Execution is what a completed run leaves behind.
type Execution struct {
	RunID   string
	Source  redirect.Source
	Summary aggregator.Summary
}

// Reporter renders a run for the user.
type Reporter interface {
	runner.EventSink
	aggregator.SummarySink
	RecordFatal(err error)
}
