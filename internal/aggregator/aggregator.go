package aggregator

import (
	"sort"

	"github.com/rohmanhakim/test-redirection/internal/queue"
	"github.com/rohmanhakim/test-redirection/internal/runner"
)

// Summary is the only outcome that outlives a run.
type Summary struct {
	Passed int
	Failed int
	Total  int
	// Failures lists every failed result in completion order.
	Failures []runner.TestResult
}

// Success reports whether no case failed. A run of zero cases succeeds.
func (s Summary) Success() bool {
	return s.Failed == 0
}

// AllFailed reports whether every case of a non-empty run failed.
func (s Summary) AllFailed() bool {
	return s.Total > 0 && s.Passed == 0
}

// SummarySink renders the final summary.
type SummarySink interface {
	RecordSummary(summary Summary)
}

// Aggregator waits for every case and tallies the outcome.
type Aggregator struct {
	sink SummarySink
}

func New(sink SummarySink) *Aggregator {
	return &Aggregator{sink: sink}
}

// Collect blocks until every handle settled, never short-circuiting on a
// failure. A handle that settled with an error counts as failed.
func (a *Aggregator) Collect(handles []*queue.Handle[runner.TestResult]) Summary {
	summary := Summary{Total: len(handles)}

	settled := make([]runner.TestResult, 0, len(handles))
	for _, h := range handles {
		result, err := h.Wait()
		switch {
		case err != nil:
			summary.Failed++
			progress := h.Progress()
			settled = append(settled, runner.TestResult{
				Index:  progress.Index,
				Total:  progress.Total,
				Status: runner.StatusLoopError,
				Err:    err.Error(),
			})
		case result.Passed():
			summary.Passed++
		default:
			summary.Failed++
			settled = append(settled, result)
		}
	}

	sort.SliceStable(settled, func(i, j int) bool {
		return settled[i].Index < settled[j].Index
	})
	summary.Failures = settled
	a.sink.RecordSummary(summary)
	return summary
}
