package aggregator_test

import (
	"context"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/aggregator"
	"github.com/rohmanhakim/test-redirection/internal/queue"
	"github.com/rohmanhakim/test-redirection/internal/runner"
	"github.com/stretchr/testify/mock"
)

type summarySinkMock struct {
	mock.Mock
}

func (s *summarySinkMock) RecordSummary(summary aggregator.Summary) {
	s.Called(summary)
}

func statusTask(status runner.Status, d time.Duration) queue.Task[runner.TestResult] {
	return func(ctx context.Context, ticket queue.Ticket) (runner.TestResult, error) {
		time.Sleep(d)
		p := ticket.Complete()
		return runner.TestResult{Index: p.Index, Total: p.Total, Status: status}, nil
	}
}
