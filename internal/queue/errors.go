package queue

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/test-redirection/pkg/failure"
)

var ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

// PanicError settles the handle of a task that panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("queue error: task panicked: %v", e.Value)
}

func (e *PanicError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
