package retry

import (
	"fmt"

	"github.com/rohmanhakim/test-redirection/pkg/failure"
)

type RetryErrorCause string

const (
	ErrZeroAttempt       RetryErrorCause = "zero attempt"
	ErrExhaustedAttempts RetryErrorCause = "exhausted attempt"
	ErrCanceled          RetryErrorCause = "canceled"
)

// RetryError ends a retry loop that did not produce a value.
type RetryError struct {
	Message   string
	Retryable bool
	Cause     RetryErrorCause
	// Attempts is how many times fn ran before giving up.
	Attempts int
	// Last is the error returned by the final attempt, if any.
	Last failure.ClassifiedError
}

func (e *RetryError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("retry error: %s after %d attempt(s), %s", e.Cause, e.Attempts, e.Message)
	}
	return fmt.Sprintf("retry error: %s, %s", e.Cause, e.Message)
}

func (e *RetryError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *RetryError) IsRetryable() bool {
	return e.Retryable
}

func (e *RetryError) Unwrap() error {
	if e.Last == nil {
		return nil
	}
	return e.Last
}

// Is allows errors.Is to match RetryError types
func (e *RetryError) Is(target error) bool {
	_, ok := target.(*RetryError)
	return ok
}
