package redirect

import (
	"fmt"

	"github.com/rohmanhakim/test-redirection/pkg/failure"
)

type LoadErrorCause string

const (
	ErrCauseUnreadable   LoadErrorCause = "unreadable source"
	ErrCauseParse        LoadErrorCause = "parse failure"
	ErrCauseMissingField LoadErrorCause = "missing field"
)

// LoadError aborts the run: no case can run against a source that failed to load.
type LoadError struct {
	Message   string
	Retryable bool
	Cause     LoadErrorCause
	// Rows lists "file:line" locations of malformed CSV rows.
	Rows []string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("redirect load error: %s: %s", e.Cause, e.Message)
}

func (e *LoadError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *LoadError) IsRetryable() bool {
	return e.Retryable
}
