package runner

import (
	"fmt"

	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/pkg/failure"
)

type RewriteErrorCause string

const (
	ErrCauseRewriteFailed RewriteErrorCause = "host rewrite failed"
)

// RewriteError aborts the run: a rewritten URL could not be built.
type RewriteError struct {
	Message   string
	Retryable bool
	Cause     RewriteErrorCause
	// Field is "from" or "to".
	Field    string
	URL      string
	Host     string
	Position int
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("runner error: %s: %s", e.Cause, e.Message)
}

func (e *RewriteError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *RewriteError) IsRetryable() bool {
	return e.Retryable
}

// mapRewriteErrorToMetadataCause is observational only.
func mapRewriteErrorToMetadataCause(err *RewriteError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseRewriteFailed:
		return metadata.CauseConfigInvalid
	default:
		return metadata.CauseUnknown
	}
}
