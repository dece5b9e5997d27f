package resolver

import (
	"fmt"

	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/pkg/failure"
)

type ResolveErrorCause string

const (
	ErrCauseRedirectLoop     ResolveErrorCause = "redirect loop"
	ErrCauseTooManyRedirects ResolveErrorCause = "too many redirects"
	ErrCauseNetworkFailure   ResolveErrorCause = "network issues"
	ErrCauseCommandFailed    ResolveErrorCause = "command failed"
	ErrCauseInvalidRequest   ResolveErrorCause = "invalid request"
)

// ResolveError reports a resolution that did not reach a final URL.
// Partial is the last URL reached before giving up.
type ResolveError struct {
	Message   string
	Retryable bool
	Cause     ResolveErrorCause
	Partial   string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolver error: %s: %s", e.Cause, e.Message)
}

func (e *ResolveError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *ResolveError) IsRetryable() bool {
	return e.Retryable
}

// mapResolveErrorToMetadataCause maps resolver-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapResolveErrorToMetadataCause(err *ResolveError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseRedirectLoop, ErrCauseTooManyRedirects:
		return metadata.CauseRedirectLoop
	case ErrCauseNetworkFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseCommandFailed:
		return metadata.CauseCommandFailure
	default:
		return metadata.CauseUnknown
	}
}
