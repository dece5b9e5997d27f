package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/pkg/failure"
	"github.com/rohmanhakim/test-redirection/pkg/retry"
)

/*
Responsibilities

- Follow a redirect chain from a starting URL
- Report the final URL reached
- Signal non-termination (loops, overlong chains) and transport failures

A resolver never reads response bodies and never compares URLs;
classification belongs to the runner.
*/
type Resolver interface {
	Resolve(ctx context.Context, param ResolveParam) (string, *ResolveError)
}

// resolveWithRetry runs attempt under the retry policy and reduces the
// outcome to a *ResolveError carrying the last partial URL.
func resolveWithRetry(
	ctx context.Context,
	retryParam retry.RetryParam,
	attempt func() (string, failure.ClassifiedError),
) (string, int, *ResolveError) {
	result := retry.Retry(ctx, retryParam, attempt)
	if result.IsSuccess() {
		return result.Value(), result.Attempts(), nil
	}

	err := result.Err()
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		var retryErr *retry.RetryError
		if errors.As(err, &retryErr) {
			// keep the cause of the last attempt but say how it ended
			return "", result.Attempts(), &ResolveError{
				Message:   fmt.Sprintf("%s after %d attempt(s): %s", retryErr.Cause, retryErr.Attempts, resolveErr.Message),
				Retryable: false,
				Cause:     resolveErr.Cause,
				Partial:   resolveErr.Partial,
			}
		}
		return "", result.Attempts(), resolveErr
	}

	return "", result.Attempts(), &ResolveError{
		Message:   err.Error(),
		Retryable: false,
		Cause:     ErrCauseInvalidRequest,
	}
}

func recordResolveError(
	sink metadata.MetadataSink,
	callerMethod string,
	param ResolveParam,
	attempts int,
	err *ResolveError,
) {
	sink.RecordError(
		time.Now(),
		"resolver",
		callerMethod,
		mapResolveErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, param.Target()),
			metadata.NewAttr(metadata.AttrMethod, param.Method()),
			metadata.NewAttr(metadata.AttrObserved, err.Partial),
			metadata.NewAttr(metadata.AttrAttempt, fmt.Sprintf("%d", attempts)),
		},
	)
}
