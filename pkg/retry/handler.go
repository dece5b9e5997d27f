package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rohmanhakim/test-redirection/pkg/failure"
	"github.com/rohmanhakim/test-redirection/pkg/timeutil"
)

// Retry executes fn up to MaxAttempts times, applying exponential backoff
// with jitter between attempts. Only retryable errors trigger another attempt;
// a non-retryable error is returned as-is.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](
	ctx context.Context,
	retryParam RetryParam,
	fn func() (T, failure.ClassifiedError),
) Result[T] {
	var zero T

	if retryParam.MaxAttempts < 1 {
		return Result[T]{
			value: zero,
			err: &RetryError{
				Message:   "max attempt cannot be 0",
				Cause:     ErrZeroAttempt,
				Retryable: false,
			},
		}
	}

	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	var lastErr failure.ClassifiedError
	attempt := 1
	for ; attempt <= retryParam.MaxAttempts; attempt++ {
		value, err := fn()
		if err == nil {
			return Result[T]{value: value, attempts: attempt}
		}
		lastErr = err

		if !isErrorRetryable(err) {
			return Result[T]{value: zero, err: err, attempts: attempt}
		}

		if attempt == retryParam.MaxAttempts {
			break
		}

		backoffDelay := timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.Jitter,
			rng,
			retryParam.BackoffParam,
		)

		timer := time.NewTimer(backoffDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result[T]{
				value: zero,
				err: &RetryError{
					Message:   ctx.Err().Error(),
					Cause:     ErrCanceled,
					Retryable: false,
					Attempts:  attempt,
					Last:      lastErr,
				},
				attempts: attempt,
			}
		case <-timer.C:
		}
	}

	// a single attempt is not a retry: hand back the original error
	if retryParam.MaxAttempts == 1 {
		return Result[T]{value: zero, err: lastErr, attempts: 1}
	}

	return Result[T]{
		value: zero,
		err: &RetryError{
			Message:   fmt.Sprintf("last error: %v", lastErr),
			Cause:     ErrExhaustedAttempts,
			Retryable: true,
			Attempts:  retryParam.MaxAttempts,
			Last:      lastErr,
		},
		attempts: retryParam.MaxAttempts,
	}
}

// isErrorRetryable checks if an error should be retried.
// Errors without an IsRetryable method are treated as not retryable.
func isErrorRetryable(err failure.ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}

	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}
	return false
}
