package timeutil

import (
	"math/rand"
	"time"
)

// ExponentialBackoffDelay computes the wait before the next attempt.
// attempt is 1-based: the first retry waits InitialDuration.
//
//	delay = min(initial * multiplier^(attempt-1), max) + rand[0, jitter)
func ExponentialBackoffDelay(
	attempt int,
	jitter time.Duration,
	rng *rand.Rand,
	param BackoffParam,
) time.Duration {
	result := param.Step(attempt)
	if jitter > 0 && rng != nil {
		result += time.Duration(rng.Int63n(int64(jitter)))
	}
	return result
}
