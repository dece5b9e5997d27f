package timeutil

import (
	"math"
	"time"
)

// BackoffParam describes an exponential backoff curve, e.g. 200ms doubling
// up to 5s. Construct it with NewBackoffParam.
type BackoffParam struct {
	initialDuration time.Duration
	multiplier      float64
	maxDuration     time.Duration
}

// NewBackoffParam clamps its inputs into a curve that never shrinks:
// negative durations become zero, a multiplier below 1 becomes 1 and a
// non-zero max below initial is raised to initial. A zero max means uncapped.
func NewBackoffParam(
	initialDuration time.Duration,
	multiplier float64,
	maxDuration time.Duration,
) BackoffParam {
	if initialDuration < 0 {
		initialDuration = 0
	}
	if multiplier < 1 || math.IsNaN(multiplier) {
		multiplier = 1
	}
	if maxDuration < 0 {
		maxDuration = 0
	}
	if maxDuration > 0 && maxDuration < initialDuration {
		maxDuration = initialDuration
	}
	return BackoffParam{
		initialDuration: initialDuration,
		multiplier:      multiplier,
		maxDuration:     maxDuration,
	}
}

func (b BackoffParam) InitialDuration() time.Duration {
	return b.initialDuration
}

func (b BackoffParam) Multiplier() float64 {
	return b.multiplier
}

func (b BackoffParam) MaxDuration() time.Duration {
	return b.maxDuration
}

// Step is the un-jittered wait after the given 1-based attempt.
func (b BackoffParam) Step(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(b.initialDuration) * math.Pow(b.multiplier, float64(attempt-1))
	if b.maxDuration > 0 && delay > float64(b.maxDuration) {
		return b.maxDuration
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}
