package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Throttle
// Paces work issued by concurrent workers.
// Responsibilities:
// - Hold the fixed delay every unit of work waits after it finishes
// - Add seeded, bounded jitter on top of the delay
// - Keep the random source safe for concurrent callers
type Throttle struct {
	rngMu sync.Mutex
	delay time.Duration
	// jitter is the exclusive upper bound of the random extra wait
	jitter time.Duration
	rng    *rand.Rand
}

func NewThrottle(delay time.Duration, jitter time.Duration, randomSeed int64) *Throttle {
	if delay < 0 {
		delay = 0
	}
	if jitter < 0 {
		jitter = 0
	}
	return &Throttle{
		delay:  delay,
		jitter: jitter,
		rng:    rand.New(rand.NewSource(randomSeed)),
	}
}

func (t *Throttle) Delay() time.Duration {
	return t.delay
}

func (t *Throttle) Jitter() time.Duration {
	return t.jitter
}

// ResolveDelay returns the wait for the next unit of work:
// delay + rand[0, jitter).
func (t *Throttle) ResolveDelay() time.Duration {
	return t.delay + t.computeJitter()
}

// Wait blocks for ResolveDelay or until ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	d := t.ResolveDelay()
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (t *Throttle) computeJitter() time.Duration {
	if t.jitter <= 0 {
		return 0
	}

	t.rngMu.Lock()
	defer t.rngMu.Unlock()

	return time.Duration(t.rng.Int63n(int64(t.jitter)))
}
