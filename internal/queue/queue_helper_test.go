package queue_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/queue"
)

// inflightProbe records the highest number of tasks observed running at once.
type inflightProbe struct {
	current atomic.Int64
	max     atomic.Int64
}

func (p *inflightProbe) enter() {
	n := p.current.Add(1)
	for {
		m := p.max.Load()
		if n <= m || p.max.CompareAndSwap(m, n) {
			return
		}
	}
}

func (p *inflightProbe) leave() {
	p.current.Add(-1)
}

func sleepingTasks(n int, d time.Duration, probe *inflightProbe) []queue.Task[int] {
	tasks := make([]queue.Task[int], n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = func(ctx context.Context, ticket queue.Ticket) (int, error) {
			probe.enter()
			defer probe.leave()
			time.Sleep(d)
			ticket.Complete()
			return i, nil
		}
	}
	return tasks
}

// startLog records the order in which tasks began.
type startLog struct {
	mu    sync.Mutex
	order []int
}

func (l *startLog) add(i int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, i)
}

func (l *startLog) snapshot() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, len(l.order))
	copy(out, l.order)
	return out
}
