package queue

import (
	"context"
	"fmt"
)

/*
TaskQueue runs submitted tasks on a fixed pool of workers.

Guarantees:
  - At most `concurrency` tasks of a batch run at once.
  - Tasks start in submission order; the next waiting task starts as soon
    as a worker frees.
  - Every submitted task runs to completion; there is no cancellation.
  - Each completion receives a unique, gapless sequence number in 1..N.
  - A panicking task settles its handle with *PanicError.
*/
type TaskQueue[T any] struct {
	concurrency int
}

func New[T any](concurrency int) (*TaskQueue[T], error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, concurrency)
	}
	return &TaskQueue[T]{concurrency: concurrency}, nil
}

func (q *TaskQueue[T]) Concurrency() int {
	return q.concurrency
}

type job[T any] struct {
	task   Task[T]
	handle *Handle[T]
}

// Submit admits tasks and returns immediately with one handle per task,
// in submission order.
func (q *TaskQueue[T]) Submit(ctx context.Context, tasks []Task[T]) []*Handle[T] {
	b := &batch{total: len(tasks)}

	handles := make([]*Handle[T], len(tasks))
	pending := newFIFO[job[T]](nil)
	for i, task := range tasks {
		handles[i] = newHandle[T](b)
		pending.Enqueue(job[T]{task: task, handle: handles[i]})
	}

	workers := q.concurrency
	if workers > len(tasks) {
		workers = len(tasks)
	}
	for w := 0; w < workers; w++ {
		go q.work(ctx, pending)
	}

	return handles
}

func (q *TaskQueue[T]) work(ctx context.Context, pending *fifo[job[T]]) {
	for {
		j, ok := pending.Dequeue()
		if !ok {
			return
		}
		value, err := run(ctx, j)
		// a task that never called Complete is numbered when it settles
		j.handle.ticket.Complete()
		j.handle.settle(value, err)
	}
}

func run[T any](ctx context.Context, j job[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = &PanicError{Value: r}
		}
	}()
	return j.task(ctx, j.handle.ticket)
}
