package queue

import "sync"

// fifo is the admission queue shared by the workers of one batch.
type fifo[T any] struct {
	mu    sync.Mutex
	items []T
}

func newFIFO[T any](items []T) *fifo[T] {
	return &fifo[T]{items: items}
}

func (f *fifo[T]) Enqueue(item T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
}

// return false on the second returned values if queue is empty
func (f *fifo[T]) Dequeue() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var zero T
	if len(f.items) == 0 {
		return zero, false
	}
	first := f.items[0]
	f.items[0] = zero
	f.items = f.items[1:]
	return first, true
}
