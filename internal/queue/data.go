package queue

import (
	"context"
	"sync"
	"sync/atomic"
)

// Task is one unit of work. It receives the Ticket that numbers its completion.
type Task[T any] func(ctx context.Context, ticket Ticket) (T, error)

// Progress is the 1-based completion sequence number of a task within its batch.
type Progress struct {
	Index int
	Total int
}

// batch is the state shared by the tasks of one Submit call.
type batch struct {
	total     int
	completed atomic.Int64
}

func (b *batch) next() Progress {
	return Progress{
		Index: int(b.completed.Add(1)),
		Total: b.total,
	}
}

type ticketState struct {
	batch    *batch
	once     sync.Once
	progress Progress
}

// Ticket hands out the completion sequence number of one task.
type Ticket struct {
	state *ticketState
}

// Complete assigns the next completion number on first call and returns the
// same Progress on every later call.
func (t Ticket) Complete() Progress {
	t.state.once.Do(func() {
		t.state.progress = t.state.batch.next()
	})
	return t.state.progress
}

// Handle settles when its task returns.
type Handle[T any] struct {
	done   chan struct{}
	value  T
	err    error
	ticket Ticket
}

func newHandle[T any](b *batch) *Handle[T] {
	return &Handle[T]{
		done:   make(chan struct{}),
		ticket: Ticket{state: &ticketState{batch: b}},
	}
}

// Wait blocks until the task settled and returns its outcome.
func (h *Handle[T]) Wait() (T, error) {
	<-h.done
	return h.value, h.err
}

// Done is closed once the task settled.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Progress returns the completion number of a settled task.
func (h *Handle[T]) Progress() Progress {
	<-h.done
	return h.ticket.Complete()
}

func (h *Handle[T]) settle(value T, err error) {
	h.value = value
	h.err = err
	close(h.done)
}
