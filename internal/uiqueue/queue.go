package uiqueue

import (
	"context"
	"sync"
)

// Queue runs submitted work on a single owning goroutine, in order.
// After Close, Run executes work inline on the caller.
type Queue struct {
	work chan func()
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

func New(buffer int) *Queue {
	if buffer < 0 {
		buffer = 0
	}
	q := &Queue{
		work: make(chan func(), buffer),
		done: make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.done)
	for fn := range q.work {
		fn()
	}
}

// Run enqueues fn and waits until it has executed or ctx is done.
func (q *Queue) Run(ctx context.Context, fn func()) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		fn()
		return nil
	}

	finished := make(chan struct{})
	select {
	case q.work <- func() {
		defer close(finished)
		fn()
	}:
	case <-ctx.Done():
		q.mu.RUnlock()
		return ctx.Err()
	}
	q.mu.RUnlock()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued work and stops the owning goroutine.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.work)
	q.mu.Unlock()
	<-q.done
}

// Inline runs work directly on the calling goroutine.
type Inline struct{}

func (Inline) Run(_ context.Context, fn func()) error {
	fn()
	return nil
}
