package scribe

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned by Submit when the queue is at capacity.
	ErrQueueFull = errors.New("queue full")
	// ErrQueueClosed is returned once the queue has been shut down.
	ErrQueueClosed = errors.New("queue closed")
)

// Queue is a bounded FIFO handoff between submitters and the worker.
// Submit never blocks; Take blocks until a job, closure, or context end.
type Queue struct {
	mu     sync.Mutex
	ch     chan *Job
	closed bool
}

// NewQueue returns a queue holding at most capacity pending jobs.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan *Job, capacity)}
}

// Submit enqueues the job, or reports ErrQueueFull without blocking.
func (q *Queue) Submit(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Take blocks until a job is available. After Close it drains the remaining
// jobs, then returns ErrQueueClosed.
func (q *Queue) Take(ctx context.Context) (*Job, error) {
	select {
	case job, ok := <-q.ch:
		if !ok {
			return nil, ErrQueueClosed
		}
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of queued jobs.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap reports the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Close stops admission. Queued jobs remain takeable until drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
