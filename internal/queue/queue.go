package queue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is returned by Enqueue after Close has been called.
var ErrClosed = errors.New("task queue is closed")

// Task is one unit of work. A returned error is logged and swallowed.
type Task func() error

// TaskQueue runs tasks strictly in enqueue order, never more than one at a
// time. A failing or panicking task is logged and the queue moves on to
// the next one, so the queue never stalls.
//
// Design decision: We keep the queue unbounded rather than dropping or
// blocking on a full queue, since callers enqueue from recompute callbacks
// that must not stall.
//
// A drain goroutine is started when the first task arrives on an idle queue
// and exits once the queue is empty again; no goroutine lingers while the
// queue is idle.
type TaskQueue struct {
	mu      sync.Mutex
	idle    *sync.Cond
	pending []Task
	running bool
	closed  bool

	stats Stats

	logger *slog.Logger
}

// Stats counts settled tasks.
type Stats struct {
	// Completed is the number of tasks that returned nil.
	Completed int

	// Failed is the number of tasks that returned an error or panicked.
	Failed int
}

// Option configures a TaskQueue.
type Option func(*TaskQueue)

// WithLogger sets the logger used to report failed tasks.
func WithLogger(logger *slog.Logger) Option {
	return func(q *TaskQueue) {
		q.logger = logger
	}
}

// New creates an empty TaskQueue.
func New(opts ...Option) *TaskQueue {
	q := &TaskQueue{
		pending: make([]Task, 0),
	}
	q.idle = sync.NewCond(&q.mu)

	for _, opt := range opts {
		opt(q)
	}

	if q.logger == nil {
		q.logger = slog.Default()
	}

	return q
}

// Enqueue appends task to the queue and starts draining if the queue was
// idle. It never blocks on task execution.
func (q *TaskQueue) Enqueue(task Task) error {
	if task == nil {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	q.pending = append(q.pending, task)
	if !q.running {
		q.running = true
		go q.drain()
	}
	return nil
}

// drain runs pending tasks until none are left.
func (q *TaskQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.idle.Broadcast()
			q.mu.Unlock()
			return
		}
		task := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		err := q.run(task)

		q.mu.Lock()
		if err != nil {
			q.stats.Failed++
		} else {
			q.stats.Completed++
		}
		q.mu.Unlock()
	}
}

// run executes task and converts a panic into an error.
func (q *TaskQueue) run(task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
		if err != nil {
			q.logger.Error("queued task failed", "error", err)
		}
	}()
	return task()
}

// Len returns the number of tasks waiting to start.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Wait blocks until every task enqueued so far has settled.
func (q *TaskQueue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.running {
		q.idle.Wait()
	}
}

// Close stops accepting tasks and waits for the pending ones to settle.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.Wait()
}

// Stats returns the counters of settled tasks.
func (q *TaskQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}
