// Package queue carries state-changing commands to the single actor that
// executes them in arrival order.
package queue

import (
	"context"
	"sync"

	"github.com/okian/elimvote/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Command is one unit of work for the actor. The submitter waits on it for
// the result.
type Command struct {
	Name string
	Run  func(ctx context.Context) error

	done chan error
	once sync.Once
}

// NewCommand wraps fn as a named command.
func NewCommand(name string, fn func(ctx context.Context) error) *Command {
	return &Command{Name: name, Run: fn, done: make(chan error, 1)}
}

// Complete records the command result. Only the first call counts.
func (c *Command) Complete(err error) {
	c.once.Do(func() {
		c.done <- err
		close(c.done)
	})
}

// Wait blocks until the command completed or ctx is done.
func (c *Command) Wait(ctx context.Context) error {
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a command. It fails with ErrFull or ErrClosed instead
	// of blocking.
	Enqueue(ctx context.Context, c *Command) error

	// Dequeue returns the channel commands are delivered on. It is closed
	// when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan *Command

	// Len returns the current number of pending commands.
	Len(ctx context.Context) int

	// Close stops accepting commands.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	commands chan *Command
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.commands = make(chan *Command, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a command to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c *Command) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return err
	}

	select {
	case q.commands <- c:
		metrics.UpdateQueueSize(len(q.commands))
		return nil
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		return ErrFull
	}
}

// Dequeue returns the command channel.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan *Command {
	return q.commands
}

// Len returns the current number of pending commands.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.commands)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops the queue. Pending commands stay readable until drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.commands)
	q.closed = true
	return nil
}
