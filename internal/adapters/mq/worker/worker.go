package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/elimvote/internal/adapters/mq/queue"
	"github.com/okian/elimvote/pkg/logger"
	"github.com/okian/elimvote/pkg/metrics"
)

// ErrPanic wraps a panic raised by a command.
var ErrPanic = errors.New("command panicked")

// Queue defines how the actor receives commands.
type Queue interface {
	Dequeue(ctx context.Context) <-chan *queue.Command
}

// Worker executes commands.
type Worker interface {
	// Run starts the loop until ctx is canceled or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the loop and waits for the running command.
	Shutdown(ctx context.Context) error
}

// Actor is the only goroutine that touches the application state. Every
// command runs to completion before the next one starts.
type Actor struct {
	queue    Queue
	name     string
	classify func(error) string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewActor creates an actor reading from q.
func NewActor(q Queue, opts ...Option) *Actor {
	a := &Actor{
		queue:    q,
		name:     "actor",
		classify: defaultClassify,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named(a.name)
	}
	return a
}

func defaultClassify(err error) string {
	if err == nil {
		return "OK"
	}
	return "ERROR"
}

// Run starts the command loop.
func (a *Actor) Run(ctx context.Context) {
	defer close(a.done)

	commands := a.queue.Dequeue(ctx)
	for {
		// stop signals win over buffered commands
		select {
		case <-ctx.Done():
			a.drain(commands, ctx.Err())
			return
		case <-a.shutdown:
			a.drain(commands, queue.ErrClosed)
			return
		default:
		}

		select {
		case <-ctx.Done():
			a.drain(commands, ctx.Err())
			return
		case <-a.shutdown:
			a.drain(commands, queue.ErrClosed)
			return
		case c, ok := <-commands:
			if !ok {
				return
			}
			a.execute(ctx, c)
		}
	}
}

// drain fails every command still buffered so no submitter waits forever.
func (a *Actor) drain(commands <-chan *queue.Command, cause error) {
	for {
		select {
		case c, ok := <-commands:
			if !ok {
				return
			}
			c.Complete(fmt.Errorf("%w: %w", queue.ErrNotRun, cause))
		default:
			return
		}
	}
}

func (a *Actor) execute(ctx context.Context, c *queue.Command) {
	start := time.Now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPanic, c.Name, r)
			a.logger.Error(ctx, "command panicked", logger.String("command", c.Name), logger.Any("panic", r))
		}
		latency := float64(time.Since(start).Microseconds()) / 1000
		metrics.RecordCommand(c.Name, latency, a.classify(err))
		c.Complete(err)
	}()

	err = c.Run(ctx)
	if err != nil {
		a.logger.Debug(ctx, "command failed", logger.String("command", c.Name), logger.Error(err))
	}
}

// Shutdown gracefully stops the actor.
func (a *Actor) Shutdown(ctx context.Context) error {
	select {
	case <-a.shutdown:
	default:
		close(a.shutdown)
	}

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		a.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
