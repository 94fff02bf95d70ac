// Package worker runs queued commands on a single goroutine.
package worker

import (
	"github.com/okian/elimvote/pkg/logger"
)

// Option applies a configuration option to the Actor.
type Option func(*Actor)

// WithName sets the actor name for identification and logging.
func WithName(name string) Option {
	return func(a *Actor) {
		if name != "" {
			a.name = name
		}
	}
}

// WithLogger sets a custom logger for the actor.
func WithLogger(logger logger.Logger) Option {
	return func(a *Actor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClassifier sets the function that turns a command error into the
// code label recorded in metrics.
func WithClassifier(fn func(error) string) Option {
	return func(a *Actor) {
		if fn != nil {
			a.classify = fn
		}
	}
}
