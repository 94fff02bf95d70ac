// Package repository loads, initialises and saves the application state and
// keeps the per-round voted markers.
package repository

import (
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/pkg/logger"
)

// DefaultDocumentKey is the store key of the serialized state.
const DefaultDocumentKey = "state"

// Option applies a configuration option to the Repository.
type Option func(*Repository)

// WithRounds sets the round sequence.
func WithRounds(rounds round.Sequence) Option {
	return func(r *Repository) {
		if rounds.Len() > 0 {
			r.rounds = rounds
		}
	}
}

// WithRoster sets the roster used when a fresh state is created.
func WithRoster(names []string) Option {
	return func(r *Repository) {
		if names != nil {
			r.roster = append([]string(nil), names...)
		}
	}
}

// WithDocumentKey sets the key the state document is stored under.
func WithDocumentKey(key string) Option {
	return func(r *Repository) {
		if key != "" {
			r.docKey = key
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}
