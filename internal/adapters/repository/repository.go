package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/elimvote/internal/adapters/kvstore"
	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/pkg/logger"
	"github.com/okian/elimvote/pkg/metrics"
)

// Repository is the state repository: it owns the persisted document and
// its schema migrations.
type Repository struct {
	kv     kvstore.Store
	rounds round.Sequence
	roster []string
	docKey string
	logger logger.Logger
}

// New creates a repository over kv.
func New(kv kvstore.Store, opts ...Option) *Repository {
	r := &Repository{
		kv:     kv,
		rounds: round.Default(),
		docKey: DefaultDocumentKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("repository")
	}
	return r
}

// Rounds returns the configured round sequence.
func (r *Repository) Rounds() round.Sequence { return r.rounds }

// Load returns the persisted state. A missing document yields a fresh state
// which is saved before returning. A document that cannot be parsed is
// logged and replaced by a fresh state; only store I/O failures are returned.
func (r *Repository) Load(ctx context.Context) (*model.State, error) {
	raw, ok, err := r.kv.Get(ctx, r.docKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if !ok {
		r.logger.Info(ctx, "no state document; initialising", logger.String("key", r.docKey))
		return r.fresh(ctx)
	}

	st, mig, err := decode(raw, r.rounds)
	if err != nil {
		if errors.Is(err, ErrUnreadable) {
			r.logger.Warn(ctx, "state document unreadable; reinitialising",
				logger.String("key", r.docKey),
				logger.Error(err),
			)
			metrics.RecordStateRecovery()
			return r.fresh(ctx)
		}
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if mig.changed() {
		r.logger.Info(ctx, "state document migrated",
			logger.Bool("legacy_shape", mig.legacyShape),
			logger.Bool("status_added", mig.statusAdded),
			logger.Bool("status_repaired", mig.statusRepaired),
			logger.Int("counters_filled", mig.countersFilled),
			logger.Strings("dropped_keys", mig.droppedKeys),
		)
		if err := r.Save(ctx, st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (r *Repository) fresh(ctx context.Context) (*model.State, error) {
	st := model.NewState(r.rounds, r.roster)
	if err := r.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Save checks the state invariants, serializes st and overwrites the
// document with a single Set. An invalid state is never written.
func (r *Repository) Save(ctx context.Context, st *model.State) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	raw, err := encode(st)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrSave, err)
	}
	if err := r.kv.Set(ctx, r.docKey, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	metrics.UpdateCurrentRound(int(st.Current) + 1)
	metrics.UpdateParticipants(len(st.Participants))
	return nil
}
