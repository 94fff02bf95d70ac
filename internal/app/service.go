// Package service is the boundary the presentation layers call. Every
// state-changing operation is a command executed by a single actor as
// load, mutate, save, so no two operations ever interleave.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/elimvote/internal/adapters/mq/queue"
	"github.com/okian/elimvote/internal/adapters/mq/worker"
	"github.com/okian/elimvote/internal/adapters/repository"
	"github.com/okian/elimvote/internal/domain/confirm"
	"github.com/okian/elimvote/internal/domain/lifecycle"
	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/roster"
	"github.com/okian/elimvote/internal/domain/tally"
	"github.com/okian/elimvote/internal/domain/types"
	"github.com/okian/elimvote/pkg/logger"
	"github.com/okian/elimvote/pkg/metrics"
)

const (
	defaultQueueSize       = 1024
	defaultConfirmSize     = 64
	defaultShutdownTimeout = 5 * time.Second
)

// Service implements the core operations for voters and the administrator.
type Service struct {
	mu sync.RWMutex

	// Core components
	repo    *repository.Repository
	markers *repository.Markers
	ledger  *confirm.Ledger
	queue   *queue.InMemoryQueue
	actor   *worker.Actor

	// Configuration
	queueSize       int
	confirmSize     int
	ballotSize      int
	leaderboardSize int
	adminSecret     string

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the maximum number of pending commands.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithConfirmLedgerSize sets how many confirmation tokens may be outstanding.
func WithConfirmLedgerSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.confirmSize = size
		}
	}
}

// WithBallotSize sets the exact number of names per ballot.
func WithBallotSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.ballotSize = size
		}
	}
}

// WithLeaderboardSize sets how many rows are shown and archived.
func WithLeaderboardSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.leaderboardSize = size
		}
	}
}

// WithAdminSecret sets the shared administrator secret.
func WithAdminSecret(secret string) Option {
	return func(s *Service) {
		s.adminSecret = secret
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service over a repository and a marker book.
func New(repo *repository.Repository, markers *repository.Markers, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		markers:         markers,
		queueSize:       defaultQueueSize,
		confirmSize:     defaultConfirmSize,
		ballotSize:      tally.DefaultBallotSize,
		leaderboardSize: tally.DefaultLeaderboardSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the actor and loads (or initialises) the state once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.ledger = confirm.NewLedger(confirm.WithMaxSize(s.confirmSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.actor = worker.NewActor(s.queue,
		worker.WithName("actor"),
		worker.WithClassifier(func(err error) string { return string(CodeOf(err)) }),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.actor.Run(runCtx)
	s.started = true
	s.mu.Unlock()

	var st *model.State
	if err := s.read(ctx, "load", func(_ context.Context, loaded *model.State) error {
		st = loaded
		return nil
	}); err != nil {
		s.Stop()
		return fmt.Errorf("initial load: %w", err)
	}

	s.logger.Info(ctx, "vote service started",
		logger.String("round", st.Rounds.Key(st.Current)),
		logger.Int("participants", len(st.Participants)),
		logger.Int("queueSize", s.queueSize),
		logger.Int("ballotSize", s.ballotSize),
	)
	return nil
}

// Stop stops accepting commands and waits for the running one.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	_ = s.queue.Close()
	if err := s.actor.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "actor shutdown", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "vote service stopped")
}

// submit hands fn to the actor and waits for its result.
func (s *Service) submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	s.mu.RLock()
	q, started := s.queue, s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	c := queue.NewCommand(name, fn)
	if err := q.Enqueue(ctx, c); err != nil {
		if errors.Is(err, queue.ErrFull) {
			return fmt.Errorf("%w: %w", ErrBusy, err)
		}
		return err
	}
	return c.Wait(ctx)
}

// read loads the state and hands it to fn without saving.
func (s *Service) read(ctx context.Context, name string, fn func(ctx context.Context, st *model.State) error) error {
	return s.submit(ctx, name, func(ctx context.Context) error {
		st, err := s.repo.Load(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, st)
	})
}

type mutation func(ctx context.Context, st *model.State) (model.Event, error)

// hooks extend a mutation around its save. stage runs before the save and
// returns an undo that is called if the save fails; after runs once the state
// is saved and markers are applied.
type hooks struct {
	stage func(ctx context.Context, ev model.Event) (undo func(ctx context.Context) error, err error)
	after func(ctx context.Context, st *model.State, ev model.Event) error
}

// mutate runs one load, mutate, save cycle. fn must leave st unchanged when
// it fails.
func (s *Service) mutate(ctx context.Context, name string, fn mutation, h hooks) (model.Event, error) {
	var ev model.Event
	err := s.submit(ctx, name, func(ctx context.Context) error {
		st, err := s.repo.Load(ctx)
		if err != nil {
			return err
		}
		ev, err = fn(ctx, st)
		if err != nil {
			return err
		}
		var undo func(ctx context.Context) error
		if h.stage != nil {
			if undo, err = h.stage(ctx, ev); err != nil {
				return err
			}
		}
		if err := s.repo.Save(ctx, st); err != nil {
			if undo != nil {
				if uerr := undo(ctx); uerr != nil {
					s.logger.Error(ctx, "undo after failed save",
						logger.String("command", name),
						logger.Error(uerr),
					)
					return errors.Join(err, uerr)
				}
			}
			return err
		}
		if err := s.markers.Apply(ctx, ev); err != nil {
			return err
		}
		if h.after != nil {
			return h.after(ctx, st, ev)
		}
		return nil
	})
	return ev, err
}

func (s *Service) rejected(ctx context.Context, op string, err error) {
	s.logger.Debug(ctx, "command rejected",
		logger.String("op", op),
		logger.String("code", string(CodeOf(err))),
		logger.Error(err),
	)
}

// SubmitBallot records one ballot of exactly ballot-size names from voter
// for the current round.
func (s *Service) SubmitBallot(ctx context.Context, voter string, selections []string) (types.Result, error) {
	var res types.Result
	ev, err := s.mutate(ctx, "ballot",
		func(ctx context.Context, st *model.State) (model.Event, error) {
			voted, err := s.markers.HasVoted(ctx, voter, st.Current)
			if err != nil {
				return model.Event{}, err
			}
			if err := lifecycle.CheckBallot(st, voted); err != nil {
				return model.Event{}, err
			}
			if err := tally.ApplyBallot(st, st.Current, selections, s.ballotSize); err != nil {
				return model.Event{}, err
			}
			return model.Event{
				Kind:    model.BallotRecorded,
				Round:   st.Current,
				Message: "Your vote has been recorded.",
			}, nil
		},
		hooks{
			// the marker is written before the counted votes are saved
			stage: func(ctx context.Context, ev model.Event) (func(context.Context) error, error) {
				if err := s.markers.MarkVoted(ctx, voter, ev.Round); err != nil {
					return nil, err
				}
				return func(ctx context.Context) error {
					return s.markers.Unmark(ctx, voter, ev.Round)
				}, nil
			},
			after: func(_ context.Context, st *model.State, _ model.Event) error {
				res.View = s.view(st, true)
				return nil
			},
		})
	if err != nil {
		metrics.RecordBallotRejected(string(CodeOf(err)))
		s.rejected(ctx, "ballot", err)
		return types.Result{}, err
	}
	metrics.RecordBallotAccepted()
	res.Event, res.Message = string(ev.Kind), ev.Message
	return res, nil
}

// AuthenticateAdmin compares secret with the configured administrator
// secret. It never changes state.
func (s *Service) AuthenticateAdmin(ctx context.Context, secret string) error {
	if s.adminSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.adminSecret)) != 1 {
		s.logger.Warn(ctx, "admin authentication failed")
		return ErrAuthFailed
	}
	s.logger.Info(ctx, "admin authenticated")
	return nil
}

// RequestConfirmation issues a single-use token for a destructive action.
// Close and reset are bound to the round current at request time; wipe is
// bound to roundKey.
func (s *Service) RequestConfirmation(ctx context.Context, kind confirm.Kind, roundKey string) (string, error) {
	var token string
	err := s.read(ctx, "confirm", func(ctx context.Context, st *model.State) error {
		action := confirm.Action{Kind: kind}
		switch kind {
		case confirm.CloseVoting, confirm.ResetRound:
			action.Round = st.Rounds.Key(st.Current)
		case confirm.WipeRound:
			r, err := st.Rounds.Parse(roundKey)
			if err != nil {
				return err
			}
			action.Round = st.Rounds.Key(r)
		default:
			return fmt.Errorf("%w: %q", confirm.ErrUnknownAction, kind)
		}
		token = s.ledger.Request(ctx, action)
		return nil
	})
	if err != nil {
		s.rejected(ctx, "confirm", err)
		return "", err
	}
	return token, nil
}

// admin runs an administrator mutation and renders the admin view.
func (s *Service) admin(ctx context.Context, op string, fn mutation) (types.AdminResult, error) {
	var res types.AdminResult
	ev, err := s.mutate(ctx, op, fn, hooks{
		after: func(_ context.Context, st *model.State, _ model.Event) error {
			res.View = s.adminView(st)
			return nil
		},
	})
	if err != nil {
		s.rejected(ctx, op, err)
		return types.AdminResult{}, err
	}
	s.logger.Info(ctx, "admin command applied",
		logger.String("op", op),
		logger.String("event", string(ev.Kind)),
		logger.String("message", ev.Message),
	)
	res.Event, res.Message = string(ev.Kind), ev.Message
	return res, nil
}

// AdminCloseVoting closes the current round. token must come from
// RequestConfirmation(close).
func (s *Service) AdminCloseVoting(ctx context.Context, token string) (types.AdminResult, error) {
	return s.admin(ctx, "close", func(ctx context.Context, st *model.State) (model.Event, error) {
		action := confirm.Action{Kind: confirm.CloseVoting, Round: st.Rounds.Key(st.Current)}
		if err := s.ledger.Consume(ctx, token, action); err != nil {
			return model.Event{}, err
		}
		ev, err := lifecycle.CloseVoting(st, st.Current)
		if err == nil {
			metrics.RecordLifecycleTransition("close")
		}
		return ev, err
	})
}

// AdminPublish publishes the current round's results.
func (s *Service) AdminPublish(ctx context.Context) (types.AdminResult, error) {
	return s.admin(ctx, "publish", func(ctx context.Context, st *model.State) (model.Event, error) {
		ev, err := lifecycle.Publish(st, st.Current)
		if err == nil {
			metrics.RecordLifecycleTransition("publish")
		}
		return ev, err
	})
}

// AdminResetRound archives the current round and advances. token must come
// from RequestConfirmation(reset).
func (s *Service) AdminResetRound(ctx context.Context, token string) (types.AdminResult, error) {
	return s.admin(ctx, "reset", func(ctx context.Context, st *model.State) (model.Event, error) {
		action := confirm.Action{Kind: confirm.ResetRound, Round: st.Rounds.Key(st.Current)}
		if err := s.ledger.Consume(ctx, token, action); err != nil {
			return model.Event{}, err
		}
		ev, err := lifecycle.Reset(st, s.leaderboardSize)
		if err == nil {
			metrics.RecordLifecycleTransition("reset")
		}
		return ev, err
	})
}

// AdminWipe clears roundKey entirely. token must come from
// RequestConfirmation(wipe, roundKey).
func (s *Service) AdminWipe(ctx context.Context, roundKey, token string) (types.AdminResult, error) {
	return s.admin(ctx, "wipe", func(ctx context.Context, st *model.State) (model.Event, error) {
		r, err := st.Rounds.Parse(roundKey)
		if err != nil {
			return model.Event{}, err
		}
		action := confirm.Action{Kind: confirm.WipeRound, Round: st.Rounds.Key(r)}
		if err := s.ledger.Consume(ctx, token, action); err != nil {
			return model.Event{}, err
		}
		ev, err := lifecycle.Wipe(st, r)
		if err == nil {
			metrics.RecordLifecycleTransition("wipe")
		}
		return ev, err
	})
}

// AdminAddParticipant appends name to the roster.
func (s *Service) AdminAddParticipant(ctx context.Context, name string) (types.AdminResult, error) {
	return s.admin(ctx, "add", func(_ context.Context, st *model.State) (model.Event, error) {
		ev, err := roster.Add(st, name)
		if err == nil {
			metrics.RecordRosterChange("add")
		}
		return ev, err
	})
}

// AdminRemoveParticipant deletes the participant named exactly name.
func (s *Service) AdminRemoveParticipant(ctx context.Context, name string) (types.AdminResult, error) {
	return s.admin(ctx, "remove", func(_ context.Context, st *model.State) (model.Event, error) {
		ev, err := roster.Remove(st, name)
		if err == nil {
			metrics.RecordRosterChange("remove")
		}
		return ev, err
	})
}

// View returns what voter may see.
func (s *Service) View(ctx context.Context, voter string) (types.View, error) {
	var v types.View
	err := s.read(ctx, "view", func(ctx context.Context, st *model.State) error {
		voted, err := s.markers.HasVoted(ctx, voter, st.Current)
		if err != nil {
			return err
		}
		v = s.view(st, voted)
		return nil
	})
	return v, err
}

// AdminView returns the administrator view with live counters.
func (s *Service) AdminView(ctx context.Context) (types.AdminView, error) {
	var v types.AdminView
	err := s.read(ctx, "admin_view", func(_ context.Context, st *model.State) error {
		v = s.adminView(st)
		return nil
	})
	return v, err
}

// Standings returns the ranked standings of roundKey (the current round when
// empty) subject to the visibility gate.
func (s *Service) Standings(ctx context.Context, roundKey string, admin bool) ([]types.Standing, error) {
	var out []types.Standing
	err := s.read(ctx, "standings", func(_ context.Context, st *model.State) error {
		r, err := resolveRound(st, roundKey)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckVisible(st, r, admin); err != nil {
			return err
		}
		out = ranked(tally.Standings(st, r, s.leaderboardSize))
		return nil
	})
	return out, err
}

// History returns the archived standings keyed by round.
func (s *Service) History(ctx context.Context) (map[string][]types.Standing, error) {
	var out map[string][]types.Standing
	err := s.read(ctx, "history", func(_ context.Context, st *model.State) error {
		out = s.history(st)
		return nil
	})
	return out, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"queueSize":       s.queueSize,
		"ballotSize":      s.ballotSize,
		"leaderboardSize": s.leaderboardSize,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["pendingConfirmations"] = s.ledger.Size()
	}
	return stats
}
