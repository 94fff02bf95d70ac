package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/okian/elimvote/internal/adapters/kvstore"
	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/pkg/logger"
)

const (
	markerPrefix = "voted_"
	markerValue  = "true"
	registryKey  = "voters"
	voterPrefix  = "voters/"
)

// LocalProfile is the voter id of the single local profile. Its markers use
// the bare voted_<round> keys.
const LocalProfile = ""

// Markers is the voted-marker book. Each profile has one flag per round;
// a registry of profiles that ever voted lets a reset reach all of them.
type Markers struct {
	kv     kvstore.Store
	rounds round.Sequence
	logger logger.Logger
}

// NewMarkers creates a marker book over kv.
func NewMarkers(kv kvstore.Store, rounds round.Sequence) *Markers {
	return &Markers{kv: kv, rounds: rounds, logger: logger.Get().Named("markers")}
}

func (m *Markers) key(voter string, r round.ID) string {
	k := markerPrefix + m.rounds.Key(r)
	if voter == LocalProfile {
		return k
	}
	return voterPrefix + voter + "/" + k
}

// HasVoted reports whether voter already submitted a ballot for r.
func (m *Markers) HasVoted(ctx context.Context, voter string, r round.ID) (bool, error) {
	v, ok, err := m.kv.Get(ctx, m.key(voter, r))
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrMarkers, err)
	}
	return ok && v == markerValue, nil
}

// MarkVoted sets voter's marker for r.
func (m *Markers) MarkVoted(ctx context.Context, voter string, r round.ID) error {
	if voter != LocalProfile {
		if err := m.register(ctx, voter); err != nil {
			return err
		}
	}
	if err := m.kv.Set(ctx, m.key(voter, r), markerValue); err != nil {
		return fmt.Errorf("%w: %w", ErrMarkers, err)
	}
	return nil
}

// Unmark removes voter's marker for r. The registry entry stays; it only
// widens what a later clear visits.
func (m *Markers) Unmark(ctx context.Context, voter string, r round.ID) error {
	if err := m.kv.Remove(ctx, m.key(voter, r)); err != nil {
		return fmt.Errorf("%w: %w", ErrMarkers, err)
	}
	return nil
}

// ClearRound removes every profile's marker for r.
func (m *Markers) ClearRound(ctx context.Context, r round.ID) error {
	voters, _, err := m.voters(ctx)
	if err != nil {
		return err
	}
	for _, v := range append([]string{LocalProfile}, voters...) {
		if err := m.kv.Remove(ctx, m.key(v, r)); err != nil {
			return fmt.Errorf("%w: %w", ErrMarkers, err)
		}
	}
	return nil
}

// ClearAll removes every marker of every profile and empties the registry.
// An unreadable registry is left in place so its voters can be recovered.
func (m *Markers) ClearAll(ctx context.Context) error {
	voters, readable, err := m.voters(ctx)
	if err != nil {
		return err
	}
	for _, v := range append([]string{LocalProfile}, voters...) {
		for _, r := range m.rounds.All() {
			if err := m.kv.Remove(ctx, m.key(v, r)); err != nil {
				return fmt.Errorf("%w: %w", ErrMarkers, err)
			}
		}
	}
	if !readable {
		return nil
	}
	if err := m.kv.Remove(ctx, registryKey); err != nil {
		return fmt.Errorf("%w: %w", ErrMarkers, err)
	}
	return nil
}

// Apply clears the markers an event invalidated.
func (m *Markers) Apply(ctx context.Context, ev model.Event) error {
	switch ev.Markers {
	case model.MarkersAll:
		return m.ClearAll(ctx)
	case model.MarkersOfRound:
		return m.ClearRound(ctx, ev.Round)
	default:
		return nil
	}
}

// voters returns the registered profiles. readable is false when the registry
// exists but cannot be decoded; callers must not overwrite it then.
func (m *Markers) voters(ctx context.Context) (voters []string, readable bool, err error) {
	raw, ok, err := m.kv.Get(ctx, registryKey)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrMarkers, err)
	}
	if !ok {
		return nil, true, nil
	}
	if err := json.Unmarshal([]byte(raw), &voters); err != nil {
		m.logger.Warn(ctx, "voter registry unreadable; older profiles will keep their markers",
			logger.String("key", registryKey),
			logger.Error(err),
		)
		return nil, false, nil
	}
	return voters, true, nil
}

func (m *Markers) register(ctx context.Context, voter string) error {
	voters, readable, err := m.voters(ctx)
	if err != nil {
		return err
	}
	if !readable || slices.Contains(voters, voter) {
		return nil
	}
	b, err := json.Marshal(append(voters, voter))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarkers, err)
	}
	if err := m.kv.Set(ctx, registryKey, string(b)); err != nil {
		return fmt.Errorf("%w: %w", ErrMarkers, err)
	}
	return nil
}
