// Package lifecycle enforces the per-round status machine: closing voting,
// publishing results, archiving the current round and wiping any round.
//
// Every function validates first and mutates second, so a returned error
// always means the state is unchanged.
package lifecycle

import (
	"fmt"

	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/internal/domain/tally"
)

func checkRound(st *model.State, r round.ID) error {
	if !st.Rounds.Contains(r) {
		return fmt.Errorf("%w: %d", ErrUnknownRound, r)
	}
	return nil
}

// CloseVoting moves r from Open to Closed.
func CloseVoting(st *model.State, r round.ID) (model.Event, error) {
	if err := checkRound(st, r); err != nil {
		return model.Event{}, err
	}
	if st.Status[r].Phase() != round.Open {
		return model.Event{}, fmt.Errorf("%w: %s", ErrAlreadyClosed, st.Rounds.Key(r))
	}
	st.Status[r] = round.Status{Closed: true}
	return model.Event{
		Kind:    model.VotingClosed,
		Round:   r,
		Message: fmt.Sprintf("Voting for %s is closed.", st.Rounds.Key(r)),
	}, nil
}

// Publish moves r from Closed to Published. Publishing an already published
// round succeeds without change.
func Publish(st *model.State, r round.ID) (model.Event, error) {
	if err := checkRound(st, r); err != nil {
		return model.Event{}, err
	}
	ev := model.Event{Kind: model.ResultsPublished, Round: r}
	switch st.Status[r].Phase() {
	case round.Open:
		return model.Event{}, fmt.Errorf("%w: %s", ErrNotClosed, st.Rounds.Key(r))
	case round.Published:
		ev.Message = fmt.Sprintf("Results for %s are already published.", st.Rounds.Key(r))
		return ev, nil
	}
	st.Status[r] = round.Status{Closed: true, Published: true}
	ev.Message = fmt.Sprintf("Results for %s are published.", st.Rounds.Key(r))
	return ev, nil
}

// Reset archives the top standings of the current round into history and
// marks it closed and published. A non-terminal round then advances to the
// next round with fresh zero counters; the terminal round has its counters
// zeroed in place. All voted markers are invalidated.
func Reset(st *model.State, leaderboardSize int) (model.Event, error) {
	cur := st.Current
	if err := checkRound(st, cur); err != nil {
		return model.Event{}, err
	}

	archived := tally.Standings(st, cur, leaderboardSize)
	st.History[cur] = archived
	st.Status[cur] = round.Status{Closed: true, Published: true}

	ev := model.Event{
		Kind:     model.RoundArchived,
		Round:    cur,
		Archived: archived,
		Markers:  model.MarkersAll,
	}

	if next, ok := st.Rounds.Next(cur); ok {
		for i := range st.Participants {
			setCounter(&st.Participants[i], next, 0)
		}
		st.Status[next] = round.Status{}
		st.Current = next
		ev.NextRound = next
		ev.Message = fmt.Sprintf("Round %s archived; %s is open.", st.Rounds.Key(cur), st.Rounds.Key(next))
		return ev, nil
	}

	for i := range st.Participants {
		setCounter(&st.Participants[i], cur, 0)
	}
	ev.NextRound = cur
	ev.Message = fmt.Sprintf("Round %s archived and its votes reset.", st.Rounds.Key(cur))
	return ev, nil
}

// Wipe zeroes every counter for r, drops its history and reopens it. Only
// the markers of r are invalidated; the current round is not touched.
func Wipe(st *model.State, r round.ID) (model.Event, error) {
	if err := checkRound(st, r); err != nil {
		return model.Event{}, err
	}
	for i := range st.Participants {
		setCounter(&st.Participants[i], r, 0)
	}
	delete(st.History, r)
	st.Status[r] = round.Status{}
	return model.Event{
		Kind:    model.RoundWiped,
		Round:   r,
		Markers: model.MarkersOfRound,
		Message: fmt.Sprintf("Round %s wiped.", st.Rounds.Key(r)),
	}, nil
}

// CheckBallot is the ballot acceptance gate for the current round.
func CheckBallot(st *model.State, alreadyVoted bool) error {
	if st.CurrentStatus().Closed {
		return fmt.Errorf("%w: %s", ErrRoundClosed, st.Rounds.Key(st.Current))
	}
	if alreadyVoted {
		return fmt.Errorf("%w: %s", ErrAlreadyVoted, st.Rounds.Key(st.Current))
	}
	return nil
}

// Visible is the leaderboard visibility gate. Voters see published rounds;
// admins also see the live standings of the current round.
func Visible(st *model.State, r round.ID, admin bool) bool {
	if st.Status[r].Published {
		return true
	}
	return admin && r == st.Current
}

// CheckVisible returns ErrNotPublished when Visible is false.
func CheckVisible(st *model.State, r round.ID, admin bool) error {
	if err := checkRound(st, r); err != nil {
		return err
	}
	if !Visible(st, r, admin) {
		return fmt.Errorf("%w: %s", ErrNotPublished, st.Rounds.Key(r))
	}
	return nil
}

func setCounter(p *model.Participant, r round.ID, n int) {
	if p.Votes == nil {
		p.Votes = make(map[round.ID]int)
	}
	p.Votes[r] = n
}
