// Package model contains the application state shared by the domain packages.
package model

import (
	"fmt"

	"github.com/okian/elimvote/internal/domain/round"
)

// Participant is a roster member with one vote counter per opened round.
type Participant struct {
	Name  string
	Votes map[round.ID]int
}

// Count returns the counter for r, zero when the round was never opened.
func (p Participant) Count(r round.ID) int { return p.Votes[r] }

// Standing is one ranked row: a name and its vote count for a round.
// Archived history entries are lists of Standings.
type Standing struct {
	Name  string `json:"name"`
	Votes int    `json:"votes"`
}

// State is the whole application document. Operations receive it as an
// explicit value; nothing in the domain keeps it in a global.
type State struct {
	Rounds       round.Sequence
	Participants []Participant
	Current      round.ID
	History      map[round.ID][]Standing
	Status       map[round.ID]round.Status
}

// NewState builds the fresh state: full roster, first round current, empty
// history, every round open and unpublished, every counter at zero.
func NewState(rounds round.Sequence, roster []string) *State {
	st := &State{
		Rounds:       rounds,
		Participants: make([]Participant, 0, len(roster)),
		Current:      rounds.First(),
		History:      make(map[round.ID][]Standing),
		Status:       make(map[round.ID]round.Status, rounds.Len()),
	}
	for _, r := range rounds.All() {
		st.Status[r] = round.Status{}
	}
	for _, name := range roster {
		st.Participants = append(st.Participants, Participant{
			Name:  name,
			Votes: zeroCounters(rounds.All()),
		})
	}
	return st
}

func zeroCounters(rounds []round.ID) map[round.ID]int {
	votes := make(map[round.ID]int, len(rounds))
	for _, r := range rounds {
		votes[r] = 0
	}
	return votes
}

// CurrentStatus returns the status of the current round.
func (s *State) CurrentStatus() round.Status { return s.Status[s.Current] }

// Find returns the index of the participant named exactly name, or -1.
func (s *State) Find(name string) int {
	for i, p := range s.Participants {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the roster names in roster order.
func (s *State) Names() []string {
	names := make([]string, len(s.Participants))
	for i, p := range s.Participants {
		names[i] = p.Name
	}
	return names
}

// KnownRounds returns every round that has a status or history entry, in
// sequence order.
func (s *State) KnownRounds() []round.ID {
	out := make([]round.ID, 0, s.Rounds.Len())
	for _, r := range s.Rounds.All() {
		_, hasStatus := s.Status[r]
		_, hasHistory := s.History[r]
		if hasStatus || hasHistory {
			out = append(out, r)
		}
	}
	return out
}

// TotalVotes sums every participant's counter for r.
func (s *State) TotalVotes(r round.ID) int {
	total := 0
	for _, p := range s.Participants {
		total += p.Count(r)
	}
	return total
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := &State{
		Rounds:       s.Rounds,
		Participants: make([]Participant, len(s.Participants)),
		Current:      s.Current,
		History:      make(map[round.ID][]Standing, len(s.History)),
		Status:       make(map[round.ID]round.Status, len(s.Status)),
	}
	for i, p := range s.Participants {
		votes := make(map[round.ID]int, len(p.Votes))
		for r, n := range p.Votes {
			votes[r] = n
		}
		c.Participants[i] = Participant{Name: p.Name, Votes: votes}
	}
	for r, rows := range s.History {
		c.History[r] = append([]Standing(nil), rows...)
	}
	for r, st := range s.Status {
		c.Status[r] = st
	}
	return c
}

// Validate checks the document invariants.
func (s *State) Validate() error {
	if !s.Rounds.Contains(s.Current) {
		return fmt.Errorf("%w: current round %d out of range", ErrInvariant, s.Current)
	}
	for r, st := range s.Status {
		if !st.Valid() {
			return fmt.Errorf("%w: round %s is published but open", ErrInvariant, s.Rounds.Key(r))
		}
	}
	for _, p := range s.Participants {
		for _, r := range s.Rounds.Through(s.Current) {
			if _, ok := p.Votes[r]; !ok {
				return fmt.Errorf("%w: %q has no counter for %s", ErrInvariant, p.Name, s.Rounds.Key(r))
			}
		}
	}
	return nil
}
