// Package roster adds and removes participants.
package roster

import (
	"fmt"
	"strings"

	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/round"
)

// Add appends a participant with a zero counter for every known round.
// Names are trimmed and compared case-insensitively.
func Add(st *model.State, name string) (model.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Event{}, ErrEmptyName
	}
	for _, p := range st.Participants {
		if strings.EqualFold(p.Name, name) {
			return model.Event{}, fmt.Errorf("%w: %q", ErrDuplicateName, p.Name)
		}
	}

	known := st.KnownRounds()
	votes := make(map[round.ID]int, len(known))
	for _, r := range known {
		votes[r] = 0
	}
	for _, r := range st.Rounds.Through(st.Current) {
		votes[r] = 0
	}
	st.Participants = append(st.Participants, model.Participant{Name: name, Votes: votes})

	return model.Event{
		Kind:        model.ParticipantAdded,
		Round:       st.Current,
		Participant: name,
		Message:     fmt.Sprintf("Added '%s'.", name),
	}, nil
}

// Remove deletes the participant whose name matches exactly, with all of its
// counters. Archived history is left as it is.
func Remove(st *model.State, name string) (model.Event, error) {
	at := st.Find(name)
	if at < 0 {
		return model.Event{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	st.Participants = append(st.Participants[:at:at], st.Participants[at+1:]...)

	return model.Event{
		Kind:        model.ParticipantRemoved,
		Round:       st.Current,
		Participant: name,
		Message:     fmt.Sprintf("Deleted '%s'.", name),
	}, nil
}
