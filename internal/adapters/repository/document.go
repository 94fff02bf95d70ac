package repository

import (
	"encoding/json"
	"fmt"

	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/round"
)

// document is the persisted JSON shape.
type document struct {
	Participants []docParticipant            `json:"participants"`
	CurrentRound string                      `json:"currentRound"`
	History      map[string][]model.Standing `json:"history"`
	Status       map[string]round.Status     `json:"status"`
}

type docParticipant struct {
	Name  string         `json:"name"`
	Votes map[string]int `json:"votes"`
}

// storedDocument accepts the current shape, the shape without status and
// the original {players, history, current_day} shape.
type storedDocument struct {
	Participants *[]docParticipant           `json:"participants"`
	Players      *[]docParticipant           `json:"players"`
	CurrentRound *string                     `json:"currentRound"`
	CurrentDay   *int                        `json:"current_day"`
	History      map[string][]model.Standing `json:"history"`
	Status       map[string]round.Status     `json:"status"`
}

// migration lists what decode had to synthesize.
type migration struct {
	legacyShape    bool
	statusAdded    bool
	statusRepaired bool
	droppedKeys    []string
	countersFilled int
}

func (m migration) changed() bool {
	return m.legacyShape || m.statusAdded || m.statusRepaired || len(m.droppedKeys) > 0 || m.countersFilled > 0
}

func encode(st *model.State) (string, error) {
	seq := st.Rounds
	doc := document{
		Participants: make([]docParticipant, len(st.Participants)),
		CurrentRound: seq.Key(st.Current),
		History:      make(map[string][]model.Standing, len(st.History)),
		Status:       make(map[string]round.Status, len(st.Status)),
	}
	for i, p := range st.Participants {
		votes := make(map[string]int, len(p.Votes))
		for r, n := range p.Votes {
			votes[seq.Key(r)] = n
		}
		doc.Participants[i] = docParticipant{Name: p.Name, Votes: votes}
	}
	for r, rows := range st.History {
		doc.History[seq.Key(r)] = rows
	}
	for r, s := range st.Status {
		doc.Status[seq.Key(r)] = s
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode(raw string, seq round.Sequence) (*model.State, migration, error) {
	var (
		stored storedDocument
		mig    migration
	)
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, mig, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	participants := stored.Participants
	if participants == nil {
		participants = stored.Players
		mig.legacyShape = participants != nil
	}
	if participants == nil {
		return nil, mig, fmt.Errorf("%w: no participants", ErrUnreadable)
	}

	st := &model.State{
		Rounds:       seq,
		Participants: make([]model.Participant, 0, len(*participants)),
		History:      make(map[round.ID][]model.Standing, len(stored.History)),
		Status:       make(map[round.ID]round.Status, seq.Len()),
	}

	switch {
	case stored.CurrentRound != nil:
		id, err := seq.Parse(*stored.CurrentRound)
		if err != nil {
			return nil, mig, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		st.Current = id
	case stored.CurrentDay != nil:
		id := round.ID(*stored.CurrentDay - 1)
		if !seq.Contains(id) {
			return nil, mig, fmt.Errorf("%w: current_day %d out of range", ErrUnreadable, *stored.CurrentDay)
		}
		st.Current = id
		mig.legacyShape = true
	default:
		st.Current = seq.First()
	}

	for _, p := range *participants {
		votes := make(map[round.ID]int, len(p.Votes))
		for key, n := range p.Votes {
			id, err := seq.Parse(key)
			if err != nil {
				mig.droppedKeys = append(mig.droppedKeys, key)
				continue
			}
			if n < 0 {
				n = 0
			}
			votes[id] = n
		}
		for _, r := range seq.Through(st.Current) {
			if _, ok := votes[r]; !ok {
				votes[r] = 0
				mig.countersFilled++
			}
		}
		st.Participants = append(st.Participants, model.Participant{Name: p.Name, Votes: votes})
	}

	for key, rows := range stored.History {
		id, err := seq.Parse(key)
		if err != nil {
			mig.droppedKeys = append(mig.droppedKeys, key)
			continue
		}
		if mig.legacyShape && len(rows) == 0 {
			// the old shape pre-seeded an empty list for every round
			continue
		}
		st.History[id] = rows
	}

	if stored.Status == nil {
		mig.statusAdded = true
	}
	for _, r := range seq.All() {
		s, ok := stored.Status[seq.Key(r)]
		if !ok && stored.Status != nil {
			mig.statusAdded = true
		}
		if !s.Valid() {
			mig.statusRepaired = true
		}
		st.Status[r] = s.Normalized()
	}
	for key := range stored.Status {
		if _, err := seq.Parse(key); err != nil {
			mig.droppedKeys = append(mig.droppedKeys, key)
		}
	}

	return st, mig, nil
}
