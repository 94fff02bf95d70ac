// Package tally ranks participants and applies ballots to vote counters.
package tally

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/round"
)

// Default sizes of the reference deployment.
const (
	DefaultBallotSize      = 3
	DefaultLeaderboardSize = 5
)

// Standings ranks every participant by their counter for r, descending, and
// returns at most limit rows. Ties keep roster order. A limit <= 0 returns
// every participant. The state is not modified.
func Standings(st *model.State, r round.ID, limit int) []model.Standing {
	rows := make([]model.Standing, len(st.Participants))
	for i, p := range st.Participants {
		rows[i] = model.Standing{Name: p.Name, Votes: p.Count(r)}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Votes > rows[j].Votes
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// Selection trims raw ballot input and drops blank entries. Order and
// repeats are kept.
func Selection(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// ApplyBallot adds one vote for r to each selected participant. The selection
// must contain exactly size distinct names that all exist on the roster;
// otherwise no counter changes. A repeated name is an invalid count, never a
// shorter ballot.
func ApplyBallot(st *model.State, r round.ID, selections []string, size int) error {
	picked := Selection(selections)
	if len(picked) != size {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidSelectionCount, len(picked), size)
	}
	seen := make(map[string]struct{}, len(picked))
	for _, name := range picked {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q selected twice", ErrInvalidSelectionCount, name)
		}
		seen[name] = struct{}{}
	}

	idx := make([]int, len(picked))
	for i, name := range picked {
		at := st.Find(name)
		if at < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownParticipant, name)
		}
		idx[i] = at
	}

	for _, at := range idx {
		p := &st.Participants[at]
		if p.Votes == nil {
			p.Votes = make(map[round.ID]int)
		}
		p.Votes[r]++
	}
	return nil
}
