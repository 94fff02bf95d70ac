package service

import (
	"github.com/okian/elimvote/internal/domain/lifecycle"
	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/internal/domain/tally"
	"github.com/okian/elimvote/internal/domain/types"
)

func ranked(rows []model.Standing) []types.Standing {
	out := make([]types.Standing, len(rows))
	for i, r := range rows {
		out[i] = types.Standing{Rank: i + 1, Name: r.Name, Votes: r.Votes}
	}
	return out
}

func (s *Service) rounds(st *model.State) []types.Round {
	out := make([]types.Round, 0, st.Rounds.Len())
	for _, r := range st.Rounds.All() {
		status := st.Status[r]
		out = append(out, types.Round{
			Key:       st.Rounds.Key(r),
			Number:    int(r) + 1,
			Phase:     status.Phase().String(),
			Closed:    status.Closed,
			Published: status.Published,
			Current:   r == st.Current,
		})
	}
	return out
}

func (s *Service) history(st *model.State) map[string][]types.Standing {
	out := make(map[string][]types.Standing, len(st.History))
	for r, rows := range st.History {
		out[st.Rounds.Key(r)] = ranked(rows)
	}
	return out
}

func (s *Service) view(st *model.State, hasVoted bool) types.View {
	v := types.View{
		CurrentRound: st.Rounds.Key(st.Current),
		Rounds:       s.rounds(st),
		Participants: st.Names(),
		BallotSize:   s.ballotSize,
		HasVoted:     hasVoted,
		CanVote:      !hasVoted && lifecycle.CheckBallot(st, false) == nil,
		History:      s.history(st),
	}
	if lifecycle.Visible(st, st.Current, false) {
		v.Standings = ranked(tally.Standings(st, st.Current, s.leaderboardSize))
	}
	return v
}

func (s *Service) adminView(st *model.State) types.AdminView {
	v := types.AdminView{
		View:     s.view(st, false),
		Live:     ranked(tally.Standings(st, st.Current, s.leaderboardSize)),
		Counters: make([]types.Counter, len(st.Participants)),
		Total:    st.TotalVotes(st.Current),
	}
	for i, p := range st.Participants {
		votes := make(map[string]int, len(p.Votes))
		for r, n := range p.Votes {
			votes[st.Rounds.Key(r)] = n
		}
		v.Counters[i] = types.Counter{Name: p.Name, Votes: votes}
	}
	return v
}

// resolveRound parses key, defaulting to the current round when empty.
func resolveRound(st *model.State, key string) (round.ID, error) {
	if key == "" {
		return st.Current, nil
	}
	return st.Rounds.Parse(key)
}
