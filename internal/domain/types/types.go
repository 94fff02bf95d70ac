// Package types contains the read-only views returned across the core boundary.
package types

// Standing is one ranked leaderboard row.
type Standing struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Votes int    `json:"votes"`
}

// Round describes one round and its lifecycle position.
type Round struct {
	Key       string `json:"key"`
	Number    int    `json:"number"`
	Phase     string `json:"phase"`
	Closed    bool   `json:"closed"`
	Published bool   `json:"published"`
	Current   bool   `json:"current"`
}

// View is what any voter may see.
type View struct {
	CurrentRound string                `json:"current_round"`
	Rounds       []Round               `json:"rounds"`
	Participants []string              `json:"participants"`
	BallotSize   int                   `json:"ballot_size"`
	HasVoted     bool                  `json:"has_voted"`
	CanVote      bool                  `json:"can_vote"`
	Standings    []Standing            `json:"standings,omitempty"`
	History      map[string][]Standing `json:"history"`
}

// Counter is a participant's full set of per-round vote counters.
type Counter struct {
	Name  string         `json:"name"`
	Votes map[string]int `json:"votes"`
}

// AdminView adds live standings and raw counters to the voter view.
type AdminView struct {
	View
	Live     []Standing `json:"live"`
	Counters []Counter  `json:"counters"`
	Total    int        `json:"total_votes"`
}

// Result is returned by every successful command.
type Result struct {
	Event   string `json:"event"`
	Message string `json:"message"`
	View    View   `json:"view"`
}

// AdminResult is returned by successful admin commands.
type AdminResult struct {
	Event   string    `json:"event"`
	Message string    `json:"message"`
	View    AdminView `json:"view"`
}
