package model

import "github.com/okian/elimvote/internal/domain/round"

// EventKind names what a successful command did.
type EventKind string

// Event kinds.
const (
	BallotRecorded     EventKind = "ballot_recorded"
	VotingClosed       EventKind = "voting_closed"
	ResultsPublished   EventKind = "results_published"
	RoundArchived      EventKind = "round_archived"
	RoundWiped         EventKind = "round_wiped"
	ParticipantAdded   EventKind = "participant_added"
	ParticipantRemoved EventKind = "participant_removed"
)

// MarkerScope tells the caller which voted markers the command invalidated.
type MarkerScope int

// Marker scopes.
const (
	MarkersUntouched MarkerScope = iota
	MarkersOfRound
	MarkersAll
)

// Event describes the outcome of a state mutation. The domain never touches
// the voted markers itself; it reports the scope and the caller applies it.
type Event struct {
	Kind        EventKind
	Round       round.ID
	NextRound   round.ID
	Participant string
	Archived    []Standing
	Markers     MarkerScope
	Message     string
}
