// Package loadtest drives a running vote service over HTTP: it casts many
// ballots concurrently, each from a fresh voter identity, and checks that the
// server's counters moved by exactly the locally computed tally.
package loadtest

import (
	"time"

	"github.com/okian/elimvote/internal/domain/types"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Voters      int           // Number of ballots to generate
	Workers     int           // Number of concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	AdminSecret string        // Enables counter verification when set
	Revote      bool          // Each voter also tries a second ballot
	Finalize    bool          // Close and publish the round afterwards
	OutputFile  string        // Output file for generated ballots
	Verbose     bool          // Enable verbose logging
}

// Ballot is one generated submission.
type Ballot struct {
	ID         string   `json:"id"`
	Selections []string `json:"selections"`
}

// Outcome classifies a submission.
type Outcome string

// Submission outcomes.
const (
	Accepted Outcome = "accepted"
	Rejected Outcome = "rejected"
	Busy     Outcome = "busy"
	Failed   Outcome = "failed"
)

// Stats holds run statistics.
type Stats struct {
	Round             string
	BallotsGenerated  int
	BallotsSubmitted  int
	BallotsAccepted   int
	BallotsRejected   int
	BallotsBusy       int
	BallotsFailed     int
	RevotesRefused    int
	RevotesAccepted   int
	CountersVerified  bool
	StandingsVerified bool
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// errorBody is the service's error payload.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
