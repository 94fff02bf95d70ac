package tally

import "errors"

// Sentinel kinds for ballot errors.
var (
	ErrInvalidSelectionCount = errors.New("invalid selection count")
	ErrUnknownParticipant    = errors.New("unknown participant")
)
