package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrEmptyName     = errors.New("participant name is empty")
	ErrDuplicateName = errors.New("participant already exists")
	ErrNotFound      = errors.New("participant not found")
)
