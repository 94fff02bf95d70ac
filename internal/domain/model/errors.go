package model

import "errors"

// Sentinel kinds for state errors.
var (
	ErrInvariant = errors.New("state invariant violated")
)
