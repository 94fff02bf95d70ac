package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrUnreadable = errors.New("state document unreadable")
	ErrLoad       = errors.New("load state failed")
	ErrSave       = errors.New("save state failed")
	ErrMarkers    = errors.New("voted marker update failed")
)
