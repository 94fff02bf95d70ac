package kvstore

import "errors"

// Sentinel kinds for store errors.
var (
	ErrStore         = errors.New("persistent store failure")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrClosed        = errors.New("store closed")
)
