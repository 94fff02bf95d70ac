package confirm

import "errors"

// Sentinel kinds for confirmation errors.
var (
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrUnknownAction        = errors.New("unknown action")
)
