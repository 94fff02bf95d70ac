package loadtest

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	ProgressInterval     = time.Second
	PercentageMultiplier = 100
)

// Error codes the run distinguishes.
const (
	codeAlreadyVoted = "ALREADY_VOTED"
	codeBusy         = "BUSY"
)
