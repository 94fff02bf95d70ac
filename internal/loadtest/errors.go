package loadtest

import "errors"

var (
	// ErrSetup reports a service that cannot take the run.
	ErrSetup = errors.New("load test setup failed")
	// ErrVerification reports a mismatch between server and local tally.
	ErrVerification = errors.New("load test verification failed")
	// ErrUnexpectedStatus reports an HTTP status the run did not expect.
	ErrUnexpectedStatus = errors.New("unexpected status")
)
