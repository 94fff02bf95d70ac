package service

import (
	"errors"

	"github.com/okian/elimvote/internal/adapters/mq/queue"
	"github.com/okian/elimvote/internal/adapters/repository"
	"github.com/okian/elimvote/internal/domain/confirm"
	"github.com/okian/elimvote/internal/domain/lifecycle"
	"github.com/okian/elimvote/internal/domain/roster"
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/internal/domain/tally"
)

// Sentinel kinds raised by the service itself.
var (
	ErrAuthFailed   = errors.New("admin authentication failed")
	ErrBusy         = errors.New("too many pending commands")
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidInput = errors.New("invalid request")
)

// Code is the stable, client-facing name of a failure.
type Code string

// Failure codes.
const (
	CodeOK                    Code = "OK"
	CodeStoreUnreadable       Code = "STORE_UNREADABLE"
	CodeInvalidSelectionCount Code = "INVALID_SELECTION_COUNT"
	CodeUnknownParticipant    Code = "UNKNOWN_PARTICIPANT"
	CodeRoundClosed           Code = "ROUND_CLOSED"
	CodeAlreadyVoted          Code = "ALREADY_VOTED"
	CodeAlreadyClosed         Code = "ALREADY_CLOSED"
	CodeNotClosed             Code = "NOT_CLOSED"
	CodeEmptyName             Code = "EMPTY_NAME"
	CodeDuplicateName         Code = "DUPLICATE_NAME"
	CodeNotFound              Code = "NOT_FOUND"
	CodeAuthFailed            Code = "AUTH_FAILED"
	CodeUnknownRound          Code = "UNKNOWN_ROUND"
	CodeConfirmationRequired  Code = "CONFIRMATION_REQUIRED"
	CodeResultsHidden         Code = "RESULTS_HIDDEN"
	CodeInvalidRequest        Code = "INVALID_REQUEST"
	CodeBusy                  Code = "BUSY"
	CodeInternal              Code = "INTERNAL"
)

var codes = []struct {
	err  error
	code Code
}{
	{repository.ErrUnreadable, CodeStoreUnreadable},
	{tally.ErrInvalidSelectionCount, CodeInvalidSelectionCount},
	{tally.ErrUnknownParticipant, CodeUnknownParticipant},
	{lifecycle.ErrRoundClosed, CodeRoundClosed},
	{lifecycle.ErrAlreadyVoted, CodeAlreadyVoted},
	{lifecycle.ErrAlreadyClosed, CodeAlreadyClosed},
	{lifecycle.ErrNotClosed, CodeNotClosed},
	{lifecycle.ErrNotPublished, CodeResultsHidden},
	{lifecycle.ErrUnknownRound, CodeUnknownRound},
	{round.ErrUnknownRound, CodeUnknownRound},
	{roster.ErrEmptyName, CodeEmptyName},
	{roster.ErrDuplicateName, CodeDuplicateName},
	{roster.ErrNotFound, CodeNotFound},
	{ErrAuthFailed, CodeAuthFailed},
	{confirm.ErrConfirmationRequired, CodeConfirmationRequired},
	{confirm.ErrUnknownAction, CodeInvalidRequest},
	{ErrInvalidInput, CodeInvalidRequest},
	{ErrBusy, CodeBusy},
	{queue.ErrFull, CodeBusy},
}

// CodeOf maps an error returned by the service to its failure code.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
