package lifecycle

import "errors"

// Sentinel kinds for lifecycle errors.
var (
	ErrAlreadyClosed = errors.New("voting already closed")
	ErrNotClosed     = errors.New("voting still open")
	ErrRoundClosed   = errors.New("round closed for ballots")
	ErrAlreadyVoted  = errors.New("already voted this round")
	ErrNotPublished  = errors.New("results not published")
	ErrUnknownRound  = errors.New("unknown round")
)
