package round

import "errors"

// Sentinel kinds for round errors.
var (
	ErrInvalidSequence = errors.New("invalid round sequence")
	ErrUnknownRound    = errors.New("unknown round")
)
