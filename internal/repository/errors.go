package repository

import "errors"

// Sentinel errors surfaced by guarded writes. Services translate these into
// domain errors; they are never shown to callers directly.
var (
	// ErrContractAlreadySigned is returned when a signature update matches
	// no rows because signed_at is already set.
	ErrContractAlreadySigned = errors.New("repository: contract already signed")
)
