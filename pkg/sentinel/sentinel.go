package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors without the
// storage layer knowing anything about HTTP or business vocabulary.
//
// These represent factual states about stored records:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: a conditional write lost (active session already claimed)
// - ErrInvalidState: record in wrong state for the operation (already closed)
// - ErrAlreadyUsed: a one-shot transition was already taken (already paid)
// - ErrUnavailable: the store itself is unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrAlreadyUsed  = errors.New("already used")
	ErrUnavailable  = errors.New("unavailable")
)
