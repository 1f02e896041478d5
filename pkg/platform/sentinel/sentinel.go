package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into domain errors:
//   - ErrNotFound: row does not exist, or is not visible to the requesting owner
//   - ErrAlreadyUsed: a one-time value (verification code) was consumed already
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrInvalidState: the row exists but cannot take the requested transition
//
// Validation failures do not belong here; use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
