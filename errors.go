package nanokv

import "errors"

// The four error kinds the core surfaces. All other conditions (e.g. "not
// found") are returned as ordinary results, never as errors.
var (
	// ErrDuplicateKey is returned by Insert when the key already exists.
	// The key list is left unchanged.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrLimitsReached signals that an operation needs more space than
	// the owning range currently has, even after a vacuumize. The caller
	// (a B+tree layer) is expected to redistribute or split; the key
	// list is left unchanged.
	ErrLimitsReached = errors.New("limits reached")

	// ErrIntegrityViolated is fatal: a key list or freelist invariant
	// does not hold. It should never be observed outside of a
	// programming error or on-disk corruption.
	ErrIntegrityViolated = errors.New("integrity violated")

	// ErrInternal marks a codec capability invoked without being
	// supported. It indicates a programmer error in the adapter, not a
	// runtime condition a caller can recover from.
	ErrInternal = errors.New("internal error")
)
