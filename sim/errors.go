package sim

import "errors"

// Error kinds surfaced across the engine. Callers should compare with errors.Is;
// wrapped instances carry additional context via fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidInput covers malformed catalogs, bad probability vectors, wrong
	// count-vector shapes, and unknown objectives.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPlan is returned when an efficiency plan fails validation; the
	// workflow refuses to start.
	ErrInvalidPlan = errors.New("invalid efficiency plan")

	// ErrInvalidLoadout covers degenerate loadouts: zero dice, or a zero-sum
	// probability distribution handed to the policy estimator.
	ErrInvalidLoadout = errors.New("invalid loadout")

	// ErrCanceled signals cooperative cancellation. Never swallowed.
	ErrCanceled = errors.New("canceled")

	// ErrCacheUnavailable covers I/O or database errors opening, reading, or
	// writing the cache store.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrTransient marks a retryable writer-side condition (e.g. SQLITE_BUSY)
	// that was retried and, on exhaustion, dropped rather than propagated.
	ErrTransient = errors.New("transient error")
)
