// Package apperrors holds the error kinds shared across every service
// boundary (spec §7): each authority wraps a concrete cause with one of
// these sentinels so the HTTP layer can pick a status code with a single
// errors.Is check instead of re-deriving intent from driver-specific types.
package apperrors

import "errors"

var (
	// ErrNotFound means the read target does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrencyConflict means an optimistic-version append lost a race.
	// Not retried by this layer; the caller decides.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrBusinessReject means a business rule rejected the request (e.g.
	// insufficient stock). Surfaced as 409 with a reason, never retried.
	ErrBusinessReject = errors.New("business rejected")

	// ErrStorage wraps a database failure. The caller's transaction is
	// rolled back; no event, no read-model change, no publish.
	ErrStorage = errors.New("storage error")
)
