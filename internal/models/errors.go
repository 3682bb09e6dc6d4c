package models

import "errors"

// Sentinel errors shared across repositories, services, and handlers.
// Handlers map these onto HTTP status codes.
var (
	// ErrNotFound is returned when a departure, group, or person id does not
	// exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input fails business-rule validation
	// before any store call is made (empty required field, non-positive
	// duration, out-of-range extension hours).
	ErrValidation = errors.New("validation error")

	// ErrStoreUnavailable is returned when the backing spreadsheet cannot be
	// reached or a required worksheet is missing. The current operation
	// aborts; no partial write is assumed committed.
	ErrStoreUnavailable = errors.New("store unavailable")
)
