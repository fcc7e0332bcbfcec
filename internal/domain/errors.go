package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation. The wrapped message names every missing or invalid field.
// Validation always fails before any transaction is opened.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrTxConflict is returned when the backing store could not commit a
// transaction (lock conflict, serialization failure, constraint violation, or
// timeout). No partial state persists; the caller may retry at its discretion.
// Handlers should map this to HTTP 409 Conflict.
var ErrTxConflict = errors.New("transaction conflict")

// ErrNoOpTransfer is returned when a key transfer targets the user who
// already holds the key. User-correctable, not a system fault.
// Handlers should map this to HTTP 409 Conflict.
var ErrNoOpTransfer = errors.New("target already holds the key")

// ErrForbidden is returned when a custody resolution is attempted by anyone
// other than the designated recipient.
// Handlers should map this to HTTP 403 Forbidden.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyResolved is returned when resolving a custody node whose status
// is no longer PENDING. Resolution is exactly-once; callers that treat this
// as success-already-applied are safe to do so, but the engine reports it
// distinctly. Handlers should map this to HTTP 409 Conflict.
var ErrAlreadyResolved = errors.New("transfer already resolved")
