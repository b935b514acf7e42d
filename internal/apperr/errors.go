package apperr

import "errors"

// Invalid is returned when the input fails domain validation.
var Invalid = errors.New("invalid input")

// OutOfRange is returned when supplied coordinates fail bounds validation.
// Rejected at the boundary before any storage is touched.
var OutOfRange = errors.New("coordinates out of range")

// NotFound indicates that the requested courier/order does not exist
// or has no current record.
var NotFound = errors.New("not found")

// InvalidTransition indicates that the requested delivery-status change
// is not legal from the current state. No partial write occurs.
var InvalidTransition = errors.New("invalid status transition")

// StaleWrite marks a location report older than the one already stored.
// It is dropped as an idempotent no-op, never surfaced to external callers.
var StaleWrite = errors.New("stale write")

// ProviderUnavailable indicates the external routing provider failed or
// timed out. Always recovered locally via the fallback estimator.
var ProviderUnavailable = errors.New("routing provider unavailable")
