package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrCycleDetected indicates the account group parent relation is not acyclic.
var ErrCycleDetected = errors.New("cycle detected in account group hierarchy")

// ErrOrphanReference indicates a group or account references a nonexistent parent or group.
var ErrOrphanReference = errors.New("reference to nonexistent parent or group")

// ErrUnsupportedUnit indicates a booking carries a unit kind the core does not know.
// It must be surfaced rather than dropped, since dropping would misstate a balance.
var ErrUnsupportedUnit = errors.New("unsupported booking unit kind")

// ErrMissingPrice indicates no market price is available for a unit at the requested date.
var ErrMissingPrice = errors.New("no price available for unit")

// ErrStoreTimeout indicates the ledger store did not answer within the deadline.
// Retryable; never to be treated as a zero balance.
var ErrStoreTimeout = errors.New("ledger store timed out")

// ErrStoreUnavailable indicates the ledger store is unreachable.
var ErrStoreUnavailable = errors.New("ledger store unavailable")
