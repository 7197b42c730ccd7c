package errs

import "errors"

// Sentinel errors shared by the record stores and the sync core.
//
// ErrRemoteUnavailable is infra-internal: the stores absorb it by falling
// back to the local path and never return it to callers.
var (
	// Record errors
	ErrNotFound         = errors.New("record not found")
	ErrValidationFailed = errors.New("validation failed")

	// Sync errors
	ErrRemoteUnavailable = errors.New("remote backend unavailable")

	// Auth errors
	ErrInvalidCredentials = errors.New("invalid credentials")
)
