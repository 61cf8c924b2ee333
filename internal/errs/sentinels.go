// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates failed authentication. Unknown user and wrong
	// password both map here so responses never reveal account existence.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAccountLocked indicates a temporary lockout after repeated failures.
	// Kept distinct from ErrUnauthorized for audit detail; the HTTP response
	// stays generic.
	ErrAccountLocked = errors.New("account locked")

	// ErrForbidden indicates a valid identity lacking the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput indicates a request payload that failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrVersionConflict indicates optimistic concurrency failure (guarded update matched no row).
	ErrVersionConflict = errors.New("version conflict")
)
