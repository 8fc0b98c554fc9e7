// Package common defines shared constants and sentinel errors used across
// client and server layers of the wallet application. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors: caller-supplied data failed a precondition.
	// No state mutation happens when one of these is returned.
	ErrorValidation    = errors.New("validation error")
	ErrorAlreadyExists = errors.New("already exists")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrAuthenticationFailed is the terminal error a caller sees after a
	// failed token refresh forced a logout.
	ErrAuthenticationFailed = errors.New("authentication failed")
)
