package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication hardening errors. ErrChallengeExpired is kept distinct
	// from ErrUnauthorized for audit logs only; both surface to clients as
	// the same generic authentication failure.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrChallengeExpired  = errors.New("mfa challenge expired or invalid")

	// Account state errors
	ErrAccountDisabled  = errors.New("account is disabled")
	ErrAccountSuspended = errors.New("account is suspended")
	ErrEmailNotVerified = errors.New("email address not verified")
)
