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

	// Admission gate errors
	ErrRateLimitExceeded = errors.New("too many requests")

	// MFA state errors
	ErrMFANotEnabled     = errors.New("MFA is not enabled for this account")
	ErrMFAInvalidCode    = errors.New("invalid MFA token")
	ErrMFAAccountLocked  = errors.New("account is temporarily locked")
	ErrMFAInvalidMethod  = errors.New("invalid MFA method for this operation")
	ErrMFADeliveryFailed = errors.New("failed to deliver MFA token")
)
