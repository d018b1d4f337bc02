package domain

import "errors"

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session errors
var (
	// ErrSessionNotFound means no active refresh session exists for the user.
	// The session store is the source of truth, not the token's own expiry.
	ErrSessionNotFound = errors.New("refresh session not found")
)

// Post errors
var (
	ErrPostNotFound = errors.New("post not found")
	ErrForbidden    = errors.New("caller may not act on this resource")
)
