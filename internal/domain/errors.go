package domain

import "errors"

// Every service method fails with exactly one of these. The transport layer
// maps them to HTTP statuses; nothing below it retries.
var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrSocialAccountConflict = errors.New("social account already linked to another user")
	ErrForbidden             = errors.New("user is not active")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrTokenExpired          = errors.New("token expired")
	ErrInvalidToken          = errors.New("invalid token")
)
