package model

import "errors"

var (
	// Credential errors. Unknown email and wrong password both map to
	// ErrInvalidCredentials so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")

	// Provider errors. A rejected or malformed external token is not the
	// same outcome as the provider being unreachable.
	ErrInvalidProviderToken = errors.New("invalid provider token")
	ErrProviderUnavailable  = errors.New("identity provider unavailable")

	// Session errors. Not-found, revoked and expired all collapse to
	// ErrInvalidSession at the API boundary.
	ErrInvalidSession = errors.New("invalid session")
	ErrTokenNotFound  = errors.New("refresh token not found")
	ErrTokenRevoked   = errors.New("refresh token revoked")
	ErrTokenExpired   = errors.New("refresh token expired")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
