package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. Every authentication
	// failure path collapses into this error so responses never reveal
	// whether an identifier exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoSession indicates no session token at a protected boundary.
	ErrNoSession = errors.New("no session")
	// ErrTokenExpired indicates the session token is past its expiry.
	ErrTokenExpired = errors.New("session token expired")
	// ErrRoleMismatch indicates an authenticated identity whose role does not
	// match the dashboard it tried to enter.
	ErrRoleMismatch = errors.New("role mismatch")
	// ErrProviderUnavailable indicates the credential store could not be
	// reached in time.
	ErrProviderUnavailable = errors.New("credential store unavailable")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
