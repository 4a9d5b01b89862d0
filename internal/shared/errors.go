package shared

import "errors"

var (
	// ErrNotFound reports a record unknown to the backend or to the session.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials reports a login the backend rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired reports a stored bearer token past its expiry.
	ErrSessionExpired = errors.New("session expired")
)
