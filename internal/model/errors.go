package model

import "errors"

// Common errors used across the application
var (
	// Storage errors
	ErrAlreadyExists = errors.New("record already exists")
	ErrNotFound      = errors.New("record not found")

	// Authorization errors
	ErrInvalidAuth       = errors.New("invalid authorization")
	ErrCredentialInvalid = errors.New("invalid or expired session credential")

	// Session errors
	ErrInvalidRealm         = errors.New("invalid realm name")
	ErrNoActiveSession      = errors.New("no active session")
	ErrSessionAlreadyActive = errors.New("session is already active")
	ErrSessionStillActive   = errors.New("session is still active")
	ErrInvalidAction        = errors.New("invalid session action")

	// Custody errors
	ErrNotDelegated     = errors.New("session is not delegated")
	ErrAlreadyDelegated = errors.New("session is already delegated")
	ErrAlreadySettled   = errors.New("session snapshot already settled")
)
