// Package common defines shared constants and sentinel errors used across
// chatrelay components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Credential errors produced by the auth gate. Each one is fatal to the
	// current request or connection attempt, never to the process.
	ErrCredentialMissing = errors.New("credential missing")
	ErrCredentialInvalid = errors.New("credential invalid")
	ErrCredentialExpired = errors.New("credential expired")
	ErrUnknownSubject    = errors.New("unknown subject")

	// Validation errors on the registration/login flow.
	ErrorPasswordMismatch = errors.New("passwords do not match")
)
