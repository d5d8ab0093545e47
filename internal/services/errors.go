package services

import (
	"errors"
	"fmt"

	"eventdesk/internal/models"
)

// ErrNoAPIKey is returned when a provider call is attempted without a stored key.
var ErrNoAPIKey = errors.New("no API key found")

// ValidationError rejects a key before any state changes.
type ValidationError struct {
	Provider models.Provider
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s API key format", e.Provider)
}

// AuthError reports a provider rejecting the stored key (HTTP 401). The key
// has already been removed when this is returned.
type AuthError struct {
	Provider models.Provider
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("invalid %s API key", e.Provider)
}

func (e *AuthError) Unwrap() error { return e.Err }

// SaveError is returned by an explicit save that did not reach the backend
// or that the backend refused.
type SaveError struct {
	Message string
	Err     error
}

func (e *SaveError) Error() string { return e.Message }

func (e *SaveError) Unwrap() error { return e.Err }
