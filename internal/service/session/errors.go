package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means no complete session is stored.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden means the current role may not perform the action.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrMissingCredentials is returned when username or password is blank.
	ErrMissingCredentials = errors.New("username and password are required")
)

// AuthenticationError is a rejected login.
type AuthenticationError struct {
	Message string
	Status  int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (%d): %s", e.Status, e.Message)
}

// RateLimitError is a login refused with 429.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.Message
}
