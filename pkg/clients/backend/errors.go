package backend

import (
	"fmt"
	"strings"
)

const (
	// AccessDeniedMessage is the exact body message the backend sends when the
	// operator's role has been revoked.
	AccessDeniedMessage = "Access denied. Admin or user role required."

	// RevokedMessage is what callers see after a revocation.
	RevokedMessage = "Your access has been revoked. Please contact an administrator for reactivation."
)

// FieldError is one entry of a 400 response's errors array. The backend uses
// several validator libraries, so the field name and text can arrive under
// different keys.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Path    string `json:"path,omitempty"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
	Msg     string `json:"msg,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Name returns the offending field.
func (f FieldError) Name() string {
	for _, v := range []string{f.Field, f.Path, f.Param} {
		if v != "" {
			return v
		}
	}
	return "unknown"
}

// Text returns the validation message.
func (f FieldError) Text() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Msg != "" {
		return f.Msg
	}
	return "Invalid value"
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status       int
	Message      string
	Errors       []FieldError
	AccessDenied bool
	Method       string
	Path         string
}

func (e *APIError) Error() string {
	return e.Message
}

// Describe renders the error with request context for logs.
func (e *APIError) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: status=%d message=%q", e.Method, e.Path, e.Status, e.Message)
	if e.AccessDenied {
		b.WriteString(" access_denied=true")
	}
	if len(e.Errors) > 0 {
		fmt.Fprintf(&b, " field_errors=%d", len(e.Errors))
	}
	return b.String()
}

// IsValidation reports whether the error carries field errors.
func (e *APIError) IsValidation() bool {
	return e.Status == 400 && len(e.Errors) > 0
}
