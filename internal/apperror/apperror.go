// Package apperror turns any failure of a backend call or a local check into
// the message, status and field list shown to the operator.
package apperror

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/service/session"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

// Type classifies a failure.
type Type string

const (
	TypeValidation Type = "validation"
	TypeNetwork    Type = "network"
	TypeAuth       Type = "auth"
	TypeServer     Type = "server"
	TypeClient     Type = "client"
	TypeUnknown    Type = "unknown"
)

const (
	NetworkMessage  = "Network error. Please check your connection and try again."
	TimeoutMessage  = "Request timed out. Please try again."
	FallbackMessage = "An unexpected error occurred"
)

// ValidationError is one offending field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ParsedError is the normalized form of an error.
type ParsedError struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors,omitempty"`
	StatusCode       int               `json:"statusCode"`
	Type             Type              `json:"type"`
	Context          string            `json:"context,omitempty"`
}

// Options tunes Parse.
type Options struct {
	Context  string
	Fallback string
	Logger   *zap.Logger
}

// Error is a failure raised locally, before or instead of a backend call.
type Error struct {
	Type    Type
	Status  int
	Message string
	Fields  []ValidationError
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a local validation failure.
func Validation(message string, fields ...ValidationError) *Error {
	return &Error{Type: TypeValidation, Status: http.StatusBadRequest, Message: message, Fields: fields}
}

// Reject is a validation failure that still matches cause with errors.Is.
func Reject(cause error, message string) *Error {
	return &Error{Type: TypeValidation, Status: http.StatusBadRequest, Message: message, Err: cause}
}

// Deny is a permission failure that still matches cause with errors.Is.
func Deny(cause error, message string) *Error {
	return &Error{Type: TypeAuth, Status: http.StatusForbidden, Message: message, Err: cause}
}

// Parse converts err into a ParsedError. Nothing is retried.
func Parse(err error, opts Options) ParsedError {
	fallback := opts.Fallback
	if fallback == "" {
		fallback = FallbackMessage
	}
	if err == nil {
		return ParsedError{Message: fallback, StatusCode: http.StatusInternalServerError, Type: TypeUnknown, Context: opts.Context}
	}

	if opts.Logger != nil {
		opts.Logger.Warn("operation failed", zap.String("context", opts.Context), zap.Error(err))
	}

	parsed := parse(err, fallback)
	parsed.Context = opts.Context
	return parsed
}

func parse(err error, fallback string) ParsedError {
	var local *Error
	if errors.As(err, &local) {
		return ParsedError{Message: local.Message, ValidationErrors: local.Fields, StatusCode: local.Status, Type: local.Type}
	}

	var authErr *session.AuthenticationError
	if errors.As(err, &authErr) {
		return ParsedError{Message: authErr.Message, StatusCode: authErr.Status, Type: TypeFromStatus(authErr.Status)}
	}

	var rateErr *session.RateLimitError
	if errors.As(err, &rateErr) {
		return ParsedError{Message: rateErr.Message, StatusCode: http.StatusTooManyRequests, Type: TypeClient}
	}

	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		return ParsedError{Message: "Please enter both username and password", StatusCode: http.StatusBadRequest, Type: TypeValidation}
	case errors.Is(err, session.ErrNotAuthenticated):
		return ParsedError{Message: "Please log in to continue.", StatusCode: http.StatusUnauthorized, Type: TypeAuth}
	case errors.Is(err, session.ErrForbidden):
		return ParsedError{Message: "You do not have permission to perform this action.", StatusCode: http.StatusForbidden, Type: TypeAuth}
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		out := ParsedError{Message: apiErr.Message, StatusCode: apiErr.Status, Type: TypeFromStatus(apiErr.Status)}
		if len(apiErr.Errors) > 0 {
			out.Type = TypeValidation
			out.ValidationErrors = make([]ValidationError, 0, len(apiErr.Errors))
			for _, fe := range apiErr.Errors {
				out.ValidationErrors = append(out.ValidationErrors, ValidationError{
					Field:   HumanizeField(fe.Name()),
					Message: fe.Text(),
					Type:    validationType(fe),
				})
			}
		}
		if out.Message == "" {
			out.Message = fallback
		}
		return out
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ParsedError{Message: TimeoutMessage, StatusCode: http.StatusRequestTimeout, Type: TypeNetwork}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ParsedError{Message: TimeoutMessage, StatusCode: http.StatusRequestTimeout, Type: TypeNetwork}
		}
		return ParsedError{Message: NetworkMessage, StatusCode: 0, Type: TypeNetwork}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ParsedError{Message: NetworkMessage, StatusCode: 0, Type: TypeNetwork}
	}

	message := err.Error()
	if message == "" {
		message = fallback
	}
	return ParsedError{Message: message, StatusCode: http.StatusInternalServerError, Type: TypeUnknown}
}

// TypeFromStatus maps an HTTP status onto the taxonomy.
func TypeFromStatus(status int) Type {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return TypeAuth
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return TypeValidation
	case status >= 400 && status < 500:
		return TypeClient
	case status >= 500:
		return TypeServer
	case status == 0:
		return TypeNetwork
	}
	return TypeUnknown
}

func validationType(fe backend.FieldError) string {
	if fe.Type != "" {
		return fe.Type
	}
	switch {
	case strings.Contains(fe.Msg, "required") || strings.Contains(fe.Message, "required"):
		return "required"
	case strings.Contains(fe.Msg, "format") || strings.Contains(fe.Message, "format"):
		return "format"
	case strings.Contains(fe.Msg, "range") || strings.Contains(fe.Message, "between"):
		return "range"
	}
	return "custom"
}

// HumanizeField turns a camelCase field name into words: fatPercentage
// becomes "Fat Percentage".
func HumanizeField(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// LoginMessage is the title and text shown for a failed login.
type LoginMessage struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// ForLogin picks the login failure wording for err.
func ForLogin(err error) LoginMessage {
	parsed := Parse(err, Options{Context: "login"})
	out := LoginMessage{Title: "Login Failed", Message: "Login failed. Please try again.", StatusCode: parsed.StatusCode}

	switch parsed.StatusCode {
	case http.StatusUnauthorized:
		out.Title = "Authentication Failed"
		out.Message = orDefault(parsed.Message, "Invalid username or password. Please check your credentials.")
	case http.StatusForbidden:
		out.Title = "Access Denied"
		out.Message = orDefault(parsed.Message, "Access denied. Your account may be deactivated.")
	case http.StatusTooManyRequests:
		out.Title = "Rate Limited"
		out.Message = orDefault(parsed.Message, "Too many login attempts. Please try again later.")
	case http.StatusInternalServerError:
		out.Title = "Server Error"
		out.Message = "Server error occurred. Please try again later or contact support."
	case 0:
		out.Title = "Connection Failed"
		out.Message = "Network error. Please check your internet connection and try again."
	default:
		out.Message = orDefault(parsed.Message, out.Message)
	}
	return out
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return err != nil && parse(err, "").Type == TypeValidation }

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool { return err != nil && parse(err, "").Type == TypeNetwork }

// IsAuth reports whether err is an authentication or authorization failure.
func IsAuth(err error) bool { return err != nil && parse(err, "").Type == TypeAuth }

// IsServer reports whether err is a backend 5xx.
func IsServer(err error) bool { return err != nil && parse(err, "").Type == TypeServer }

// IsAccessDenied reports whether err is the revocation that forces a logout.
func IsAccessDenied(err error) bool {
	var apiErr *backend.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden && apiErr.AccessDenied
}
