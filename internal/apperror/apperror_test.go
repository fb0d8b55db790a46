package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/mamadbah2/milkcenter/internal/service/session"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

func TestParseStatusTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   Type
	}{
		{401, TypeAuth},
		{403, TypeAuth},
		{400, TypeValidation},
		{422, TypeValidation},
		{404, TypeClient},
		{429, TypeClient},
		{500, TypeServer},
		{503, TypeServer},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			got := Parse(&backend.APIError{Status: tc.status, Message: "boom"}, Options{Context: "collections"})
			if got.Type != tc.want || got.StatusCode != tc.status || got.Message != "boom" || got.Context != "collections" {
				t.Fatalf("unexpected %+v", got)
			}
		})
	}
}

func TestParseValidationFields(t *testing.T) {
	err := fmt.Errorf("submit: %w", &backend.APIError{
		Status:  400,
		Message: "Validation failed",
		Errors: []backend.FieldError{
			{Path: "fatPercentage", Message: "Fat percentage must be between 0.1 and 10"},
			{Field: "userId", Message: "User is required"},
			{Param: "date", Msg: "Invalid date format"},
			{Field: "amount", Message: "weird", Type: "custom"},
			{Msg: "nope"},
		},
	})

	got := Parse(err, Options{})
	if got.Type != TypeValidation || len(got.ValidationErrors) != 5 {
		t.Fatalf("unexpected %+v", got)
	}
	want := []ValidationError{
		{Field: "Fat Percentage", Message: "Fat percentage must be between 0.1 and 10", Type: "range"},
		{Field: "User Id", Message: "User is required", Type: "required"},
		{Field: "Date", Message: "Invalid date format", Type: "format"},
		{Field: "Amount", Message: "weird", Type: "custom"},
		{Field: "Unknown", Message: "nope", Type: "custom"},
	}
	for i, w := range want {
		if got.ValidationErrors[i] != w {
			t.Fatalf("field %d: got %+v want %+v", i, got.ValidationErrors[i], w)
		}
	}
	if !IsValidation(err) {
		t.Fatalf("IsValidation should hold")
	}
}

func TestParseTransportFailures(t *testing.T) {
	netErr := &url.Error{Op: "Get", URL: "http://backend/api", Err: errors.New("connection refused")}
	got := Parse(fmt.Errorf("backend GET /collections: %w", netErr), Options{})
	if got.Type != TypeNetwork || got.StatusCode != 0 || got.Message != NetworkMessage {
		t.Fatalf("unexpected %+v", got)
	}

	got = Parse(fmt.Errorf("call: %w", context.DeadlineExceeded), Options{})
	if got.Type != TypeNetwork || got.StatusCode != 408 || got.Message != TimeoutMessage {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestParseLocalAndSessionErrors(t *testing.T) {
	got := Parse(Validation("Please provide a description"), Options{})
	if got.Type != TypeValidation || got.StatusCode != 400 || got.Message != "Please provide a description" {
		t.Fatalf("unexpected %+v", got)
	}

	if got := Parse(session.ErrForbidden, Options{}); got.StatusCode != 403 || got.Type != TypeAuth {
		t.Fatalf("unexpected %+v", got)
	}
	if got := Parse(session.ErrNotAuthenticated, Options{}); got.StatusCode != 401 {
		t.Fatalf("unexpected %+v", got)
	}
	if got := Parse(errors.New(""), Options{Fallback: "Could not save"}); got.Message != "Could not save" || got.Type != TypeUnknown {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestAccessDeniedPredicate(t *testing.T) {
	revoked := &backend.APIError{Status: 403, Message: backend.RevokedMessage, AccessDenied: true}
	plain := &backend.APIError{Status: 403, Message: "Forbidden"}

	if !IsAccessDenied(revoked) || IsAccessDenied(plain) {
		t.Fatalf("only revocations are access-denied")
	}
	if !IsAuth(plain) || IsServer(plain) || IsNetwork(plain) {
		t.Fatalf("plain 403 is an auth error")
	}
}

func TestForLogin(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		wantTitle string
		wantMsg   string
	}{
		{"bad password", &session.AuthenticationError{Status: 401, Message: "Invalid credentials"}, "Authentication Failed", "Invalid credentials"},
		{"deactivated", &session.AuthenticationError{Status: 403}, "Access Denied", "Access denied. Your account may be deactivated."},
		{"rate limited", &session.RateLimitError{}, "Rate Limited", "Too many login attempts. Please try again later."},
		{"server", &backend.APIError{Status: 500, Message: "stack trace"}, "Server Error", "Server error occurred. Please try again later or contact support."},
		{"offline", &url.Error{Op: "Post", URL: "x", Err: errors.New("no route")}, "Connection Failed", "Network error. Please check your internet connection and try again."},
		{"teapot", &backend.APIError{Status: 418, Message: "short and stout"}, "Login Failed", "short and stout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ForLogin(tc.err)
			if got.Title != tc.wantTitle || got.Message != tc.wantMsg {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestHumanizeField(t *testing.T) {
	for in, want := range map[string]string{
		"fatPercentage": "Fat Percentage",
		"liters":        "Liters",
		"userName":      "User Name",
		"":              "",
	} {
		if got := HumanizeField(in); got != want {
			t.Fatalf("HumanizeField(%q) = %q, want %q", in, got, want)
		}
	}
}
