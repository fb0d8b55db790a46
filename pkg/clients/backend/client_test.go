package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/milkcenter/internal/config"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/events"
)

type fakeCreds struct {
	token   string
	cleared int
}

func (f *fakeCreds) Token() string { return f.token }

func (f *fakeCreds) Clear() error {
	f.token = ""
	f.cleared++
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*APIClient, *fakeCreds, *events.Bus) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	creds := &fakeCreds{token: "tok-123"}
	bus := events.NewBus(zaptest.NewLogger(t))
	client := NewClient(config.BackendConfig{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, creds, bus, zaptest.NewLogger(t))
	return client, creds, bus
}

func TestNormalizeIdentity(t *testing.T) {
	in := map[string]any{
		"_id": "a1",
		"items": []any{
			map[string]any{"_id": "b1", "nested": map[string]any{"_id": "c1", "name": "x"}},
			"plain",
		},
		"empty": map[string]any{"_id": ""},
	}
	want := map[string]any{
		"id": "a1",
		"items": []any{
			map[string]any{"id": "b1", "nested": map[string]any{"id": "c1", "name": "x"}},
			"plain",
		},
		"empty": map[string]any{"_id": ""},
	}
	if got := NormalizeIdentity(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected normalization:\n got %#v\nwant %#v", got, want)
	}
	if _, ok := in["id"]; ok {
		t.Fatalf("input must not be mutated")
	}
}

func TestListFarmersSendsTokenAndNormalizesIDs(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing request id")
		}
		if r.URL.Query().Get("limit") != "1000" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"users":[{"_id":"f1","name":"Ravi","isActive":false}],"pagination":{"current":1,"pages":1,"total":1}}}`))
	})

	farmers, page, err := client.ListFarmers(context.Background(), FarmerQuery{Limit: 1000})
	if err != nil {
		t.Fatalf("list farmers: %v", err)
	}
	if len(farmers) != 1 || farmers[0].ID != "f1" || farmers[0].Active() {
		t.Fatalf("unexpected farmers %+v", farmers)
	}
	if page.Total != 1 {
		t.Fatalf("unexpected pagination %+v", page)
	}
}

func TestAccessDeniedClearsSessionBeforePublishing(t *testing.T) {
	client, creds, bus := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"message":"Access denied. Admin or user role required."}`))
	})

	var published []events.AccessDenied
	bus.Subscribe(events.UserAccessDenied, func(evt events.Event) {
		if creds.token != "" {
			t.Errorf("token must be cleared before subscribers run")
		}
		published = append(published, evt.Payload.(events.AccessDenied))
	})

	_, err := client.FatRates(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.AccessDenied || apiErr.Status != http.StatusForbidden || apiErr.Message != RevokedMessage {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if creds.cleared != 1 {
		t.Fatalf("expected session cleared once, got %d", creds.cleared)
	}
	if len(published) != 1 || published[0].Message != AccessDeniedMessage || published[0].Status != 403 || published[0].Timestamp.IsZero() {
		t.Fatalf("unexpected events %+v", published)
	}
}

func TestOtherForbiddenDoesNotRevoke(t *testing.T) {
	client, creds, bus := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"message":"Forbidden"}`))
	})
	bus.Subscribe(events.UserAccessDenied, func(events.Event) { t.Errorf("unexpected revocation event") })

	err := client.DeleteCollection(context.Background(), "c1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.AccessDenied || apiErr.Message != "Forbidden" {
		t.Fatalf("unexpected error %v", err)
	}
	if creds.cleared != 0 {
		t.Fatalf("session must stay")
	}
}

func TestValidationErrors(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"path":"liters","msg":"Liters is required"},{"field":"amount","message":"Amount must be positive"}]}`))
	})

	_, err := client.CreateCollection(context.Background(), models.CollectionEntry{UserID: "f1"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsValidation() {
		t.Fatalf("expected validation error, got %v", err)
	}
	if apiErr.Message != "Validation failed" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
	if apiErr.Errors[0].Name() != "liters" || apiErr.Errors[0].Text() != "Liters is required" {
		t.Fatalf("unexpected first field error %+v", apiErr.Errors[0])
	}
	if apiErr.Errors[1].Name() != "amount" || apiErr.Errors[1].Text() != "Amount must be positive" {
		t.Fatalf("unexpected second field error %+v", apiErr.Errors[1])
	}
}

func TestInvalidResponseFormat(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	err := client.Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Invalid response format" || apiErr.Status != http.StatusBadGateway {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestBulkUpdateFatRates(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/fat-rates/bulk" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"fatRates":[{"_id":"r1","fatPercentage":3.5,"rate":35},{"_id":"r2","fatPercentage":4,"rate":40.5}]}}`))
	})

	table, err := client.BulkUpdateFatRates(context.Background(), models.RateTable{{FatPercentage: 3.5, Rate: 35}})
	if err != nil {
		t.Fatalf("bulk update: %v", err)
	}
	if len(table) != 2 || table[1].Rate != 40.5 {
		t.Fatalf("unexpected table %+v", table)
	}
}
