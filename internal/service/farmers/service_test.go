package farmers

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/milkcenter/internal/apperror"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/events"
	"github.com/mamadbah2/milkcenter/internal/service/session"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

type stubAuth struct{ role models.Role }

func (s stubAuth) Authorize(allowed func(models.Role) bool) (models.Principal, error) {
	if s.role == "" {
		return models.Principal{}, session.ErrNotAuthenticated
	}
	p := models.Principal{Username: "op", Role: s.role}
	if allowed != nil && !allowed(s.role) {
		return p, session.ErrForbidden
	}
	return p, nil
}

type stubBackend struct {
	calls   []string
	reason  string
	created models.FarmerInput
}

func (b *stubBackend) ListFarmers(context.Context, backend.FarmerQuery) ([]models.Farmer, backend.Pagination, error) {
	b.calls = append(b.calls, "list")
	return []models.Farmer{{ID: "f1"}}, backend.Pagination{Pages: 1}, nil
}

func (b *stubBackend) GetFarmer(_ context.Context, id string) (models.Farmer, error) {
	b.calls = append(b.calls, "get")
	return models.Farmer{ID: id, Name: "Asha"}, nil
}

func (b *stubBackend) FarmerActivation(context.Context, string) (models.ActivationStatus, error) {
	b.calls = append(b.calls, "status")
	return models.ActivationStatus{IsActive: false, DeactivationReason: "Moved away"}, nil
}

func (b *stubBackend) CreateFarmer(_ context.Context, in models.FarmerInput) (models.Farmer, error) {
	b.calls = append(b.calls, "create")
	b.created = in
	return models.Farmer{ID: "f9", Name: in.Name}, nil
}

func (b *stubBackend) UpdateFarmer(_ context.Context, id string, in models.FarmerInput) (models.Farmer, error) {
	b.calls = append(b.calls, "update")
	return models.Farmer{ID: id, Name: in.Name}, nil
}

func (b *stubBackend) DeleteFarmer(context.Context, string) error {
	b.calls = append(b.calls, "delete")
	return nil
}

func (b *stubBackend) DeactivateFarmer(_ context.Context, id, reason string) (models.Farmer, error) {
	b.calls = append(b.calls, "deactivate")
	b.reason = reason
	return models.Farmer{ID: id, Name: "Asha"}, nil
}

func (b *stubBackend) ReactivateFarmer(_ context.Context, id string) (models.Farmer, error) {
	b.calls = append(b.calls, "reactivate")
	inactive := false
	return models.Farmer{ID: id, Name: "Asha", IsActive: &inactive, DeactivationReason: "old"}, nil
}

func validInput() models.FarmerInput {
	return models.FarmerInput{Name: " Asha Devi ", PhoneNumber: "+91 98765 43210", Address: "12 Temple Road"}
}

func TestCreateValidatesAndPublishes(t *testing.T) {
	bus := events.NewBus(nil)
	var got []events.Type
	bus.Subscribe(events.UserUpdated, func(e events.Event) { got = append(got, e.Type) })

	b := &stubBackend{}
	svc := NewService(b, stubAuth{role: models.RoleAdmin}, bus, zaptest.NewLogger(t))

	farmer, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if farmer.ID != "f9" || b.created.Name != "Asha Devi" {
		t.Fatalf("input should be trimmed, got %+v", b.created)
	}
	if len(got) != 1 {
		t.Fatalf("expected one user_updated event, got %v", got)
	}

	_, err = svc.Create(context.Background(), models.FarmerInput{Name: "A", PhoneNumber: "abc", Address: "x"})
	parsed := apperror.Parse(err, apperror.Options{})
	if parsed.Type != apperror.TypeValidation || len(parsed.ValidationErrors) != 3 {
		t.Fatalf("expected three field errors, got %+v", parsed)
	}
	if len(b.calls) != 1 {
		t.Fatalf("invalid input must not reach the backend: %v", b.calls)
	}
}

func TestHelperCannotManageRoster(t *testing.T) {
	b := &stubBackend{}
	svc := NewService(b, stubAuth{role: models.RoleHelper}, nil, nil)

	if _, err := svc.Create(context.Background(), validInput()); !errors.Is(err, session.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), "f1"); !errors.Is(err, session.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, _, err := svc.List(context.Background(), backend.FarmerQuery{}); err != nil {
		t.Fatalf("helpers may list: %v", err)
	}
	if len(b.calls) != 1 || b.calls[0] != "list" {
		t.Fatalf("unexpected backend calls %v", b.calls)
	}
}

func TestDeactivateAndReactivate(t *testing.T) {
	bus := events.NewBus(nil)
	var payloads []events.FarmerChanged
	record := func(e events.Event) { payloads = append(payloads, e.Payload.(events.FarmerChanged)) }
	bus.Subscribe(events.UserDeactivated, record)
	bus.Subscribe(events.UserReactivated, record)

	b := &stubBackend{}
	svc := NewService(b, stubAuth{role: models.RoleUser}, bus, nil)

	farmer, err := svc.Deactivate(context.Background(), "f1", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if farmer.Active() || b.reason != DefaultDeactivationReason {
		t.Fatalf("unexpected deactivation %+v reason=%q", farmer, b.reason)
	}

	farmer, err = svc.Reactivate(context.Background(), "f1")
	if err != nil {
		t.Fatal(err)
	}
	if !farmer.Active() || farmer.DeactivationReason != "" || farmer.DeactivatedAt != nil {
		t.Fatalf("reactivation must clear deactivation fields: %+v", farmer)
	}
	if len(payloads) != 2 || payloads[0].UserID != "f1" || payloads[0].UserName != "Asha" {
		t.Fatalf("unexpected payloads %+v", payloads)
	}
}

func TestActiveFarmers(t *testing.T) {
	no, yes := false, true
	list := []models.Farmer{{ID: "a"}, {ID: "b", IsActive: &no}, {ID: "c", IsActive: &yes}}
	got := ActiveFarmers(list)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestGetAndStatusAllowHelpers(t *testing.T) {
	b := &stubBackend{}
	svc := NewService(b, stubAuth{role: models.RoleHelper}, nil, nil)

	farmer, err := svc.Get(context.Background(), "f1")
	if err != nil || farmer.Name != "Asha" {
		t.Fatalf("get: %+v %v", farmer, err)
	}
	status, err := svc.Status(context.Background(), "f1")
	if err != nil || status.IsActive || status.DeactivationReason != "Moved away" {
		t.Fatalf("status: %+v %v", status, err)
	}

	if _, err := NewService(b, stubAuth{}, nil, nil).Get(context.Background(), "f1"); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
