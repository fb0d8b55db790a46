package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/milkcenter/internal/config"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/events"
	"github.com/mamadbah2/milkcenter/internal/repository/sessionstore"
	"github.com/mamadbah2/milkcenter/internal/service/alerts"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	was := !f.stopped
	f.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) afterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every timer that has not been stopped.
func (c *fakeClock) fire() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.fn()
		}
	}
}

type countingReloader struct {
	mu    sync.Mutex
	count int
}

func (r *countingReloader) Reload() {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
}

func (r *countingReloader) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

type stubAuth struct {
	loginResult backend.LoginResult
	loginErr    error
	logoutErr   error
	meErr       error
	logoutCalls int
}

func (s *stubAuth) Login(context.Context, string, string) (backend.LoginResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubAuth) Logout(context.Context) error {
	s.logoutCalls++
	return s.logoutErr
}

func (s *stubAuth) Me(context.Context) (models.Principal, error) {
	return models.Principal{}, s.meErr
}

type harness struct {
	guard    *Guard
	store    *sessionstore.Store
	alerts   *alerts.Center
	reloader *countingReloader
	clock    *fakeClock
	bus      *events.Bus
}

func newHarness(t *testing.T, auth AuthClient) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	h := &harness{
		store:    sessionstore.New(sessionstore.NewMemoryKV(), logger),
		alerts:   alerts.NewCenter(logger),
		reloader: &countingReloader{},
		clock:    &fakeClock{},
		bus:      events.NewBus(logger),
	}
	h.guard = NewGuard(auth, h.store, h.alerts, h.reloader, 3*time.Second, logger)
	h.guard.afterFunc = h.clock.afterFunc
	h.guard.Attach(h.bus)
	return h
}

func TestLoginPersistsSession(t *testing.T) {
	auth := &stubAuth{loginResult: backend.LoginResult{
		User:  models.Principal{Username: "ravi", Role: models.RoleUser},
		Token: "token-1",
	}}
	h := newHarness(t, auth)

	p, err := h.guard.Login(context.Background(), " ravi ", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if p.Username != "ravi" || h.guard.Role() != models.RoleUser || !h.guard.IsAuthenticated() {
		t.Fatalf("unexpected session state %+v", p)
	}
	if h.store.Token() != "token-1" {
		t.Fatalf("token not stored")
	}
}

func TestLoginErrors(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name: "bad credentials",
			err:  &backend.APIError{Status: 401, Message: "Invalid credentials"},
			check: func(err error) bool {
				var authErr *AuthenticationError
				return errors.As(err, &authErr) && authErr.Status == 401 && authErr.Message == "Invalid credentials"
			},
		},
		{
			name: "rate limited",
			err:  &backend.APIError{Status: 429, Message: "Too many attempts"},
			check: func(err error) bool {
				var rl *RateLimitError
				return errors.As(err, &rl)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, &stubAuth{loginErr: tc.err})
			_, err := h.guard.Login(context.Background(), "ravi", "wrong")
			if !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
			if h.guard.IsAuthenticated() {
				t.Fatalf("failed login must not persist a session")
			}
		})
	}

	h := newHarness(t, &stubAuth{})
	if _, err := h.guard.Login(context.Background(), "", "x"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	h := newHarness(t, &stubAuth{})
	if _, err := h.guard.Authorize(models.CanModifyData); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	if err := h.store.Save(models.Principal{Username: "meena", Role: models.RoleHelper}, "tok"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.guard.Authorize(models.CanModifyData); !errors.Is(err, ErrForbidden) {
		t.Fatalf("helper must not modify data, got %v", err)
	}
	if _, err := h.guard.Authorize(nil); err != nil {
		t.Fatalf("any authenticated role passes a nil predicate: %v", err)
	}
}

func TestLogoutAlwaysClears(t *testing.T) {
	auth := &stubAuth{logoutErr: errors.New("network down")}
	h := newHarness(t, auth)
	if err := h.store.Save(models.Principal{Username: "ravi", Role: models.RoleAdmin}, "tok"); err != nil {
		t.Fatal(err)
	}

	if err := h.guard.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if auth.logoutCalls != 1 {
		t.Fatalf("server should be notified once, got %d", auth.logoutCalls)
	}
	if h.guard.IsAuthenticated() {
		t.Fatalf("session should be cleared")
	}
	if h.reloader.Count() != 1 {
		t.Fatalf("expected one reload, got %d", h.reloader.Count())
	}
}

func TestVerifyClearsRejectedSession(t *testing.T) {
	h := newHarness(t, &stubAuth{meErr: &backend.APIError{Status: 401, Message: "Invalid token"}})
	if err := h.store.Save(models.Principal{Username: "ravi", Role: models.RoleAdmin}, "tok"); err != nil {
		t.Fatal(err)
	}
	if h.guard.Verify(context.Background()) {
		t.Fatalf("verify should fail")
	}
	if h.guard.IsAuthenticated() {
		t.Fatalf("rejected session should be cleared")
	}
}

func TestForcedLogoutOnAccessRevocation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"message":"Access denied. Admin or user role required."}`))
	}))
	defer srv.Close()

	h := newHarness(t, &stubAuth{})
	if err := h.store.Save(models.Principal{Username: "ravi", Role: models.RoleUser}, "tok"); err != nil {
		t.Fatal(err)
	}

	var clearedBeforeAlert bool
	h.bus.Subscribe(events.UserAccessDenied, func(events.Event) {
		clearedBeforeAlert = h.store.Token() == ""
	})

	client := backend.NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, h.store, h.bus, logger)
	_, _, err := client.ListCollections(context.Background(), models.CollectionQuery{})

	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) || !apiErr.AccessDenied {
		t.Fatalf("expected access-denied error, got %v", err)
	}
	if !clearedBeforeAlert {
		t.Fatalf("token must be cleared before subscribers run")
	}
	if h.guard.IsAuthenticated() {
		t.Fatalf("session should be gone immediately")
	}

	list := h.alerts.List()
	if len(list) != 1 || !list[0].Persistent || list[0].Title != "Access Denied" {
		t.Fatalf("expected one persistent alert, got %+v", list)
	}
	if err := h.alerts.Dismiss(list[0].ID); !errors.Is(err, alerts.ErrPersistent) {
		t.Fatalf("alert must not be dismissible, got %v", err)
	}

	// A second denial while the countdown runs must not schedule another reload.
	_, _, _ = client.ListCollections(context.Background(), models.CollectionQuery{})

	if len(h.clock.timers) != 1 || h.clock.timers[0].delay != 3*time.Second {
		t.Fatalf("expected a single 3s timer, got %d", len(h.clock.timers))
	}
	if h.reloader.Count() != 0 {
		t.Fatalf("reload must wait for the delay")
	}

	h.clock.fire()
	h.clock.fire()
	if h.reloader.Count() != 1 {
		t.Fatalf("expected exactly one reload, got %d", h.reloader.Count())
	}
	if h.guard.ReloadPending() {
		t.Fatalf("no reload should remain pending")
	}
}

func TestLogoutCancelsPendingReload(t *testing.T) {
	h := newHarness(t, &stubAuth{})
	h.bus.Publish(events.UserAccessDenied, events.AccessDenied{Message: backend.AccessDeniedMessage, Status: 403, Timestamp: time.Now()})

	if !h.guard.ReloadPending() {
		t.Fatalf("reload should be pending")
	}
	if err := h.guard.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	h.clock.fire()

	if h.reloader.Count() != 1 {
		t.Fatalf("only the logout reload should run, got %d", h.reloader.Count())
	}
}

func TestAttachIsIdempotent(t *testing.T) {
	h := newHarness(t, &stubAuth{})
	h.guard.Attach(h.bus)
	if n := h.bus.Subscribers(events.UserAccessDenied); n != 1 {
		t.Fatalf("expected one subscription, got %d", n)
	}
	h.guard.Detach()
	if n := h.bus.Subscribers(events.UserAccessDenied); n != 0 {
		t.Fatalf("expected no subscriptions, got %d", n)
	}
}
