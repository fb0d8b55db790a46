// Package session holds the authenticated operator, answers capability
// questions and tears the session down when the backend revokes access.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/events"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

const (
	revokedTitle   = "Access Denied"
	revokedMessage = "Your access has been revoked due to insufficient permissions. You will be logged out automatically."
)

// AuthClient is the backend surface used for the session lifecycle.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (backend.LoginResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (models.Principal, error)
}

// Store persists the profile and token.
type Store interface {
	Save(principal models.Principal, token string) error
	Profile() (models.Principal, bool)
	IsAuthenticated() bool
	Clear() error
}

// Notifier shows alerts to the operator.
type Notifier interface {
	Notify(alert models.Alert) models.Alert
}

// Reloader resets all in-memory shell state, the way a page reload would.
type Reloader interface {
	Reload()
}

// Subscriber is the part of the event bus the guard listens on.
type Subscriber interface {
	Subscribe(t events.Type, h events.Handler) (unsubscribe func())
}

// Timer is a pending deferred call.
type Timer interface {
	Stop() bool
}

// Guard owns the operator session.
type Guard struct {
	client   AuthClient
	store    Store
	notifier Notifier
	reloader Reloader
	logger   *zap.Logger

	delay     time.Duration
	afterFunc func(time.Duration, func()) Timer

	mu          sync.Mutex
	pending     Timer
	generation  uint64
	unsubscribe func()
}

// NewGuard wires a guard. delay is how long the revocation alert stays up
// before the shell reloads.
func NewGuard(client AuthClient, store Store, notifier Notifier, reloader Reloader, delay time.Duration, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		client:   client,
		store:    store,
		notifier: notifier,
		reloader: reloader,
		logger:   logger,
		delay:    delay,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
}

// Attach subscribes the guard to access revocations. Calling it again is a
// no-op until Detach.
func (g *Guard) Attach(bus Subscriber) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unsubscribe != nil {
		return
	}
	g.unsubscribe = bus.Subscribe(events.UserAccessDenied, g.onAccessDenied)
}

// Detach removes the revocation subscription.
func (g *Guard) Detach() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// IsAuthenticated reports whether both profile and token are stored.
func (g *Guard) IsAuthenticated() bool {
	return g.store.IsAuthenticated()
}

// Current returns the authenticated principal.
func (g *Guard) Current() (models.Principal, bool) {
	if !g.store.IsAuthenticated() {
		return models.Principal{}, false
	}
	return g.store.Profile()
}

// Role returns the current role, or "" when logged out.
func (g *Guard) Role() models.Role {
	p, ok := g.Current()
	if !ok {
		return ""
	}
	return p.Role
}

// Authorize returns the principal when allowed reports true for its role.
func (g *Guard) Authorize(allowed func(models.Role) bool) (models.Principal, error) {
	p, ok := g.Current()
	if !ok {
		return models.Principal{}, ErrNotAuthenticated
	}
	if allowed != nil && !allowed(p.Role) {
		return p, ErrForbidden
	}
	return p, nil
}

// Login authenticates against the backend and persists the session.
func (g *Guard) Login(ctx context.Context, username, password string) (models.Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Principal{}, ErrMissingCredentials
	}

	result, err := g.client.Login(ctx, username, password)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Status == http.StatusTooManyRequests {
				return models.Principal{}, &RateLimitError{Message: apiErr.Message}
			}
			return models.Principal{}, &AuthenticationError{Message: apiErr.Message, Status: apiErr.Status}
		}
		return models.Principal{}, fmt.Errorf("login: %w", err)
	}

	principal := models.Principal{Username: result.User.Username, Role: result.User.Role}
	if principal.Username == "" || result.Token == "" {
		return models.Principal{}, &AuthenticationError{Message: "Authentication failed", Status: http.StatusUnauthorized}
	}
	if !principal.Role.Valid() {
		return models.Principal{}, &AuthenticationError{Message: fmt.Sprintf("unsupported role %q", principal.Role), Status: http.StatusForbidden}
	}

	if err := g.store.Save(principal, result.Token); err != nil {
		return models.Principal{}, fmt.Errorf("persist session: %w", err)
	}

	g.logger.Info("operator logged in", zap.String("username", principal.Username), zap.String("role", string(principal.Role)))
	return principal, nil
}

// Logout ends the session: the backend is told on a best-effort basis, the
// stored session is always cleared, a pending forced reload is cancelled and
// the shell reloads.
func (g *Guard) Logout(ctx context.Context) error {
	g.CancelPendingReload()

	if err := g.client.Logout(ctx); err != nil {
		g.logger.Warn("logout notification failed", zap.Error(err))
	}

	clearErr := g.store.Clear()
	if clearErr != nil {
		g.logger.Error("failed to clear session", zap.Error(clearErr))
	}

	g.logger.Info("operator logged out")
	g.reload()
	return clearErr
}

// Verify asks the backend whether the stored token is still good and clears
// the session when it is not.
func (g *Guard) Verify(ctx context.Context) bool {
	if !g.store.IsAuthenticated() {
		return false
	}
	if _, err := g.client.Me(ctx); err != nil {
		g.logger.Info("stored session rejected", zap.Error(err))
		if clearErr := g.store.Clear(); clearErr != nil {
			g.logger.Error("failed to clear session", zap.Error(clearErr))
		}
		return false
	}
	return true
}

// ReloadPending reports whether a forced reload is scheduled.
func (g *Guard) ReloadPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}

// CancelPendingReload stops a scheduled forced reload. It reports whether one
// was pending.
func (g *Guard) CancelPendingReload() bool {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	if pending == nil {
		return false
	}
	pending.Stop()
	g.logger.Info("pending forced reload cancelled")
	return true
}

// onAccessDenied runs after the HTTP layer has already cleared the session.
// It raises a persistent alert and schedules a single reload.
func (g *Guard) onAccessDenied(evt events.Event) {
	payload, _ := evt.Payload.(events.AccessDenied)
	g.logger.Warn("access denied detected", zap.String("message", payload.Message), zap.Int("status", payload.Status))

	g.mu.Lock()
	if g.pending != nil {
		g.mu.Unlock()
		return
	}
	g.generation++
	generation := g.generation
	g.pending = g.afterFunc(g.delay, func() { g.fireReload(generation) })
	g.mu.Unlock()

	if g.notifier != nil {
		g.notifier.Notify(models.Alert{
			Level:      models.AlertError,
			Title:      revokedTitle,
			Message:    revokedMessage,
			Persistent: true,
		})
	}
}

func (g *Guard) fireReload(generation uint64) {
	g.mu.Lock()
	if g.pending == nil || g.generation != generation {
		g.mu.Unlock()
		return
	}
	g.pending = nil
	g.mu.Unlock()

	g.logger.Info("forcing reload after access revocation")
	g.reload()
}

func (g *Guard) reload() {
	if g.reloader != nil {
		g.reloader.Reload()
	}
}
