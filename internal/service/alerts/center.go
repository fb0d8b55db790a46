// Package alerts keeps the notifications shown to the operator.
package alerts

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// ErrPersistent is returned when dismissing an alert that cannot be dismissed.
var ErrPersistent = errors.New("alert cannot be dismissed")

// ErrNotFound is returned for unknown alert ids.
var ErrNotFound = errors.New("alert not found")

// Center is an in-memory alert feed. It is reset when the shell reloads.
type Center struct {
	mu     sync.Mutex
	alerts []models.Alert
	logger *zap.Logger
	now    func() time.Time
}

// NewCenter creates an empty feed.
func NewCenter(logger *zap.Logger) *Center {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Center{logger: logger, now: time.Now}
}

// Notify appends an alert and returns it with its id set.
func (c *Center) Notify(alert models.Alert) models.Alert {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = c.now().UTC()
	}

	c.mu.Lock()
	c.alerts = append(c.alerts, alert)
	c.mu.Unlock()

	c.logger.Info("alert raised",
		zap.String("level", string(alert.Level)),
		zap.String("title", alert.Title),
		zap.Bool("persistent", alert.Persistent))
	return alert
}

// Error raises an error alert.
func (c *Center) Error(title, message string) models.Alert {
	return c.Notify(models.Alert{Level: models.AlertError, Title: title, Message: message})
}

// Success raises a success alert.
func (c *Center) Success(message string) models.Alert {
	return c.Notify(models.Alert{Level: models.AlertSuccess, Title: "Success", Message: message})
}

// List returns the current alerts, oldest first.
func (c *Center) List() []models.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

// Dismiss removes a non-persistent alert.
func (c *Center) Dismiss(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, a := range c.alerts {
		if a.ID != id {
			continue
		}
		if a.Persistent {
			return ErrPersistent
		}
		c.alerts = append(c.alerts[:i], c.alerts[i+1:]...)
		return nil
	}
	return ErrNotFound
}

// Reset drops every alert, persistent ones included.
func (c *Center) Reset() {
	c.mu.Lock()
	c.alerts = nil
	c.mu.Unlock()
}
