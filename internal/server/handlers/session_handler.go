package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/apperror"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/service/alerts"
	"github.com/mamadbah2/milkcenter/internal/service/session"
)

// SessionService is the part of the session guard the API exposes.
type SessionService interface {
	Login(ctx context.Context, username, password string) (models.Principal, error)
	Logout(ctx context.Context) error
	Current() (models.Principal, bool)
}

// AlertFeed lists and dismisses operator alerts.
type AlertFeed interface {
	List() []models.Alert
	Dismiss(id string) error
}

// SessionHandler serves login, logout, the current session and alerts.
type SessionHandler struct {
	sessions SessionService
	alerts   AlertFeed
	logger   *zap.Logger
}

// NewSessionHandler constructs the session endpoints.
func NewSessionHandler(sessions SessionService, alerts AlertFeed, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{sessions: sessions, alerts: alerts, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User         models.Principal        `json:"user"`
	Capabilities models.Capabilities     `json:"capabilities"`
	Navigation   []models.NavigationItem `json:"navigation"`
}

func newSessionResponse(p models.Principal) sessionResponse {
	return sessionResponse{
		User:         p,
		Capabilities: models.CapabilitiesFor(p.Role),
		Navigation:   models.Navigation(p.Role),
	}
}

// Login authenticates the operator.
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, apperror.ForLogin(session.ErrMissingCredentials))
		return
	}

	principal, err := h.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		msg := apperror.ForLogin(err)
		status := msg.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		c.JSON(status, msg)
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(principal))
}

// Logout ends the session. It succeeds even when the backend call fails.
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, "logout")
		return
	}
	c.Status(http.StatusNoContent)
}

// Current returns the stored principal with its capabilities and menu.
func (h *SessionHandler) Current(c *gin.Context) {
	principal, ok := h.sessions.Current()
	if !ok {
		respondError(c, h.logger, session.ErrNotAuthenticated, "session")
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(principal))
}

// Alerts lists the current alerts.
func (h *SessionHandler) Alerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": h.alerts.List()})
}

// DismissAlert removes a dismissible alert.
func (h *SessionHandler) DismissAlert(c *gin.Context) {
	if err := h.alerts.Dismiss(c.Param("id")); err != nil {
		respondError(c, h.logger, alertError(err), "dismiss alert")
		return
	}
	c.Status(http.StatusNoContent)
}

func alertError(err error) error {
	switch {
	case errors.Is(err, alerts.ErrNotFound):
		return &apperror.Error{Type: apperror.TypeClient, Status: http.StatusNotFound, Message: "Alert not found", Err: err}
	case errors.Is(err, alerts.ErrPersistent):
		return &apperror.Error{Type: apperror.TypeClient, Status: http.StatusConflict, Message: "This alert cannot be dismissed", Err: err}
	}
	return err
}
