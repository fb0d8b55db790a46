package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// Sender delivers WhatsApp messages.
type Sender interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MessageHandler lets an admin push a manual WhatsApp message to a farmer.
type MessageHandler struct {
	svc    Sender
	auth   Authorizer
	logger *zap.Logger
}

// NewMessageHandler constructs the HTTP handler adapter.
func NewMessageHandler(svc Sender, auth Authorizer, logger *zap.Logger) *MessageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageHandler{svc: svc, auth: auth, logger: logger}
}

// SendMessage sends one outbound text.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	if _, err := h.auth.Authorize(models.IsAdmin); err != nil {
		respondError(c, h.logger, err, "send message")
		return
	}

	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		respondError(c, h.logger, errInvalidBody, "send message")
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Unable to send message", "type": "server", "statusCode": http.StatusBadGateway})
		return
	}

	c.Status(http.StatusAccepted)
}
