package models

import "time"

// AlertLevel is the severity of an operator alert.
type AlertLevel string

const (
	AlertSuccess AlertLevel = "success"
	AlertInfo    AlertLevel = "info"
	AlertWarning AlertLevel = "warning"
	AlertError   AlertLevel = "error"
)

// Alert is a notification shown to the operator. Persistent alerts cannot be
// dismissed and stay until the shell reloads.
type Alert struct {
	ID         string     `json:"id"`
	Level      AlertLevel `json:"level"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Persistent bool       `json:"persistent"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// OutboundMessageRequest represents a text pushed to a phone number.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}
