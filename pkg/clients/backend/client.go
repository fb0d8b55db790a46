package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/config"
	"github.com/mamadbah2/milkcenter/internal/events"
)

// Credentials hands out the bearer token and tears the stored session down
// when the backend revokes access.
type Credentials interface {
	Token() string
	Clear() error
}

// Publisher is the part of the event bus the client needs.
type Publisher interface {
	Publish(t events.Type, payload any)
}

// APIClient is a resty-backed client for the cooperative backend.
type APIClient struct {
	httpClient *resty.Client
	creds      Credentials
	publisher  Publisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient builds a backend client using the provided configuration values.
func NewClient(cfg config.BackendConfig, creds Credentials, publisher Publisher, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &APIClient{
		httpClient: restyClient,
		creds:      creds,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []FieldError    `json:"errors"`
}

// Pagination mirrors the backend list metadata.
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body any, data any) error {
	req := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())

	if c.creds != nil {
		if token := c.creds.Token(); token != "" {
			req.SetAuthToken(token)
		}
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}

	c.logger.Debug("backend call completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", resp.Time()))

	return c.handleResponse(method, path, resp.StatusCode(), resp.Body(), data)
}

func (c *APIClient) handleResponse(method, path string, status int, body []byte, data any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &APIError{Status: status, Message: "Invalid response format", Method: method, Path: path}
	}

	if status >= http.StatusBadRequest {
		apiErr := &APIError{Status: status, Message: env.Message, Method: method, Path: path}

		switch {
		case status == http.StatusForbidden && env.Message == AccessDeniedMessage:
			c.revokeAccess(env.Message, status)
			apiErr.Message = RevokedMessage
			apiErr.AccessDenied = true
		case status == http.StatusBadRequest && len(env.Errors) > 0:
			apiErr.Errors = env.Errors
			if apiErr.Message == "" {
				apiErr.Message = "Validation failed"
			}
		case apiErr.Message == "":
			apiErr.Message = "An error occurred"
		}

		c.logger.Warn("backend call failed", zap.String("error", apiErr.Describe()))
		return apiErr
	}

	if data == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	normalized, err := normalizeBody(env.Data)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err := json.Unmarshal(normalized, data); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}

// revokeAccess clears the stored session before anyone is told about the
// revocation, so calls made by subscribers already run unauthenticated.
func (c *APIClient) revokeAccess(message string, status int) {
	if c.creds != nil {
		if err := c.creds.Clear(); err != nil {
			c.logger.Error("failed to clear session after access revocation", zap.Error(err))
		}
	}

	c.logger.Warn("backend revoked access", zap.Int("status", status))

	if c.publisher != nil {
		c.publisher.Publish(events.UserAccessDenied, events.AccessDenied{
			Message:   message,
			Status:    status,
			Timestamp: c.now().UTC(),
		})
	}
}

// Health pings the backend.
func (c *APIClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
