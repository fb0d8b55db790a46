package backend

import (
	"context"
	"net/http"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// LoginResult is the payload of a successful login.
type LoginResult struct {
	User  models.Principal `json:"user"`
	Token string           `json:"token"`
}

// Login exchanges credentials for a principal and bearer token.
func (c *APIClient) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"username": username,
		"password": password,
	}, &out)
	return out, err
}

// Logout tells the backend the session ends.
func (c *APIClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, map[string]any{}, nil)
}

// Me returns the principal the current token belongs to.
func (c *APIClient) Me(ctx context.Context) (models.Principal, error) {
	var out struct {
		User models.Principal `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out)
	return out.User, err
}
