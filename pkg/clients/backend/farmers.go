package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// FarmerQuery filters farmer listings.
type FarmerQuery struct {
	Search string
	Page   int
	Limit  int
}

// ListFarmers returns one page of farmers.
func (c *APIClient) ListFarmers(ctx context.Context, q FarmerQuery) ([]models.Farmer, Pagination, error) {
	query := pageQuery(q.Page, q.Limit)
	setIfNotEmpty(query, "search", q.Search)

	var out struct {
		Users      []models.Farmer `json:"users"`
		Pagination Pagination      `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", query, nil, &out); err != nil {
		return nil, Pagination{}, err
	}
	return out.Users, out.Pagination, nil
}

// GetFarmer fetches one farmer.
func (c *APIClient) GetFarmer(ctx context.Context, id string) (models.Farmer, error) {
	return c.farmerCall(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil)
}

// CreateFarmer registers a farmer.
func (c *APIClient) CreateFarmer(ctx context.Context, in models.FarmerInput) (models.Farmer, error) {
	return c.farmerCall(ctx, http.MethodPost, "/users", in)
}

// UpdateFarmer edits a farmer.
func (c *APIClient) UpdateFarmer(ctx context.Context, id string, in models.FarmerInput) (models.Farmer, error) {
	return c.farmerCall(ctx, http.MethodPut, "/users/"+url.PathEscape(id), in)
}

// DeleteFarmer removes a farmer.
func (c *APIClient) DeleteFarmer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, nil)
}

// DeactivateFarmer blocks new collections and advances for a farmer.
func (c *APIClient) DeactivateFarmer(ctx context.Context, id, reason string) (models.Farmer, error) {
	return c.farmerCall(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/deactivate", map[string]string{"reason": reason})
}

// ReactivateFarmer lifts a deactivation.
func (c *APIClient) ReactivateFarmer(ctx context.Context, id string) (models.Farmer, error) {
	return c.farmerCall(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/reactivate", nil)
}

// FarmerActivation returns the activation status of a farmer.
func (c *APIClient) FarmerActivation(ctx context.Context, id string) (models.ActivationStatus, error) {
	var out models.ActivationStatus
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id)+"/activation-status", nil, nil, &out)
	return out, err
}

func (c *APIClient) farmerCall(ctx context.Context, method, path string, body any) (models.Farmer, error) {
	var out struct {
		User models.Farmer `json:"user"`
	}
	err := c.do(ctx, method, path, nil, body, &out)
	return out.User, err
}
