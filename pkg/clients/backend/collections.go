package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// ListCollections returns collections matching q.
func (c *APIClient) ListCollections(ctx context.Context, q models.CollectionQuery) ([]models.CollectionEntry, Pagination, error) {
	query := pageQuery(q.Page, q.Limit)
	setIfNotEmpty(query, "userId", q.UserID)
	setIfNotEmpty(query, "startDate", q.StartDate)
	setIfNotEmpty(query, "endDate", q.EndDate)
	setIfNotEmpty(query, "sortBy", q.SortBy)
	setIfNotEmpty(query, "sortOrder", q.SortOrder)

	var out struct {
		Collections []models.CollectionEntry `json:"collections"`
		Pagination  Pagination               `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/collections", query, nil, &out); err != nil {
		return nil, Pagination{}, err
	}
	return out.Collections, out.Pagination, nil
}

// CreateCollection persists a new entry. The backend stores rate, amount and
// the manual-edit flag as sent.
func (c *APIClient) CreateCollection(ctx context.Context, entry models.CollectionEntry) (models.CollectionEntry, error) {
	return c.collectionCall(ctx, http.MethodPost, "/collections", entry)
}

// UpdateCollection replaces an existing entry.
func (c *APIClient) UpdateCollection(ctx context.Context, id string, entry models.CollectionEntry) (models.CollectionEntry, error) {
	return c.collectionCall(ctx, http.MethodPut, "/collections/"+url.PathEscape(id), entry)
}

// DeleteCollection removes an entry.
func (c *APIClient) DeleteCollection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(id), nil, nil, nil)
}

func (c *APIClient) collectionCall(ctx context.Context, method, path string, body any) (models.CollectionEntry, error) {
	var out struct {
		Collection models.CollectionEntry `json:"collection"`
	}
	err := c.do(ctx, method, path, nil, body, &out)
	return out.Collection, err
}
