package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// AdvanceQuery filters advance listings.
type AdvanceQuery struct {
	UserID    string
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

// ListAdvances returns advances and repayments matching q.
func (c *APIClient) ListAdvances(ctx context.Context, q AdvanceQuery) ([]models.AdvanceEntry, Pagination, error) {
	query := pageQuery(q.Page, q.Limit)
	setIfNotEmpty(query, "userId", q.UserID)
	setIfNotEmpty(query, "startDate", q.StartDate)
	setIfNotEmpty(query, "endDate", q.EndDate)

	var out struct {
		Advances   []models.AdvanceEntry `json:"advances"`
		Pagination Pagination            `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/advances", query, nil, &out); err != nil {
		return nil, Pagination{}, err
	}
	return out.Advances, out.Pagination, nil
}

// CreateAdvance persists an advance or repayment.
func (c *APIClient) CreateAdvance(ctx context.Context, entry models.AdvanceEntry) (models.AdvanceEntry, error) {
	var out struct {
		Advance models.AdvanceEntry `json:"advance"`
	}
	err := c.do(ctx, http.MethodPost, "/advances", nil, entry, &out)
	return out.Advance, err
}

// DeleteAdvance removes an advance.
func (c *APIClient) DeleteAdvance(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/advances/"+url.PathEscape(id), nil, nil, nil)
}
