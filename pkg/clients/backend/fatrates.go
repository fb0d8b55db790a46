package backend

import (
	"context"
	"net/http"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// FatRates loads the configured rate table.
func (c *APIClient) FatRates(ctx context.Context) (models.RateTable, error) {
	var out struct {
		FatRates models.RateTable `json:"fatRates"`
	}
	if err := c.do(ctx, http.MethodGet, "/fat-rates", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.FatRates, nil
}

// BulkUpdateFatRates replaces the whole rate table and returns what the
// backend stored.
func (c *APIClient) BulkUpdateFatRates(ctx context.Context, table models.RateTable) (models.RateTable, error) {
	if table == nil {
		table = models.RateTable{}
	}
	var out struct {
		FatRates models.RateTable `json:"fatRates"`
	}
	if err := c.do(ctx, http.MethodPut, "/fat-rates/bulk", nil, map[string]any{"fatRates": table}, &out); err != nil {
		return nil, err
	}
	return out.FatRates, nil
}
