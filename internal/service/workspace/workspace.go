// Package workspace caches the reference data a page works with: the fat-rate
// table and the farmer roster. Nothing survives a reload.
package workspace

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/events"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

const rosterPageSize = 100

// Source loads reference data from the backend.
type Source interface {
	FatRates(ctx context.Context) (models.RateTable, error)
	ListFarmers(ctx context.Context, q backend.FarmerQuery) ([]models.Farmer, backend.Pagination, error)
}

// Subscriber is the part of the event bus the workspace listens on.
type Subscriber interface {
	Subscribe(t events.Type, h events.Handler) (unsubscribe func())
}

// Workspace lazily loads and holds the rate table and roster.
type Workspace struct {
	source Source
	logger *zap.Logger

	mu            sync.Mutex
	rates         models.RateTable
	ratesLoaded   bool
	farmers       []models.Farmer
	farmersLoaded bool
	unsubscribe   []func()
}

// New creates an empty workspace.
func New(source Source, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{source: source, logger: logger}
}

// Attach drops cached data whenever another part of the shell reports a
// change to it.
func (w *Workspace) Attach(bus Subscriber) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.unsubscribe) > 0 {
		return
	}
	roster := func(events.Event) { w.InvalidateFarmers() }
	for _, t := range []events.Type{events.UserUpdated, events.UserDeleted, events.UserDeactivated, events.UserReactivated} {
		w.unsubscribe = append(w.unsubscribe, bus.Subscribe(t, roster))
	}
	w.unsubscribe = append(w.unsubscribe, bus.Subscribe(events.DataRefreshNeeded, func(events.Event) { w.Reset() }))
}

// Rates returns the table sorted ascending, loading it on first use.
func (w *Workspace) Rates(ctx context.Context) (models.RateTable, error) {
	w.mu.Lock()
	if w.ratesLoaded {
		out := w.rates.Sorted()
		w.mu.Unlock()
		return out, nil
	}
	w.mu.Unlock()

	table, err := w.source.FatRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fat rates: %w", err)
	}
	table = table.Normalize()
	w.SetRates(table)
	w.logger.Debug("fat rates loaded", zap.Int("count", len(table)))
	return table.Sorted(), nil
}

// SetRates replaces the cached table, typically after a save.
func (w *Workspace) SetRates(table models.RateTable) {
	w.mu.Lock()
	w.rates = table.Sorted()
	w.ratesLoaded = true
	w.mu.Unlock()
}

// Farmers returns the full roster, loading every page on first use.
func (w *Workspace) Farmers(ctx context.Context) ([]models.Farmer, error) {
	w.mu.Lock()
	if w.farmersLoaded {
		out := append([]models.Farmer(nil), w.farmers...)
		w.mu.Unlock()
		return out, nil
	}
	w.mu.Unlock()

	var roster []models.Farmer
	for page := 1; ; page++ {
		batch, pagination, err := w.source.ListFarmers(ctx, backend.FarmerQuery{Page: page, Limit: rosterPageSize})
		if err != nil {
			return nil, fmt.Errorf("load farmers page %d: %w", page, err)
		}
		roster = append(roster, batch...)
		if len(batch) == 0 || page >= pagination.Pages {
			break
		}
	}

	w.mu.Lock()
	w.farmers = roster
	w.farmersLoaded = true
	w.mu.Unlock()

	w.logger.Debug("farmer roster loaded", zap.Int("count", len(roster)))
	return append([]models.Farmer(nil), roster...), nil
}

// Farmer looks id up in the roster.
func (w *Workspace) Farmer(ctx context.Context, id string) (models.Farmer, bool, error) {
	roster, err := w.Farmers(ctx)
	if err != nil {
		return models.Farmer{}, false, err
	}
	for _, f := range roster {
		if f.ID == id {
			return f, true, nil
		}
	}
	return models.Farmer{}, false, nil
}

// InvalidateFarmers forgets the roster.
func (w *Workspace) InvalidateFarmers() {
	w.mu.Lock()
	w.farmers = nil
	w.farmersLoaded = false
	w.mu.Unlock()
}

// Reset forgets everything.
func (w *Workspace) Reset() {
	w.mu.Lock()
	w.rates = nil
	w.ratesLoaded = false
	w.farmers = nil
	w.farmersLoaded = false
	w.mu.Unlock()
}
