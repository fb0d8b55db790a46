// Package reporting aggregates collections and advances into period summaries
// and farmer statements.
package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

const (
	dateLayout = "2006-01-02"
	pageSize   = 200
)

// Source lists ledger entries from the backend.
type Source interface {
	ListCollections(ctx context.Context, q models.CollectionQuery) ([]models.CollectionEntry, backend.Pagination, error)
	ListAdvances(ctx context.Context, q backend.AdvanceQuery) ([]models.AdvanceEntry, backend.Pagination, error)
}

// Roster supplies farmer names.
type Roster interface {
	Farmers(ctx context.Context) ([]models.Farmer, error)
}

// Authorizer checks the current role.
type Authorizer interface {
	Authorize(allowed func(models.Role) bool) (models.Principal, error)
}

// Service exposes period summaries for the reports page and the scheduler.
type Service struct {
	source Source
	roster Roster
	auth   Authorizer
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(source Source, roster Roster, auth Authorizer, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{source: source, roster: roster, auth: auth, loc: loc, now: time.Now, logger: logger}
}

// Range resolves a preset against the current time in the configured zone.
func (s *Service) Range(preset Preset, customStart, customEnd string) (DateRange, error) {
	return ResolveRange(preset, s.now().In(s.loc), customStart, customEnd)
}

// Summary builds the report for a preset or custom range.
func (s *Service) Summary(ctx context.Context, preset Preset, customStart, customEnd string) (models.ReportSummary, error) {
	if _, err := s.auth.Authorize(models.CanAccessAdvancedFeatures); err != nil {
		return models.ReportSummary{}, err
	}
	r, err := s.Range(preset, customStart, customEnd)
	if err != nil {
		return models.ReportSummary{}, err
	}

	collections, err := s.collections(ctx, r.Previous().StartDate(), r.EndDate())
	if err != nil {
		return models.ReportSummary{}, err
	}
	advances, err := s.advances(ctx, r)
	if err != nil {
		return models.ReportSummary{}, err
	}
	farmers, err := s.roster.Farmers(ctx)
	if err != nil {
		return models.ReportSummary{}, fmt.Errorf("load roster: %w", err)
	}

	summary := Summarize(SummaryInput{
		Range:       r,
		Collections: collections,
		Farmers:     farmers,
		Advances:    advances,
		GeneratedAt: s.now().UTC(),
	})

	s.logger.Info("report generated",
		zap.String("preset", summary.Preset),
		zap.String("start", summary.StartDate),
		zap.String("end", summary.EndDate),
		zap.Int("collections", summary.Metrics.TotalCollections))
	return summary, nil
}

// WeeklySummary is the summary of the current week, used for scheduled
// statements.
func (s *Service) WeeklySummary(ctx context.Context) (models.ReportSummary, error) {
	return s.Summary(ctx, PresetWeek, "", "")
}

// Statement builds one farmer's statement for a preset or custom range.
func (s *Service) Statement(ctx context.Context, farmerID string, preset Preset, customStart, customEnd string) (models.FarmerStats, DateRange, error) {
	if _, err := s.auth.Authorize(models.CanAccessAdvancedFeatures); err != nil {
		return models.FarmerStats{}, DateRange{}, err
	}
	r, err := s.Range(preset, customStart, customEnd)
	if err != nil {
		return models.FarmerStats{}, DateRange{}, err
	}

	farmers, err := s.roster.Farmers(ctx)
	if err != nil {
		return models.FarmerStats{}, DateRange{}, fmt.Errorf("load roster: %w", err)
	}
	farmer := models.Farmer{ID: farmerID}
	for _, f := range farmers {
		if f.ID == farmerID {
			farmer = f
			break
		}
	}

	collections, err := s.fetchCollections(ctx, models.CollectionQuery{UserID: farmerID, StartDate: r.StartDate(), EndDate: r.EndDate()})
	if err != nil {
		return models.FarmerStats{}, DateRange{}, err
	}
	advances, err := s.fetchAdvances(ctx, backend.AdvanceQuery{UserID: farmerID, StartDate: r.StartDate(), EndDate: r.EndDate()})
	if err != nil {
		return models.FarmerStats{}, DateRange{}, err
	}
	return FarmerStatement(farmer, collections, advances, r), r, nil
}

func (s *Service) collections(ctx context.Context, start, end string) ([]models.CollectionEntry, error) {
	return s.fetchCollections(ctx, models.CollectionQuery{StartDate: start, EndDate: end})
}

func (s *Service) advances(ctx context.Context, r DateRange) ([]models.AdvanceEntry, error) {
	return s.fetchAdvances(ctx, backend.AdvanceQuery{StartDate: r.StartDate(), EndDate: r.EndDate()})
}

func (s *Service) fetchCollections(ctx context.Context, q models.CollectionQuery) ([]models.CollectionEntry, error) {
	var out []models.CollectionEntry
	q.Limit = pageSize
	for page := 1; ; page++ {
		q.Page = page
		batch, pagination, err := s.source.ListCollections(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("load collections %s..%s page %d: %w", q.StartDate, q.EndDate, page, err)
		}
		out = append(out, batch...)
		if len(batch) == 0 || page >= pagination.Pages {
			break
		}
	}
	s.logger.Debug("collections loaded", zap.Int("count", len(out)))
	return out, nil
}

func (s *Service) fetchAdvances(ctx context.Context, q backend.AdvanceQuery) ([]models.AdvanceEntry, error) {
	var out []models.AdvanceEntry
	q.Limit = pageSize
	for page := 1; ; page++ {
		q.Page = page
		batch, pagination, err := s.source.ListAdvances(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("load advances %s..%s page %d: %w", q.StartDate, q.EndDate, page, err)
		}
		out = append(out, batch...)
		if len(batch) == 0 || page >= pagination.Pages {
			break
		}
	}
	return out, nil
}
