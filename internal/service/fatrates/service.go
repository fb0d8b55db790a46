// Package fatrates administers the fat-rate table.
package fatrates

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/apperror"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/service/rates"
)

const (
	MinFatPercentage = 0.1
	MaxFatPercentage = 10
	MinRate          = 0.01
)

// Backend loads and replaces the table.
type Backend interface {
	FatRates(ctx context.Context) (models.RateTable, error)
	BulkUpdateFatRates(ctx context.Context, table models.RateTable) (models.RateTable, error)
}

// Cache is the page-scoped copy of the table used by collection entry.
type Cache interface {
	SetRates(table models.RateTable)
}

// Authorizer checks the current role.
type Authorizer interface {
	Authorize(allowed func(models.Role) bool) (models.Principal, error)
}

// Service loads, edits and saves the table.
type Service struct {
	backend Backend
	cache   Cache
	auth    Authorizer
	logger  *zap.Logger
}

// NewService wires a fat-rate service.
func NewService(b Backend, cache Cache, auth Authorizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: b, cache: cache, auth: auth, logger: logger}
}

// Load fetches the table sorted ascending.
func (s *Service) Load(ctx context.Context) (models.RateTable, error) {
	if _, err := s.auth.Authorize(models.CanAccessAdvancedFeatures); err != nil {
		return nil, err
	}
	table, err := s.backend.FatRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fat rates: %w", err)
	}
	table = table.Normalize()
	if s.cache != nil {
		s.cache.SetRates(table)
	}
	return table, nil
}

// Save replaces the whole table on the backend and returns it sorted.
func (s *Service) Save(ctx context.Context, table models.RateTable) (models.RateTable, error) {
	if _, err := s.auth.Authorize(models.CanAccessAdvancedFeatures); err != nil {
		return nil, err
	}
	saved, err := s.backend.BulkUpdateFatRates(ctx, table.Sorted())
	if err != nil {
		return nil, fmt.Errorf("save fat rates: %w", err)
	}
	if len(saved) == 0 {
		saved = table
	}
	saved = saved.Normalize()
	if s.cache != nil {
		s.cache.SetRates(saved)
	}
	s.logger.Info("fat rates saved", zap.Int("count", len(saved)))
	return saved, nil
}

// SaveRate adds or edits one entry and saves the table. editing is the fat
// percentage of the row being edited, or nil for a new row. The returned
// message is the confirmation shown to the operator.
func (s *Service) SaveRate(ctx context.Context, rate models.FatRate, editing *float64) (models.RateTable, string, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	next, updated, err := Upsert(current, rate, editing)
	if err != nil {
		return nil, "", err
	}
	saved, err := s.Save(ctx, next)
	if err != nil {
		return nil, "", err
	}
	verb := "added"
	if updated {
		verb = "updated"
	}
	return saved, fmt.Sprintf("Fat rate for %s%% %s successfully!", rates.FormatFat(rate.FatPercentage), verb), nil
}

// RemoveRate deletes the entry for fat and saves the table.
func (s *Service) RemoveRate(ctx context.Context, fat float64) (models.RateTable, string, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	saved, err := s.Save(ctx, Delete(current, fat))
	if err != nil {
		return nil, "", err
	}
	return saved, fmt.Sprintf("Fat rate for %s%% deleted successfully.", rates.FormatFat(fat)), nil
}

// Validate checks one entry against the table it is about to join.
func Validate(table models.RateTable, rate models.FatRate, editing *float64) error {
	var fields []apperror.ValidationError
	switch {
	case rate.FatPercentage < MinFatPercentage || rate.FatPercentage > MaxFatPercentage:
		fields = append(fields, apperror.ValidationError{Field: "Fat Percentage", Message: "Fat percentage must be between 0.1 and 10", Type: "range"})
	default:
		if _, exists := table.Find(rate.FatPercentage); exists && (editing == nil || *editing != rate.FatPercentage) {
			fields = append(fields, apperror.ValidationError{Field: "Fat Percentage", Message: "Fat percentage already exists", Type: "custom"})
		}
	}
	if rate.Rate < MinRate {
		fields = append(fields, apperror.ValidationError{Field: "Rate", Message: "Rate must be greater than 0", Type: "range"})
	}
	if len(fields) > 0 {
		return apperror.Validation(fields[0].Message, fields...)
	}
	return nil
}

// Upsert validates rate and merges it into table. It reports whether an
// existing row was replaced.
func Upsert(table models.RateTable, rate models.FatRate, editing *float64) (models.RateTable, bool, error) {
	if err := Validate(table, rate, editing); err != nil {
		return nil, false, err
	}
	if editing != nil {
		if _, ok := table.Find(*editing); ok {
			return table.Replace(*editing, rate), true, nil
		}
	}
	_, exists := table.Find(rate.FatPercentage)
	return table.Upsert(rate), exists, nil
}

// Delete drops the row for fat.
func Delete(table models.RateTable, fat float64) models.RateTable {
	return table.Remove(fat)
}
