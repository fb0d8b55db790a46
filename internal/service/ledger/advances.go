package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/apperror"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/service/rates"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

// ListAdvances returns advances and repayments matching q.
func (s *Service) ListAdvances(ctx context.Context, q backend.AdvanceQuery) ([]models.AdvanceEntry, backend.Pagination, error) {
	if _, err := s.auth.Authorize(models.CanAccessAdvancedFeatures); err != nil {
		return nil, backend.Pagination{}, err
	}
	entries, page, err := s.backend.ListAdvances(ctx, q)
	if err != nil {
		return nil, backend.Pagination{}, fmt.Errorf("list advances: %w", err)
	}
	return entries, page, nil
}

// RecordAdvance stores an advance (positive amount) or a repayment
// (negative amount).
func (s *Service) RecordAdvance(ctx context.Context, in models.AdvanceInput) (models.AdvanceEntry, error) {
	if _, err := s.auth.Authorize(models.CanAccessAdvancedFeatures); err != nil {
		return models.AdvanceEntry{}, err
	}

	if in.Amount == 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return models.AdvanceEntry{}, apperror.Validation("Please enter a valid amount (cannot be zero)")
	}
	farmer, err := s.activeFarmer(ctx, strings.TrimSpace(in.UserID), "add", "advance")
	if err != nil {
		return models.AdvanceEntry{}, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return models.AdvanceEntry{}, apperror.Validation("Please provide a description")
	}

	date := s.now().UTC()
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}

	saved, err := s.backend.CreateAdvance(ctx, models.AdvanceEntry{
		UserID:      farmer.ID,
		UserName:    farmer.Name,
		Amount:      in.Amount,
		Date:        date,
		Description: description,
	})
	if err != nil {
		return models.AdvanceEntry{}, fmt.Errorf("create advance: %w", err)
	}

	s.logger.Info("advance recorded",
		zap.String("advance_id", saved.ID),
		zap.String("farmer_id", farmer.ID),
		zap.String("kind", saved.Kind()),
		zap.Float64("amount", saved.Amount))
	return saved, nil
}

// DeleteAdvance removes an advance or repayment.
func (s *Service) DeleteAdvance(ctx context.Context, id string) error {
	if _, err := s.auth.Authorize(models.CanModifyData); err != nil {
		return err
	}
	if err := s.backend.DeleteAdvance(ctx, id); err != nil {
		return fmt.Errorf("delete advance %s: %w", id, err)
	}
	s.logger.Info("advance deleted", zap.String("advance_id", id))
	return nil
}

// SummarizeAdvances totals a list of advances. TotalRepaid is positive.
func SummarizeAdvances(entries []models.AdvanceEntry) models.AdvanceSummary {
	out := models.AdvanceSummary{ByFarmer: make(map[string]float64)}
	for _, a := range entries {
		out.NetBalance += a.Amount
		if a.Amount > 0 {
			out.TotalAdvanced += a.Amount
		} else {
			out.TotalRepaid += -a.Amount
		}
		out.ByFarmer[a.UserID] += a.Amount
	}
	out.NetBalance = rates.RoundMoney(out.NetBalance)
	out.TotalAdvanced = rates.RoundMoney(out.TotalAdvanced)
	out.TotalRepaid = rates.RoundMoney(out.TotalRepaid)
	for id, v := range out.ByFarmer {
		out.ByFarmer[id] = rates.RoundMoney(v)
	}
	return out
}
