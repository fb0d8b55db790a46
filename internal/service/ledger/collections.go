package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/apperror"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/events"
	"github.com/mamadbah2/milkcenter/internal/service/rates"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

const (
	minLiters = 0.1
	maxLiters = 1000
	minFat    = 0.1
	maxFat    = 15
	minAmount = 0.01
)

// ListCollections returns collections matching q. Helpers only ever see
// today's entries.
func (s *Service) ListCollections(ctx context.Context, q models.CollectionQuery) ([]models.CollectionEntry, backend.Pagination, error) {
	principal, err := s.auth.Authorize(nil)
	if err != nil {
		return nil, backend.Pagination{}, err
	}
	if models.IsHelper(principal.Role) {
		today := s.Today()
		q.StartDate, q.EndDate = today, today
	}
	entries, page, err := s.backend.ListCollections(ctx, q)
	if err != nil {
		return nil, backend.Pagination{}, fmt.Errorf("list collections: %w", err)
	}
	return entries, page, nil
}

// PreviewCollection prices the form as the operator types it, honouring the
// amount mode they picked.
func (s *Service) PreviewCollection(ctx context.Context, d rates.Draft) (rates.Preview, error) {
	if _, err := s.auth.Authorize(nil); err != nil {
		return rates.Preview{}, err
	}
	table, err := s.workspace.Rates(ctx)
	if err != nil {
		return rates.Preview{}, err
	}
	return rates.PreviewDraft(d, table), nil
}

// SubmitCollection records a new collection. The rate is resolved from an
// exact table entry and stored with the entry.
func (s *Service) SubmitCollection(ctx context.Context, in models.CollectionInput) (models.CollectionEntry, error) {
	principal, err := s.auth.Authorize(nil)
	if err != nil {
		return models.CollectionEntry{}, err
	}
	if models.IsHelper(principal.Role) && s.sameDay && strings.TrimSpace(in.Date) != s.Today() {
		return models.CollectionEntry{}, apperror.Deny(ErrPastEntry, "Helpers can only record collections for today.")
	}

	entry, farmer, err := s.prepare(ctx, in, "add")
	if err != nil {
		return models.CollectionEntry{}, err
	}

	saved, err := s.backend.CreateCollection(ctx, entry)
	if err != nil {
		return models.CollectionEntry{}, fmt.Errorf("create collection: %w", err)
	}

	s.logger.Info("collection recorded",
		zap.String("collection_id", saved.ID),
		zap.String("farmer_id", saved.UserID),
		zap.Float64("liters", saved.Liters),
		zap.Bool("manual", saved.IsManuallyEdited))
	s.publishCollection(saved, in.UserID, "created")
	s.sendReceipt(ctx, farmer, saved)
	return saved, nil
}

// UpdateCollection edits an existing collection.
func (s *Service) UpdateCollection(ctx context.Context, id string, in models.CollectionInput) (models.CollectionEntry, error) {
	if _, err := s.auth.Authorize(models.CanModifyData); err != nil {
		return models.CollectionEntry{}, err
	}

	entry, _, err := s.prepare(ctx, in, "update")
	if err != nil {
		return models.CollectionEntry{}, err
	}
	entry.ID = id

	saved, err := s.backend.UpdateCollection(ctx, id, entry)
	if err != nil {
		return models.CollectionEntry{}, fmt.Errorf("update collection %s: %w", id, err)
	}
	s.logger.Info("collection updated", zap.String("collection_id", id))
	s.publishCollection(saved, in.UserID, "updated")
	return saved, nil
}

// DeleteCollection removes a collection.
func (s *Service) DeleteCollection(ctx context.Context, id string) error {
	if _, err := s.auth.Authorize(models.CanModifyData); err != nil {
		return err
	}
	if err := s.backend.DeleteCollection(ctx, id); err != nil {
		return fmt.Errorf("delete collection %s: %w", id, err)
	}
	s.logger.Info("collection deleted", zap.String("collection_id", id))
	s.publishCollection(models.CollectionEntry{ID: id}, "", "deleted")
	return nil
}

// prepare runs every local check and builds the entry to send. No ledger
// call is made before it succeeds.
func (s *Service) prepare(ctx context.Context, in models.CollectionInput, action string) (models.CollectionEntry, models.Farmer, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	if err := validateCollection(in); err != nil {
		return models.CollectionEntry{}, models.Farmer{}, err
	}

	farmer, err := s.activeFarmer(ctx, in.UserID, action, "collection")
	if err != nil {
		return models.CollectionEntry{}, models.Farmer{}, err
	}

	table, err := s.workspace.Rates(ctx)
	if err != nil {
		return models.CollectionEntry{}, models.Farmer{}, err
	}
	rate, err := rates.ResolveExact(in.FatPercentage, table)
	if err != nil {
		return models.CollectionEntry{}, models.Farmer{}, apperror.Reject(err, err.Error())
	}

	return models.CollectionEntry{
		UserID:           in.UserID,
		UserName:         farmer.Name,
		Date:             in.Date,
		Time:             in.Time,
		Liters:           in.Liters,
		FatPercentage:    in.FatPercentage,
		Rate:             rate,
		Amount:           in.Amount,
		IsManuallyEdited: rates.DetectManualEdit(in.Amount, in.Liters, rate),
	}, farmer, nil
}

func validateCollection(in models.CollectionInput) error {
	var fields []apperror.ValidationError
	add := func(field, msg, kind string) {
		fields = append(fields, apperror.ValidationError{Field: field, Message: msg, Type: kind})
	}

	if in.UserID == "" {
		add("User Id", "Please select a farmer", "required")
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		add("Date", "Please enter a valid date", "format")
	}
	if _, err := time.Parse(timeLayout, in.Time); err != nil {
		add("Time", "Please enter a valid time", "format")
	}
	if !finite(in.Liters) || in.Liters < minLiters || in.Liters > maxLiters {
		add("Liters", "Liters must be between 0.1 and 1000", "range")
	}
	if !finite(in.FatPercentage) || in.FatPercentage < minFat || in.FatPercentage > maxFat {
		add("Fat Percentage", "Fat percentage must be between 0.1 and 15", "range")
	}
	if !finite(in.Amount) || in.Amount < minAmount {
		add("Amount", "Amount must be at least 0.01", "range")
	}

	if len(fields) > 0 {
		return apperror.Validation("Validation failed", fields...)
	}
	return nil
}

// NaN compares false against every bound, so range checks alone let it through.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *Service) publishCollection(entry models.CollectionEntry, userID, action string) {
	if s.publisher == nil {
		return
	}
	if entry.UserID != "" {
		userID = entry.UserID
	}
	s.publisher.Publish(events.CollectionUpdated, events.CollectionChanged{ID: entry.ID, UserID: userID, Action: action})
}

func (s *Service) sendReceipt(ctx context.Context, farmer models.Farmer, entry models.CollectionEntry) {
	if s.receipts == nil {
		return
	}
	if err := s.receipts.SendCollectionReceipt(ctx, farmer, entry); err != nil {
		s.logger.Warn("collection receipt not sent", zap.String("farmer_id", farmer.ID), zap.Error(err))
	}
}
