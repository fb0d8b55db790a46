// Package farmers manages the cooperative's supplier roster.
package farmers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/apperror"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/events"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

// DefaultDeactivationReason is recorded when the operator gives none.
const DefaultDeactivationReason = "Deactivated by admin"

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,15}$`)

// Backend is the roster part of the backend API.
type Backend interface {
	ListFarmers(ctx context.Context, q backend.FarmerQuery) ([]models.Farmer, backend.Pagination, error)
	GetFarmer(ctx context.Context, id string) (models.Farmer, error)
	FarmerActivation(ctx context.Context, id string) (models.ActivationStatus, error)
	CreateFarmer(ctx context.Context, in models.FarmerInput) (models.Farmer, error)
	UpdateFarmer(ctx context.Context, id string, in models.FarmerInput) (models.Farmer, error)
	DeleteFarmer(ctx context.Context, id string) error
	DeactivateFarmer(ctx context.Context, id, reason string) (models.Farmer, error)
	ReactivateFarmer(ctx context.Context, id string) (models.Farmer, error)
}

// Authorizer checks the current role.
type Authorizer interface {
	Authorize(allowed func(models.Role) bool) (models.Principal, error)
}

// Publisher fans roster changes out to the shell.
type Publisher interface {
	Publish(t events.Type, payload any)
}

// Service wraps roster calls with permission checks, validation and events.
type Service struct {
	backend   Backend
	auth      Authorizer
	publisher Publisher
	logger    *zap.Logger
}

// NewService wires a roster service.
func NewService(b Backend, auth Authorizer, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: b, auth: auth, publisher: publisher, logger: logger}
}

// List returns one page of farmers. Any authenticated role may list.
func (s *Service) List(ctx context.Context, q backend.FarmerQuery) ([]models.Farmer, backend.Pagination, error) {
	if _, err := s.auth.Authorize(nil); err != nil {
		return nil, backend.Pagination{}, err
	}
	return s.backend.ListFarmers(ctx, q)
}

// Get returns one farmer.
func (s *Service) Get(ctx context.Context, id string) (models.Farmer, error) {
	if _, err := s.auth.Authorize(nil); err != nil {
		return models.Farmer{}, err
	}
	farmer, err := s.backend.GetFarmer(ctx, id)
	if err != nil {
		return models.Farmer{}, fmt.Errorf("get farmer %s: %w", id, err)
	}
	return farmer, nil
}

// Status asks the backend whether a farmer is active.
func (s *Service) Status(ctx context.Context, id string) (models.ActivationStatus, error) {
	if _, err := s.auth.Authorize(nil); err != nil {
		return models.ActivationStatus{}, err
	}
	status, err := s.backend.FarmerActivation(ctx, id)
	if err != nil {
		return models.ActivationStatus{}, fmt.Errorf("farmer %s activation status: %w", id, err)
	}
	return status, nil
}

// Create registers a farmer.
func (s *Service) Create(ctx context.Context, in models.FarmerInput) (models.Farmer, error) {
	if _, err := s.auth.Authorize(models.CanModifyData); err != nil {
		return models.Farmer{}, err
	}
	in, err := Validate(in)
	if err != nil {
		return models.Farmer{}, err
	}

	farmer, err := s.backend.CreateFarmer(ctx, in)
	if err != nil {
		return models.Farmer{}, fmt.Errorf("create farmer: %w", err)
	}
	s.logger.Info("farmer created", zap.String("farmer_id", farmer.ID))
	s.publish(events.UserUpdated, farmer)
	return farmer, nil
}

// Update edits a farmer's details.
func (s *Service) Update(ctx context.Context, id string, in models.FarmerInput) (models.Farmer, error) {
	if _, err := s.auth.Authorize(models.CanModifyData); err != nil {
		return models.Farmer{}, err
	}
	in, err := Validate(in)
	if err != nil {
		return models.Farmer{}, err
	}

	farmer, err := s.backend.UpdateFarmer(ctx, id, in)
	if err != nil {
		return models.Farmer{}, fmt.Errorf("update farmer %s: %w", id, err)
	}
	s.publish(events.UserUpdated, farmer)
	return farmer, nil
}

// Delete removes a farmer.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.auth.Authorize(models.CanModifyData); err != nil {
		return err
	}
	if err := s.backend.DeleteFarmer(ctx, id); err != nil {
		return fmt.Errorf("delete farmer %s: %w", id, err)
	}
	s.logger.Info("farmer deleted", zap.String("farmer_id", id))
	s.publish(events.UserDeleted, models.Farmer{ID: id})
	return nil
}

// Deactivate blocks new collections and advances for a farmer.
func (s *Service) Deactivate(ctx context.Context, id, reason string) (models.Farmer, error) {
	if _, err := s.auth.Authorize(models.CanModifyData); err != nil {
		return models.Farmer{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultDeactivationReason
	}

	farmer, err := s.backend.DeactivateFarmer(ctx, id, reason)
	if err != nil {
		return models.Farmer{}, fmt.Errorf("deactivate farmer %s: %w", id, err)
	}
	inactive := false
	farmer.ID = id
	farmer.IsActive = &inactive
	farmer.DeactivationReason = reason

	s.logger.Info("farmer deactivated", zap.String("farmer_id", id), zap.String("reason", reason))
	s.publish(events.UserDeactivated, farmer)
	return farmer, nil
}

// Reactivate restores a farmer and clears the deactivation details.
func (s *Service) Reactivate(ctx context.Context, id string) (models.Farmer, error) {
	if _, err := s.auth.Authorize(models.CanModifyData); err != nil {
		return models.Farmer{}, err
	}

	farmer, err := s.backend.ReactivateFarmer(ctx, id)
	if err != nil {
		return models.Farmer{}, fmt.Errorf("reactivate farmer %s: %w", id, err)
	}
	active := true
	farmer.ID = id
	farmer.IsActive = &active
	farmer.DeactivatedAt = nil
	farmer.DeactivationReason = ""

	s.logger.Info("farmer reactivated", zap.String("farmer_id", id))
	s.publish(events.UserReactivated, farmer)
	return farmer, nil
}

func (s *Service) publish(t events.Type, f models.Farmer) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(t, events.FarmerChanged{UserID: f.ID, UserName: f.Name})
}

// ActiveFarmers keeps the farmers that may receive new entries.
func ActiveFarmers(list []models.Farmer) []models.Farmer {
	out := make([]models.Farmer, 0, len(list))
	for _, f := range list {
		if f.Active() {
			out = append(out, f)
		}
	}
	return out
}

// Validate trims the input and checks the form rules.
func Validate(in models.FarmerInput) (models.FarmerInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Address = strings.TrimSpace(in.Address)

	var fields []apperror.ValidationError
	if n := utf8.RuneCountInString(in.Name); n < 2 || n > 100 {
		fields = append(fields, apperror.ValidationError{Field: "Name", Message: "Name must be between 2 and 100 characters", Type: "range"})
	}
	switch {
	case in.PhoneNumber == "":
		fields = append(fields, apperror.ValidationError{Field: "Phone Number", Message: "Phone number is required", Type: "required"})
	case !phonePattern.MatchString(in.PhoneNumber):
		fields = append(fields, apperror.ValidationError{Field: "Phone Number", Message: "Please enter a valid phone number", Type: "format"})
	}
	if n := utf8.RuneCountInString(in.Address); n < 5 || n > 500 {
		fields = append(fields, apperror.ValidationError{Field: "Address", Message: "Address must be between 5 and 500 characters", Type: "range"})
	}

	if len(fields) > 0 {
		return in, apperror.Validation("Validation failed", fields...)
	}
	return in, nil
}
