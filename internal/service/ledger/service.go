// Package ledger records milk collections and cash advances against farmers.
package ledger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/apperror"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/events"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	// ErrFarmerNotFound means the farmer is not in the loaded roster.
	ErrFarmerNotFound = errors.New("farmer not found")
	// ErrFarmerInactive means the farmer is deactivated.
	ErrFarmerInactive = errors.New("farmer is deactivated")
	// ErrPastEntry means a helper tried to record an entry for another day.
	ErrPastEntry = errors.New("entry is not dated today")
)

// Backend is the ledger part of the backend API.
type Backend interface {
	ListCollections(ctx context.Context, q models.CollectionQuery) ([]models.CollectionEntry, backend.Pagination, error)
	CreateCollection(ctx context.Context, entry models.CollectionEntry) (models.CollectionEntry, error)
	UpdateCollection(ctx context.Context, id string, entry models.CollectionEntry) (models.CollectionEntry, error)
	DeleteCollection(ctx context.Context, id string) error
	ListAdvances(ctx context.Context, q backend.AdvanceQuery) ([]models.AdvanceEntry, backend.Pagination, error)
	CreateAdvance(ctx context.Context, entry models.AdvanceEntry) (models.AdvanceEntry, error)
	DeleteAdvance(ctx context.Context, id string) error
}

// Workspace supplies the cached rate table and roster.
type Workspace interface {
	Rates(ctx context.Context) (models.RateTable, error)
	Farmer(ctx context.Context, id string) (models.Farmer, bool, error)
}

// Authorizer checks the current role.
type Authorizer interface {
	Authorize(allowed func(models.Role) bool) (models.Principal, error)
}

// Publisher fans ledger changes out to the shell.
type Publisher interface {
	Publish(t events.Type, payload any)
}

// Receipts sends a confirmation to the farmer after a collection is saved.
type Receipts interface {
	SendCollectionReceipt(ctx context.Context, farmer models.Farmer, entry models.CollectionEntry) error
}

// Options tunes the ledger.
type Options struct {
	Location          *time.Location
	HelperSameDayOnly bool
	Receipts          Receipts
}

// Service validates and records ledger entries.
type Service struct {
	backend   Backend
	workspace Workspace
	auth      Authorizer
	publisher Publisher
	receipts  Receipts
	loc       *time.Location
	sameDay   bool
	now       func() time.Time
	logger    *zap.Logger
}

// NewService wires a ledger service. publisher and opts.Receipts are optional;
// leave them as untyped nil interfaces to disable them, since a nil *events.Bus
// stored in a Publisher is not nil.
func NewService(b Backend, ws Workspace, auth Authorizer, publisher Publisher, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		backend:   b,
		workspace: ws,
		auth:      auth,
		publisher: publisher,
		receipts:  opts.Receipts,
		loc:       loc,
		sameDay:   opts.HelperSameDayOnly,
		now:       time.Now,
		logger:    logger,
	}
}

// Today is the current date in the cooperative's timezone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

// activeFarmer looks the farmer up in the roster. action is "add" or
// "update" and only changes the wording of the rejection.
func (s *Service) activeFarmer(ctx context.Context, id, action, kind string) (models.Farmer, error) {
	farmer, ok, err := s.workspace.Farmer(ctx, id)
	if err != nil {
		return models.Farmer{}, err
	}
	if !ok {
		msg := "Please select a valid user."
		if kind == "advance" {
			msg = "Please select a valid farmer"
		}
		return models.Farmer{}, apperror.Reject(ErrFarmerNotFound, msg)
	}
	if !farmer.Active() {
		return models.Farmer{}, apperror.Reject(ErrFarmerInactive,
			"Cannot "+action+" "+kind+" for deactivated farmer. Please contact admin to reactivate the account.")
	}
	return farmer, nil
}
