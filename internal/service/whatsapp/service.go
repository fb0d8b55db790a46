// Package whatsapp sends collection receipts and period statements over the
// WhatsApp Cloud API.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/config"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/service/rates"
	"github.com/mamadbah2/milkcenter/internal/service/reporting"
	client "github.com/mamadbah2/milkcenter/pkg/clients/whatsapp"
)

// ErrNoRecipient is returned when a message has nowhere to go.
var ErrNoRecipient = errors.New("no whatsapp recipient")

// MessagingService describes what the rest of the shell may send.
type MessagingService interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	SendCollectionReceipt(ctx context.Context, farmer models.Farmer, entry models.CollectionEntry) error
	SendSummary(ctx context.Context, summary models.ReportSummary) error
	SendStatements(ctx context.Context, summary models.ReportSummary, farmers []models.Farmer) (int, error)
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SendOutbound sends one text message.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if strings.TrimSpace(req.To) == "" {
		return ErrNoRecipient
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	return err
}

// SendCollectionReceipt confirms a saved collection to the farmer. It is a
// no-op unless receipts are enabled.
func (s *MetaWhatsAppService) SendCollectionReceipt(ctx context.Context, farmer models.Farmer, entry models.CollectionEntry) error {
	if !s.cfg.SendReceipts {
		return nil
	}
	if farmer.PhoneNumber == "" {
		return fmt.Errorf("receipt for %s: %w", farmer.ID, ErrNoRecipient)
	}
	return s.SendOutbound(ctx, models.OutboundMessageRequest{
		To:      farmer.PhoneNumber,
		Message: CollectionReceipt(farmer, entry),
	})
}

// SendSummary sends the period summary to the configured statement recipient.
func (s *MetaWhatsAppService) SendSummary(ctx context.Context, summary models.ReportSummary) error {
	if s.cfg.StatementRecipient == "" {
		return ErrNoRecipient
	}
	return s.SendOutbound(ctx, models.OutboundMessageRequest{
		To:      s.cfg.StatementRecipient,
		Message: reporting.RenderSummary(summary),
	})
}

// SendStatements sends every farmer in the summary their own statement. It
// keeps going after failures and returns how many were sent along with the
// first error.
func (s *MetaWhatsAppService) SendStatements(ctx context.Context, summary models.ReportSummary, farmers []models.Farmer) (int, error) {
	phones := make(map[string]string, len(farmers))
	for _, f := range farmers {
		if f.Active() {
			phones[f.ID] = f.PhoneNumber
		}
	}

	r := reporting.DateRange{}
	if start, err := time.Parse("2006-01-02", summary.StartDate); err == nil {
		r.Start = start
	}
	if end, err := time.Parse("2006-01-02", summary.EndDate); err == nil {
		r.End = end
	}

	var sent int
	var firstErr error
	for _, stats := range summary.Farmers {
		phone := phones[stats.UserID]
		if phone == "" {
			continue
		}
		err := s.SendOutbound(ctx, models.OutboundMessageRequest{To: phone, Message: reporting.RenderStatement(stats, r)})
		if err != nil {
			s.logger.Error("failed to send statement", zap.String("farmer_id", stats.UserID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}
	return sent, firstErr
}

// CollectionReceipt is the text of a collection receipt.
func CollectionReceipt(farmer models.Farmer, entry models.CollectionEntry) string {
	return fmt.Sprintf("Milk received from %s on %s %s: %.2f L at %s%% fat, rate %s/L, amount %s.",
		farmer.Name, entry.Date, entry.Time, entry.Liters, rates.FormatFat(entry.FatPercentage),
		rates.FormatAmount(entry.Rate), rates.FormatAmount(entry.Amount))
}
