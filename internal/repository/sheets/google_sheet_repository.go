package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/milkcenter/internal/config"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

const (
	reportsRange = "Reports!A:H"
	farmersRange = "Farmers!A:H"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// Exporter writes report summaries into the reports workbook.
type Exporter struct {
	repo Repository
}

// NewExporter wraps a sheet repository.
func NewExporter(repo Repository) *Exporter {
	return &Exporter{repo: repo}
}

// ExportSummary appends the period totals to the Reports sheet and one row
// per farmer to the Farmers sheet.
func (e *Exporter) ExportSummary(ctx context.Context, summary models.ReportSummary) error {
	if err := e.repo.WriteRow(ctx, reportsRange, SummaryRow(summary)); err != nil {
		return err
	}
	period := summary.StartDate + " to " + summary.EndDate
	for _, f := range summary.Farmers {
		if err := e.repo.WriteRow(ctx, farmersRange, FarmerRow(period, f)); err != nil {
			return fmt.Errorf("export farmer %s: %w", f.UserID, err)
		}
	}
	return nil
}

// ExportedPeriods lists the periods already present in the Reports sheet.
func (e *Exporter) ExportedPeriods(ctx context.Context) ([]string, error) {
	rows, err := e.repo.ReadRange(ctx, "Reports!A:A")
	if err != nil {
		return nil, err
	}
	periods := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if s, ok := row[0].(string); ok && s != "" {
			periods = append(periods, s)
		}
	}
	return periods, nil
}

// SummaryRow is the Reports sheet row for a summary.
func SummaryRow(s models.ReportSummary) []interface{} {
	return []interface{}{
		s.StartDate + " to " + s.EndDate,
		s.Metrics.TotalCollections,
		s.Metrics.TotalLiters,
		s.Metrics.TotalAmount,
		s.Metrics.AverageFat,
		s.Metrics.ManualCollections,
		s.Growth.Amount,
		s.GeneratedAt.Format(time.RFC3339),
	}
}

// FarmerRow is the Farmers sheet row for one farmer's stats.
func FarmerRow(period string, f models.FarmerStats) []interface{} {
	return []interface{}{
		period,
		f.Name,
		f.Collections,
		f.TotalLiters,
		f.TotalAmount,
		f.AverageFat,
		f.NetAdvances,
		f.Payable,
	}
}
