package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/apperror"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/repository/mongodb"
	"github.com/mamadbah2/milkcenter/internal/service/reporting"
)

// ReportService builds summaries and statements.
type ReportService interface {
	Summary(ctx context.Context, preset reporting.Preset, customStart, customEnd string) (models.ReportSummary, error)
	Statement(ctx context.Context, farmerID string, preset reporting.Preset, customStart, customEnd string) (models.FarmerStats, reporting.DateRange, error)
}

// SnapshotStore reads archived summaries.
type SnapshotStore interface {
	LatestSnapshot(ctx context.Context, preset string) (models.ReportSummary, error)
}

// Authorizer checks the current role.
type Authorizer interface {
	Authorize(allowed func(models.Role) bool) (models.Principal, error)
}

// ReportHandler serves the reports endpoints.
type ReportHandler struct {
	svc     ReportService
	archive SnapshotStore
	auth    Authorizer
	logger  *zap.Logger
}

// NewReportHandler constructs the reports endpoints. archive may be nil when
// report archiving is disabled.
func NewReportHandler(svc ReportService, archive SnapshotStore, auth Authorizer, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, archive: archive, auth: auth, logger: logger}
}

func presetFrom(c *gin.Context) reporting.Preset {
	if p := c.Query("preset"); p != "" {
		return reporting.Preset(p)
	}
	return reporting.PresetMonth
}

// Summary returns the report for a preset or custom range.
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context(), presetFrom(c), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, h.logger, rangeError(err), "report summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Statement returns one farmer's statement.
func (h *ReportHandler) Statement(c *gin.Context) {
	stats, r, err := h.svc.Statement(c.Request.Context(), c.Param("id"), presetFrom(c), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, h.logger, rangeError(err), "farmer statement")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"startDate": r.StartDate(),
		"endDate":   r.EndDate(),
		"statement": stats,
		"text":      reporting.RenderStatement(stats, r),
	})
}

// Latest returns the most recent archived summary for a preset.
func (h *ReportHandler) Latest(c *gin.Context) {
	if _, err := h.auth.Authorize(models.CanAccessAdvancedFeatures); err != nil {
		respondError(c, h.logger, err, "latest report")
		return
	}
	if h.archive == nil {
		respondError(c, h.logger, &apperror.Error{Type: apperror.TypeServer, Status: http.StatusServiceUnavailable, Message: "Report archive is not configured"}, "latest report")
		return
	}

	summary, err := h.archive.LatestSnapshot(c.Request.Context(), c.DefaultQuery("preset", string(reporting.PresetWeek)))
	if errors.Is(err, mongodb.ErrNoSnapshot) {
		err = &apperror.Error{Type: apperror.TypeClient, Status: http.StatusNotFound, Message: "No archived report for this period", Err: err}
	}
	if err != nil {
		respondError(c, h.logger, err, "latest report")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func rangeError(err error) error {
	if errors.Is(err, reporting.ErrInvalidRange) {
		return apperror.Reject(err, "Please select a valid date range")
	}
	return err
}
