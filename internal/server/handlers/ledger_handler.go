package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/apperror"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/service/ledger"
	"github.com/mamadbah2/milkcenter/internal/service/rates"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

// LedgerService records collections and advances.
type LedgerService interface {
	ListCollections(ctx context.Context, q models.CollectionQuery) ([]models.CollectionEntry, backend.Pagination, error)
	PreviewCollection(ctx context.Context, d rates.Draft) (rates.Preview, error)
	SubmitCollection(ctx context.Context, in models.CollectionInput) (models.CollectionEntry, error)
	UpdateCollection(ctx context.Context, id string, in models.CollectionInput) (models.CollectionEntry, error)
	DeleteCollection(ctx context.Context, id string) error
	ListAdvances(ctx context.Context, q backend.AdvanceQuery) ([]models.AdvanceEntry, backend.Pagination, error)
	RecordAdvance(ctx context.Context, in models.AdvanceInput) (models.AdvanceEntry, error)
	DeleteAdvance(ctx context.Context, id string) error
}

// LedgerHandler serves the collection and advance endpoints.
type LedgerHandler struct {
	svc    LedgerService
	logger *zap.Logger
}

// NewLedgerHandler constructs the ledger endpoints.
func NewLedgerHandler(svc LedgerService, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{svc: svc, logger: logger}
}

type previewRequest struct {
	Liters        float64 `json:"liters"`
	FatPercentage float64 `json:"fatPercentage"`
	Mode          string  `json:"mode"`
	Amount        string  `json:"amount"`
}

// ListCollections returns one page of collections.
func (h *LedgerHandler) ListCollections(c *gin.Context) {
	entries, pagination, err := h.svc.ListCollections(c.Request.Context(), models.CollectionQuery{
		UserID:    c.Query("userId"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})
	if err != nil {
		respondError(c, h.logger, err, "list collections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": entries, "pagination": pagination})
}

// Preview computes the rate and amount for the values typed so far. A manual
// amount is echoed back as typed.
func (h *LedgerHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errInvalidBody, "preview collection")
		return
	}
	mode, err := rates.ParseMode(req.Mode)
	if err != nil {
		respondError(c, h.logger, apperror.Validation("Amount mode must be auto or manual"), "preview collection")
		return
	}
	preview, err := h.svc.PreviewCollection(c.Request.Context(), rates.Draft{
		Liters:        req.Liters,
		FatPercentage: req.FatPercentage,
		Mode:          mode,
		Amount:        req.Amount,
	})
	if err != nil {
		respondError(c, h.logger, err, "preview collection")
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Submit records a collection.
func (h *LedgerHandler) Submit(c *gin.Context) {
	var in models.CollectionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, h.logger, errInvalidBody, "submit collection")
		return
	}
	entry, err := h.svc.SubmitCollection(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err, "submit collection")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Update edits a collection.
func (h *LedgerHandler) Update(c *gin.Context) {
	var in models.CollectionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, h.logger, errInvalidBody, "update collection")
		return
	}
	entry, err := h.svc.UpdateCollection(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err, "update collection")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Delete removes a collection.
func (h *LedgerHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteCollection(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "delete collection")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAdvances returns one page of advances with the page totals.
func (h *LedgerHandler) ListAdvances(c *gin.Context) {
	advances, pagination, err := h.svc.ListAdvances(c.Request.Context(), backend.AdvanceQuery{
		UserID:    c.Query("userId"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
	})
	if err != nil {
		respondError(c, h.logger, err, "list advances")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"advances":   advances,
		"pagination": pagination,
		"summary":    ledger.SummarizeAdvances(advances),
	})
}

// RecordAdvance records an advance or a repayment.
func (h *LedgerHandler) RecordAdvance(c *gin.Context) {
	var in models.AdvanceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, h.logger, errInvalidBody, "record advance")
		return
	}
	entry, err := h.svc.RecordAdvance(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err, "record advance")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// DeleteAdvance removes an advance or repayment.
func (h *LedgerHandler) DeleteAdvance(c *gin.Context) {
	if err := h.svc.DeleteAdvance(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "delete advance")
		return
	}
	c.Status(http.StatusNoContent)
}
