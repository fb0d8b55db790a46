package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/apperror"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// RateService administers the fat-rate table.
type RateService interface {
	Load(ctx context.Context) (models.RateTable, error)
	SaveRate(ctx context.Context, rate models.FatRate, editing *float64) (models.RateTable, string, error)
	RemoveRate(ctx context.Context, fat float64) (models.RateTable, string, error)
}

// FatRateHandler serves the fat-rate endpoints.
type FatRateHandler struct {
	svc    RateService
	logger *zap.Logger
}

// NewFatRateHandler constructs the fat-rate endpoints.
func NewFatRateHandler(svc RateService, logger *zap.Logger) *FatRateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FatRateHandler{svc: svc, logger: logger}
}

type saveRateRequest struct {
	FatPercentage float64  `json:"fatPercentage"`
	Rate          float64  `json:"rate"`
	Editing       *float64 `json:"editing,omitempty"`
}

// List returns the table sorted by fat percentage.
func (h *FatRateHandler) List(c *gin.Context) {
	table, err := h.svc.Load(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "load fat rates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fatRates": table})
}

// Save adds or edits one rate and saves the whole table.
func (h *FatRateHandler) Save(c *gin.Context) {
	var req saveRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errInvalidBody, "save fat rate")
		return
	}
	table, msg, err := h.svc.SaveRate(c.Request.Context(), models.FatRate{FatPercentage: req.FatPercentage, Rate: req.Rate}, req.Editing)
	if err != nil {
		respondError(c, h.logger, err, "save fat rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fatRates": table, "message": msg})
}

// Delete removes one rate and saves the table.
func (h *FatRateHandler) Delete(c *gin.Context) {
	fat, err := strconv.ParseFloat(c.Param("fat"), 64)
	if err != nil {
		respondError(c, h.logger, apperror.Validation("Invalid fat percentage"), "delete fat rate")
		return
	}
	table, msg, err := h.svc.RemoveRate(c.Request.Context(), fat)
	if err != nil {
		respondError(c, h.logger, err, "delete fat rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fatRates": table, "message": msg})
}
