package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
)

// FarmerService manages the roster.
type FarmerService interface {
	List(ctx context.Context, q backend.FarmerQuery) ([]models.Farmer, backend.Pagination, error)
	Get(ctx context.Context, id string) (models.Farmer, error)
	Status(ctx context.Context, id string) (models.ActivationStatus, error)
	Create(ctx context.Context, in models.FarmerInput) (models.Farmer, error)
	Update(ctx context.Context, id string, in models.FarmerInput) (models.Farmer, error)
	Delete(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id, reason string) (models.Farmer, error)
	Reactivate(ctx context.Context, id string) (models.Farmer, error)
}

// FarmerHandler serves the roster endpoints.
type FarmerHandler struct {
	svc    FarmerService
	logger *zap.Logger
}

// NewFarmerHandler constructs the roster endpoints.
func NewFarmerHandler(svc FarmerService, logger *zap.Logger) *FarmerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmerHandler{svc: svc, logger: logger}
}

// List returns one page of farmers.
func (h *FarmerHandler) List(c *gin.Context) {
	farmers, pagination, err := h.svc.List(c.Request.Context(), backend.FarmerQuery{
		Search: c.Query("search"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		respondError(c, h.logger, err, "list farmers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": farmers, "pagination": pagination})
}

// Get returns one farmer.
func (h *FarmerHandler) Get(c *gin.Context) {
	farmer, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "get farmer")
		return
	}
	c.JSON(http.StatusOK, farmer)
}

// Status returns a farmer's activation status.
func (h *FarmerHandler) Status(c *gin.Context) {
	status, err := h.svc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "farmer status")
		return
	}
	c.JSON(http.StatusOK, status)
}

// Create registers a farmer.
func (h *FarmerHandler) Create(c *gin.Context) {
	var in models.FarmerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, h.logger, errInvalidBody, "create farmer")
		return
	}
	farmer, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err, "create farmer")
		return
	}
	c.JSON(http.StatusCreated, farmer)
}

// Update edits a farmer.
func (h *FarmerHandler) Update(c *gin.Context) {
	var in models.FarmerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, h.logger, errInvalidBody, "update farmer")
		return
	}
	farmer, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err, "update farmer")
		return
	}
	c.JSON(http.StatusOK, farmer)
}

// Delete removes a farmer.
func (h *FarmerHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "delete farmer")
		return
	}
	c.Status(http.StatusNoContent)
}

type deactivateRequest struct {
	Reason string `json:"reason"`
}

// Deactivate stops a farmer from receiving new entries. The body is optional.
func (h *FarmerHandler) Deactivate(c *gin.Context) {
	var req deactivateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, h.logger, errInvalidBody, "deactivate farmer")
			return
		}
	}
	farmer, err := h.svc.Deactivate(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, h.logger, err, "deactivate farmer")
		return
	}
	c.JSON(http.StatusOK, farmer)
}

// Reactivate lets a farmer receive entries again.
func (h *FarmerHandler) Reactivate(c *gin.Context) {
	farmer, err := h.svc.Reactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "reactivate farmer")
		return
	}
	c.JSON(http.StatusOK, farmer)
}
