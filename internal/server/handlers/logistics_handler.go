package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/service/logistics"
)

// LogisticsHandler serves the shipment tracking endpoints.
type LogisticsHandler struct {
	svc    *logistics.Service
	logger *zap.Logger
}

// NewLogisticsHandler constructs the HTTP handler adapter.
func NewLogisticsHandler(svc *logistics.Service, logger *zap.Logger) *LogisticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogisticsHandler{svc: svc, logger: logger}
}

type dispatchRequest struct {
	TruckID     string  `json:"truck_id"`
	Commodity   string  `json:"commodity" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required"`
	Destination string  `json:"destination" binding:"required"`
}

// CreateShipment dispatches a new shipment against warehouse inventory.
func (h *LogisticsHandler) CreateShipment(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid dispatch payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	shipment, err := h.svc.Create(c.Request.Context(), req.TruckID, req.Commodity, req.Quantity, req.Destination)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, shipment)
}

// ListActive returns shipments that are in transit or arrived.
func (h *LogisticsHandler) ListActive(c *gin.Context) {
	shipments, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, shipments)
}

type advanceRequest struct {
	Step float64 `json:"step" binding:"required"`
}

// Advance performs one manual simulation tick for all in-transit shipments.
func (h *LogisticsHandler) Advance(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid advance payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	moved, err := h.svc.AdvanceAll(c.Request.Context(), req.Step)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"moved": moved})
}
