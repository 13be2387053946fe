package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/service/farm"
	"github.com/agrichain-os/agrichain/internal/service/inventory"
)

const dateLayout = "2006-01-02"

// FarmHandler serves the farm management and warehouse inventory endpoints.
type FarmHandler struct {
	farm      *farm.Service
	inventory *inventory.Service
	logger    *zap.Logger
}

// NewFarmHandler constructs the HTTP handler adapter.
func NewFarmHandler(farmSvc *farm.Service, inventorySvc *inventory.Service, logger *zap.Logger) *FarmHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmHandler{farm: farmSvc, inventory: inventorySvc, logger: logger}
}

type plantRequest struct {
	Commodity           string  `json:"commodity" binding:"required"`
	PlotLabel           string  `json:"plot_label" binding:"required"`
	Quantity            float64 `json:"quantity" binding:"required"`
	DatePlanted         string  `json:"date_planted"`
	ExpectedHarvestDate string  `json:"expected_harvest_date"`
}

// CreatePlot registers a new planting.
func (h *FarmHandler) CreatePlot(c *gin.Context) {
	var req plantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid plant payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	datePlanted := time.Now().UTC()
	if req.DatePlanted != "" {
		parsed, err := time.Parse(dateLayout, req.DatePlanted)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_planted must be YYYY-MM-DD"})
			return
		}
		datePlanted = parsed
	}

	expectedHarvest := datePlanted.AddDate(0, 0, 90)
	if req.ExpectedHarvestDate != "" {
		parsed, err := time.Parse(dateLayout, req.ExpectedHarvestDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expected_harvest_date must be YYYY-MM-DD"})
			return
		}
		expectedHarvest = parsed
	}

	plot, err := h.farm.Plant(c.Request.Context(), req.Commodity, req.PlotLabel, req.Quantity, datePlanted, expectedHarvest)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plot)
}

// ListPlots returns plots filtered by lifecycle status (default GROWING).
func (h *FarmHandler) ListPlots(c *gin.Context) {
	status := models.PlotStatus(c.DefaultQuery("status", string(models.PlotGrowing)))
	if status != models.PlotGrowing && status != models.PlotHarvested {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be GROWING or HARVESTED"})
		return
	}

	plots, err := h.farm.ListByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plots)
}

// HarvestPlot moves a plot's crop into warehouse inventory.
func (h *FarmHandler) HarvestPlot(c *gin.Context) {
	plot, err := h.farm.Harvest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plot)
}

// ListInventory returns every commodity with stock on hand.
func (h *FarmHandler) ListInventory(c *gin.Context) {
	entries, err := h.inventory.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
