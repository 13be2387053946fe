package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/dataset"
	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/service/analysis"
	"github.com/agrichain-os/agrichain/internal/service/forecast"
)

// InsightsHandler serves market analysis, AI forecasts and their shared
// history, plus the dataset lookups the dashboard dropdowns rely on.
type InsightsHandler struct {
	analysis *analysis.Service
	forecast *forecast.Service
	data     *dataset.Dataset
	logger   *zap.Logger
}

// NewInsightsHandler constructs the HTTP handler adapter.
func NewInsightsHandler(analysisSvc *analysis.Service, forecastSvc *forecast.Service, data *dataset.Dataset, logger *zap.Logger) *InsightsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightsHandler{analysis: analysisSvc, forecast: forecastSvc, data: data, logger: logger}
}

type commodityAnalysisRequest struct {
	Owner     string `json:"owner"`
	Commodity string `json:"commodity" binding:"required"`
}

// AnalyzeCommodity finds the best market to sell a commodity in.
func (h *InsightsHandler) AnalyzeCommodity(c *gin.Context) {
	var req commodityAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.analysis.BestMarketForCommodity(c.Request.Context(), req.Owner, req.Commodity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type marketAnalysisRequest struct {
	Owner  string `json:"owner"`
	Market string `json:"market" binding:"required"`
}

// AnalyzeMarket finds the best commodity to sell in a market.
func (h *InsightsHandler) AnalyzeMarket(c *gin.Context) {
	var req marketAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.analysis.BestCommodityForMarket(c.Request.Context(), req.Owner, req.Market)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type forecastRequest struct {
	Owner     string `json:"owner"`
	Commodity string `json:"commodity" binding:"required"`
	State     string `json:"state"`
}

// GenerateForecast runs the AI forecast workflow for a commodity.
func (h *InsightsHandler) GenerateForecast(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.forecast.Generate(c.Request.Context(), req.Owner, req.Commodity, req.State)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// History lists saved reports, newest first, optionally filtered by report
// type and owner.
func (h *InsightsHandler) History(c *gin.Context) {
	filter := models.AnalysisFilter{
		ReportType: models.ReportType(c.Query("type")),
		Owner:      c.Query("owner"),
	}

	records, err := h.analysis.History(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// ListCommodities returns the distinct commodities in the market dataset.
func (h *InsightsHandler) ListCommodities(c *gin.Context) {
	c.JSON(http.StatusOK, h.data.Commodities())
}

// ListMarkets returns the distinct markets in the market dataset.
func (h *InsightsHandler) ListMarkets(c *gin.Context) {
	c.JSON(http.StatusOK, h.data.Markets())
}
