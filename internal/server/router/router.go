package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(farm *handlers.FarmHandler, logistics *handlers.LogisticsHandler, finance *handlers.FinanceHandler, insights *handlers.InsightsHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	{
		api.POST("/plots", farm.CreatePlot)
		api.GET("/plots", farm.ListPlots)
		api.POST("/plots/:id/harvest", farm.HarvestPlot)
		api.GET("/inventory", farm.ListInventory)

		api.POST("/shipments", logistics.CreateShipment)
		api.GET("/shipments/active", logistics.ListActive)
		api.POST("/shipments/advance", logistics.Advance)
		api.POST("/shipments/:id/sale", finance.FinalizeSale)

		api.GET("/sales", finance.ListSales)
		api.GET("/sales/summary", finance.Summary)

		api.POST("/analysis/commodity", insights.AnalyzeCommodity)
		api.POST("/analysis/market", insights.AnalyzeMarket)
		api.POST("/forecast", insights.GenerateForecast)
		api.GET("/history", insights.History)

		api.GET("/commodities", insights.ListCommodities)
		api.GET("/markets", insights.ListMarkets)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
