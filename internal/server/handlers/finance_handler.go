package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/service/finance"
)

// FinanceHandler serves the sales and payment endpoints.
type FinanceHandler struct {
	svc    *finance.Service
	logger *zap.Logger
}

// NewFinanceHandler constructs the HTTP handler adapter.
func NewFinanceHandler(svc *finance.Service, logger *zap.Logger) *FinanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceHandler{svc: svc, logger: logger}
}

type saleRequest struct {
	PricePerUnit float64 `json:"price_per_unit" binding:"required"`
}

// FinalizeSale delivers an arrived shipment, records the sale and returns
// the payment QR in one call.
func (h *FinanceHandler) FinalizeSale(c *gin.Context) {
	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid sale payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sale, err := h.svc.FinalizeSale(c.Request.Context(), c.Param("id"), req.PricePerUnit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"sale": sale.Record}
	if sale.PaymentURI != "" {
		resp["payment_uri"] = sale.PaymentURI
		resp["qr_png_base64"] = base64.StdEncoding.EncodeToString(sale.QRCode)
	}
	c.JSON(http.StatusCreated, resp)
}

// ListSales returns the sales history, most recent first.
func (h *FinanceHandler) ListSales(c *gin.Context) {
	sales, err := h.svc.ListSales(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sales)
}

// Summary returns the aggregated financial overview.
func (h *FinanceHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
