// Package finance implements the sales ledger and payment issuance. A sale
// is only ever recorded together with the delivery of its shipment and the
// generation of its payment QR, as one unit.
package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
	"github.com/agrichain-os/agrichain/pkg/upi"
)

// ErrInvalidPrice rejects non-positive unit prices.
var ErrInvalidPrice = errors.New("sale price must be positive")

// Store is the slice of the persistence surface the finance service needs.
type Store interface {
	repository.ShipmentStore
	repository.SalesStore
}

// Config carries the payment issuance settings.
type Config struct {
	UPIID     string // payee virtual payment address; empty disables QR output
	PayeeName string
}

// Sale is the outcome of finalizing a shipment: the appended ledger record
// plus the rendered payment QR (nil when payments are not configured).
type Sale struct {
	Record     models.SaleRecord
	PaymentURI string
	QRCode     []byte
}

// Service exposes the sales ledger.
type Service struct {
	store  Store
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new finance service instance.
func NewService(store Store, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cfg: cfg, logger: logger, now: time.Now}
}

// FinalizeSale closes out an arrived shipment: it computes the revenue
// server-side, flips the shipment ARRIVED -> DELIVERED and appends the sale
// in one transactional store call, then renders the payment QR for the
// computed total. A shipment not in ARRIVED fails with
// repository.ErrInvalidTransition and nothing is written.
func (s *Service) FinalizeSale(ctx context.Context, shipmentID string, pricePerUnit float64) (Sale, error) {
	if pricePerUnit <= 0 {
		return Sale{}, ErrInvalidPrice
	}

	shipment, err := s.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return Sale{}, fmt.Errorf("load shipment %s: %w", shipmentID, err)
	}
	if shipment.Status != models.ShipmentArrived {
		return Sale{}, fmt.Errorf("shipment %s is %s: %w", shipmentID, shipment.Status, repository.ErrInvalidTransition)
	}

	// Never trust a client-supplied total.
	total := decimal.NewFromFloat(shipment.Quantity).
		Mul(decimal.NewFromFloat(pricePerUnit)).
		Round(2)

	record := models.SaleRecord{
		ID:               uuid.NewString(),
		Commodity:        shipment.Commodity,
		QuantitySold:     shipment.Quantity,
		SalePricePerUnit: pricePerUnit,
		TotalRevenue:     total.InexactFloat64(),
		MarketSoldAt:     shipment.DestinationMarket,
		SaleDate:         s.now().UTC(),
	}

	if err := s.store.FinalizeDelivery(ctx, shipmentID, record); err != nil {
		return Sale{}, fmt.Errorf("finalize shipment %s: %w", shipmentID, err)
	}

	sale := Sale{Record: record}
	if s.cfg.UPIID != "" {
		request := upi.PaymentRequest{
			PayeeID:   s.cfg.UPIID,
			PayeeName: s.cfg.PayeeName,
			Amount:    total,
			Note: fmt.Sprintf("Payment for %.0f%s %s shipment %s",
				shipment.Quantity, models.DefaultUnit, shipment.Commodity, shipment.TruckID),
		}
		sale.PaymentURI = request.URI()
		if sale.QRCode, err = request.QRCode(upi.DefaultQRSize); err != nil {
			// The sale is already committed; a failed render is not fatal.
			s.logger.Error("payment qr render failed", zap.Error(err))
		}
	}

	s.logger.Info("sale recorded",
		zap.String("shipment_id", shipmentID),
		zap.String("commodity", record.Commodity),
		zap.Float64("quantity", record.QuantitySold),
		zap.Float64("total_revenue", record.TotalRevenue))
	return sale, nil
}

// ListSales returns the full sales history, most recent first.
func (s *Service) ListSales(ctx context.Context) ([]models.SaleRecord, error) {
	return s.store.ListSales(ctx)
}

// Summary aggregates the ledger for the finance dashboard.
func (s *Service) Summary(ctx context.Context) (models.SalesSummary, error) {
	sales, err := s.store.ListSales(ctx)
	if err != nil {
		return models.SalesSummary{}, fmt.Errorf("load sales: %w", err)
	}

	summary := models.SalesSummary{
		SaleCount:          len(sales),
		RevenueByCommodity: map[string]float64{},
	}
	total := decimal.Zero
	for _, sale := range sales {
		revenue := decimal.NewFromFloat(sale.TotalRevenue)
		total = total.Add(revenue)
		summary.RevenueByCommodity[sale.Commodity] += sale.TotalRevenue
	}
	summary.TotalRevenue = total.InexactFloat64()
	if len(sales) > 0 {
		summary.AverageSaleValue = total.
			Div(decimal.NewFromInt(int64(len(sales)))).
			Round(2).
			InexactFloat64()
	}
	return summary, nil
}
