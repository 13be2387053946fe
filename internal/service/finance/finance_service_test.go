package finance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
)

type fakeFinanceStore struct {
	shipment models.Shipment
	getErr   error

	finalized     []models.SaleRecord
	finalizeErr   error
	finalizedWith string

	sales []models.SaleRecord
}

func (f *fakeFinanceStore) CreateShipment(context.Context, models.Shipment) error { return nil }

func (f *fakeFinanceStore) GetShipment(context.Context, string) (models.Shipment, error) {
	if f.getErr != nil {
		return models.Shipment{}, f.getErr
	}
	return f.shipment, nil
}

func (f *fakeFinanceStore) AdvanceShipments(context.Context, float64) (int64, error) { return 0, nil }

func (f *fakeFinanceStore) ListActiveShipments(context.Context) ([]models.Shipment, error) {
	return nil, nil
}

func (f *fakeFinanceStore) FinalizeDelivery(_ context.Context, shipmentID string, sale models.SaleRecord) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	f.finalizedWith = shipmentID
	f.finalized = append(f.finalized, sale)
	return nil
}

func (f *fakeFinanceStore) ListSales(context.Context) ([]models.SaleRecord, error) {
	return f.sales, nil
}

func arrivedShipment() models.Shipment {
	return models.Shipment{
		ID:                "ship-1",
		TruckID:           "TRUCK-A1B2C3D4",
		Commodity:         "Onion",
		Quantity:          200,
		DestinationMarket: "Mumbai",
		Progress:          1.0,
		Status:            models.ShipmentArrived,
	}
}

func TestFinalizeSaleComputesRevenueServerSide(t *testing.T) {
	store := &fakeFinanceStore{shipment: arrivedShipment()}
	svc := NewService(store, Config{}, nil)
	saleDate := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return saleDate }

	sale, err := svc.FinalizeSale(context.Background(), "ship-1", 10.5)
	require.NoError(t, err)

	assert.Equal(t, "Onion", sale.Record.Commodity)
	assert.Equal(t, 200.0, sale.Record.QuantitySold)
	assert.Equal(t, 10.5, sale.Record.SalePricePerUnit)
	assert.Equal(t, 2100.0, sale.Record.TotalRevenue)
	assert.Equal(t, "Mumbai", sale.Record.MarketSoldAt)
	assert.Equal(t, saleDate, sale.Record.SaleDate)

	assert.Equal(t, "ship-1", store.finalizedWith)
	require.Len(t, store.finalized, 1)

	// No UPI id configured, so no payment artifacts.
	assert.Empty(t, sale.PaymentURI)
	assert.Nil(t, sale.QRCode)
}

func TestFinalizeSaleIssuesPaymentRequest(t *testing.T) {
	store := &fakeFinanceStore{shipment: arrivedShipment()}
	svc := NewService(store, Config{UPIID: "seller@bank", PayeeName: "Seller"}, nil)

	sale, err := svc.FinalizeSale(context.Background(), "ship-1", 20)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sale.PaymentURI, "upi://pay?"))
	assert.Contains(t, sale.PaymentURI, "pa=seller%40bank")
	assert.Contains(t, sale.PaymentURI, "am=4000.00")
	assert.NotEmpty(t, sale.QRCode)
}

func TestFinalizeSaleRequiresArrivedShipment(t *testing.T) {
	shipment := arrivedShipment()
	shipment.Status = models.ShipmentInTransit
	store := &fakeFinanceStore{shipment: shipment}
	svc := NewService(store, Config{}, nil)

	_, err := svc.FinalizeSale(context.Background(), "ship-1", 10)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
	assert.Empty(t, store.finalized)
}

func TestFinalizeSaleRejectsNonPositivePrice(t *testing.T) {
	store := &fakeFinanceStore{shipment: arrivedShipment()}
	svc := NewService(store, Config{}, nil)

	_, err := svc.FinalizeSale(context.Background(), "ship-1", 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.FinalizeSale(context.Background(), "ship-1", -5)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestFinalizeSaleUnknownShipment(t *testing.T) {
	store := &fakeFinanceStore{getErr: repository.ErrNotFound}
	svc := NewService(store, Config{}, nil)

	_, err := svc.FinalizeSale(context.Background(), "absent", 10)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSummaryAggregatesLedger(t *testing.T) {
	store := &fakeFinanceStore{sales: []models.SaleRecord{
		{Commodity: "Onion", TotalRevenue: 2100},
		{Commodity: "Onion", TotalRevenue: 900},
		{Commodity: "Tomato", TotalRevenue: 1500.5},
	}}
	svc := NewService(store, Config{}, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.SaleCount)
	assert.Equal(t, 4500.5, summary.TotalRevenue)
	assert.Equal(t, 1500.17, summary.AverageSaleValue)
	assert.Equal(t, 3000.0, summary.RevenueByCommodity["Onion"])
	assert.Equal(t, 1500.5, summary.RevenueByCommodity["Tomato"])
}

func TestSummaryEmptyLedger(t *testing.T) {
	svc := NewService(&fakeFinanceStore{}, Config{}, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.SaleCount)
	assert.Zero(t, summary.TotalRevenue)
	assert.Zero(t, summary.AverageSaleValue)
	assert.Empty(t, summary.RevenueByCommodity)
}
