package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func growingPlot(commodity string, quantity float64) models.FarmPlot {
	planted := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	return models.FarmPlot{
		ID:                  uuid.NewString(),
		Commodity:           commodity,
		PlotLabel:           "North Field",
		QuantityPlanted:     quantity,
		DatePlanted:         planted,
		ExpectedHarvestDate: planted.AddDate(0, 0, 90),
		Status:              models.PlotGrowing,
	}
}

func inTransitShipment(commodity string, quantity float64) models.Shipment {
	return models.Shipment{
		ID:                uuid.NewString(),
		TruckID:           "TRUCK-TEST01",
		Commodity:         commodity,
		Quantity:          quantity,
		DestinationMarket: "Mumbai",
		StartLat:          20.5937,
		StartLon:          78.9629,
		DestinationLat:    19.0760,
		DestinationLon:    72.8777,
		CurrentLat:        20.5937,
		CurrentLon:        78.9629,
		Progress:          0.0,
		Status:            models.ShipmentInTransit,
	}
}

func TestPlotLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plot := growingPlot("Onion", 500)
	require.NoError(t, s.InsertPlot(ctx, plot))

	got, err := s.GetPlot(ctx, plot.ID)
	require.NoError(t, err)
	assert.Equal(t, plot.Commodity, got.Commodity)
	assert.Equal(t, models.PlotGrowing, got.Status)

	growing, err := s.ListPlotsByStatus(ctx, models.PlotGrowing)
	require.NoError(t, err)
	assert.Len(t, growing, 1)

	_, err = s.GetPlot(ctx, "missing-id")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHarvestPlotCreditsInventoryOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plot := growingPlot("Onion", 500)
	require.NoError(t, s.InsertPlot(ctx, plot))

	require.NoError(t, s.HarvestPlot(ctx, plot.ID, plot.Commodity, plot.QuantityPlanted, time.Now().UTC()))

	got, err := s.GetPlot(ctx, plot.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlotHarvested, got.Status)

	entries, err := s.ListAvailableInventory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Onion", entries[0].Commodity)
	assert.Equal(t, 500.0, entries[0].Quantity)
	assert.Equal(t, models.DefaultUnit, entries[0].Unit)

	// A harvested plot cannot be harvested again, so inventory stays put.
	err = s.HarvestPlot(ctx, plot.ID, plot.Commodity, plot.QuantityPlanted, time.Now().UTC())
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	entries, err = s.ListAvailableInventory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 500.0, entries[0].Quantity)
}

func TestCreditInventoryAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreditInventory(ctx, "Potato", 100, time.Now().UTC()))
	require.NoError(t, s.CreditInventory(ctx, "Potato", 250, time.Now().UTC()))

	entries, err := s.ListAvailableInventory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 350.0, entries[0].Quantity)
}

func TestDebitInventoryGuardsNonNegativity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreditInventory(ctx, "Tomato", 100, time.Now().UTC()))

	require.NoError(t, s.DebitInventory(ctx, "Tomato", 40, time.Now().UTC()))

	err := s.DebitInventory(ctx, "Tomato", 100, time.Now().UTC())
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	err = s.DebitInventory(ctx, "Cabbage", 1, time.Now().UTC())
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	entries, err := s.ListAvailableInventory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 60.0, entries[0].Quantity)
}

func TestCreateShipmentDebitsInventoryAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreditInventory(ctx, "Onion", 50, time.Now().UTC()))

	shipment := inTransitShipment("Onion", 30)
	require.NoError(t, s.CreateShipment(ctx, shipment))

	entries, err := s.ListAvailableInventory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 20.0, entries[0].Quantity)

	// Only 20 left: the insert must roll back together with the debit.
	err = s.CreateShipment(ctx, inTransitShipment("Onion", 30))
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	active, err := s.ListActiveShipments(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, shipment.ID, active[0].ID)
}

func TestAdvanceShipmentsClampsAndArrives(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreditInventory(ctx, "Onion", 100, time.Now().UTC()))
	shipment := inTransitShipment("Onion", 100)
	require.NoError(t, s.CreateShipment(ctx, shipment))

	// 0.15 per tick reaches 1.05 on the seventh tick and must clamp to 1.0.
	for i := 0; i < 7; i++ {
		moved, err := s.AdvanceShipments(ctx, 0.15)
		require.NoError(t, err)
		assert.Equal(t, int64(1), moved)
	}

	got, err := s.GetShipment(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Progress)
	assert.Equal(t, models.ShipmentArrived, got.Status)
	assert.InDelta(t, shipment.DestinationLat, got.CurrentLat, 1e-9)
	assert.InDelta(t, shipment.DestinationLon, got.CurrentLon, 1e-9)

	// An arrived shipment is no longer moved.
	moved, err := s.AdvanceShipments(ctx, 0.15)
	require.NoError(t, err)
	assert.Equal(t, int64(0), moved)
}

func TestAdvanceShipmentsInterpolatesPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreditInventory(ctx, "Onion", 100, time.Now().UTC()))
	shipment := inTransitShipment("Onion", 100)
	require.NoError(t, s.CreateShipment(ctx, shipment))

	_, err := s.AdvanceShipments(ctx, 0.25)
	require.NoError(t, err)

	got, err := s.GetShipment(ctx, shipment.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got.Progress, 1e-9)
	wantLat := shipment.StartLat + 0.25*(shipment.DestinationLat-shipment.StartLat)
	wantLon := shipment.StartLon + 0.25*(shipment.DestinationLon-shipment.StartLon)
	assert.InDelta(t, wantLat, got.CurrentLat, 1e-9)
	assert.InDelta(t, wantLon, got.CurrentLon, 1e-9)
	assert.Equal(t, models.ShipmentInTransit, got.Status)
}

func TestFinalizeDeliveryRequiresArrived(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreditInventory(ctx, "Onion", 100, time.Now().UTC()))
	shipment := inTransitShipment("Onion", 100)
	require.NoError(t, s.CreateShipment(ctx, shipment))

	sale := models.SaleRecord{
		ID:               uuid.NewString(),
		Commodity:        "Onion",
		QuantitySold:     100,
		SalePricePerUnit: 20,
		TotalRevenue:     2000,
		MarketSoldAt:     "Mumbai",
		SaleDate:         time.Now().UTC(),
	}

	// Still in transit: no delivery, no sale.
	err := s.FinalizeDelivery(ctx, shipment.ID, sale)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	sales, err := s.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)

	_, err = s.AdvanceShipments(ctx, 1.0)
	require.NoError(t, err)

	require.NoError(t, s.FinalizeDelivery(ctx, shipment.ID, sale))

	got, err := s.GetShipment(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShipmentDelivered, got.Status)

	active, err := s.ListActiveShipments(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	sales, err = s.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 2000.0, sales[0].TotalRevenue)

	// Delivered is terminal.
	err = s.FinalizeDelivery(ctx, shipment.ID, sale)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestAnalysisHistoryFiltering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := models.AnalysisRecord{
		ID:         uuid.NewString(),
		Timestamp:  base,
		Owner:      "ramesh",
		ReportType: models.ReportMarketAnalysis,
		Query:      map[string]string{"type": string(models.ReportMarketAnalysis), "analysis_type": "Best Market for Commodity", "query_value": "Onion"},
		Report:     "### Top Recommendation for 'Onion'",
	}
	newer := models.AnalysisRecord{
		ID:         uuid.NewString(),
		Timestamp:  base.Add(time.Hour),
		Owner:      "sita",
		ReportType: models.ReportAIForecast,
		Query:      map[string]string{"type": string(models.ReportAIForecast), "commodity": "Onion", "state": "All", "market": "All"},
		Report:     "### Price Forecast",
	}
	require.NoError(t, s.InsertAnalysis(ctx, older))
	require.NoError(t, s.InsertAnalysis(ctx, newer))

	all, err := s.ListAnalyses(ctx, models.AnalysisFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)
	assert.Equal(t, "Onion", all[1].Query["query_value"])

	forecasts, err := s.ListAnalyses(ctx, models.AnalysisFilter{ReportType: models.ReportAIForecast})
	require.NoError(t, err)
	require.Len(t, forecasts, 1)
	assert.Equal(t, newer.ID, forecasts[0].ID)

	owned, err := s.ListAnalyses(ctx, models.AnalysisFilter{Owner: "ramesh"})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, older.ID, owned[0].ID)

	none, err := s.ListAnalyses(ctx, models.AnalysisFilter{ReportType: models.ReportAIForecast, Owner: "ramesh"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
