package farm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
)

type harvestCall struct {
	plotID    string
	commodity string
	quantity  float64
	when      time.Time
}

type fakeFarmStore struct {
	plots      map[string]models.FarmPlot
	harvests   []harvestCall
	harvestErr error
}

func newFakeFarmStore() *fakeFarmStore {
	return &fakeFarmStore{plots: map[string]models.FarmPlot{}}
}

func (f *fakeFarmStore) InsertPlot(_ context.Context, plot models.FarmPlot) error {
	f.plots[plot.ID] = plot
	return nil
}

func (f *fakeFarmStore) GetPlot(_ context.Context, id string) (models.FarmPlot, error) {
	plot, ok := f.plots[id]
	if !ok {
		return models.FarmPlot{}, repository.ErrNotFound
	}
	return plot, nil
}

func (f *fakeFarmStore) ListPlotsByStatus(_ context.Context, status models.PlotStatus) ([]models.FarmPlot, error) {
	var out []models.FarmPlot
	for _, plot := range f.plots {
		if plot.Status == status {
			out = append(out, plot)
		}
	}
	return out, nil
}

func (f *fakeFarmStore) HarvestPlot(_ context.Context, plotID, commodity string, quantity float64, when time.Time) error {
	if f.harvestErr != nil {
		return f.harvestErr
	}
	f.harvests = append(f.harvests, harvestCall{plotID, commodity, quantity, when})
	return nil
}

func TestPlantCreatesGrowingPlot(t *testing.T) {
	store := newFakeFarmStore()
	svc := NewService(store, nil)

	planted := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	plot, err := svc.Plant(context.Background(), "Onion", "North Field", 500, planted, planted.AddDate(0, 0, 90))
	require.NoError(t, err)

	assert.NotEmpty(t, plot.ID)
	assert.Equal(t, models.PlotGrowing, plot.Status)
	assert.Equal(t, "Onion", plot.Commodity)
	assert.Equal(t, 500.0, plot.QuantityPlanted)
	assert.Contains(t, store.plots, plot.ID)
}

func TestPlantRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewService(newFakeFarmStore(), nil)

	_, err := svc.Plant(context.Background(), "Onion", "North Field", 0, time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestHarvestUsesPlotQuantity(t *testing.T) {
	store := newFakeFarmStore()
	svc := NewService(store, nil)
	harvestedAt := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return harvestedAt }

	planted, err := svc.Plant(context.Background(), "Tomato", "South Field", 300, time.Now(), time.Now())
	require.NoError(t, err)

	plot, err := svc.Harvest(context.Background(), planted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlotHarvested, plot.Status)

	require.Len(t, store.harvests, 1)
	call := store.harvests[0]
	assert.Equal(t, planted.ID, call.plotID)
	assert.Equal(t, "Tomato", call.commodity)
	assert.Equal(t, 300.0, call.quantity)
	assert.Equal(t, harvestedAt, call.when)
}

func TestHarvestUnknownPlot(t *testing.T) {
	svc := NewService(newFakeFarmStore(), nil)

	_, err := svc.Harvest(context.Background(), "absent")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHarvestPropagatesInvalidTransition(t *testing.T) {
	store := newFakeFarmStore()
	store.harvestErr = repository.ErrInvalidTransition
	svc := NewService(store, nil)

	planted, err := svc.Plant(context.Background(), "Onion", "North Field", 100, time.Now(), time.Now())
	require.NoError(t, err)

	_, err = svc.Harvest(context.Background(), planted.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}
