// Package farm implements the farm plot tracker: planting and the harvest
// transition that feeds the warehouse inventory.
package farm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
)

// ErrInvalidQuantity rejects plantings without a positive quantity.
var ErrInvalidQuantity = errors.New("planted quantity must be positive")

// Service exposes the farm plot lifecycle.
type Service struct {
	store  repository.FarmStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new farm tracker instance.
func NewService(store repository.FarmStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Plant registers a new plot in GROWING state.
func (s *Service) Plant(ctx context.Context, commodity, plotLabel string, quantity float64, datePlanted, expectedHarvest time.Time) (models.FarmPlot, error) {
	if quantity <= 0 {
		return models.FarmPlot{}, ErrInvalidQuantity
	}

	plot := models.FarmPlot{
		ID:                  uuid.NewString(),
		Commodity:           commodity,
		PlotLabel:           plotLabel,
		QuantityPlanted:     quantity,
		DatePlanted:         datePlanted,
		ExpectedHarvestDate: expectedHarvest,
		Status:              models.PlotGrowing,
	}
	if err := s.store.InsertPlot(ctx, plot); err != nil {
		return models.FarmPlot{}, fmt.Errorf("plant %s on %s: %w", commodity, plotLabel, err)
	}

	s.logger.Info("plot planted",
		zap.String("plot_id", plot.ID),
		zap.String("commodity", commodity),
		zap.Float64("quantity", quantity))
	return plot, nil
}

// Harvest flips the plot to HARVESTED and credits its planted quantity into
// inventory as a single transactional unit. A plot that is already harvested
// fails with repository.ErrInvalidTransition, so a plot can never be
// harvested twice and inventory can never be credited twice for it.
func (s *Service) Harvest(ctx context.Context, plotID string) (models.FarmPlot, error) {
	plot, err := s.store.GetPlot(ctx, plotID)
	if err != nil {
		return models.FarmPlot{}, fmt.Errorf("load plot %s: %w", plotID, err)
	}

	if err := s.store.HarvestPlot(ctx, plot.ID, plot.Commodity, plot.QuantityPlanted, s.now().UTC()); err != nil {
		return models.FarmPlot{}, fmt.Errorf("harvest plot %s: %w", plotID, err)
	}

	s.logger.Info("plot harvested",
		zap.String("plot_id", plot.ID),
		zap.String("commodity", plot.Commodity),
		zap.Float64("quantity", plot.QuantityPlanted))

	plot.Status = models.PlotHarvested
	return plot, nil
}

// ListByStatus is a read-only filter over plots.
func (s *Service) ListByStatus(ctx context.Context, status models.PlotStatus) ([]models.FarmPlot, error) {
	return s.store.ListPlotsByStatus(ctx, status)
}
