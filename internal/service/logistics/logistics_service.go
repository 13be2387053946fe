// Package logistics implements the shipment lifecycle engine: dispatching
// shipments against warehouse inventory, advancing them along their routes
// and listing what is still on the road.
//
// The engine owns no timing: the tracking scheduler (or a manual API call)
// invokes AdvanceAll on whatever cadence it wants.
package logistics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
	"github.com/agrichain-os/agrichain/pkg/clients/geocode"
)

// Every route starts from the same central dispatch point.
const (
	OriginLat = 20.5937
	OriginLon = 78.9629
)

// ErrInvalidQuantity rejects dispatches without a positive quantity.
var ErrInvalidQuantity = errors.New("shipment quantity must be positive")

// ErrInvalidStep rejects non-positive advancement steps.
var ErrInvalidStep = errors.New("advancement step must be positive")

// Service is the shipment lifecycle engine.
type Service struct {
	store    repository.ShipmentStore
	geocoder geocode.Client
	logger   *zap.Logger
}

// NewService wires a new lifecycle engine instance.
func NewService(store repository.ShipmentStore, geocoder geocode.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, geocoder: geocoder, logger: logger}
}

// Create dispatches a new shipment. The destination is geocoded first: a
// failed lookup aborts before anything is written, so inventory stays
// untouched. On success the shipment insert and the inventory debit are one
// transactional store operation; insufficient stock rolls both back.
func (s *Service) Create(ctx context.Context, truckID, commodity string, quantity float64, destination string) (models.Shipment, error) {
	if quantity <= 0 {
		return models.Shipment{}, ErrInvalidQuantity
	}
	if truckID == "" {
		truckID = "TRUCK-" + strings.ToUpper(uuid.NewString()[:8])
	}

	coords, err := s.geocoder.Resolve(ctx, destination)
	if err != nil {
		return models.Shipment{}, fmt.Errorf("resolve destination %q: %w", destination, err)
	}

	shipment := models.Shipment{
		ID:                uuid.NewString(),
		TruckID:           truckID,
		Commodity:         commodity,
		Quantity:          quantity,
		DestinationMarket: destination,
		StartLat:          OriginLat,
		StartLon:          OriginLon,
		DestinationLat:    coords.Lat,
		DestinationLon:    coords.Lon,
		CurrentLat:        OriginLat,
		CurrentLon:        OriginLon,
		Progress:          0.0,
		Status:            models.ShipmentInTransit,
	}

	if err := s.store.CreateShipment(ctx, shipment); err != nil {
		return models.Shipment{}, fmt.Errorf("dispatch %s to %s: %w", commodity, destination, err)
	}

	s.logger.Info("shipment dispatched",
		zap.String("shipment_id", shipment.ID),
		zap.String("truck_id", truckID),
		zap.String("commodity", commodity),
		zap.Float64("quantity", quantity),
		zap.String("destination", destination))
	return shipment, nil
}

// AdvanceAll moves every in-transit shipment forward by step. Progress is
// clamped to exactly 1.0, the current position is the linear interpolation
// between start and destination at the new progress, and shipments reaching
// 1.0 flip to ARRIVED. Each shipment advances independently; repeated small
// steps converge on the destination without overshooting.
func (s *Service) AdvanceAll(ctx context.Context, step float64) (int64, error) {
	if step <= 0 {
		return 0, ErrInvalidStep
	}

	moved, err := s.store.AdvanceShipments(ctx, step)
	if err != nil {
		return 0, fmt.Errorf("advance shipments: %w", err)
	}
	if moved > 0 {
		s.logger.Debug("shipments advanced",
			zap.Int64("moved", moved), zap.Float64("step", step))
	}
	return moved, nil
}

// ListActive returns shipments still relevant to logistics: IN_TRANSIT plus
// ARRIVED, excluding DELIVERED.
func (s *Service) ListActive(ctx context.Context) ([]models.Shipment, error) {
	return s.store.ListActiveShipments(ctx)
}

// Get fetches a single shipment.
func (s *Service) Get(ctx context.Context, id string) (models.Shipment, error) {
	return s.store.GetShipment(ctx, id)
}
