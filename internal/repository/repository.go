// Package repository defines the persistence contract shared by the local
// SQLite backend and the remote MongoDB backend. Every operation that
// read-modify-writes a quantity is expressed as a single atomic store
// operation so concurrent callers cannot lose updates.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/agrichain-os/agrichain/internal/domain/models"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInsufficientStock indicates a debit would drive inventory below zero,
// or that no inventory entry exists for the commodity.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrInvalidTransition indicates a lifecycle operation was invoked on an
// entity that is not in the expected source state.
var ErrInvalidTransition = errors.New("invalid status transition")

// FarmStore persists farm plots.
type FarmStore interface {
	InsertPlot(ctx context.Context, plot models.FarmPlot) error
	GetPlot(ctx context.Context, id string) (models.FarmPlot, error)
	ListPlotsByStatus(ctx context.Context, status models.PlotStatus) ([]models.FarmPlot, error)
	// HarvestPlot flips the plot GROWING -> HARVESTED and credits inventory
	// with the harvested quantity as one transactional unit. A plot that is
	// not GROWING yields ErrInvalidTransition and leaves inventory untouched.
	HarvestPlot(ctx context.Context, plotID, commodity string, quantity float64, when time.Time) error
}

// InventoryStore persists warehouse stock levels.
type InventoryStore interface {
	// CreditInventory performs an accumulate-on-conflict upsert: the first
	// credit for a commodity creates the entry, later credits add to it.
	CreditInventory(ctx context.Context, commodity string, quantity float64, when time.Time) error
	// DebitInventory subtracts quantity from the entry, failing with
	// ErrInsufficientStock when the entry is missing or short. The check and
	// the subtraction are one conditional update.
	DebitInventory(ctx context.Context, commodity string, quantity float64, when time.Time) error
	ListAvailableInventory(ctx context.Context) ([]models.InventoryEntry, error)
}

// ShipmentStore persists shipments and their lifecycle.
type ShipmentStore interface {
	// CreateShipment inserts the shipment and debits inventory for its
	// quantity as one transactional unit. ErrInsufficientStock aborts both.
	CreateShipment(ctx context.Context, shipment models.Shipment) error
	GetShipment(ctx context.Context, id string) (models.Shipment, error)
	// AdvanceShipments moves every IN_TRANSIT shipment forward by step,
	// clamping progress to 1.0, interpolating the current position and
	// flipping status to ARRIVED at 1.0. Returns the number of shipments
	// moved. Each shipment is updated independently.
	AdvanceShipments(ctx context.Context, step float64) (int64, error)
	// ListActiveShipments returns shipments still relevant to logistics,
	// i.e. IN_TRANSIT or ARRIVED.
	ListActiveShipments(ctx context.Context) ([]models.Shipment, error)
	// FinalizeDelivery flips the shipment ARRIVED -> DELIVERED and appends
	// the sale record as one transactional unit. A shipment not in ARRIVED
	// yields ErrInvalidTransition and no sale is written.
	FinalizeDelivery(ctx context.Context, shipmentID string, sale models.SaleRecord) error
}

// SalesStore reads the append-only sales ledger.
type SalesStore interface {
	ListSales(ctx context.Context) ([]models.SaleRecord, error)
}

// AnalysisStore persists the analysis/forecast history.
type AnalysisStore interface {
	InsertAnalysis(ctx context.Context, record models.AnalysisRecord) error
	ListAnalyses(ctx context.Context, filter models.AnalysisFilter) ([]models.AnalysisRecord, error)
}

// Store is the full persistence surface, selected by configuration.
type Store interface {
	FarmStore
	InventoryStore
	ShipmentStore
	SalesStore
	AnalysisStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
