// Package sqlite implements the repository contract on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
)

// Store is the SQLite-backed implementation of repository.Store.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

var _ repository.Store = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite supports a single writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS farm_plots (
		id TEXT PRIMARY KEY,
		commodity TEXT NOT NULL,
		plot_label TEXT NOT NULL DEFAULT '',
		quantity_planted REAL NOT NULL,
		date_planted DATETIME NOT NULL,
		expected_harvest_date DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'GROWING'
	);

	CREATE TABLE IF NOT EXISTS inventory (
		id TEXT PRIMARY KEY,
		commodity TEXT NOT NULL UNIQUE,
		quantity REAL NOT NULL,
		unit TEXT NOT NULL DEFAULT 'KG',
		last_updated DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shipments (
		id TEXT PRIMARY KEY,
		truck_id TEXT NOT NULL,
		commodity TEXT NOT NULL,
		quantity REAL NOT NULL,
		destination_market TEXT NOT NULL,
		start_lat REAL NOT NULL,
		start_lon REAL NOT NULL,
		destination_lat REAL NOT NULL,
		destination_lon REAL NOT NULL,
		current_lat REAL NOT NULL,
		current_lon REAL NOT NULL,
		progress REAL NOT NULL DEFAULT 0.0,
		status TEXT NOT NULL DEFAULT 'IN_TRANSIT'
	);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		commodity TEXT NOT NULL,
		quantity_sold REAL NOT NULL,
		sale_price_per_unit REAL NOT NULL,
		total_revenue REAL NOT NULL,
		market_sold_at TEXT NOT NULL,
		sale_date DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analysis_results (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		owner TEXT NOT NULL DEFAULT '',
		report_type TEXT NOT NULL,
		query TEXT NOT NULL,
		report TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plots_status ON farm_plots(status);
	CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments(status);
	CREATE INDEX IF NOT EXISTS idx_analysis_type ON analysis_results(report_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertPlot stores a newly planted plot.
func (s *Store) InsertPlot(ctx context.Context, plot models.FarmPlot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO farm_plots (id, commodity, plot_label, quantity_planted, date_planted, expected_harvest_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plot.ID, plot.Commodity, plot.PlotLabel, plot.QuantityPlanted,
		plot.DatePlanted, plot.ExpectedHarvestDate, plot.Status)
	if err != nil {
		return fmt.Errorf("insert plot: %w", err)
	}
	return nil
}

// GetPlot fetches a single plot by id.
func (s *Store) GetPlot(ctx context.Context, id string) (models.FarmPlot, error) {
	var plot models.FarmPlot
	err := s.db.GetContext(ctx, &plot, `SELECT * FROM farm_plots WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FarmPlot{}, repository.ErrNotFound
	}
	if err != nil {
		return models.FarmPlot{}, fmt.Errorf("get plot: %w", err)
	}
	return plot, nil
}

// ListPlotsByStatus returns plots in the given lifecycle state.
func (s *Store) ListPlotsByStatus(ctx context.Context, status models.PlotStatus) ([]models.FarmPlot, error) {
	plots := []models.FarmPlot{}
	err := s.db.SelectContext(ctx, &plots,
		`SELECT * FROM farm_plots WHERE status = ? ORDER BY date_planted DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	return plots, nil
}

const creditSQL = `
	INSERT INTO inventory (id, commodity, quantity, unit, last_updated)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(commodity) DO UPDATE SET
		quantity = quantity + excluded.quantity,
		last_updated = excluded.last_updated`

// HarvestPlot marks the plot harvested and credits inventory in one
// transaction. Only a GROWING plot may be harvested.
func (s *Store) HarvestPlot(ctx context.Context, plotID, commodity string, quantity float64, when time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin harvest tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE farm_plots SET status = ? WHERE id = ? AND status = ?`,
		models.PlotHarvested, plotID, models.PlotGrowing)
	if err != nil {
		return fmt.Errorf("mark plot harvested: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return repository.ErrInvalidTransition
	}

	if _, err := tx.ExecContext(ctx, creditSQL,
		uuid.NewString(), commodity, quantity, models.DefaultUnit, when); err != nil {
		return fmt.Errorf("credit inventory: %w", err)
	}

	return tx.Commit()
}

// CreditInventory adds quantity to a commodity, creating the entry on first
// use. Insert-or-accumulate happens inside a single statement.
func (s *Store) CreditInventory(ctx context.Context, commodity string, quantity float64, when time.Time) error {
	_, err := s.db.ExecContext(ctx, creditSQL,
		uuid.NewString(), commodity, quantity, models.DefaultUnit, when)
	if err != nil {
		return fmt.Errorf("credit inventory: %w", err)
	}
	return nil
}

// DebitInventory subtracts quantity; the quantity >= ? guard makes the
// non-negativity check and the subtraction one atomic statement.
func (s *Store) DebitInventory(ctx context.Context, commodity string, quantity float64, when time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE inventory SET quantity = quantity - ?, last_updated = ? WHERE commodity = ? AND quantity >= ?`,
		quantity, when, commodity, quantity)
	if err != nil {
		return fmt.Errorf("debit inventory: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return repository.ErrInsufficientStock
	}
	return nil
}

// ListAvailableInventory returns entries with stock on hand.
func (s *Store) ListAvailableInventory(ctx context.Context) ([]models.InventoryEntry, error) {
	entries := []models.InventoryEntry{}
	err := s.db.SelectContext(ctx, &entries,
		`SELECT * FROM inventory WHERE quantity > 0 ORDER BY commodity`)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return entries, nil
}

// CreateShipment inserts the shipment and debits inventory in one
// transaction; an insufficient debit rolls back the insert.
func (s *Store) CreateShipment(ctx context.Context, shipment models.Shipment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin shipment tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shipments (id, truck_id, commodity, quantity, destination_market,
			start_lat, start_lon, destination_lat, destination_lon,
			current_lat, current_lon, progress, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		shipment.ID, shipment.TruckID, shipment.Commodity, shipment.Quantity,
		shipment.DestinationMarket, shipment.StartLat, shipment.StartLon,
		shipment.DestinationLat, shipment.DestinationLon,
		shipment.CurrentLat, shipment.CurrentLon, shipment.Progress, shipment.Status)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE inventory SET quantity = quantity - ?, last_updated = ? WHERE commodity = ? AND quantity >= ?`,
		shipment.Quantity, time.Now().UTC(), shipment.Commodity, shipment.Quantity)
	if err != nil {
		return fmt.Errorf("debit inventory: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return repository.ErrInsufficientStock
	}

	return tx.Commit()
}

// GetShipment fetches a single shipment by id.
func (s *Store) GetShipment(ctx context.Context, id string) (models.Shipment, error) {
	var shipment models.Shipment
	err := s.db.GetContext(ctx, &shipment, `SELECT * FROM shipments WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Shipment{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Shipment{}, fmt.Errorf("get shipment: %w", err)
	}
	return shipment, nil
}

// AdvanceShipments moves every in-transit shipment forward by step in one
// statement, so the clamp, the interpolation and the ARRIVED flip are atomic
// per row. All right-hand references read the pre-update row values.
func (s *Store) AdvanceShipments(ctx context.Context, step float64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE shipments SET
			progress = MIN(progress + ?, 1.0),
			current_lat = start_lat + MIN(progress + ?, 1.0) * (destination_lat - start_lat),
			current_lon = start_lon + MIN(progress + ?, 1.0) * (destination_lon - start_lon),
			status = CASE WHEN MIN(progress + ?, 1.0) >= 1.0 THEN ? ELSE ? END
		WHERE status = ?`,
		step, step, step, step,
		models.ShipmentArrived, models.ShipmentInTransit, models.ShipmentInTransit)
	if err != nil {
		return 0, fmt.Errorf("advance shipments: %w", err)
	}
	return res.RowsAffected()
}

// ListActiveShipments returns shipments that are IN_TRANSIT or ARRIVED.
func (s *Store) ListActiveShipments(ctx context.Context) ([]models.Shipment, error) {
	shipments := []models.Shipment{}
	err := s.db.SelectContext(ctx, &shipments,
		`SELECT * FROM shipments WHERE status IN (?, ?) ORDER BY id`,
		models.ShipmentInTransit, models.ShipmentArrived)
	if err != nil {
		return nil, fmt.Errorf("list active shipments: %w", err)
	}
	return shipments, nil
}

// FinalizeDelivery flips the shipment ARRIVED -> DELIVERED and appends the
// sale in one transaction. A shipment in any other state aborts with
// ErrInvalidTransition before the sale is written.
func (s *Store) FinalizeDelivery(ctx context.Context, shipmentID string, sale models.SaleRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delivery tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE shipments SET status = ? WHERE id = ? AND status = ?`,
		models.ShipmentDelivered, shipmentID, models.ShipmentArrived)
	if err != nil {
		return fmt.Errorf("deliver shipment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return repository.ErrInvalidTransition
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, commodity, quantity_sold, sale_price_per_unit, total_revenue, market_sold_at, sale_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.Commodity, sale.QuantitySold, sale.SalePricePerUnit,
		sale.TotalRevenue, sale.MarketSoldAt, sale.SaleDate)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	return tx.Commit()
}

// ListSales returns the full sales history, most recent first.
func (s *Store) ListSales(ctx context.Context) ([]models.SaleRecord, error) {
	sales := []models.SaleRecord{}
	err := s.db.SelectContext(ctx, &sales, `SELECT * FROM sales ORDER BY sale_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

type analysisRow struct {
	ID         string    `db:"id"`
	Timestamp  time.Time `db:"timestamp"`
	Owner      string    `db:"owner"`
	ReportType string    `db:"report_type"`
	Query      string    `db:"query"`
	Report     string    `db:"report"`
}

// InsertAnalysis appends a record to the analysis history. The structured
// query payload is stored as a JSON column.
func (s *Store) InsertAnalysis(ctx context.Context, record models.AnalysisRecord) error {
	queryJSON, err := json.Marshal(record.Query)
	if err != nil {
		return fmt.Errorf("marshal query payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (id, timestamp, owner, report_type, query, report)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.Timestamp, record.Owner, record.ReportType, string(queryJSON), record.Report)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// ListAnalyses returns matching history entries ordered by recency.
func (s *Store) ListAnalyses(ctx context.Context, filter models.AnalysisFilter) ([]models.AnalysisRecord, error) {
	query := `SELECT id, timestamp, owner, report_type, query, report FROM analysis_results`
	var conds []string
	var args []interface{}
	if filter.ReportType != "" {
		conds = append(conds, `report_type = ?`)
		args = append(args, filter.ReportType)
	}
	if filter.Owner != "" {
		conds = append(conds, `owner = ?`)
		args = append(args, filter.Owner)
	}
	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY timestamp DESC`

	rows := []analysisRow{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}

	records := make([]models.AnalysisRecord, 0, len(rows))
	for _, row := range rows {
		var payload map[string]string
		if err := json.Unmarshal([]byte(row.Query), &payload); err != nil {
			s.logger.Warn("skipping analysis row with malformed query payload",
				zap.String("id", row.ID), zap.Error(err))
			continue
		}
		records = append(records, models.AnalysisRecord{
			ID:         row.ID,
			Timestamp:  row.Timestamp,
			Owner:      row.Owner,
			ReportType: models.ReportType(row.ReportType),
			Query:      payload,
			Report:     row.Report,
		})
	}
	return records, nil
}
