// Package mongodb implements the repository contract on a hosted MongoDB
// deployment. Quantity mutations rely on server-side conditional updates and
// $inc so concurrent writers never race; the two-effect operations (harvest,
// dispatch, delivery) run in multi-document transactions.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
)

const (
	plotsColl     = "farm_plots"
	inventoryColl = "inventory"
	shipmentsColl = "shipments"
	salesColl     = "sales"
	analysisColl  = "analysis_results"
)

// Store is the MongoDB-backed implementation of repository.Store.
type Store struct {
	client *mongo.Client
	dbName string
}

var _ repository.Store = (*Store)(nil)

// Open connects to the deployment, verifies the connection and ensures the
// uniqueness constraint on inventory commodities.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{client: client, dbName: dbName}

	_, err = s.coll(inventoryColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "commodity", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("ensure inventory index: %w", err)
	}

	return s, nil
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.client.Database(s.dbName).Collection(name)
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from the deployment.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// InsertPlot stores a newly planted plot.
func (s *Store) InsertPlot(ctx context.Context, plot models.FarmPlot) error {
	if _, err := s.coll(plotsColl).InsertOne(ctx, plot); err != nil {
		return fmt.Errorf("insert plot: %w", err)
	}
	return nil
}

// GetPlot fetches a single plot by id.
func (s *Store) GetPlot(ctx context.Context, id string) (models.FarmPlot, error) {
	var plot models.FarmPlot
	err := s.coll(plotsColl).FindOne(ctx, bson.M{"_id": id}).Decode(&plot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.FarmPlot{}, repository.ErrNotFound
	}
	if err != nil {
		return models.FarmPlot{}, fmt.Errorf("get plot: %w", err)
	}
	return plot, nil
}

// ListPlotsByStatus returns plots in the given lifecycle state.
func (s *Store) ListPlotsByStatus(ctx context.Context, status models.PlotStatus) ([]models.FarmPlot, error) {
	cursor, err := s.coll(plotsColl).Find(ctx, bson.M{"status": status},
		options.Find().SetSort(bson.D{{Key: "date_planted", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	plots := []models.FarmPlot{}
	if err := cursor.All(ctx, &plots); err != nil {
		return nil, fmt.Errorf("decode plots: %w", err)
	}
	return plots, nil
}

func (s *Store) creditInventory(ctx context.Context, commodity string, quantity float64, when time.Time) error {
	_, err := s.coll(inventoryColl).UpdateOne(ctx,
		bson.M{"commodity": commodity},
		bson.M{
			"$inc":         bson.M{"quantity": quantity},
			"$set":         bson.M{"last_updated": when},
			"$setOnInsert": bson.M{"_id": uuid.NewString(), "unit": models.DefaultUnit},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("credit inventory: %w", err)
	}
	return nil
}

func (s *Store) debitInventory(ctx context.Context, commodity string, quantity float64, when time.Time) error {
	res, err := s.coll(inventoryColl).UpdateOne(ctx,
		bson.M{"commodity": commodity, "quantity": bson.M{"$gte": quantity}},
		bson.M{
			"$inc": bson.M{"quantity": -quantity},
			"$set": bson.M{"last_updated": when},
		})
	if err != nil {
		return fmt.Errorf("debit inventory: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrInsufficientStock
	}
	return nil
}

func (s *Store) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// HarvestPlot flips the plot GROWING -> HARVESTED and credits inventory in
// one transaction.
func (s *Store) HarvestPlot(ctx context.Context, plotID, commodity string, quantity float64, when time.Time) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.coll(plotsColl).UpdateOne(sc,
			bson.M{"_id": plotID, "status": models.PlotGrowing},
			bson.M{"$set": bson.M{"status": models.PlotHarvested}})
		if err != nil {
			return fmt.Errorf("mark plot harvested: %w", err)
		}
		if res.MatchedCount == 0 {
			return repository.ErrInvalidTransition
		}
		return s.creditInventory(sc, commodity, quantity, when)
	})
}

// CreditInventory accumulates quantity onto a commodity entry, creating it
// on first use, as a single upsert.
func (s *Store) CreditInventory(ctx context.Context, commodity string, quantity float64, when time.Time) error {
	return s.creditInventory(ctx, commodity, quantity, when)
}

// DebitInventory subtracts quantity behind a quantity >= n filter, so the
// non-negativity check and the subtraction are one server-side operation.
func (s *Store) DebitInventory(ctx context.Context, commodity string, quantity float64, when time.Time) error {
	return s.debitInventory(ctx, commodity, quantity, when)
}

// ListAvailableInventory returns entries with stock on hand.
func (s *Store) ListAvailableInventory(ctx context.Context) ([]models.InventoryEntry, error) {
	cursor, err := s.coll(inventoryColl).Find(ctx,
		bson.M{"quantity": bson.M{"$gt": 0}},
		options.Find().SetSort(bson.D{{Key: "commodity", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	entries := []models.InventoryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	return entries, nil
}

// CreateShipment inserts the shipment and debits inventory in one
// transaction; an insufficient debit aborts the insert.
func (s *Store) CreateShipment(ctx context.Context, shipment models.Shipment) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.coll(shipmentsColl).InsertOne(sc, shipment); err != nil {
			return fmt.Errorf("insert shipment: %w", err)
		}
		return s.debitInventory(sc, shipment.Commodity, shipment.Quantity, time.Now().UTC())
	})
}

// GetShipment fetches a single shipment by id.
func (s *Store) GetShipment(ctx context.Context, id string) (models.Shipment, error) {
	var shipment models.Shipment
	err := s.coll(shipmentsColl).FindOne(ctx, bson.M{"_id": id}).Decode(&shipment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Shipment{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Shipment{}, fmt.Errorf("get shipment: %w", err)
	}
	return shipment, nil
}

// AdvanceShipments moves every in-transit shipment forward by step using an
// aggregation-pipeline update, so each document's clamp, interpolation and
// ARRIVED flip happen server-side in one operation.
func (s *Store) AdvanceShipments(ctx context.Context, step float64) (int64, error) {
	newProgress := bson.M{"$min": bson.A{bson.M{"$add": bson.A{"$progress", step}}, 1.0}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"progress": newProgress,
			"current_lat": bson.M{"$add": bson.A{"$start_lat",
				bson.M{"$multiply": bson.A{newProgress,
					bson.M{"$subtract": bson.A{"$destination_lat", "$start_lat"}}}}}},
			"current_lon": bson.M{"$add": bson.A{"$start_lon",
				bson.M{"$multiply": bson.A{newProgress,
					bson.M{"$subtract": bson.A{"$destination_lon", "$start_lon"}}}}}},
			"status": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{newProgress, 1.0}},
				models.ShipmentArrived,
				models.ShipmentInTransit,
			}},
		}}},
	}

	res, err := s.coll(shipmentsColl).UpdateMany(ctx,
		bson.M{"status": models.ShipmentInTransit}, pipeline)
	if err != nil {
		return 0, fmt.Errorf("advance shipments: %w", err)
	}
	return res.ModifiedCount, nil
}

// ListActiveShipments returns shipments that are IN_TRANSIT or ARRIVED.
func (s *Store) ListActiveShipments(ctx context.Context) ([]models.Shipment, error) {
	cursor, err := s.coll(shipmentsColl).Find(ctx,
		bson.M{"status": bson.M{"$in": bson.A{models.ShipmentInTransit, models.ShipmentArrived}}})
	if err != nil {
		return nil, fmt.Errorf("list active shipments: %w", err)
	}
	shipments := []models.Shipment{}
	if err := cursor.All(ctx, &shipments); err != nil {
		return nil, fmt.Errorf("decode shipments: %w", err)
	}
	return shipments, nil
}

// FinalizeDelivery flips the shipment ARRIVED -> DELIVERED and appends the
// sale in one transaction.
func (s *Store) FinalizeDelivery(ctx context.Context, shipmentID string, sale models.SaleRecord) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.coll(shipmentsColl).UpdateOne(sc,
			bson.M{"_id": shipmentID, "status": models.ShipmentArrived},
			bson.M{"$set": bson.M{"status": models.ShipmentDelivered}})
		if err != nil {
			return fmt.Errorf("deliver shipment: %w", err)
		}
		if res.MatchedCount == 0 {
			return repository.ErrInvalidTransition
		}
		if _, err := s.coll(salesColl).InsertOne(sc, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		return nil
	})
}

// ListSales returns the full sales history, most recent first.
func (s *Store) ListSales(ctx context.Context) ([]models.SaleRecord, error) {
	cursor, err := s.coll(salesColl).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "sale_date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	sales := []models.SaleRecord{}
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, fmt.Errorf("decode sales: %w", err)
	}
	return sales, nil
}

// InsertAnalysis appends a record to the analysis history.
func (s *Store) InsertAnalysis(ctx context.Context, record models.AnalysisRecord) error {
	if _, err := s.coll(analysisColl).InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// ListAnalyses returns matching history entries ordered by recency.
func (s *Store) ListAnalyses(ctx context.Context, filter models.AnalysisFilter) ([]models.AnalysisRecord, error) {
	query := bson.M{}
	if filter.ReportType != "" {
		query["report_type"] = filter.ReportType
	}
	if filter.Owner != "" {
		query["owner"] = filter.Owner
	}

	cursor, err := s.coll(analysisColl).Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	records := []models.AnalysisRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode analyses: %w", err)
	}
	return records, nil
}
