package models

import "time"

// SaleRecord captures one completed transaction for a delivered shipment.
// Records are append-only and never mutated.
type SaleRecord struct {
	ID               string    `bson:"_id" json:"id" db:"id"`
	Commodity        string    `bson:"commodity" json:"commodity" db:"commodity"`
	QuantitySold     float64   `bson:"quantity_sold" json:"quantity_sold" db:"quantity_sold"`
	SalePricePerUnit float64   `bson:"sale_price_per_unit" json:"sale_price_per_unit" db:"sale_price_per_unit"`
	TotalRevenue     float64   `bson:"total_revenue" json:"total_revenue" db:"total_revenue"`
	MarketSoldAt     string    `bson:"market_sold_at" json:"market_sold_at" db:"market_sold_at"`
	SaleDate         time.Time `bson:"sale_date" json:"sale_date" db:"sale_date"`
}

// SalesSummary aggregates the sales ledger for the finance dashboard.
type SalesSummary struct {
	TotalRevenue       float64            `json:"total_revenue"`
	SaleCount          int                `json:"sale_count"`
	AverageSaleValue   float64            `json:"average_sale_value"`
	RevenueByCommodity map[string]float64 `json:"revenue_by_commodity"`
}
