package models

import "time"

// InventoryEntry tracks warehouse stock on hand for a single commodity.
// Commodity is the unique key; quantity never drops below zero.
type InventoryEntry struct {
	ID          string    `bson:"_id" json:"id" db:"id"`
	Commodity   string    `bson:"commodity" json:"commodity" db:"commodity"`
	Quantity    float64   `bson:"quantity" json:"quantity" db:"quantity"`
	Unit        string    `bson:"unit" json:"unit" db:"unit"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated" db:"last_updated"`
}

// DefaultUnit is the stock unit used when none is specified.
const DefaultUnit = "KG"
