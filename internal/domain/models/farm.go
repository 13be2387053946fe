package models

import "time"

// PlotStatus tracks the lifecycle of a planted plot.
type PlotStatus string

const (
	PlotGrowing   PlotStatus = "GROWING"
	PlotHarvested PlotStatus = "HARVESTED"
)

// FarmPlot represents one planted plot. A plot is created on planting and
// mutated exactly once, when its crop is harvested into inventory.
type FarmPlot struct {
	ID                  string     `bson:"_id" json:"id" db:"id"`
	Commodity           string     `bson:"commodity" json:"commodity" db:"commodity"`
	PlotLabel           string     `bson:"plot_label" json:"plot_label" db:"plot_label"`
	QuantityPlanted     float64    `bson:"quantity_planted" json:"quantity_planted" db:"quantity_planted"`
	DatePlanted         time.Time  `bson:"date_planted" json:"date_planted" db:"date_planted"`
	ExpectedHarvestDate time.Time  `bson:"expected_harvest_date" json:"expected_harvest_date" db:"expected_harvest_date"`
	Status              PlotStatus `bson:"status" json:"status" db:"status"`
}
