package models

import "time"

// ReportType discriminates the two kinds of saved analysis history entries.
type ReportType string

const (
	ReportMarketAnalysis ReportType = "Market Analysis"
	ReportAIForecast     ReportType = "AI Forecast"
)

// AnalysisRecord is one saved report, either a data-driven market analysis
// or an AI-generated forecast. History is append-only.
type AnalysisRecord struct {
	ID         string            `bson:"_id" json:"id" db:"id"`
	Timestamp  time.Time         `bson:"timestamp" json:"timestamp" db:"timestamp"`
	Owner      string            `bson:"owner,omitempty" json:"owner,omitempty" db:"owner"`
	ReportType ReportType        `bson:"report_type" json:"report_type" db:"report_type"`
	Query      map[string]string `bson:"query" json:"query"`
	Report     string            `bson:"report" json:"report" db:"report"`
}

// AnalysisFilter narrows a history listing. Zero values match everything.
type AnalysisFilter struct {
	ReportType ReportType
	Owner      string
}
