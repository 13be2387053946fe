// Package forecast implements the AI forecast workflow: it distills the
// market dataset into descriptive statistics and hands only those to the
// report generator, never the raw observations.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/dataset"
	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
	"github.com/agrichain-os/agrichain/pkg/clients/groq"
)

// ErrNoData indicates the dataset holds no observations for the query.
var ErrNoData = errors.New("no market data for query")

// ErrGeneratorUnavailable indicates the report generator failed or produced
// nothing; the caller sees "no forecast produced", not a crash.
var ErrGeneratorUnavailable = errors.New("forecast generator unavailable")

// Metrics are the descriptive statistics supplied to the generator.
type Metrics struct {
	Commodity   string  `json:"commodity"`
	AvgPrice    float64 `json:"avg_price"`
	Volatility  float64 `json:"volatility_pct"` // coefficient of variation, percent
	TopMarket   string  `json:"top_market"`
	TopPrice    float64 `json:"top_price"`
	MarketCount int     `json:"market_count"` // distinct markets, a demand indicator
}

// Summary renders the metrics as the generator's input text.
func (m Metrics) Summary() string {
	return fmt.Sprintf(
		"Data for %s:\n- Avg Price: %.2f\n- Volatility: %.2f%%\n- Top Market: %s at ₹%.2f\n- Demand Indicator: %d markets",
		m.Commodity, m.AvgPrice, m.Volatility, m.TopMarket, m.TopPrice, m.MarketCount)
}

// Forecast is a generated report plus the metrics that fed it.
type Forecast struct {
	Metrics Metrics `json:"metrics"`
	Report  string  `json:"report"`
}

// Service runs the forecast workflow.
type Service struct {
	data      *dataset.Dataset
	generator groq.Client
	store     repository.AnalysisStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new forecast service. A nil generator disables the
// workflow; Generate then reports the generator as unavailable.
func NewService(data *dataset.Dataset, generator groq.Client, store repository.AnalysisStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{data: data, generator: generator, store: store, logger: logger, now: time.Now}
}

// Metrics computes the descriptive statistics for a commodity, optionally
// narrowed by state and market (case-insensitive substring filters, "All"
// matching everything).
func (s *Service) Metrics(commodity, state, market string) (Metrics, error) {
	rows := s.data.Filter(commodity, state, market)
	if len(rows) == 0 {
		return Metrics{}, fmt.Errorf("%w: commodity %q", ErrNoData, commodity)
	}

	prices := make([]float64, len(rows))
	top := rows[0]
	markets := map[string]struct{}{}
	for i, row := range rows {
		prices[i] = row.ModalPrice
		markets[row.Market] = struct{}{}
		if row.ModalPrice > top.ModalPrice {
			top = row
		}
	}

	mean, err := stats.Mean(prices)
	if err != nil {
		return Metrics{}, fmt.Errorf("mean price: %w", err)
	}
	stdDev, err := stats.StandardDeviationSample(prices)
	if err != nil {
		// A single observation has no sample deviation; volatility is zero.
		stdDev = 0
	}

	volatility := 0.0
	if mean > 0 {
		volatility = stdDev / mean * 100
	}

	return Metrics{
		Commodity:   commodity,
		AvgPrice:    mean,
		Volatility:  volatility,
		TopMarket:   fmt.Sprintf("%s, %s", top.Market, top.State),
		TopPrice:    top.ModalPrice,
		MarketCount: len(markets),
	}, nil
}

// Generate computes the metrics, asks the generator for the 3-part report
// and appends the result to the forecast history. Generator failure or an
// empty report surfaces as ErrGeneratorUnavailable; nothing is saved then.
func (s *Service) Generate(ctx context.Context, owner, commodity, state string) (Forecast, error) {
	metrics, err := s.Metrics(commodity, state, dataset.Wildcard)
	if err != nil {
		return Forecast{}, err
	}

	if s.generator == nil {
		return Forecast{}, ErrGeneratorUnavailable
	}

	report, err := s.generator.GenerateReport(ctx, metrics.Summary())
	if err != nil {
		s.logger.Warn("forecast generation failed", zap.String("commodity", commodity), zap.Error(err))
		return Forecast{}, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}
	if report == "" {
		return Forecast{}, ErrGeneratorUnavailable
	}

	if state == "" {
		state = dataset.Wildcard
	}
	record := models.AnalysisRecord{
		ID:         uuid.NewString(),
		Timestamp:  s.now().UTC(),
		Owner:      owner,
		ReportType: models.ReportAIForecast,
		Query: map[string]string{
			"type":      string(models.ReportAIForecast),
			"commodity": commodity,
			"state":     state,
			"market":    dataset.Wildcard,
		},
		Report: report,
	}
	if err := s.store.InsertAnalysis(ctx, record); err != nil {
		return Forecast{}, fmt.Errorf("save forecast: %w", err)
	}

	s.logger.Info("forecast generated",
		zap.String("commodity", commodity), zap.String("state", state))
	return Forecast{Metrics: metrics, Report: report}, nil
}
