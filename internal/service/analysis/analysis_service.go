// Package analysis implements the data-driven market analysis tools and the
// shared analysis/forecast history.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/dataset"
	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
)

// ErrNoData indicates the dataset holds no observations for the query.
var ErrNoData = errors.New("no market data for query")

// rankingSize caps how many entries a recommendation carries.
const rankingSize = 5

// RankedEntry is one name/average-price pair in a recommendation ranking.
type RankedEntry struct {
	Name     string  `json:"name"`
	AvgPrice float64 `json:"avg_price"`
}

// Recommendation is the outcome of a market analysis: the best candidate
// plus the ranked alternatives and the saved report text.
type Recommendation struct {
	QueryValue string        `json:"query_value"`
	Top        string        `json:"top"`
	TopPrice   float64       `json:"top_price"`
	Ranking    []RankedEntry `json:"ranking"`
	Report     string        `json:"report"`
}

// Service exposes market analyses over the read-only dataset and persists
// every produced report to the history store.
type Service struct {
	data   *dataset.Dataset
	store  repository.AnalysisStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new analysis service instance.
func NewService(data *dataset.Dataset, store repository.AnalysisStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{data: data, store: store, logger: logger, now: time.Now}
}

// BestMarketForCommodity ranks markets by mean modal price for a commodity
// and records the analysis in history.
func (s *Service) BestMarketForCommodity(ctx context.Context, owner, commodity string) (Recommendation, error) {
	ranking := rankByMean(s.data.ByCommodity(commodity), func(r dataset.Row) string { return r.Market })
	if len(ranking) == 0 {
		return Recommendation{}, fmt.Errorf("%w: commodity %q", ErrNoData, commodity)
	}

	rec := Recommendation{
		QueryValue: commodity,
		Top:        ranking[0].Name,
		TopPrice:   ranking[0].AvgPrice,
		Ranking:    ranking,
	}
	rec.Report = fmt.Sprintf(
		"### Top Recommendation for '%s'\n- **Best Market to Sell:** %s\n- **Expected Average Price:** ₹%.2f",
		commodity, rec.Top, rec.TopPrice)

	if err := s.save(ctx, owner, "Best Market for Commodity", commodity, rec.Report); err != nil {
		return Recommendation{}, err
	}
	return rec, nil
}

// BestCommodityForMarket ranks commodities by mean modal price within a
// market and records the analysis in history.
func (s *Service) BestCommodityForMarket(ctx context.Context, owner, market string) (Recommendation, error) {
	ranking := rankByMean(s.data.ByMarket(market), func(r dataset.Row) string { return r.Commodity })
	if len(ranking) == 0 {
		return Recommendation{}, fmt.Errorf("%w: market %q", ErrNoData, market)
	}

	rec := Recommendation{
		QueryValue: market,
		Top:        ranking[0].Name,
		TopPrice:   ranking[0].AvgPrice,
		Ranking:    ranking,
	}
	rec.Report = fmt.Sprintf(
		"### Top Recommendation for '%s' Market\n- **Best Commodity to Sell:** %s\n- **Expected Average Price:** ₹%.2f",
		market, rec.Top, rec.TopPrice)

	if err := s.save(ctx, owner, "Best Commodity for Market", market, rec.Report); err != nil {
		return Recommendation{}, err
	}
	return rec, nil
}

// History lists saved reports, newest first, optionally narrowed by report
// type and owner.
func (s *Service) History(ctx context.Context, filter models.AnalysisFilter) ([]models.AnalysisRecord, error) {
	return s.store.ListAnalyses(ctx, filter)
}

func (s *Service) save(ctx context.Context, owner, analysisType, queryValue, report string) error {
	record := models.AnalysisRecord{
		ID:         uuid.NewString(),
		Timestamp:  s.now().UTC(),
		Owner:      owner,
		ReportType: models.ReportMarketAnalysis,
		Query: map[string]string{
			"type":          string(models.ReportMarketAnalysis),
			"analysis_type": analysisType,
			"query_value":   queryValue,
		},
		Report: report,
	}
	if err := s.store.InsertAnalysis(ctx, record); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	s.logger.Info("market analysis saved",
		zap.String("analysis_type", analysisType), zap.String("query", queryValue))
	return nil
}

// rankByMean groups rows by key and returns the top entries by mean modal
// price, descending.
func rankByMean(rows []dataset.Row, key func(dataset.Row) string) []RankedEntry {
	grouped := map[string][]float64{}
	for _, row := range rows {
		k := key(row)
		grouped[k] = append(grouped[k], row.ModalPrice)
	}

	ranking := make([]RankedEntry, 0, len(grouped))
	for name, prices := range grouped {
		mean, err := stats.Mean(prices)
		if err != nil {
			continue
		}
		ranking = append(ranking, RankedEntry{Name: name, AvgPrice: mean})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].AvgPrice != ranking[j].AvgPrice {
			return ranking[i].AvgPrice > ranking[j].AvgPrice
		}
		return ranking[i].Name < ranking[j].Name
	})

	if len(ranking) > rankingSize {
		ranking = ranking[:rankingSize]
	}
	return ranking
}
