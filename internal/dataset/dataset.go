// Package dataset loads the read-only commodity market price dataset used
// by the analysis and forecast services. The dataset is loaded once at
// startup and passed explicitly to every consumer.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Row is one market price observation.
type Row struct {
	State      string
	District   string
	Market     string
	Commodity  string
	MinPrice   float64
	MaxPrice   float64
	ModalPrice float64
}

// Dataset is an immutable collection of price observations.
type Dataset struct {
	rows    []Row
	dropped int
}

// Wildcard matches every state or market in a filter.
const Wildcard = "All"

// Load reads the CSV at path. Raw headers may carry the XML space escape
// (Min_x0020_Price); these are normalized to underscores. Rows missing a
// commodity or market, or with an unparseable modal price, are dropped and
// counted rather than failing the load.
func Load(path string, logger *zap.Logger) (*Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset %s has no data rows", path)
	}

	index := map[string]int{}
	for i, name := range records[0] {
		normalized := strings.ReplaceAll(strings.TrimSpace(name), "_x0020_", "_")
		index[normalized] = i
	}
	for _, required := range []string{"State", "Market", "Commodity", "Modal_Price"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("dataset %s missing column %s", path, required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	d := &Dataset{}
	for _, record := range records[1:] {
		commodity := field(record, "Commodity")
		market := field(record, "Market")
		modal, err := strconv.ParseFloat(field(record, "Modal_Price"), 64)
		if commodity == "" || market == "" || err != nil {
			d.dropped++
			continue
		}

		// Min/max are informational; a bad value zeroes the field only.
		minPrice, _ := strconv.ParseFloat(field(record, "Min_Price"), 64)
		maxPrice, _ := strconv.ParseFloat(field(record, "Max_Price"), 64)

		d.rows = append(d.rows, Row{
			State:      field(record, "State"),
			District:   field(record, "District"),
			Market:     market,
			Commodity:  commodity,
			MinPrice:   minPrice,
			MaxPrice:   maxPrice,
			ModalPrice: modal,
		})
	}

	logger.Info("market dataset loaded",
		zap.String("path", path),
		zap.Int("rows", len(d.rows)),
		zap.Int("dropped", d.dropped))

	return d, nil
}

// Rows returns every observation.
func (d *Dataset) Rows() []Row {
	return d.rows
}

// Dropped reports how many malformed rows were discarded at load time.
func (d *Dataset) Dropped() int {
	return d.dropped
}

// Filter returns observations matching the commodity by case-insensitive
// substring, optionally narrowed by state and market the same way. Empty or
// "All" state/market filters match everything.
func (d *Dataset) Filter(commodity, state, market string) []Row {
	matches := func(value, query string) bool {
		if query == "" || query == Wildcard {
			return true
		}
		return strings.Contains(strings.ToLower(value), strings.ToLower(query))
	}

	var out []Row
	for _, row := range d.rows {
		if !strings.Contains(strings.ToLower(row.Commodity), strings.ToLower(commodity)) {
			continue
		}
		if !matches(row.State, state) || !matches(row.Market, market) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// ByCommodity returns observations whose commodity matches exactly.
func (d *Dataset) ByCommodity(commodity string) []Row {
	var out []Row
	for _, row := range d.rows {
		if row.Commodity == commodity {
			out = append(out, row)
		}
	}
	return out
}

// ByMarket returns observations whose market matches exactly.
func (d *Dataset) ByMarket(market string) []Row {
	var out []Row
	for _, row := range d.rows {
		if row.Market == market {
			out = append(out, row)
		}
	}
	return out
}

// Commodities returns the sorted distinct commodity names.
func (d *Dataset) Commodities() []string {
	return d.distinct(func(r Row) string { return r.Commodity })
}

// States returns the sorted distinct state names.
func (d *Dataset) States() []string {
	return d.distinct(func(r Row) string { return r.State })
}

// Markets returns the sorted distinct market names.
func (d *Dataset) Markets() []string {
	return d.distinct(func(r Row) string { return r.Market })
}

func (d *Dataset) distinct(key func(Row) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, row := range d.rows {
		k := key(row)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
