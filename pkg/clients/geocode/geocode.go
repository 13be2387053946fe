// Package geocode resolves free-text destination names to coordinates using
// the OpenStreetMap Nominatim API.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// ErrNotFound indicates the service responded but found no match for the
// queried name.
var ErrNotFound = errors.New("location not found")

// ErrUnavailable indicates the service could not be reached or answered
// with an error; the caller may retry later.
var ErrUnavailable = errors.New("geocoding service unavailable")

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Client resolves destination names to coordinates.
type Client interface {
	Resolve(ctx context.Context, name string) (Coordinates, error)
}

// Config controls the Nominatim client.
type Config struct {
	BaseURL   string
	Region    string // appended to every query to bias results, e.g. "India"
	UserAgent string // Nominatim requires an identifying user agent
	Timeout   time.Duration
}

type nominatimClient struct {
	httpClient *resty.Client
	region     string
}

// NewClient builds a Nominatim-backed geocoding client with an enforced
// request timeout.
func NewClient(cfg Config) Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", cfg.UserAgent).
		SetTimeout(timeout)

	return &nominatimClient{httpClient: client, region: cfg.Region}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve looks up the first match for name, biased towards the configured
// region. A reachable service with zero results is ErrNotFound; transport
// failures and non-2xx responses are ErrUnavailable.
func (c *nominatimClient) Resolve(ctx context.Context, name string) (Coordinates, error) {
	query := name
	if c.region != "" {
		query = name + ", " + c.region
	}

	var results []searchResult
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "json",
			"limit":  "1",
		}).
		SetResult(&results).
		Get("/search")

	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return Coordinates{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}
	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: malformed latitude %q", ErrUnavailable, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: malformed longitude %q", ErrUnavailable, results[0].Lon)
	}

	return Coordinates{Lat: lat, Lon: lon}, nil
}
