package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors.
const (
	BackendSQLite  = "sqlite"
	BackendMongoDB = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Dataset  DatasetConfig
	Geocoder GeocoderConfig
	Forecast ForecastConfig
	Tracking TrackingConfig
	Payments PaymentsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StorageConfig selects and parameterizes the persistence backend.
type StorageConfig struct {
	Backend    string // sqlite or mongodb
	SQLitePath string
	MongoURI   string
	MongoDB    string
}

// DatasetConfig points at the commodity market price CSV.
type DatasetConfig struct {
	Path string
}

// GeocoderConfig parameterizes the Nominatim client.
type GeocoderConfig struct {
	BaseURL   string
	Region    string
	UserAgent string
	Timeout   time.Duration
}

// ForecastConfig holds settings for the report generator.
type ForecastConfig struct {
	GroqKey string
	Model   string
}

// TrackingConfig holds the live shipment tracking poller settings.
type TrackingConfig struct {
	Enabled         bool
	IntervalSeconds int
	Step            float64
}

// PaymentsConfig holds the UPI payment issuance settings.
type PaymentsConfig struct {
	UPIID     string
	PayeeName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Storage: StorageConfig{
			Backend:    getenvWithDefault("STORAGE_BACKEND", BackendSQLite),
			SQLitePath: getenvWithDefault("SQLITE_PATH", "agrichain.db"),
			MongoURI:   os.Getenv("MONGODB_URI"),
			MongoDB:    getenvWithDefault("MONGODB_DB_NAME", "agrichain"),
		},
		Dataset: DatasetConfig{
			Path: getenvWithDefault("DATASET_PATH", "agriculture.csv"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   getenvWithDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			Region:    getenvWithDefault("GEOCODER_REGION", "India"),
			UserAgent: getenvWithDefault("GEOCODER_USER_AGENT", "agrichain-os/1.0"),
			Timeout:   time.Duration(getenvInt("GEOCODER_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Forecast: ForecastConfig{
			GroqKey: os.Getenv("GROQ_API_KEY"),
			Model:   getenvWithDefault("GROQ_MODEL", "llama-3.1-8b-instant"),
		},
		Tracking: TrackingConfig{
			Enabled:         getenvBool("TRACKING_ENABLED", true),
			IntervalSeconds: getenvInt("TRACKING_INTERVAL_SECONDS", 10),
			Step:            getenvFloat("TRACKING_STEP", 0.02),
		},
		Payments: PaymentsConfig{
			UPIID:     os.Getenv("MY_UPI_ID"),
			PayeeName: getenvWithDefault("UPI_PAYEE_NAME", "Agri-Chain OS Seller"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be provided")
		}
	case BackendMongoDB:
		if c.Storage.MongoURI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.Storage.MongoDB == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", BackendSQLite, BackendMongoDB)
	}

	if c.Dataset.Path == "" {
		return errors.New("DATASET_PATH must be provided")
	}

	if c.Geocoder.BaseURL == "" {
		return errors.New("GEOCODER_BASE_URL must not be empty")
	}
	if c.Geocoder.Timeout <= 0 {
		return errors.New("GEOCODER_TIMEOUT_SECONDS must be positive")
	}

	if c.Tracking.Enabled {
		if c.Tracking.IntervalSeconds <= 0 {
			return errors.New("TRACKING_INTERVAL_SECONDS must be positive")
		}
		if c.Tracking.Step <= 0 || c.Tracking.Step > 1 {
			return errors.New("TRACKING_STEP must be in (0, 1]")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
