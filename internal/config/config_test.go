package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "agrichain.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "agriculture.csv", cfg.Dataset.Path)
	assert.Equal(t, "India", cfg.Geocoder.Region)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Forecast.Model)
	assert.True(t, cfg.Tracking.Enabled)
	assert.Equal(t, 10, cfg.Tracking.IntervalSeconds)
	assert.Equal(t, 0.02, cfg.Tracking.Step)
	assert.Equal(t, "Agri-Chain OS Seller", cfg.Payments.PayeeName)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("TRACKING_STEP", "0.1")
	t.Setenv("TRACKING_ENABLED", "false")
	t.Setenv("MY_UPI_ID", "seller@bank")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 0.1, cfg.Tracking.Step)
	assert.False(t, cfg.Tracking.Enabled)
	assert.Equal(t, "seller@bank", cfg.Payments.UPIID)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "dynamodb")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_BACKEND")
}

func TestLoadMongoBackendRequiresURI(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", BackendMongoDB)
	t.Setenv("MONGODB_URI", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGODB_URI")

	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "agrichain", cfg.Storage.MongoDB)
}

func TestValidateTrackingBounds(t *testing.T) {
	t.Setenv("TRACKING_STEP", "1.5")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRACKING_STEP")
}
