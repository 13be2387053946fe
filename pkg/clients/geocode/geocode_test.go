package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBiasesQueryTowardsRegion(t *testing.T) {
	var gotQuery, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"19.0760","lon":"72.8777"}]`))
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:   server.URL,
		Region:    "India",
		UserAgent: "agrichain-test/1.0",
		Timeout:   2 * time.Second,
	})

	coords, err := client.Resolve(context.Background(), "Mumbai")
	require.NoError(t, err)
	assert.Equal(t, "Mumbai, India", gotQuery)
	assert.Equal(t, "agrichain-test/1.0", gotAgent)
	assert.InDelta(t, 19.0760, coords.Lat, 1e-9)
	assert.InDelta(t, 72.8777, coords.Lon, 1e-9)
}

func TestResolveNoMatchIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second})

	_, err := client.Resolve(context.Background(), "Nowhereville")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second})

	_, err := client.Resolve(context.Background(), "Mumbai")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestResolveUnreachableHostIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 500 * time.Millisecond})

	_, err := client.Resolve(context.Background(), "Mumbai")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestResolveMalformedCoordinatesIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"north-ish","lon":"72.8777"}]`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second})

	_, err := client.Resolve(context.Background(), "Mumbai")
	assert.ErrorIs(t, err, ErrUnavailable)
}
