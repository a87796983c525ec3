package opentopo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deimos-sim/impact-engine/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func elevationResponse(elevations ...float64) response {
	var resp response
	resp.Status = "OK"
	for _, e := range elevations {
		resp.Results = append(resp.Results, struct {
			Elevation float64 `json:"elevation"`
		}{Elevation: e})
	}
	return resp
}

func TestClient_Elevation_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, datasetPath, r.URL.Path)
		locations := r.URL.Query().Get("locations")
		assert.Equal(t, 4, strings.Count(locations, "|"), "five coordinate pairs requested")
		assert.True(t, strings.HasPrefix(locations, "35.000000,-112.000000|"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(
			elevationResponse(1200, 1250, 1150, 1210, 1190)))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	sample, err := c.Elevation(context.Background(), 35.0, -112.0)
	require.NoError(t, err)

	assert.Equal(t, 1200.0, sample.ElevationM)
	assert.Greater(t, sample.SlopeDeg, 0.0)
	assert.Less(t, sample.SlopeDeg, 10.0)
	assert.Greater(t, sample.RoughnessM, 0.0)
}

func TestClient_Elevation_FlatTerrain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(
			elevationResponse(10, 10, 10, 10, 10)))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	sample, err := c.Elevation(context.Background(), 52.0, 5.0)
	require.NoError(t, err)

	assert.Equal(t, 10.0, sample.ElevationM)
	assert.Zero(t, sample.SlopeDeg)
	assert.Zero(t, sample.RoughnessM)
}

func TestClient_Elevation_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "INVALID_REQUEST", "results": []}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Elevation(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")
}

func TestClient_Elevation_IncompleteResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(elevationResponse(1200, 1250)))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Elevation(context.Background(), 35.0, -112.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestClient_Elevation_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Elevation(context.Background(), 35.0, -112.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSlopeAndRoughness(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		slope, rough := slopeAndRoughness(45.0, 100, 100, 100, 100)
		assert.Zero(t, slope)
		assert.Zero(t, rough)
	})

	t.Run("uniform tilt north", func(t *testing.T) {
		// 100 m rise over the ~2.2 km N-S baseline is a ~2.6 degree slope.
		slope, _ := slopeAndRoughness(0.0, 150, 50, 100, 100)
		expected := math.Atan(100.0/(2*111132.0*sampleDelta)) * 180.0 / math.Pi
		assert.InDelta(t, expected, slope, 0.1)
	})

	t.Run("roughness is neighbor rms", func(t *testing.T) {
		_, rough := slopeAndRoughness(10.0, 110, 90, 110, 90)
		assert.InDelta(t, 10.0, rough, 1e-9)
	})

	t.Run("steeper terrain gives larger slope", func(t *testing.T) {
		gentle, _ := slopeAndRoughness(30.0, 120, 80, 100, 100)
		steep, _ := slopeAndRoughness(30.0, 400, -200, 100, 100)
		assert.Greater(t, steep, gentle)
	})
}
