// Package opentopo implements the terrain provider against the OpenTopoData
// etopo1 dataset.
package opentopo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/deimos-sim/impact-engine/internal/domain"
	"github.com/deimos-sim/impact-engine/internal/observability"
)

const (
	datasetPath = "/v1/etopo1"

	// sampleDelta is the half-width in degrees of the cross used to estimate
	// slope and roughness around the center point (~1.1 km at the equator).
	sampleDelta = 0.01
)

// Client implements domain.TerrainProvider. One Elevation call samples a
// five-point cross (center plus the four compass neighbors) in a single
// batched request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenTopoData client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Elevation fetches elevation at (lat, lon) and derives slope from central
// differences and roughness from the RMS deviation of the neighbors.
func (c *Client) Elevation(ctx context.Context, lat, lon float64) (domain.TerrainSample, error) {
	locations := fmt.Sprintf("%.6f,%.6f|%.6f,%.6f|%.6f,%.6f|%.6f,%.6f|%.6f,%.6f",
		lat, lon, // center
		lat+sampleDelta, lon, // north
		lat-sampleDelta, lon, // south
		lat, lon+sampleDelta, // east
		lat, lon-sampleDelta, // west
	)
	params := url.Values{"locations": {locations}}
	fullURL := c.baseURL + datasetPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.TerrainSample{}, fmt.Errorf("create elevation request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues("opentopodata").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues("opentopodata", "error").Inc()
		return domain.TerrainSample{}, fmt.Errorf("elevation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ProviderRequests.WithLabelValues("opentopodata", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return domain.TerrainSample{}, fmt.Errorf("opentopodata: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.ProviderRequests.WithLabelValues("opentopodata", "error").Inc()
		return domain.TerrainSample{}, fmt.Errorf("decode elevation response: %w", err)
	}

	if payload.Status != "OK" {
		c.metrics.ProviderRequests.WithLabelValues("opentopodata", "error").Inc()
		return domain.TerrainSample{}, fmt.Errorf("opentopodata: status %q", payload.Status)
	}
	if len(payload.Results) != 5 {
		c.metrics.ProviderRequests.WithLabelValues("opentopodata", "error").Inc()
		return domain.TerrainSample{}, fmt.Errorf("opentopodata: incomplete sample set (%d of 5)", len(payload.Results))
	}

	c.metrics.ProviderRequests.WithLabelValues("opentopodata", "success").Inc()

	center := payload.Results[0].Elevation
	north := payload.Results[1].Elevation
	south := payload.Results[2].Elevation
	east := payload.Results[3].Elevation
	west := payload.Results[4].Elevation

	slope, roughness := slopeAndRoughness(lat, north, south, east, west)
	return domain.TerrainSample{
		ElevationM: center,
		SlopeDeg:   slope,
		RoughnessM: roughness,
	}, nil
}

// slopeAndRoughness turns the cross samples into a gradient slope and a
// neighbor RMS roughness. The meters-per-degree terms use the standard
// WGS-84 series expansion so the gradient is geometrically honest at high
// latitudes.
func slopeAndRoughness(lat, north, south, east, west float64) (slopeDeg, roughnessM float64) {
	latRad := lat * math.Pi / 180.0
	metersPerDegLat := 111132.0 - 559.82*math.Cos(2*latRad) + 1.175*math.Cos(4*latRad)
	metersPerDegLon := 111320.0 * math.Cos(latRad)
	if metersPerDegLon < 1.0 {
		metersPerDegLon = 1.0 // degenerate at the poles
	}

	dzdy := (north - south) / (2.0 * metersPerDegLat * sampleDelta)
	dzdx := (east - west) / (2.0 * metersPerDegLon * sampleDelta)
	gradient := math.Sqrt(dzdx*dzdx + dzdy*dzdy)
	slopeDeg = math.Atan(gradient) * 180.0 / math.Pi

	neighbors := []float64{north, south, east, west}
	mean := (north + south + east + west) / 4.0
	var sum float64
	for _, n := range neighbors {
		d := n - mean
		sum += d * d
	}
	roughnessM = math.Sqrt(sum / 4.0)

	return slopeDeg, roughnessM
}

type response struct {
	Status  string `json:"status"`
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}
