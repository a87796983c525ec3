// Package nominatim implements the reverse-geocoding provider against the
// OpenStreetMap Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deimos-sim/impact-engine/internal/domain"
	"github.com/deimos-sim/impact-engine/internal/observability"
)

const (
	reversePath = "/reverse"

	// Nominatim's usage policy requires an identifying User-Agent.
	userAgent = "impact-engine/1.0 (+https://github.com/deimos-sim/impact-engine)"
)

// Client implements domain.ReverseGeocoder.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim reverse-geocoding client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Classify reverse-geocodes (lat, lon) into a landform label and country
// code. Coordinates over open water come back without an address; that is
// reported as ocean, not as an error.
func (c *Client) Classify(ctx context.Context, lat, lon float64) (domain.PlaceInfo, error) {
	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {fmt.Sprintf("%.6f", lat)},
		"lon":            {fmt.Sprintf("%.6f", lon)},
		"zoom":           {"10"},
		"addressdetails": {"1"},
	}
	fullURL := c.baseURL + reversePath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.PlaceInfo{}, fmt.Errorf("create reverse request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues("nominatim").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues("nominatim", "error").Inc()
		return domain.PlaceInfo{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ProviderRequests.WithLabelValues("nominatim", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return domain.PlaceInfo{}, fmt.Errorf("nominatim: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.ProviderRequests.WithLabelValues("nominatim", "error").Inc()
		return domain.PlaceInfo{}, fmt.Errorf("decode reverse response: %w", err)
	}

	c.metrics.ProviderRequests.WithLabelValues("nominatim", "success").Inc()
	return placeFromResponse(payload), nil
}

func placeFromResponse(payload response) domain.PlaceInfo {
	info := domain.PlaceInfo{}

	switch {
	case payload.Category != "" && payload.Type != "":
		info.Landform = strings.ReplaceAll(payload.Category+":"+payload.Type, "_", " ")
	case payload.Name != "":
		info.Landform = payload.Name
	case payload.DisplayName != "":
		info.Landform = strings.TrimSpace(strings.SplitN(payload.DisplayName, ",", 2)[0])
	}

	if payload.Address != nil && payload.Address.CountryCode != "" {
		info.CountryCode = strings.ToUpper(payload.Address.CountryCode)
	}

	// An unable-to-geocode error body or a waterbody result both mean water.
	lf := strings.ToLower(info.Landform)
	info.IsOcean = payload.Error != "" ||
		strings.Contains(lf, "ocean") || strings.Contains(lf, "sea") ||
		(info.CountryCode == "" && info.Landform == "")

	return info
}

type response struct {
	Category    string `json:"category"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     *struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
	Error string `json:"error"`
}
