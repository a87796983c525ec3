// Package worldbank implements the population-density provider against the
// World Bank indicator API (EN.POP.DNST, people per km² of land area).
package worldbank

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

	"github.com/deimos-sim/impact-engine/internal/observability"
)

const (
	indicator = "EN.POP.DNST"

	// lookback bounds how many yearly entries are scanned for the most
	// recent non-null value; small countries often lag several years.
	lookback = 20
)

// Client resolves a country-level population density.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a World Bank indicator client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// DensityForCountry returns the most recent published density for the
// country, in people per km².
func (c *Client) DensityForCountry(ctx context.Context, countryCode string) (float64, error) {
	code := strings.ToLower(strings.TrimSpace(countryCode))
	if code == "" {
		return 0, fmt.Errorf("worldbank: country code required")
	}

	params := url.Values{
		"format":   {"json"},
		"per_page": {fmt.Sprintf("%d", lookback)},
	}
	fullURL := fmt.Sprintf("%s/v2/country/%s/indicator/%s?%s", c.baseURL, url.PathEscape(code), indicator, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create density request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues("worldbank").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues("worldbank", "error").Inc()
		return 0, fmt.Errorf("density request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ProviderRequests.WithLabelValues("worldbank", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("worldbank: status %d: %s", resp.StatusCode, body)
	}

	// The indicator API wraps results as [metadata, entries].
	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.ProviderRequests.WithLabelValues("worldbank", "error").Inc()
		return 0, fmt.Errorf("decode density response: %w", err)
	}
	if len(payload) < 2 {
		c.metrics.ProviderRequests.WithLabelValues("worldbank", "error").Inc()
		return 0, fmt.Errorf("worldbank: unexpected response structure")
	}

	var entries []entry
	if err := json.Unmarshal(payload[1], &entries); err != nil {
		c.metrics.ProviderRequests.WithLabelValues("worldbank", "error").Inc()
		return 0, fmt.Errorf("decode density entries: %w", err)
	}

	for _, e := range entries {
		if e.Value != nil {
			c.metrics.ProviderRequests.WithLabelValues("worldbank", "success").Inc()
			return *e.Value, nil
		}
	}

	c.metrics.ProviderRequests.WithLabelValues("worldbank", "error").Inc()
	return 0, fmt.Errorf("worldbank: no density value published for %s", countryCode)
}

type entry struct {
	Value *float64 `json:"value"`
	Date  string   `json:"date"`
}
