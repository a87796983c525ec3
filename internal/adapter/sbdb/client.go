// Package sbdb implements the remote catalog client against the JPL
// Small-Body Database query and lookup APIs.
package sbdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/deimos-sim/impact-engine/internal/domain"
	"github.com/deimos-sim/impact-engine/internal/observability"
)

const (
	summaryPath = "/sbdb_query.api"
	detailPath  = "/sbdb.api"

	// The query API returns values as strings with occasional annotations;
	// parse the leading numeric part and drop the rest.
	summaryFields = "spkid,full_name,ip,ps,ts,H,diameter,density,pha"
)

var numericRe = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// Client fetches hazardous-object summaries and per-object detail records.
// It is rate-limit aware: an HTTP 429 surfaces as domain.ErrRateLimited so
// the catalog cache can apply its single capped retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an SBDB client bound to the given base URL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Summaries queries the full PHA-group summary list.
func (c *Client) Summaries(ctx context.Context) ([]domain.CatalogSummary, error) {
	params := url.Values{
		"fields":   {summaryFields},
		"sb-group": {"pha"},
	}

	var resp queryResponse
	if err := c.getJSON(ctx, c.baseURL+summaryPath+"?"+params.Encode(), "summary", &resp); err != nil {
		return nil, err
	}

	summaries := make([]domain.CatalogSummary, 0, len(resp.Data))
	for _, row := range resp.Data {
		if s, ok := summaryFromRow(resp.Fields, row); ok {
			summaries = append(summaries, s)
		}
	}
	return summaries, nil
}

// Detail queries one object's record, including physical parameters, virtual
// impactor data, and orbital elements, and normalizes it into SI defaults.
func (c *Client) Detail(ctx context.Context, id string) (domain.CatalogDetail, error) {
	if id == "" {
		return domain.CatalogDetail{}, fmt.Errorf("%w: empty identifier", domain.ErrNotFound)
	}

	params := url.Values{
		"sstr":      {id},
		"phys-par":  {"1"},
		"vi-data":   {"1"},
		"discovery": {"1"},
	}

	var resp detailResponse
	if err := c.getJSON(ctx, c.baseURL+detailPath+"?"+params.Encode(), "detail", &resp); err != nil {
		return domain.CatalogDetail{}, err
	}

	// The lookup API reports unknown objects with a 200 and a message body.
	if resp.Message != "" && strings.Contains(strings.ToLower(resp.Message), "not found") {
		return domain.CatalogDetail{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	return normalizeDetail(resp, id), nil
}

func (c *Client) getJSON(ctx context.Context, fullURL, kind string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", kind, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues("sbdb").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues("sbdb", "error").Inc()
		return fmt.Errorf("sbdb %s request: %w", kind, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.ProviderRequests.WithLabelValues("sbdb", "error").Inc()
		return fmt.Errorf("sbdb %s: %w", kind, domain.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.ProviderRequests.WithLabelValues("sbdb", "error").Inc()
		return fmt.Errorf("sbdb %s: %w", kind, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		c.metrics.ProviderRequests.WithLabelValues("sbdb", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sbdb %s: status %d: %s", kind, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.ProviderRequests.WithLabelValues("sbdb", "error").Inc()
		return fmt.Errorf("decode sbdb %s response: %w", kind, err)
	}

	c.metrics.ProviderRequests.WithLabelValues("sbdb", "success").Inc()
	return nil
}

// SBDB API response types.

type queryResponse struct {
	Fields []string `json:"fields"`
	Data   [][]any  `json:"data"`
}

type namedValue struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type detailResponse struct {
	Object *struct {
		Fullname string `json:"fullname"`
		H        any    `json:"h"`
		PHA      any    `json:"pha"`
	} `json:"object"`
	PhysPar []namedValue `json:"phys_par"`
	Orbit   *struct {
		Elements []namedValue `json:"elements"`
	} `json:"orbit"`
	ViData  []map[string]any `json:"vi_data"`
	Message string           `json:"message"`
}

func summaryFromRow(fields []string, row []any) (domain.CatalogSummary, bool) {
	mapping := make(map[string]any, len(fields))
	for i, f := range fields {
		if i < len(row) {
			mapping[f] = row[i]
		}
	}

	id := strings.TrimSpace(asString(mapping["spkid"]))
	name := strings.TrimSpace(asString(mapping["full_name"]))
	if id == "" || name == "" {
		return domain.CatalogSummary{}, false
	}

	return domain.CatalogSummary{
		ID:                id,
		Name:              name,
		ImpactProbability: toFloat(mapping["ip"]),
		PalermoScale:      toFloat(mapping["ps"]),
		TorinoScale:       toFloat(mapping["ts"]),
		DiameterKm:        toFloat(mapping["diameter"]),
		DensityGcm3:       toFloat(mapping["density"]),
		AbsoluteMagnitude: toFloat(mapping["H"]),
		Hazardous:         isHazardFlag(mapping["pha"]),
	}, true
}

func normalizeDetail(resp detailResponse, id string) domain.CatalogDetail {
	detail := domain.CatalogDetail{
		CatalogSummary: domain.CatalogSummary{ID: id, Name: id},
		AngleDeg:       domain.DefaultAngleDeg,
	}

	if resp.Object != nil {
		if name := strings.TrimSpace(resp.Object.Fullname); name != "" {
			detail.Name = name
		}
		detail.AbsoluteMagnitude = toFloat(resp.Object.H)
		detail.Hazardous = isHazardFlag(resp.Object.PHA)
	}

	if d := physValue(resp.PhysPar, "diameter"); d != nil {
		detail.DiameterKm = d
		m := *d * 1000.0
		detail.DiameterM = &m
	}
	if rho := physValue(resp.PhysPar, "density"); rho != nil {
		detail.DensityGcm3 = rho
		kgm3 := *rho * 1000.0
		detail.DensityKgm3 = &kgm3
	}

	if vi := primaryImpactor(resp.ViData); vi != nil {
		detail.ImpactProbability = toFloat(vi["ip"])
		detail.PalermoScale = toFloat(vi["ps"])
		detail.TorinoScale = toFloat(vi["ts"])
		if v := toFloat(vi["v_imp"]); v != nil {
			detail.VelocityKms = v
		} else {
			detail.VelocityKms = toFloat(vi["v_inf"])
		}
		// Radar or VI-derived diameter backfills a missing phys_par estimate.
		if detail.DiameterM == nil {
			if m := toFloat(vi["diam"]); m != nil {
				detail.DiameterM = m
				km := *m / 1000.0
				detail.DiameterKm = &km
			}
		}
	}

	if resp.Orbit != nil {
		detail.Orbit = orbitFromElements(resp.Orbit.Elements)
	}

	return detail
}

// primaryImpactor selects the virtual-impactor entry with the highest impact
// probability.
func primaryImpactor(entries []map[string]any) map[string]any {
	var best map[string]any
	bestIP := -1.0
	for _, e := range entries {
		ip := 0.0
		if v := toFloat(e["ip"]); v != nil {
			ip = *v
		}
		if best == nil || ip > bestIP {
			best = e
			bestIP = ip
		}
	}
	return best
}

// orbitFromElements maps the named element list onto Keplerian elements.
// Returns nil when any required element is missing: a partial orbit is not
// useful downstream.
func orbitFromElements(elements []namedValue) *domain.OrbitalElements {
	byName := make(map[string]*float64, len(elements))
	for _, e := range elements {
		byName[strings.ToLower(e.Name)] = toFloat(e.Value)
	}

	a := byName["a"]
	ecc := byName["e"]
	inc := byName["i"]
	node := byName["om"]
	peri := byName["w"]
	if a == nil || ecc == nil || inc == nil || node == nil || peri == nil {
		return nil
	}

	return &domain.OrbitalElements{
		SemiMajorAxisAU:  *a,
		Eccentricity:     *ecc,
		InclinationDeg:   *inc,
		AscendingNodeDeg: *node,
		ArgPeriapsisDeg:  *peri,
	}
}

func physValue(pars []namedValue, name string) *float64 {
	for _, p := range pars {
		if p.Name == name {
			return toFloat(p.Value)
		}
	}
	return nil
}

// toFloat leniently parses SBDB values, which may arrive as JSON numbers or
// as annotated strings like "0.530±0.1".
func toFloat(v any) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return &val
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		match := numericRe.FindString(cleaned)
		if match == "" {
			return nil
		}
		f, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.0f", val)
	default:
		return ""
	}
}

func isHazardFlag(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "Y") || strings.EqualFold(val, "true")
	default:
		return false
	}
}
