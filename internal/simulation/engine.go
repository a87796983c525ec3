// Package simulation orchestrates one impact simulation end to end: resolve
// parameters (consulting the catalog when an identifier is given), resolve
// the site context, run the effects calculator, and assemble the result.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/deimos-sim/impact-engine/internal/domain"
	"github.com/deimos-sim/impact-engine/internal/observability"
)

// Catalog is the hazardous-object data source consulted for identifiers and
// listings.
type Catalog interface {
	ListSummaries(ctx context.Context) ([]domain.CatalogSummary, error)
	GetDetail(ctx context.Context, id string) (domain.CatalogDetail, error)
}

// SiteResolver builds the environmental context for a coordinate.
type SiteResolver interface {
	Resolve(ctx context.Context, lat, lon float64, oceanHint bool) (domain.SiteContext, []domain.Degradation)
}

// Publisher sends completed results to downstream consumers. Publishing is
// best-effort: a publish failure never fails the simulation.
type Publisher interface {
	Publish(ctx context.Context, result domain.SimulationResult) error
}

// Request is one simulation request. AsteroidID is optional; when set, the
// catalog seeds the physical parameters and the pointer fields override them.
type Request struct {
	AsteroidID string  `json:"asteroid_id,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Ocean      bool    `json:"ocean"`

	DiameterM   *float64 `json:"diameter_m,omitempty"`
	DensityKgm3 *float64 `json:"density_kgm3,omitempty"`
	VelocityKms *float64 `json:"velocity_kms,omitempty"`
	AngleDeg    *float64 `json:"angle_deg,omitempty"`
}

func (r Request) overrides() domain.Overrides {
	return domain.Overrides{
		DiameterM:   r.DiameterM,
		DensityKgm3: r.DensityKgm3,
		VelocityKms: r.VelocityKms,
		AngleDeg:    r.AngleDeg,
	}
}

// Engine wires the catalog, site resolver, calculator, and optional result
// publisher behind a single Simulate entry point.
type Engine struct {
	catalog   Catalog
	sites     SiteResolver
	publisher Publisher // nil when publishing is disabled
	metrics   *observability.Metrics
	logger    *slog.Logger
	ready     atomic.Bool
}

// NewEngine creates the engine. publisher may be nil.
func NewEngine(catalog Catalog, sites SiteResolver, publisher Publisher, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	e := &Engine{
		catalog:   catalog,
		sites:     sites,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
	if publisher != nil {
		metrics.PublisherEnabled.Set(1)
	}
	return e
}

// SetReady flips the readiness probe once startup wiring is complete.
func (e *Engine) SetReady(ready bool) {
	e.ready.Store(ready)
}

// Ready reports whether the engine is accepting traffic.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// ListAsteroids returns the hazardous-object summary list.
func (e *Engine) ListAsteroids(ctx context.Context) ([]domain.CatalogSummary, error) {
	return e.catalog.ListSummaries(ctx)
}

// GetAsteroid returns one object's catalog detail.
func (e *Engine) GetAsteroid(ctx context.Context, id string) (domain.CatalogDetail, error) {
	return e.catalog.GetDetail(ctx, id)
}

// Simulate runs one request through the full pipeline.
func (e *Engine) Simulate(ctx context.Context, req Request) (domain.SimulationResult, error) {
	start := time.Now()
	result, err := e.simulate(ctx, req)
	e.metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	e.metrics.SimulationsTotal.WithLabelValues(outcome(err)).Inc()
	return result, err
}

func (e *Engine) simulate(ctx context.Context, req Request) (domain.SimulationResult, error) {
	if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
		return domain.SimulationResult{}, fmt.Errorf("%w: coordinates (%.4f, %.4f) out of range",
			domain.ErrInvalidParameters, req.Lat, req.Lon)
	}

	var detail *domain.CatalogDetail
	if req.AsteroidID != "" {
		d, err := e.catalog.GetDetail(ctx, req.AsteroidID)
		if err != nil {
			return domain.SimulationResult{}, fmt.Errorf("resolve asteroid %s: %w", req.AsteroidID, err)
		}
		detail = &d
	}

	params, err := domain.ResolveParameters(detail, req.overrides())
	if err != nil {
		return domain.SimulationResult{}, err
	}

	site, degraded := e.sites.Resolve(ctx, req.Lat, req.Lon, req.Ocean)
	report := domain.ComputeEffects(params, site)
	result := domain.AssembleResult(params, site, report, degraded)

	e.logger.Info("simulation completed",
		"asteroid_id", req.AsteroidID,
		"lat", req.Lat, "lon", req.Lon,
		"terrain", site.Terrain,
		"energy_megatons", report.EnergyMegatons,
		"degraded_lookups", len(degraded))

	e.publish(ctx, result)
	return result, nil
}

func (e *Engine) publish(ctx context.Context, result domain.SimulationResult) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, result); err != nil {
		e.metrics.PublishErrors.Inc()
		e.logger.Warn("result publish failed", "error", err)
		return
	}
	e.metrics.ResultsPublished.Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidParameters):
		return "client_error"
	default:
		return "upstream_error"
	}
}
