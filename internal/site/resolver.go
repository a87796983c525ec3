// Package site resolves the environmental context of an impact coordinate
// from three independent provider lookups, each cache-and-fallback protected.
// Resolution never fails: a provider outage degrades the context and is
// reported as an advisory, not an error.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/deimos-sim/impact-engine/internal/domain"
	"github.com/deimos-sim/impact-engine/internal/observability"
)

// Provenance identifiers recorded in SiteContext.DataSources. Only real
// provider contributions appear there; fallbacks do not.
const (
	sourceTerrain    = "opentopodata etopo1"
	sourceLandform   = "openstreetmap nominatim"
	sourcePopulation = "world bank EN.POP.DNST"
)

// Resolver orchestrates the terrain, landform, and population lookups.
// Successful results are cached per quantized grid cell (population per
// country); fallback values are never cached so a recovered provider is
// consulted again.
type Resolver struct {
	terrain    domain.TerrainProvider
	geocoder   domain.ReverseGeocoder
	population domain.PopulationProvider

	terrainCache *lruCache[domain.TerrainSample]
	placeCache   *lruCache[domain.PlaceInfo]
	densityCache *lruCache[float64]

	cellDegrees float64
	timeout     time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewResolver wires a resolver. cellDegrees sets the cache-key grid size;
// timeout bounds each individual provider call.
func NewResolver(terrain domain.TerrainProvider, geocoder domain.ReverseGeocoder, population domain.PopulationProvider,
	cacheSize int, cellDegrees float64, timeout time.Duration,
	metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		terrain:      terrain,
		geocoder:     geocoder,
		population:   population,
		terrainCache: newLRUCache[domain.TerrainSample](cacheSize),
		placeCache:   newLRUCache[domain.PlaceInfo](cacheSize),
		densityCache: newLRUCache[float64](cacheSize),
		cellDegrees:  cellDegrees,
		timeout:      timeout,
		metrics:      metrics,
		logger:       logger,
	}
}

// Resolve builds the site context for a coordinate. oceanHint is the
// caller's claim that the site is water, used only when no provider can
// classify the surface. The returned degradations list every fallback taken.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64, oceanHint bool) (domain.SiteContext, []domain.Degradation) {
	site := domain.SiteContext{Lat: lat, Lon: lon, DataSources: []string{}}
	var degraded []domain.Degradation

	cell := r.cellKey(lat, lon)

	sample, terrainOK := r.lookupTerrain(ctx, cell, lat, lon)
	if terrainOK {
		site.ElevationM = sample.ElevationM
		site.SlopeDeg = sample.SlopeDeg
		site.RoughnessM = sample.RoughnessM
		site.DataSources = append(site.DataSources, sourceTerrain)
	} else {
		degraded = append(degraded, domain.Degradation{
			Provider: "terrain",
			Reason:   "elevation provider unavailable",
		})
	}

	place, placeOK := r.lookupPlace(ctx, cell, lat, lon)
	if placeOK {
		site.Landform = place.Landform
		site.CountryCode = place.CountryCode
		site.DataSources = append(site.DataSources, sourceLandform)
	} else {
		degraded = append(degraded, domain.Degradation{
			Provider: "landform",
			Reason:   "reverse geocoder unavailable",
		})
	}

	site.Terrain = classify(sample, terrainOK, place, placeOK, oceanHint)
	if site.Terrain == domain.TerrainOcean && terrainOK && sample.ElevationM < 0 {
		depth := -sample.ElevationM
		site.WaterDepthM = &depth
	}

	degraded = append(degraded, r.resolvePopulation(ctx, &site)...)

	return site, degraded
}

// classify applies the terrain precedence: provider classification first,
// the caller's ocean hint second, land as the default. Disagreement between
// a wet bathymetry sample and a dry geocode (or a shoreline landform label)
// resolves to coastal.
func classify(sample domain.TerrainSample, terrainOK bool, place domain.PlaceInfo, placeOK, oceanHint bool) domain.Terrain {
	wet := terrainOK && sample.ElevationM < 0

	switch {
	case terrainOK && placeOK:
		if wet && place.IsOcean {
			return domain.TerrainOcean
		}
		if wet != place.IsOcean {
			return domain.TerrainCoastal
		}
		if coastalLandform(place.Landform) {
			return domain.TerrainCoastal
		}
		return domain.TerrainLand
	case terrainOK:
		if wet {
			return domain.TerrainOcean
		}
		return domain.TerrainLand
	case placeOK:
		if place.IsOcean {
			return domain.TerrainOcean
		}
		if coastalLandform(place.Landform) {
			return domain.TerrainCoastal
		}
		return domain.TerrainLand
	case oceanHint:
		return domain.TerrainOcean
	default:
		return domain.TerrainLand
	}
}

func coastalLandform(landform string) bool {
	lf := strings.ToLower(landform)
	for _, token := range []string{"coast", "beach", "bay", "shore", "harbour", "harbor"} {
		if strings.Contains(lf, token) {
			return true
		}
	}
	return false
}

func (r *Resolver) lookupTerrain(ctx context.Context, cell string, lat, lon float64) (domain.TerrainSample, bool) {
	if sample, ok := r.terrainCache.get(cell); ok {
		r.metrics.SiteCache.WithLabelValues("terrain", "hit").Inc()
		return sample, true
	}
	r.metrics.SiteCache.WithLabelValues("terrain", "miss").Inc()

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	sample, err := r.terrain.Elevation(callCtx, lat, lon)
	if err != nil {
		r.logger.Warn("terrain lookup failed", "lat", lat, "lon", lon, "error", err)
		return domain.TerrainSample{}, false
	}
	r.terrainCache.put(cell, sample)
	return sample, true
}

func (r *Resolver) lookupPlace(ctx context.Context, cell string, lat, lon float64) (domain.PlaceInfo, bool) {
	if place, ok := r.placeCache.get(cell); ok {
		r.metrics.SiteCache.WithLabelValues("landform", "hit").Inc()
		return place, true
	}
	r.metrics.SiteCache.WithLabelValues("landform", "miss").Inc()

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	place, err := r.geocoder.Classify(callCtx, lat, lon)
	if err != nil {
		r.logger.Warn("landform lookup failed", "lat", lat, "lon", lon, "error", err)
		return domain.PlaceInfo{}, false
	}
	r.placeCache.put(cell, place)
	return place, true
}

// resolvePopulation fills PopulationDensity: country indicator first, a local
// landform/slope heuristic for land sites when the indicator is unusable,
// absent over open ocean. Absent is deliberate: unknown exposure must stay
// distinguishable from zero exposure.
func (r *Resolver) resolvePopulation(ctx context.Context, site *domain.SiteContext) []domain.Degradation {
	var degraded []domain.Degradation

	if site.CountryCode != "" {
		if density, ok := r.lookupDensity(ctx, site.CountryCode); ok && density > 0 {
			site.PopulationDensity = &density
			site.DataSources = append(site.DataSources, sourcePopulation)
			return nil
		}
		degraded = append(degraded, domain.Degradation{
			Provider: "population",
			Reason:   fmt.Sprintf("country indicator unavailable for %s", site.CountryCode),
		})
	}

	if site.Terrain != domain.TerrainOcean {
		density := heuristicDensity(site.Landform, site.SlopeDeg)
		site.PopulationDensity = &density
		degraded = append(degraded, domain.Degradation{
			Provider: "population",
			Reason:   "local landform heuristic density used",
		})
	}

	return degraded
}

func (r *Resolver) lookupDensity(ctx context.Context, countryCode string) (float64, bool) {
	if density, ok := r.densityCache.get(countryCode); ok {
		r.metrics.SiteCache.WithLabelValues("population", "hit").Inc()
		return density, true
	}
	r.metrics.SiteCache.WithLabelValues("population", "miss").Inc()

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	density, err := r.population.DensityForCountry(callCtx, countryCode)
	if err != nil {
		r.logger.Warn("population lookup failed", "country", countryCode, "error", err)
		return 0, false
	}
	r.densityCache.put(countryCode, density)
	return density, true
}

// heuristicDensity is a coarse people-per-km² estimate from the landform
// label and local slope, used when no indicator data is reachable.
func heuristicDensity(landform string, slopeDeg float64) float64 {
	lf := strings.ToLower(landform)
	switch {
	case containsAny(lf, "city", "town", "suburb", "residential"):
		return 1200.0
	case containsAny(lf, "village", "hamlet"):
		return 200.0
	case containsAny(lf, "airport", "industrial"):
		return 150.0
	case slopeDeg > 20.0:
		return 15.0
	default:
		return 80.0
	}
}

func containsAny(s string, tokens ...string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// cellKey quantizes a coordinate onto the cache grid.
func (r *Resolver) cellKey(lat, lon float64) string {
	qLat := math.Round(lat/r.cellDegrees) * r.cellDegrees
	qLon := math.Round(lon/r.cellDegrees) * r.cellDegrees
	return fmt.Sprintf("%.6f,%.6f", qLat, qLon)
}
