package domain

import "context"

// Terrain classifies the impact surface.
type Terrain string

const (
	TerrainLand    Terrain = "land"
	TerrainOcean   Terrain = "ocean"
	TerrainCoastal Terrain = "coastal"
)

// SiteContext is the resolved environmental context of an impact location.
// Built fresh per request; never persisted beyond the per-provider cache.
// DataSources lists the identifiers of the providers that actually
// contributed data, in lookup order, for provenance notes. A provider that
// failed and was replaced by a hardcoded default does not appear.
type SiteContext struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	ElevationM  float64 `json:"elevation_m"`
	SlopeDeg    float64 `json:"slope_deg"`
	RoughnessM  float64 `json:"roughness_m"`
	Terrain     Terrain `json:"terrain"`
	Landform    string  `json:"landform,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`

	// WaterDepthM is only meaningful when Terrain is ocean.
	WaterDepthM *float64 `json:"water_depth_m,omitempty"`

	// PopulationDensity is people per km². nil means unknown, which must stay
	// distinguishable from zero exposure downstream.
	PopulationDensity *float64 `json:"population_density_km2,omitempty"`

	DataSources []string `json:"data_sources"`
}

// Degradation records a provider fallback taken while resolving site context.
// The result assembler turns these into advisory notes.
type Degradation struct {
	Provider string
	Reason   string
}

// TerrainSample is one terrain-provider measurement at a coordinate.
type TerrainSample struct {
	ElevationM float64
	SlopeDeg   float64
	RoughnessM float64
}

// TerrainProvider reports elevation, slope, and surface roughness.
type TerrainProvider interface {
	Elevation(ctx context.Context, lat, lon float64) (TerrainSample, error)
}

// PlaceInfo is a reverse-geocoded classification of a coordinate.
type PlaceInfo struct {
	Landform    string
	CountryCode string // uppercase ISO 3166-1 alpha-2, empty when unresolvable
	IsOcean     bool
}

// ReverseGeocoder classifies a coordinate into landform and country.
type ReverseGeocoder interface {
	Classify(ctx context.Context, lat, lon float64) (PlaceInfo, error)
}

// PopulationProvider resolves a country-level population density indicator.
type PopulationProvider interface {
	DensityForCountry(ctx context.Context, countryCode string) (float64, error)
}
