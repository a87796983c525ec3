package simulation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deimos-sim/impact-engine/internal/domain"
	"github.com/deimos-sim/impact-engine/internal/observability"
)

type stubCatalog struct {
	summaries []domain.CatalogSummary
	detail    domain.CatalogDetail
	err       error
}

func (s *stubCatalog) ListSummaries(_ context.Context) ([]domain.CatalogSummary, error) {
	return s.summaries, s.err
}

func (s *stubCatalog) GetDetail(_ context.Context, _ string) (domain.CatalogDetail, error) {
	return s.detail, s.err
}

type stubSites struct {
	site     domain.SiteContext
	degraded []domain.Degradation
}

func (s *stubSites) Resolve(_ context.Context, lat, lon float64, _ bool) (domain.SiteContext, []domain.Degradation) {
	site := s.site
	site.Lat, site.Lon = lat, lon
	return site, s.degraded
}

type stubPublisher struct {
	published []domain.SimulationResult
	err       error
}

func (s *stubPublisher) Publish(_ context.Context, result domain.SimulationResult) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, result)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func landSites() *stubSites {
	density := 80.0
	return &stubSites{site: domain.SiteContext{
		Terrain:           domain.TerrainLand,
		ElevationM:        300,
		PopulationDensity: &density,
		DataSources:       []string{"opentopodata etopo1"},
	}}
}

func TestEngine_Simulate_AdHocParameters(t *testing.T) {
	e := NewEngine(&stubCatalog{}, landSites(), nil, observability.NewMetricsForTesting(), testLogger())

	result, err := e.Simulate(context.Background(), Request{Lat: 35.0, Lon: -111.0})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultDiameterM, result.Asteroid.DiameterM)
	assert.Equal(t, domain.DefaultAngleDeg, result.Asteroid.AngleDeg)
	assert.Greater(t, result.Effects.EnergyJoules, 0.0)
	assert.Equal(t, 35.0, result.Site.Lat)
	assert.False(t, result.GeneratedAt.IsZero())
}

func TestEngine_Simulate_CatalogSeedsParameters(t *testing.T) {
	diameter := 340.0
	velocity := 12.6
	catalog := &stubCatalog{detail: domain.CatalogDetail{
		CatalogSummary: domain.CatalogSummary{ID: "2099942", Name: "Apophis"},
		DiameterM:      &diameter,
		VelocityKms:    &velocity,
		AngleDeg:       domain.DefaultAngleDeg,
	}}
	e := NewEngine(catalog, landSites(), nil, observability.NewMetricsForTesting(), testLogger())

	result, err := e.Simulate(context.Background(), Request{AsteroidID: "2099942", Lat: 10, Lon: 10})
	require.NoError(t, err)

	assert.Equal(t, 340.0, result.Asteroid.DiameterM)
	assert.Equal(t, 12.6, result.Asteroid.VelocityKms)
	assert.Equal(t, domain.DefaultDensityKgm3, result.Asteroid.DensityKgm3, "density falls back to the rocky default")
}

func TestEngine_Simulate_OverridesBeatCatalog(t *testing.T) {
	diameter := 340.0
	catalog := &stubCatalog{detail: domain.CatalogDetail{
		CatalogSummary: domain.CatalogSummary{ID: "2099942"},
		DiameterM:      &diameter,
		AngleDeg:       domain.DefaultAngleDeg,
	}}
	e := NewEngine(catalog, landSites(), nil, observability.NewMetricsForTesting(), testLogger())

	override := 500.0
	result, err := e.Simulate(context.Background(), Request{
		AsteroidID: "2099942", Lat: 10, Lon: 10, DiameterM: &override,
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, result.Asteroid.DiameterM)
}

func TestEngine_Simulate_UnknownAsteroid(t *testing.T) {
	catalog := &stubCatalog{err: domain.ErrNotFound}
	e := NewEngine(catalog, landSites(), nil, observability.NewMetricsForTesting(), testLogger())

	_, err := e.Simulate(context.Background(), Request{AsteroidID: "bogus", Lat: 0, Lon: 0})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_Simulate_InvalidCoordinates(t *testing.T) {
	e := NewEngine(&stubCatalog{}, landSites(), nil, observability.NewMetricsForTesting(), testLogger())

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"lat too high", 91, 0},
		{"lat too low", -91, 0},
		{"lon too high", 0, 181},
		{"lon too low", 0, -181},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Simulate(context.Background(), Request{Lat: tt.lat, Lon: tt.lon})
			require.ErrorIs(t, err, domain.ErrInvalidParameters)
		})
	}
}

func TestEngine_Simulate_InvalidOverride(t *testing.T) {
	e := NewEngine(&stubCatalog{}, landSites(), nil, observability.NewMetricsForTesting(), testLogger())

	negative := -5.0
	_, err := e.Simulate(context.Background(), Request{Lat: 0, Lon: 0, DensityKgm3: &negative})
	require.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestEngine_Simulate_DegradationsBecomeNotes(t *testing.T) {
	sites := landSites()
	sites.degraded = []domain.Degradation{{Provider: "terrain", Reason: "elevation provider unavailable"}}
	e := NewEngine(&stubCatalog{}, sites, nil, observability.NewMetricsForTesting(), testLogger())

	result, err := e.Simulate(context.Background(), Request{Lat: 0, Lon: 0})
	require.NoError(t, err)

	found := false
	for _, note := range result.Notes {
		if strings.Contains(note, "terrain lookup degraded") {
			found = true
		}
	}
	assert.True(t, found, "degradation surfaces as an advisory note")
}

func TestEngine_Simulate_PublishesResult(t *testing.T) {
	pub := &stubPublisher{}
	e := NewEngine(&stubCatalog{}, landSites(), pub, observability.NewMetricsForTesting(), testLogger())

	_, err := e.Simulate(context.Background(), Request{Lat: 1, Lon: 2})
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, 1.0, pub.published[0].Site.Lat)
}

func TestEngine_Simulate_PublishFailureIsBestEffort(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	e := NewEngine(&stubCatalog{}, landSites(), pub, observability.NewMetricsForTesting(), testLogger())

	_, err := e.Simulate(context.Background(), Request{Lat: 1, Lon: 2})
	require.NoError(t, err, "a publish failure never fails the simulation")
}

func TestEngine_Readiness(t *testing.T) {
	e := NewEngine(&stubCatalog{}, landSites(), nil, observability.NewMetricsForTesting(), testLogger())
	assert.False(t, e.Ready())
	e.SetReady(true)
	assert.True(t, e.Ready())
	e.SetReady(false)
	assert.False(t, e.Ready())
}
