package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deimos-sim/impact-engine/internal/adapter/httpapi"
	"github.com/deimos-sim/impact-engine/internal/domain"
	"github.com/deimos-sim/impact-engine/internal/simulation"
)

type mockEngine struct {
	summaries    []domain.CatalogSummary
	summariesErr error
	detail       domain.CatalogDetail
	detailErr    error
	result       domain.SimulationResult
	simulateErr  error
	lastRequest  simulation.Request
	ready        bool
}

func (m *mockEngine) ListAsteroids(_ context.Context) ([]domain.CatalogSummary, error) {
	return m.summaries, m.summariesErr
}

func (m *mockEngine) GetAsteroid(_ context.Context, _ string) (domain.CatalogDetail, error) {
	return m.detail, m.detailErr
}

func (m *mockEngine) Simulate(_ context.Context, req simulation.Request) (domain.SimulationResult, error) {
	m.lastRequest = req
	return m.result, m.simulateErr
}

func (m *mockEngine) Ready() bool { return m.ready }

func newTestServer(engine *mockEngine) *httpapi.Server {
	return httpapi.NewServer(":0", engine, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(srv *httpapi.Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestListAsteroids(t *testing.T) {
	engine := &mockEngine{summaries: []domain.CatalogSummary{
		{ID: "2099942", Name: "Apophis", Hazardous: true},
	}}
	rec := doRequest(newTestServer(engine), http.MethodGet, "/api/asteroids", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var got []domain.CatalogSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Apophis", got[0].Name)
}

func TestListAsteroids_UpstreamDown(t *testing.T) {
	engine := &mockEngine{summariesErr: domain.ErrUpstreamUnavailable}
	rec := doRequest(newTestServer(engine), http.MethodGet, "/api/asteroids", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetAsteroid(t *testing.T) {
	engine := &mockEngine{detail: domain.CatalogDetail{
		CatalogSummary: domain.CatalogSummary{ID: "2099942", Name: "Apophis"},
		AngleDeg:       45,
	}}
	rec := doRequest(newTestServer(engine), http.MethodGet, "/api/asteroids/2099942", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var got domain.CatalogDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Apophis", got.Name)
}

func TestGetAsteroid_NotFound(t *testing.T) {
	engine := &mockEngine{detailErr: domain.ErrNotFound}
	rec := doRequest(newTestServer(engine), http.MethodGet, "/api/asteroids/bogus", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimulate_Success(t *testing.T) {
	engine := &mockEngine{result: domain.SimulationResult{
		Asteroid: domain.AsteroidParameters{DiameterM: 100, DensityKgm3: 3000, VelocityKms: 20, AngleDeg: 45},
		Effects:  domain.EffectsReport{EnergyMegatons: 9386.4},
	}}
	srv := newTestServer(engine)

	rec := doRequest(srv, http.MethodPost, "/api/simulate",
		`{"lat": 35.19, "lon": -111.65, "diameter_m": 250, "ocean": false}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, 35.19, engine.lastRequest.Lat)
	require.NotNil(t, engine.lastRequest.DiameterM)
	assert.Equal(t, 250.0, *engine.lastRequest.DiameterM)

	var got domain.SimulationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 9386.4, got.Effects.EnergyMegatons)
}

func TestSimulate_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing coordinates", `{"diameter_m": 100}`},
		{"lat out of range", `{"lat": 120, "lon": 0}`},
		{"negative diameter", `{"lat": 0, "lon": 0, "diameter_m": -5}`},
		{"angle above 90", `{"lat": 0, "lon": 0, "angle_deg": 100}`},
		{"wrong type", `{"lat": "north", "lon": 0}`},
		{"unknown field", `{"lat": 0, "lon": 0, "warp_factor": 9}`},
		{"not json", `not json at all`},
	}

	srv := newTestServer(&mockEngine{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodPost, "/api/simulate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSimulate_InvalidParameters(t *testing.T) {
	engine := &mockEngine{simulateErr: domain.ErrInvalidParameters}
	rec := doRequest(newTestServer(engine), http.MethodPost, "/api/simulate", `{"lat": 0, "lon": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulate_UnknownAsteroid(t *testing.T) {
	engine := &mockEngine{simulateErr: domain.ErrNotFound}
	rec := doRequest(newTestServer(engine), http.MethodPost, "/api/simulate",
		`{"lat": 0, "lon": 0, "asteroid_id": "bogus"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimulate_UpstreamDown(t *testing.T) {
	engine := &mockEngine{simulateErr: domain.ErrUpstreamUnavailable}
	rec := doRequest(newTestServer(engine), http.MethodPost, "/api/simulate", `{"lat": 0, "lon": 0}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := doRequest(newTestServer(&mockEngine{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	engine := &mockEngine{}
	srv := newTestServer(engine)

	rec := doRequest(srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	engine.ready = true
	rec = doRequest(srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointRegistered(t *testing.T) {
	rec := doRequest(newTestServer(&mockEngine{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
