// Package httpapi exposes the simulation engine over REST, plus the health,
// readiness, and metrics endpoints.
package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/deimos-sim/impact-engine/internal/domain"
	"github.com/deimos-sim/impact-engine/internal/simulation"
)

//go:embed simulate_schema.json
var simulateSchema []byte

const maxRequestBody = 1 << 20 // 1 MiB

// Simulator is the engine surface the API serves. *simulation.Engine
// satisfies it.
type Simulator interface {
	ListAsteroids(ctx context.Context) ([]domain.CatalogSummary, error)
	GetAsteroid(ctx context.Context, id string) (domain.CatalogDetail, error)
	Simulate(ctx context.Context, req simulation.Request) (domain.SimulationResult, error)
	Ready() bool
}

// Server is the REST front of the engine.
type Server struct {
	httpServer *http.Server
	engine     Simulator
	schema     gojsonschema.JSONLoader
	logger     *slog.Logger
}

// NewServer builds the router and wires all routes.
func NewServer(addr string, engine Simulator, logger *slog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine: engine,
		schema: gojsonschema.NewBytesLoader(simulateSchema),
		logger: logger,
	}

	router.HandleFunc("/api/asteroids", s.handleListAsteroids).Methods(http.MethodGet)
	router.HandleFunc("/api/asteroids/{id}", s.handleGetAsteroid).Methods(http.MethodGet)
	router.HandleFunc("/api/simulate", s.handleSimulate).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleListAsteroids(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.engine.ListAsteroids(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetAsteroid(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	detail, err := s.engine.GetAsteroid(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID)
	w.Header().Set("X-Request-ID", requestID)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unreadable request body"))
		return
	}

	if err := s.validateSimulateBody(body); err != nil {
		logger.Info("simulation request rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	var req simulation.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("malformed request body"))
		return
	}

	result, err := s.engine.Simulate(r.Context(), req)
	if err != nil {
		logger.Warn("simulation failed", "asteroid_id", req.AsteroidID, "error", err)
		s.writeError(w, r, err)
		return
	}

	logger.Info("simulation served", "asteroid_id", req.AsteroidID, "lat", req.Lat, "lon", req.Lon)
	writeJSON(w, http.StatusOK, result)
}

// validateSimulateBody checks the raw body against the embedded JSON Schema
// before it is decoded, so type errors surface as clear 400s.
func (s *Server) validateSimulateBody(body []byte) error {
	result, err := gojsonschema.Validate(s.schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("schema violation: %v", msgs)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.engine.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// writeError maps domain error kinds onto HTTP statuses: client errors to
// 400/404, upstream outages to 503, everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidParameters):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
