// Command impactd serves the asteroid impact effects simulation API: a
// cached view of the JPL small-body catalog, site-context resolution from
// open geodata providers, and the effects calculator behind a REST surface.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/deimos-sim/impact-engine/internal/adapter/httpapi"
	"github.com/deimos-sim/impact-engine/internal/adapter/kafkapub"
	"github.com/deimos-sim/impact-engine/internal/adapter/nominatim"
	"github.com/deimos-sim/impact-engine/internal/adapter/opentopo"
	"github.com/deimos-sim/impact-engine/internal/adapter/sbdb"
	"github.com/deimos-sim/impact-engine/internal/adapter/worldbank"
	"github.com/deimos-sim/impact-engine/internal/catalog"
	"github.com/deimos-sim/impact-engine/internal/config"
	"github.com/deimos-sim/impact-engine/internal/observability"
	"github.com/deimos-sim/impact-engine/internal/simulation"
	"github.com/deimos-sim/impact-engine/internal/site"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := catalog.NewFileStore(cfg.CacheDir)
	if err != nil {
		logger.Error("failed to open catalog cache", "dir", cfg.CacheDir, "error", err)
		os.Exit(1)
	}

	remote := sbdb.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout, metrics, logger)
	catalogCache := catalog.NewCache(remote, store, clockwork.NewRealClock(),
		cfg.CatalogStaleAfter, cfg.CatalogRetryBackoff, metrics, logger)

	resolver := site.NewResolver(
		opentopo.NewClient(cfg.TerrainBaseURL, cfg.ProviderTimeout, metrics, logger),
		nominatim.NewClient(cfg.GeocoderBaseURL, cfg.ProviderTimeout, metrics, logger),
		worldbank.NewClient(cfg.PopulationBaseURL, cfg.ProviderTimeout, metrics, logger),
		cfg.SiteCacheSize, cfg.SiteCellDegrees, cfg.ProviderTimeout, metrics, logger)

	// Result publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher simulation.Publisher
	var writer *kafkapub.Writer
	if cfg.KafkaEnabled {
		writer = kafkapub.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("result publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultsTopic)
	} else {
		logger.Info("result publishing disabled")
	}

	engine := simulation.NewEngine(catalogCache, resolver, publisher, metrics, logger)
	srv := httpapi.NewServer(cfg.HTTPAddr, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	engine.SetReady(true)
	logger.Info("impactd ready", "addr", cfg.HTTPAddr, "catalog", cfg.CatalogBaseURL)

	<-ctx.Done()
	logger.Info("shutting down")
	engine.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
