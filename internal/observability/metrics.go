package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// simulation engine.
type Metrics struct {
	SimulationsTotal   *prometheus.CounterVec // labels: outcome={ok,client_error,upstream_error}
	SimulationDuration prometheus.Histogram

	// External provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	SiteCache        *prometheus.CounterVec   // labels: lookup={terrain,landform,population}, result={hit,miss}

	// Catalog cache metrics.
	CatalogFetches    *prometheus.CounterVec // labels: kind={summary,detail}, outcome={fresh,cached,stale_fallback,error}
	CatalogRetries    prometheus.Counter
	CatalogCacheBytes prometheus.Gauge

	// Result publishing metrics.
	ResultsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	PublisherEnabled prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.SimulationsTotal,
		m.SimulationDuration,
		m.ProviderRequests,
		m.ProviderDuration,
		m.SiteCache,
		m.CatalogFetches,
		m.CatalogRetries,
		m.CatalogCacheBytes,
		m.ResultsPublished,
		m.PublishErrors,
		m.PublisherEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_engine",
			Name:      "simulations_total",
			Help:      "Completed simulation requests by outcome.",
		}, []string{"outcome"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "impact_engine",
			Name:      "simulation_duration_seconds",
			Help:      "End-to-end duration of one simulation request.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_engine",
			Name:      "provider_requests_total",
			Help:      "External data-provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "impact_engine",
			Name:      "provider_request_duration_seconds",
			Help:      "External provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		SiteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_engine",
			Name:      "site_cache_total",
			Help:      "Site-context cache lookups by lookup kind and result.",
		}, []string{"lookup", "result"}),
		CatalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_engine",
			Name:      "catalog_fetches_total",
			Help:      "Catalog lookups by record kind and serving path.",
		}, []string{"kind", "outcome"}),
		CatalogRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "impact_engine",
			Name:      "catalog_rate_limit_retries_total",
			Help:      "Single capped retries taken after a catalog rate-limit signal.",
		}),
		CatalogCacheBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "impact_engine",
			Name:      "catalog_cache_bytes",
			Help:      "Size of the last persisted catalog summary payload.",
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "impact_engine",
			Name:      "results_published_total",
			Help:      "Simulation results published to the Kafka results topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "impact_engine",
			Name:      "publish_errors_total",
			Help:      "Failed attempts to publish a simulation result.",
		}),
		PublisherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "impact_engine",
			Name:      "publisher_enabled",
			Help:      "1 when Kafka result publishing is enabled, 0 otherwise.",
		}),
	}
}
