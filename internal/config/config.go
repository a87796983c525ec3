package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configFileEnv points at an optional YAML overlay applied on top of the
// defaults before environment variables are read.
const configFileEnv = "IMPACT_CONFIG"

// Config holds all service settings. Defaults are overlaid by the optional
// YAML file, then by environment variables.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Catalog cache settings.
	CacheDir            string        `yaml:"cache_dir"`
	CatalogBaseURL      string        `yaml:"catalog_base_url"`
	CatalogStaleAfter   time.Duration `yaml:"catalog_stale_after"`
	CatalogRetryBackoff time.Duration `yaml:"catalog_retry_backoff"`
	CatalogTimeout      time.Duration `yaml:"catalog_timeout"`

	// Site-context provider settings.
	TerrainBaseURL    string        `yaml:"terrain_base_url"`
	GeocoderBaseURL   string        `yaml:"geocoder_base_url"`
	PopulationBaseURL string        `yaml:"population_base_url"`
	ProviderTimeout   time.Duration `yaml:"provider_timeout"`
	SiteCacheSize     int           `yaml:"site_cache_size"`
	SiteCellDegrees   float64       `yaml:"site_cell_degrees"`

	// Optional Kafka result publishing.
	KafkaBrokers      []string `yaml:"kafka_brokers"`
	KafkaResultsTopic string   `yaml:"kafka_results_topic"`
	KafkaEnabled      bool     `yaml:"kafka_enabled"`
}

// Load reads configuration, applying the overlay order defaults → YAML file →
// environment variables, then validates.
func Load() (*Config, error) {
	cfg := defaults()

	kafkaEnabledSet := false
	if path := os.Getenv(configFileEnv); path != "" {
		set, err := applyFile(cfg, path)
		if err != nil {
			return nil, err
		}
		kafkaEnabledSet = set
	}

	if err := applyEnv(cfg, kafkaEnabledSet); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,

		CacheDir:            "data/catalog",
		CatalogBaseURL:      "https://ssd-api.jpl.nasa.gov",
		CatalogStaleAfter:   12 * time.Hour,
		CatalogRetryBackoff: 2 * time.Second,
		CatalogTimeout:      30 * time.Second,

		TerrainBaseURL:    "https://api.opentopodata.org",
		GeocoderBaseURL:   "https://nominatim.openstreetmap.org",
		PopulationBaseURL: "https://api.worldbank.org",
		ProviderTimeout:   10 * time.Second,
		SiteCacheSize:     1000,
		SiteCellDegrees:   0.01,

		KafkaResultsTopic: "impact-simulation-results",
	}
}

// applyFile overlays the YAML file onto cfg. It reports whether the file set
// kafka_enabled explicitly, so an explicit false is not clobbered by the
// brokers-derived default later.
func applyFile(cfg *Config, path string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return false, fmt.Errorf("parse config file %s: %w", path, err)
	}
	var present struct {
		KafkaEnabled *bool `yaml:"kafka_enabled"`
	}
	_ = yaml.Unmarshal(raw, &present)
	return present.KafkaEnabled != nil, nil
}

func applyEnv(cfg *Config, kafkaEnabledSet bool) error {
	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)

	cfg.CacheDir = envOrDefault("CACHE_DIR", cfg.CacheDir)
	cfg.CatalogBaseURL = envOrDefault("CATALOG_BASE_URL", cfg.CatalogBaseURL)
	cfg.TerrainBaseURL = envOrDefault("TERRAIN_BASE_URL", cfg.TerrainBaseURL)
	cfg.GeocoderBaseURL = envOrDefault("GEOCODER_BASE_URL", cfg.GeocoderBaseURL)
	cfg.PopulationBaseURL = envOrDefault("POPULATION_BASE_URL", cfg.PopulationBaseURL)

	var err error
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}
	if cfg.CatalogStaleAfter, err = envDuration("CATALOG_STALE_AFTER", cfg.CatalogStaleAfter); err != nil {
		return err
	}
	if cfg.CatalogRetryBackoff, err = envDuration("CATALOG_RETRY_BACKOFF", cfg.CatalogRetryBackoff); err != nil {
		return err
	}
	if cfg.CatalogTimeout, err = envDuration("CATALOG_TIMEOUT", cfg.CatalogTimeout); err != nil {
		return err
	}
	if cfg.ProviderTimeout, err = envDuration("PROVIDER_TIMEOUT", cfg.ProviderTimeout); err != nil {
		return err
	}

	if s := os.Getenv("SITE_CACHE_SIZE"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return errors.New("invalid SITE_CACHE_SIZE")
		}
		cfg.SiteCacheSize = n
	}
	if s := os.Getenv("SITE_CELL_DEGREES"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return errors.New("invalid SITE_CELL_DEGREES")
		}
		cfg.SiteCellDegrees = v
	}

	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		cfg.KafkaBrokers = splitBrokers(s)
	}
	cfg.KafkaResultsTopic = envOrDefault("KAFKA_RESULTS_TOPIC", cfg.KafkaResultsTopic)
	if !kafkaEnabledSet {
		cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	}
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	return nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.CacheDir == "" {
		return errors.New("CACHE_DIR is required")
	}
	if c.CatalogStaleAfter <= 0 {
		return errors.New("CATALOG_STALE_AFTER must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return errors.New("PROVIDER_TIMEOUT must be positive")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.KafkaEnabled && c.KafkaResultsTopic == "" {
		return errors.New("KAFKA_ENABLED is true but KAFKA_RESULTS_TOPIC is not set")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
