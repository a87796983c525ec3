package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 12*time.Hour, cfg.CatalogStaleAfter)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 1000, cfg.SiteCacheSize)
	assert.Equal(t, 0.01, cfg.SiteCellDegrees)
	assert.False(t, cfg.KafkaEnabled, "kafka disabled without brokers")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CATALOG_STALE_AFTER", "1h")
	t.Setenv("SITE_CACHE_SIZE", "50")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.CatalogStaleAfter)
	assert.Equal(t, 50, cfg.SiteCacheSize)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled, "brokers imply enabled")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-1:9092")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impact.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"http_addr: \":7070\"\ncatalog_stale_after: 6h\nsite_cell_degrees: 0.05\n",
	), 0o600))
	t.Setenv("IMPACT_CONFIG", path)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, 6*time.Hour, cfg.CatalogStaleAfter)
	assert.Equal(t, 0.05, cfg.SiteCellDegrees)
	assert.Equal(t, "info", cfg.LogLevel, "untouched fields keep defaults")
}

func TestLoad_FileKafkaDisabledKeepsBrokers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impact.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"kafka_brokers:\n  - broker-1:9092\nkafka_enabled: false\n",
	), 0o600))
	t.Setenv("IMPACT_CONFIG", path)

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled, "explicit file setting survives the brokers default")
	assert.Equal(t, []string{"broker-1:9092"}, cfg.KafkaBrokers)
}

func TestLoad_FileBrokersImplyEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impact.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"kafka_brokers:\n  - broker-1:9092\n",
	), 0o600))
	t.Setenv("IMPACT_CONFIG", path)

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impact.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":7070\"\n"), 0o600))
	t.Setenv("IMPACT_CONFIG", path)
	t.Setenv("HTTP_ADDR", ":6060")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.HTTPAddr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad stale duration", "CATALOG_STALE_AFTER", "soon"},
		{"negative timeout", "PROVIDER_TIMEOUT", "-5s"},
		{"bad cache size", "SITE_CACHE_SIZE", "many"},
		{"zero cell size", "SITE_CELL_DEGREES", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
