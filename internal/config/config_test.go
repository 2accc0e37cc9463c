package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Guizzs26/voting_registry/internal/config"
	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v, err := config.NewViper("")
	require.NoError(t, err)

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *cfg)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log-level: debug
http-port: 9000
store: pebble
pebble-path: /tmp/registry
kafka-brokers: broker-1:9092,broker-2:9092
report-interval: 30s
enforce-voting-window: true
`), 0o600))

	v, err := config.NewViper(path)
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, log.DEBUG, cfg.LogLevel)
	assert.Equal(t, uint16(9000), cfg.HTTPPort)
	assert.Equal(t, config.StorePebble, cfg.Store)
	assert.Equal(t, "/tmp/registry", cfg.PebblePath)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.ReportInterval)
	assert.True(t, cfg.EnforceVotingWindow)
	// untouched keys keep their defaults
	assert.Equal(t, "ballots", cfg.KafkaTopic)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: etcd\n"), 0o600))

	v, err := config.NewViper(path)
	require.NoError(t, err)
	_, err = config.Load(v)
	require.ErrorContains(t, err, `unknown store "etcd"`)
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log-level: loud\n"), 0o600))

	v, err := config.NewViper(path)
	require.NoError(t, err)
	_, err = config.Load(v)
	require.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := config.NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VOTING_STORE", "redis")
	t.Setenv("VOTING_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("VOTING_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("VOTING_METRICS", "true")
	t.Setenv("VOTING_METRICS_PORT", "9100")
	t.Setenv("VOTING_REPORT_INTERVAL", "1m")

	v, err := config.NewViper("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, config.StoreRedis, cfg.Store)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, uint16(9100), cfg.MetricsPort)
	assert.Equal(t, time.Minute, cfg.ReportInterval)
	assert.Equal(t, "registry", cfg.RedisPrefix)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: pebble\nhttp-port: 9000\n"), 0o600))
	t.Setenv("VOTING_STORE", "memory")

	v, err := config.NewViper(path)
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, uint16(9000), cfg.HTTPPort)
}

func TestKeysMatchConfigFields(t *testing.T) {
	keys := config.Keys()
	assert.Contains(t, keys, "redis-url")
	assert.Contains(t, keys, "enforce-voting-window")
	assert.Len(t, keys, 18)
}
