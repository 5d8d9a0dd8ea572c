package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.InfoTTL)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlData := `
server:
  port: "9090"
retry:
  max_attempts: 6
  base_delay: 500ms
  max_delay: 10s
cache:
  ttl: 30m
redis:
  addr: localhost:6379
kafka:
  brokers: ["k1:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o600))

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("CACHE_TTL", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "7070", cfg.Server.Port, "env overrides file")
	assert.Equal(t, 6, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.InfoTTL, "unset values keep defaults")
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.KafkaEnabled())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o600))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("bad duration env", func(t *testing.T) {
		t.Setenv("RETRY_BASE_DELAY", "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, "RETRY_BASE_DELAY")
	})

	t.Run("bad int env", func(t *testing.T) {
		t.Setenv("RETRY_MAX_ATTEMPTS", "many")
		_, err := Load("")
		assert.ErrorContains(t, err, "RETRY_MAX_ATTEMPTS")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = "http" }},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"negative max delay", func(c *Config) { c.Retry.MaxDelay = -time.Second }},
		{"zero base delay", func(c *Config) { c.Retry.BaseDelay = 0 }},
		{"max below base", func(c *Config) { c.Retry.MaxDelay = time.Second; c.Retry.BaseDelay = 2 * time.Second }},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"zero info ttl", func(c *Config) { c.Cache.InfoTTL = 0 }},
		{"no purge schedule", func(c *Config) { c.Cache.PurgeSchedule = "" }},
		{"kafka without topic", func(c *Config) { c.Kafka.Brokers = []string{"k:9092"}; c.Kafka.Topic = "" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	cfg := Defaults()
	cfg.Retry.MaxAttempts = 5
	cfg.Retry.BaseDelay = time.Second

	p := cfg.RetryPolicy()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
	assert.Equal(t, 30*time.Second, p.MaxDelay)
	require.NoError(t, p.Validate())

	cfg.Retry.MaxAttempts = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "max attempts")
}
