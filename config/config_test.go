package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, CacheModeMemory, cfg.Cache.Mode)
	assert.Equal(t, 100, cfg.Analysis.HistoryLimit)
	assert.Equal(t, 5*time.Minute, cfg.Analysis.LatestTTL.Std())
	assert.Equal(t, time.Hour, cfg.Analysis.HistoryTTL.Std())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	require.Error(t, err)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"platform": {"id": "plant-a", "environment": "prod"},
		"http": {"port": 9000},
		"cache": {"mode": "hybrid", "bucket": "results"},
		"analysis": {"latest_ttl": "2m", "history_limit": 50}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "plant-a", cfg.Platform.ID)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, CacheModeHybrid, cfg.Cache.Mode)
	assert.Equal(t, 2*time.Minute, cfg.Analysis.LatestTTL.Std())
	assert.Equal(t, 50, cfg.Analysis.HistoryLimit)

	// Unset fields keep defaults
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, time.Hour, cfg.Analysis.HistoryTTL.Std())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STREAMWATCH_NATS_URL", "nats://nats.internal:4222")
	t.Setenv("STREAMWATCH_HTTP_PORT", "7777")
	t.Setenv("STREAMWATCH_CACHE_MODE", "kv")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "nats://nats.internal:4222", cfg.NATS.URL)
	assert.Equal(t, 7777, cfg.HTTP.Port)
	assert.Equal(t, CacheModeKV, cfg.Cache.Mode)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty platform id", func(c *Config) { c.Platform.ID = "" }},
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }},
		{"zero request size", func(c *Config) { c.HTTP.MaxRequestBytes = 0 }},
		{"zero rate limit", func(c *Config) { c.HTTP.IngestRateLimit = 0 }},
		{"unknown cache mode", func(c *Config) { c.Cache.Mode = "redis" }},
		{"kv without url", func(c *Config) { c.Cache.Mode = CacheModeKV; c.NATS.URL = "" }},
		{"kv without bucket", func(c *Config) { c.Cache.Mode = CacheModeKV; c.Cache.Bucket = "" }},
		{"zero history limit", func(c *Config) { c.Analysis.HistoryLimit = 0 }},
		{"zero latest ttl", func(c *Config) { c.Analysis.LatestTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Duration
		ok   bool
	}{
		{"string form", `"90s"`, 90 * time.Second, true},
		{"compound string", `"1h30m"`, 90 * time.Minute, true},
		{"plain seconds", `300`, 300 * time.Second, true},
		{"bad string", `"soon"`, 0, false},
		{"bool", `true`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Std())
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	data, err := json.Marshal(Duration(5 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, `"5m0s"`, string(data))

	var d Duration
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, 5*time.Minute, d.Std())
}
