// Package config loads and validates the streamwatch configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/c360/streamwatch/errors"
)

// Cache mode constants
const (
	CacheModeMemory = "memory" // In-memory only
	CacheModeKV     = "kv"     // NATS KV only
	CacheModeHybrid = "hybrid" // NATS KV with in-memory fallback
)

// Duration wraps time.Duration so JSON configs can write "30s" or a
// plain number of seconds.
type Duration time.Duration

// UnmarshalJSON accepts either a duration string or seconds as a number
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(value) * time.Second)
	default:
		return fmt.Errorf("duration must be a string or number, got %T", v)
	}
	return nil
}

// MarshalJSON writes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the complete application configuration
type Config struct {
	Platform PlatformConfig `json:"platform"`
	HTTP     HTTPConfig     `json:"http"`
	NATS     NATSConfig     `json:"nats"`
	Cache    CacheConfig    `json:"cache"`
	Analysis AnalysisConfig `json:"analysis"`
}

// PlatformConfig identifies this deployment
type PlatformConfig struct {
	ID          string `json:"id"`
	Environment string `json:"environment,omitempty"`
}

// HTTPConfig controls the REST and WebSocket gateway
type HTTPConfig struct {
	Port            int      `json:"port"`
	MaxRequestBytes int64    `json:"max_request_bytes"`
	ShutdownTimeout Duration `json:"shutdown_timeout"`

	// Token bucket for data ingest requests
	IngestRateLimit float64 `json:"ingest_rate_limit"`
	IngestBurst     int     `json:"ingest_burst"`
}

// NATSConfig holds the NATS connection settings
type NATSConfig struct {
	URL            string   `json:"url"`
	ConnectTimeout Duration `json:"connect_timeout"`
	ReconnectWait  Duration `json:"reconnect_wait"`
	MaxReconnects  int      `json:"max_reconnects"`
}

// CacheConfig selects the result store backend
type CacheConfig struct {
	Mode            string   `json:"mode"`
	Bucket          string   `json:"bucket"`
	OpTimeout       Duration `json:"op_timeout"`
	CleanupInterval Duration `json:"cleanup_interval"`
}

// AnalysisConfig tunes the analyzer
type AnalysisConfig struct {
	LatestTTL    Duration `json:"latest_ttl"`
	HistoryTTL   Duration `json:"history_ttl"`
	HistoryLimit int      `json:"history_limit"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Platform: PlatformConfig{
			ID:          "streamwatch",
			Environment: "dev",
		},
		HTTP: HTTPConfig{
			Port:            8085,
			MaxRequestBytes: 10 << 20,
			ShutdownTimeout: Duration(10 * time.Second),
			IngestRateLimit: 100,
			IngestBurst:     200,
		},
		NATS: NATSConfig{
			URL:            "nats://localhost:4222",
			ConnectTimeout: Duration(5 * time.Second),
			ReconnectWait:  Duration(2 * time.Second),
			MaxReconnects:  -1,
		},
		Cache: CacheConfig{
			Mode:            CacheModeMemory,
			Bucket:          "streamwatch-results",
			OpTimeout:       Duration(5 * time.Second),
			CleanupInterval: Duration(time.Minute),
		},
		Analysis: AnalysisConfig{
			LatestTTL:    Duration(5 * time.Minute),
			HistoryTTL:   Duration(time.Hour),
			HistoryLimit: 100,
		},
	}
}

// Load reads a JSON config file over the defaults and applies environment
// overrides. An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", fmt.Sprintf("read %s", path))
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", fmt.Sprintf("parse %s", path))
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override file settings
// without editing the file
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STREAMWATCH_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("STREAMWATCH_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
	if v := os.Getenv("STREAMWATCH_CACHE_MODE"); v != "" {
		cfg.Cache.Mode = v
	}
	if v := os.Getenv("STREAMWATCH_CACHE_BUCKET"); v != "" {
		cfg.Cache.Bucket = v
	}
	if v := os.Getenv("STREAMWATCH_PLATFORM_ID"); v != "" {
		cfg.Platform.ID = v
	}
	if v := os.Getenv("STREAMWATCH_ENVIRONMENT"); v != "" {
		cfg.Platform.Environment = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Platform.ID == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "platform.id")
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return errors.WrapInvalid(
			fmt.Errorf("http.port %d out of range", c.HTTP.Port),
			"Config", "Validate", "http settings")
	}
	if c.HTTP.MaxRequestBytes <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("http.max_request_bytes must be positive"),
			"Config", "Validate", "http settings")
	}
	if c.HTTP.IngestRateLimit <= 0 || c.HTTP.IngestBurst <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("ingest rate limit and burst must be positive"),
			"Config", "Validate", "http settings")
	}

	switch c.Cache.Mode {
	case CacheModeMemory:
	case CacheModeKV, CacheModeHybrid:
		if c.NATS.URL == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
				fmt.Sprintf("nats.url required for cache mode %q", c.Cache.Mode))
		}
		if c.Cache.Bucket == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
				fmt.Sprintf("cache.bucket required for cache mode %q", c.Cache.Mode))
		}
	default:
		return errors.WrapInvalid(
			fmt.Errorf("unknown cache mode %q", c.Cache.Mode),
			"Config", "Validate", "cache settings")
	}

	if c.Analysis.HistoryLimit <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("analysis.history_limit must be positive"),
			"Config", "Validate", "analysis settings")
	}
	if c.Analysis.LatestTTL <= 0 || c.Analysis.HistoryTTL <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("analysis TTLs must be positive"),
			"Config", "Validate", "analysis settings")
	}

	return nil
}
