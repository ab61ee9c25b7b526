// Package main implements the entry point for the streamwatch service.
// Streamwatch registers tabular data streams, batches their records, and
// runs statistical analysis with threshold alerting over each batch.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/streamwatch/cache"
	"github.com/c360/streamwatch/config"
	"github.com/c360/streamwatch/gateway"
	"github.com/c360/streamwatch/health"
	"github.com/c360/streamwatch/metric"
	"github.com/c360/streamwatch/natsclient"
	"github.com/c360/streamwatch/realtime"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "streamwatch"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		logger.Info("configuration is valid", "path", cliCfg.ConfigPath)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metric.NewMetricsRegistry()
	collector := metric.NewCollector()

	store, natsClient, err := buildStore(ctx, cfg, registry, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if natsClient != nil {
		defer func() { _ = natsClient.Close(context.Background()) }()
	}

	analyzer := realtime.New(store,
		realtime.WithLogger(logger),
		realtime.WithMetrics(registry),
		realtime.WithCollector(collector),
		realtime.WithTTLs(cfg.Analysis.LatestTTL.Std(), cfg.Analysis.HistoryTTL.Std()),
		realtime.WithHistoryLimit(cfg.Analysis.HistoryLimit),
	)
	if err := analyzer.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = analyzer.Stop(cliCfg.ShutdownTimeout) }()

	sources := []gateway.HealthSource{analyzer}
	if natsClient != nil {
		sources = append(sources, natsHealth{natsClient})
	}

	server := gateway.NewServer(cfg.HTTP, analyzer,
		gateway.WithLogger(logger),
		gateway.WithMetricsRegistry(registry),
		gateway.WithCollector(collector),
		gateway.WithHealthSources(sources...),
	)

	logger.Info("streamwatch starting",
		"platform", cfg.Platform.ID,
		"environment", cfg.Platform.Environment,
		"cache_mode", cfg.Cache.Mode,
		"http_port", cfg.HTTP.Port)

	return server.Run(ctx)
}

// buildStore constructs the result store for the configured cache mode.
// KV and hybrid modes connect to NATS and provision the bucket first.
func buildStore(ctx context.Context, cfg *config.Config, registry *metric.MetricsRegistry,
	logger *slog.Logger) (cache.Store, *natsclient.Client, error) {

	memory := func(prefix string) (*cache.Memory, error) {
		return cache.NewMemory(cfg.Cache.CleanupInterval.Std(),
			cache.WithMetrics(registry, prefix))
	}

	if cfg.Cache.Mode == config.CacheModeMemory {
		store, err := memory("memory")
		return store, nil, err
	}

	client, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithLogger(logger),
		natsclient.WithClientName(appName),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait.Std()),
		natsclient.WithConnectTimeout(cfg.NATS.ConnectTimeout.Std()),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}

	bucket, err := client.EnsureKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Cache.Bucket,
		Description: "streamwatch analysis results",
		TTL:         cfg.Analysis.HistoryTTL.Std(),
	})
	if err != nil {
		_ = client.Close(ctx)
		return nil, nil, err
	}

	kvStore, err := cache.NewKV(bucket, cfg.Cache.OpTimeout.Std(),
		cache.WithMetrics(registry, "kv"))
	if err != nil {
		_ = client.Close(ctx)
		return nil, nil, err
	}

	if cfg.Cache.Mode == config.CacheModeKV {
		return kvStore, client, nil
	}

	local, err := memory("fallback")
	if err != nil {
		_ = client.Close(ctx)
		return nil, nil, err
	}

	store := cache.NewFallback(kvStore, local,
		cache.WithFallbackLogger(logger),
		cache.OnFallback(registry.CoreMetrics().RecordCacheFallback),
	)
	return store, client, nil
}

// natsHealth adapts the NATS client to the gateway's health interface.
type natsHealth struct {
	client *natsclient.Client
}

func (n natsHealth) Health() health.Status {
	if n.client.IsHealthy() {
		return health.NewHealthy("natsclient", "connected")
	}
	return health.NewUnhealthy("natsclient",
		fmt.Sprintf("connection %s", n.client.Status()))
}
