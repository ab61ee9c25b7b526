// Package metric provides Prometheus-based metrics collection for the
// StreamWatch service, plus a lightweight in-memory sample collector.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (service status, stream ingestion, batch analysis,
// alerting, cache fallbacks) and custom service-specific metrics, exposed
// via a promhttp scrape handler.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	mux.Handle("/metrics", registry.Handler())
//
//	core := registry.CoreMetrics()
//	core.RecordServiceStatus("realtime-analyzer", 2) // 2 = running
//	core.RecordBatchAnalyzed("sensor-1", "success")
//
// # Sample Collector
//
// Collector records named scalar observations with tags, independent of
// Prometheus. Retention is bounded: a metric holding more than 1000 samples
// is trimmed to its most recent 500. Recording never fails, which makes the
// collector safe to call from request handlers and the analysis worker
// without error handling at every call site.
//
//	collector := metric.NewCollector()
//	collector.RecordMetric("records_ingested", 12, map[string]string{"stream": "s1"})
//	summary, ok := collector.Summary("records_ingested", time.Hour)
package metric
