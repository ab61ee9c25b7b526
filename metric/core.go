package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics for the streaming analysis service
type Metrics struct {
	// Service metrics
	ServiceStatus     *prometheus.GaugeVec
	HealthCheckStatus *prometheus.GaugeVec

	// Stream metrics
	StreamsActive   prometheus.Gauge
	RecordsReceived *prometheus.CounterVec
	BatchesAnalyzed *prometheus.CounterVec
	AlertsTriggered *prometheus.CounterVec

	// Worker metrics
	AnalysisDuration *prometheus.HistogramVec
	QueueDepth       prometheus.Gauge

	// Cache metrics
	CacheFallbacks prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streamwatch",
				Subsystem: "service",
				Name:      "status",
				Help:      "Service status (0=stopped, 1=starting, 2=running, 3=stopping)",
			},
			[]string{"service"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streamwatch",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"service"},
		),

		StreamsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "streamwatch",
				Subsystem: "streams",
				Name:      "active",
				Help:      "Number of registered active streams",
			},
		),

		RecordsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamwatch",
				Subsystem: "streams",
				Name:      "records_received_total",
				Help:      "Total number of records appended to stream buffers",
			},
			[]string{"stream"},
		),

		BatchesAnalyzed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamwatch",
				Subsystem: "analysis",
				Name:      "batches_total",
				Help:      "Total number of batches analyzed",
			},
			[]string{"stream", "status"},
		),

		AlertsTriggered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamwatch",
				Subsystem: "analysis",
				Name:      "alerts_total",
				Help:      "Total number of threshold alerts generated",
			},
			[]string{"stream", "severity"},
		),

		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "streamwatch",
				Subsystem: "analysis",
				Name:      "duration_seconds",
				Help:      "Batch analysis duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stream"},
		),

		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "streamwatch",
				Subsystem: "analysis",
				Name:      "queue_depth",
				Help:      "Number of batches waiting for analysis",
			},
		),

		CacheFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "streamwatch",
				Subsystem: "cache",
				Name:      "fallbacks_total",
				Help:      "Total number of cache operations that fell back to the local store",
			},
		),
	}
}

// RecordServiceStatus updates service status metric
func (c *Metrics) RecordServiceStatus(service string, status int) {
	c.ServiceStatus.WithLabelValues(service).Set(float64(status))
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(service string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(service).Set(value)
}

// RecordStreamsActive updates the active stream count
func (c *Metrics) RecordStreamsActive(count int) {
	c.StreamsActive.Set(float64(count))
}

// RecordRecordsReceived adds to the received record counter for a stream
func (c *Metrics) RecordRecordsReceived(stream string, count int) {
	c.RecordsReceived.WithLabelValues(stream).Add(float64(count))
}

// RecordBatchAnalyzed increments the analyzed batch counter
func (c *Metrics) RecordBatchAnalyzed(stream, status string) {
	c.BatchesAnalyzed.WithLabelValues(stream, status).Inc()
}

// RecordAlert increments the alert counter
func (c *Metrics) RecordAlert(stream, severity string) {
	c.AlertsTriggered.WithLabelValues(stream, severity).Inc()
}

// RecordAnalysisDuration records batch analysis time
func (c *Metrics) RecordAnalysisDuration(stream string, duration time.Duration) {
	c.AnalysisDuration.WithLabelValues(stream).Observe(duration.Seconds())
}

// RecordQueueDepth updates the analysis queue depth
func (c *Metrics) RecordQueueDepth(depth int) {
	c.QueueDepth.Set(float64(depth))
}

// RecordCacheFallback increments the cache fallback counter
func (c *Metrics) RecordCacheFallback() {
	c.CacheFallbacks.Inc()
}
