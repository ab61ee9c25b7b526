package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/streamwatch/metric"
)

// storeMetrics holds Prometheus metrics for store operations.
type storeMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	sets      prometheus.Counter
	deletes   prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

// newStoreMetrics creates and registers store metrics with the provided registry.
func newStoreMetrics(registry *metric.MetricsRegistry, prefix string) (*storeMetrics, error) {
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   "streamwatch",
			Subsystem:   "cache",
			Name:        name,
			ConstLabels: prometheus.Labels{"store": prefix},
			Help:        help,
		}
	}

	m := &storeMetrics{
		hits:      prometheus.NewCounter(opts("hits_total", "Total number of cache hits")),
		misses:    prometheus.NewCounter(opts("misses_total", "Total number of cache misses")),
		sets:      prometheus.NewCounter(opts("sets_total", "Total number of cache set operations")),
		deletes:   prometheus.NewCounter(opts("deletes_total", "Total number of cache delete operations")),
		evictions: prometheus.NewCounter(opts("evictions_total", "Total number of cache evictions")),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "streamwatch",
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: prometheus.Labels{"store": prefix},
			Help:        "Current number of entries in cache",
		}),
	}

	if err := registry.RegisterCounter(prefix, "cache_hits", m.hits); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "cache_misses", m.misses); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "cache_sets", m.sets); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "cache_deletes", m.deletes); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "cache_evictions", m.evictions); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "cache_size", m.size); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *storeMetrics) recordHit() {
	m.hits.Inc()
}

func (m *storeMetrics) recordMiss() {
	m.misses.Inc()
}

func (m *storeMetrics) recordSet() {
	m.sets.Inc()
}

func (m *storeMetrics) recordDelete() {
	m.deletes.Inc()
}

func (m *storeMetrics) recordEviction() {
	m.evictions.Inc()
}

func (m *storeMetrics) updateSize(size int) {
	m.size.Set(float64(size))
}
