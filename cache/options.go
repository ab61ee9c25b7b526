package cache

import (
	"github.com/c360/streamwatch/metric"
)

// Option configures store behavior using the functional options pattern.
type Option func(*storeOptions)

// storeOptions holds internal configuration for store instances.
// Statistics are always collected; Prometheus export is optional and
// enabled via WithMetrics().
type storeOptions struct {
	metricsReg    *metric.MetricsRegistry
	metricsPrefix string
}

// WithMetrics enables Prometheus metrics export for store statistics.
// If registry is nil or prefix is empty, the option is ignored.
func WithMetrics(registry *metric.MetricsRegistry, prefix string) Option {
	return func(opts *storeOptions) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// applyOptions applies functional options to create final store configuration.
func applyOptions(options ...Option) *storeOptions {
	opts := &storeOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}

// buildMetrics builds Prometheus metrics when a registry is configured.
func (o *storeOptions) buildMetrics() (*storeMetrics, error) {
	if o.metricsReg == nil {
		return nil, nil
	}
	return newStoreMetrics(o.metricsReg, o.metricsPrefix)
}
