package metric

import (
	"sync"
	"time"
)

// Retention limits for recorded samples. When a metric exceeds maxSamples
// entries it is trimmed to the most recent trimSamples.
const (
	maxSamples  = 1000
	trimSamples = 500
)

// Sample is a single recorded metric observation
type Sample struct {
	Timestamp time.Time         `json:"timestamp"`
	Value     float64           `json:"value"`
	Tags      map[string]string `json:"tags"`
}

// Summary aggregates the samples of one metric over a time window
type Summary struct {
	Count  int       `json:"count"`
	Mean   float64   `json:"mean"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Latest float64   `json:"latest"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Collector records named scalar samples with tags and bounded retention.
// RecordMetric is fire-and-forget: it never fails and never blocks on I/O,
// so it is safe to call from any producer or worker context.
type Collector struct {
	mu        sync.RWMutex
	samples   map[string][]Sample
	startTime time.Time
}

// NewCollector creates an empty sample collector
func NewCollector() *Collector {
	return &Collector{
		samples:   make(map[string][]Sample),
		startTime: time.Now(),
	}
}

// RecordMetric appends a sample for the named metric. Retention is capped:
// once a metric holds more than 1000 samples it is trimmed to the most
// recent 500.
func (c *Collector) RecordMetric(name string, value float64, tags map[string]string) {
	if name == "" {
		return
	}
	if tags == nil {
		tags = map[string]string{}
	}

	sample := Sample{
		Timestamp: time.Now(),
		Value:     value,
		Tags:      tags,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	samples := append(c.samples[name], sample)
	if len(samples) > maxSamples {
		trimmed := make([]Sample, trimSamples)
		copy(trimmed, samples[len(samples)-trimSamples:])
		samples = trimmed
	}
	c.samples[name] = samples
}

// Summary aggregates the retained samples of a metric. A zero window means
// all retained samples; otherwise only samples newer than now-window count.
// Returns false when no samples fall in the window.
func (c *Collector) Summary(name string, window time.Duration) (Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	samples := c.samples[name]
	if window > 0 {
		cutoff := time.Now().Add(-window)
		// Samples are appended in time order; find the first one in range
		idx := len(samples)
		for i, s := range samples {
			if s.Timestamp.After(cutoff) {
				idx = i
				break
			}
		}
		samples = samples[idx:]
	}

	if len(samples) == 0 {
		return Summary{}, false
	}

	sum := 0.0
	minVal := samples[0].Value
	maxVal := samples[0].Value
	for _, s := range samples {
		sum += s.Value
		if s.Value < minVal {
			minVal = s.Value
		}
		if s.Value > maxVal {
			maxVal = s.Value
		}
	}

	return Summary{
		Count:  len(samples),
		Mean:   sum / float64(len(samples)),
		Min:    minVal,
		Max:    maxVal,
		Latest: samples[len(samples)-1].Value,
		Start:  samples[0].Timestamp,
		End:    samples[len(samples)-1].Timestamp,
	}, true
}

// All returns a one-hour summary for every recorded metric name
func (c *Collector) All() map[string]Summary {
	c.mu.RLock()
	names := make([]string, 0, len(c.samples))
	for name := range c.samples {
		names = append(names, name)
	}
	c.mu.RUnlock()

	result := make(map[string]Summary, len(names))
	for _, name := range names {
		if summary, ok := c.Summary(name, time.Hour); ok {
			result[name] = summary
		}
	}
	return result
}

// Uptime reports how long the collector has existed
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}
