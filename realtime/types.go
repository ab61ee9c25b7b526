package realtime

import (
	"time"
)

// DefaultBatchSize is used when a stream config does not set one.
const DefaultBatchSize = 100

// Record is one row of tabular stream data, mapping column names to values.
type Record map[string]any

// Threshold holds optional high/low bounds for one column. A nil bound is
// not configured, so a zero threshold is a valid bound.
type Threshold struct {
	High *float64 `json:"high,omitempty"`
	Low  *float64 `json:"low,omitempty"`
}

// StreamConfig controls batching and alerting for a stream.
type StreamConfig struct {
	// BatchSize is the buffer length that triggers an analysis batch.
	BatchSize int `json:"batch_size"`
	// Thresholds maps column names to alert bounds.
	Thresholds map[string]Threshold `json:"thresholds,omitempty"`
}

// batchSize returns the configured batch size or the default.
func (c StreamConfig) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}

// Trend is the two-point direction indicator for a numeric column.
type Trend string

// Trend values
const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
)

// AlertType identifies which bound a column crossed.
type AlertType string

// Alert types
const (
	AlertThresholdExceeded AlertType = "threshold_exceeded"
	AlertThresholdBelow    AlertType = "threshold_below"
)

// Severity ranks an alert.
type Severity string

// Severity levels
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Alert is a threshold-crossing signal computed from a column's latest
// value in a batch.
type Alert struct {
	Type      AlertType `json:"type"`
	Column    string    `json:"column"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Severity  Severity  `json:"severity"`
}

// ColumnStats summarizes one numeric column over a batch.
type ColumnStats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Latest float64 `json:"latest"`
}

// Result is the outcome of analyzing one batch.
type Result struct {
	Timestamp    time.Time              `json:"timestamp"`
	RowCount     int                    `json:"row_count"`
	SummaryStats map[string]ColumnStats `json:"summary_stats"`
	Trends       map[string]Trend       `json:"trends"`
	Alerts       []Alert                `json:"alerts"`
}

// StreamInfo is a point-in-time snapshot of a registered stream.
type StreamInfo struct {
	Status     string    `json:"status"`
	LastUpdate time.Time `json:"last_update"`
	BufferSize int       `json:"buffer_size"`
}

// Subscriber receives each analysis result for a stream after it has been
// cached. Subscribers run synchronously on the worker goroutine, in
// registration order; a panicking subscriber is isolated and logged.
type Subscriber func(result Result)

// batchTask is an immutable snapshot dispatched to the analysis worker.
type batchTask struct {
	streamID   string
	records    []Record
	config     StreamConfig
	dispatched time.Time
}
