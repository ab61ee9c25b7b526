package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streamwatch/errors"
)

func floatPtr(v float64) *float64 { return &v }

func makeRecords(col string, values ...float64) []Record {
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = Record{col: v}
	}
	return records
}

func TestAnalyzeBatchEmptyRejected(t *testing.T) {
	_, err := analyzeBatch(nil, StreamConfig{}, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEmptyBatch)
	assert.True(t, errors.IsInvalid(err))
}

func TestAnalyzeBatchSummaryStats(t *testing.T) {
	records := makeRecords("temperature", 10, 20, 30, 40)
	result, err := analyzeBatch(records, StreamConfig{}, time.Now())
	require.NoError(t, err)

	require.Contains(t, result.SummaryStats, "temperature")
	stats := result.SummaryStats["temperature"]
	assert.InDelta(t, 25.0, stats.Mean, 1e-9)
	assert.InDelta(t, 12.909944487358056, stats.Std, 1e-9) // sample std, n-1
	assert.Equal(t, 10.0, stats.Min)
	assert.Equal(t, 40.0, stats.Max)
	assert.Equal(t, 40.0, stats.Latest)
	assert.Equal(t, 4, result.RowCount)
}

func TestAnalyzeBatchSingleRowStdZero(t *testing.T) {
	result, err := analyzeBatch(makeRecords("v", 7), StreamConfig{}, time.Now())
	require.NoError(t, err)

	stats := result.SummaryStats["v"]
	assert.Equal(t, 0.0, stats.Std)
	assert.Equal(t, 7.0, stats.Mean)
	assert.Empty(t, result.Trends, "single value has no trend")
}

func TestAnalyzeBatchTrends(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Trend
	}{
		{"rising tail", []float64{1, 2, 3}, TrendIncreasing},
		{"falling tail", []float64{3, 2, 1}, TrendDecreasing},
		{"flat tail reads decreasing", []float64{1, 5, 5}, TrendDecreasing},
		{"only last two matter", []float64{100, 1, 2}, TrendIncreasing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := analyzeBatch(makeRecords("v", tt.values...), StreamConfig{}, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Trends["v"])
		})
	}
}

func TestAnalyzeBatchAlerts(t *testing.T) {
	t.Run("high threshold exceeded", func(t *testing.T) {
		cfg := StreamConfig{Thresholds: map[string]Threshold{
			"temp": {High: floatPtr(50)},
		}}
		result, err := analyzeBatch(makeRecords("temp", 40, 60), cfg, time.Now())
		require.NoError(t, err)

		require.Len(t, result.Alerts, 1)
		alert := result.Alerts[0]
		assert.Equal(t, AlertThresholdExceeded, alert.Type)
		assert.Equal(t, "temp", alert.Column)
		assert.Equal(t, 60.0, alert.Value)
		assert.Equal(t, 50.0, alert.Threshold)
		assert.Equal(t, SeverityHigh, alert.Severity)
	})

	t.Run("low threshold crossed", func(t *testing.T) {
		cfg := StreamConfig{Thresholds: map[string]Threshold{
			"temp": {Low: floatPtr(10)},
		}}
		result, err := analyzeBatch(makeRecords("temp", 20, 5), cfg, time.Now())
		require.NoError(t, err)

		require.Len(t, result.Alerts, 1)
		assert.Equal(t, AlertThresholdBelow, result.Alerts[0].Type)
		assert.Equal(t, SeverityMedium, result.Alerts[0].Severity)
	})

	t.Run("high takes precedence over low", func(t *testing.T) {
		// Inverted bounds so the latest value crosses both
		cfg := StreamConfig{Thresholds: map[string]Threshold{
			"temp": {High: floatPtr(10), Low: floatPtr(50)},
		}}
		result, err := analyzeBatch(makeRecords("temp", 30), cfg, time.Now())
		require.NoError(t, err)

		require.Len(t, result.Alerts, 1)
		assert.Equal(t, AlertThresholdExceeded, result.Alerts[0].Type)
	})

	t.Run("equal to bound does not alert", func(t *testing.T) {
		cfg := StreamConfig{Thresholds: map[string]Threshold{
			"temp": {High: floatPtr(50), Low: floatPtr(50)},
		}}
		result, err := analyzeBatch(makeRecords("temp", 50), cfg, time.Now())
		require.NoError(t, err)
		assert.Empty(t, result.Alerts)
	})

	t.Run("zero threshold is a real bound", func(t *testing.T) {
		cfg := StreamConfig{Thresholds: map[string]Threshold{
			"delta": {Low: floatPtr(0)},
		}}
		result, err := analyzeBatch(makeRecords("delta", -1), cfg, time.Now())
		require.NoError(t, err)

		require.Len(t, result.Alerts, 1)
		assert.Equal(t, AlertThresholdBelow, result.Alerts[0].Type)
	})

	t.Run("alert uses latest value only", func(t *testing.T) {
		cfg := StreamConfig{Thresholds: map[string]Threshold{
			"temp": {High: floatPtr(50)},
		}}
		// Earlier spike, but the latest value is back in range
		result, err := analyzeBatch(makeRecords("temp", 90, 40), cfg, time.Now())
		require.NoError(t, err)
		assert.Empty(t, result.Alerts)
	})
}

func TestAnalyzeBatchNonNumericColumns(t *testing.T) {
	t.Run("unconfigured text column skipped", func(t *testing.T) {
		records := []Record{
			{"temp": 10.0, "unit": "celsius"},
			{"temp": 20.0, "unit": "celsius"},
		}
		result, err := analyzeBatch(records, StreamConfig{}, time.Now())
		require.NoError(t, err)

		assert.Contains(t, result.SummaryStats, "temp")
		assert.NotContains(t, result.SummaryStats, "unit")
	})

	t.Run("threshold-configured text column rejects batch", func(t *testing.T) {
		cfg := StreamConfig{Thresholds: map[string]Threshold{
			"temp": {High: floatPtr(50)},
		}}
		records := []Record{{"temp": "hot"}}
		_, err := analyzeBatch(records, cfg, time.Now())
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNonNumeric)
	})

	t.Run("mixed numeric and text in one column skipped", func(t *testing.T) {
		records := []Record{{"v": 1.0}, {"v": "two"}}
		result, err := analyzeBatch(records, StreamConfig{}, time.Now())
		require.NoError(t, err)
		assert.NotContains(t, result.SummaryStats, "v")
	})

	t.Run("missing and nil values ignored", func(t *testing.T) {
		records := []Record{
			{"v": 1.0, "w": 5.0},
			{"w": nil},
			{"v": 3.0},
		}
		result, err := analyzeBatch(records, StreamConfig{}, time.Now())
		require.NoError(t, err)

		assert.InDelta(t, 2.0, result.SummaryStats["v"].Mean, 1e-9)
		assert.Equal(t, 5.0, result.SummaryStats["w"].Latest)
	})
}

func TestToFloatConversions(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float64", 1.5, 1.5, true},
		{"float32", float32(2.5), 2.5, true},
		{"int", 3, 3, true},
		{"int64", int64(-4), -4, true},
		{"uint", uint(5), 5, true},
		{"string", "6", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toFloat(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
