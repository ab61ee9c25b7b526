package realtime

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/c360/streamwatch/errors"
)

// columnSeries is the ordered numeric values of one column across a batch,
// taken from the rows where the column is present and non-nil.
type columnSeries struct {
	values []float64
}

// analyzeBatch computes summary statistics, trends, and threshold alerts
// for a batch of records. A column is numeric when every present value in
// the batch converts to a float; non-numeric columns are skipped unless
// they carry configured thresholds, in which case the whole batch is
// rejected as malformed.
func analyzeBatch(records []Record, cfg StreamConfig, now time.Time) (Result, error) {
	if len(records) == 0 {
		return Result{}, errors.WrapInvalid(errors.ErrEmptyBatch, "Analyzer", "analyzeBatch", "no records")
	}

	series, err := numericColumns(records, cfg)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Timestamp:    now,
		RowCount:     len(records),
		SummaryStats: make(map[string]ColumnStats, len(series)),
		Trends:       make(map[string]Trend),
		Alerts:       []Alert{},
	}

	for col, s := range series {
		result.SummaryStats[col] = summarize(s.values)

		// Two-point trend: strictly local, last two values only
		if n := len(s.values); n >= 2 {
			if s.values[n-1] > s.values[n-2] {
				result.Trends[col] = TrendIncreasing
			} else {
				result.Trends[col] = TrendDecreasing
			}
		}
	}

	for col, s := range series {
		threshold, ok := cfg.Thresholds[col]
		if !ok || len(s.values) == 0 {
			continue
		}
		latest := s.values[len(s.values)-1]

		// At most one alert per column; high takes precedence over low
		if threshold.High != nil && latest > *threshold.High {
			result.Alerts = append(result.Alerts, Alert{
				Type:      AlertThresholdExceeded,
				Column:    col,
				Value:     latest,
				Threshold: *threshold.High,
				Severity:  SeverityHigh,
			})
		} else if threshold.Low != nil && latest < *threshold.Low {
			result.Alerts = append(result.Alerts, Alert{
				Type:      AlertThresholdBelow,
				Column:    col,
				Value:     latest,
				Threshold: *threshold.Low,
				Severity:  SeverityMedium,
			})
		}
	}

	return result, nil
}

// numericColumns extracts the numeric column series from a batch.
func numericColumns(records []Record, cfg StreamConfig) (map[string]*columnSeries, error) {
	series := make(map[string]*columnSeries)
	nonNumeric := make(map[string]bool)

	for _, record := range records {
		for col, raw := range record {
			if raw == nil || nonNumeric[col] {
				continue
			}
			value, ok := toFloat(raw)
			if !ok {
				if _, configured := cfg.Thresholds[col]; configured {
					return nil, errors.WrapInvalid(
						fmt.Errorf("column %q: %w", col, errors.ErrNonNumeric),
						"Analyzer", "numericColumns", "threshold column validation")
				}
				nonNumeric[col] = true
				delete(series, col)
				continue
			}
			s := series[col]
			if s == nil {
				s = &columnSeries{}
				series[col] = s
			}
			s.values = append(s.values, value)
		}
	}

	return series, nil
}

// summarize computes batch-wide statistics for one column. Standard
// deviation is the sample deviation; it is zero for fewer than two values.
func summarize(values []float64) ColumnStats {
	stats := ColumnStats{
		Min: values[0],
		Max: values[0],
	}

	sum := 0.0
	for _, v := range values {
		sum += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Mean = sum / float64(len(values))
	stats.Latest = values[len(values)-1]

	if len(values) > 1 {
		sumSq := 0.0
		for _, v := range values {
			d := v - stats.Mean
			sumSq += d * d
		}
		stats.Std = math.Sqrt(sumSq / float64(len(values)-1))
	}

	return stats
}

// toFloat converts supported numeric value kinds to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
