package metric

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordAndSummary(t *testing.T) {
	c := NewCollector()

	c.RecordMetric("latency", 10, nil)
	c.RecordMetric("latency", 20, map[string]string{"stream": "s"})
	c.RecordMetric("latency", 30, nil)

	summary, ok := c.Summary("latency", 0)
	require.True(t, ok)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 20.0, summary.Mean, 1e-9)
	assert.Equal(t, 10.0, summary.Min)
	assert.Equal(t, 30.0, summary.Max)
	assert.Equal(t, 30.0, summary.Latest)
	assert.False(t, summary.End.Before(summary.Start))
}

func TestCollectorUnknownMetric(t *testing.T) {
	c := NewCollector()

	_, ok := c.Summary("nothing", 0)
	assert.False(t, ok)

	// Empty names are dropped silently
	c.RecordMetric("", 1, nil)
	_, ok = c.Summary("", 0)
	assert.False(t, ok)
}

func TestCollectorRetentionCap(t *testing.T) {
	c := NewCollector()

	for i := 0; i < maxSamples+1; i++ {
		c.RecordMetric("hot", float64(i), nil)
	}

	summary, ok := c.Summary("hot", 0)
	require.True(t, ok)
	assert.Equal(t, trimSamples, summary.Count)

	// The oldest samples were dropped, the newest kept
	assert.Equal(t, float64(maxSamples), summary.Latest)
	assert.Equal(t, float64(maxSamples+1-trimSamples), summary.Min)
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector()

	c.RecordMetric("v", 1, nil)
	time.Sleep(30 * time.Millisecond)
	c.RecordMetric("v", 2, nil)

	// A tight window sees only the recent sample
	summary, ok := c.Summary("v", 20*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 2.0, summary.Latest)

	// A zero window sees everything
	summary, ok = c.Summary("v", 0)
	require.True(t, ok)
	assert.Equal(t, 2, summary.Count)
}

func TestCollectorAll(t *testing.T) {
	c := NewCollector()
	c.RecordMetric("a", 1, nil)
	c.RecordMetric("b", 2, nil)

	all := c.All()
	assert.Len(t, all, 2)
	assert.Equal(t, 1.0, all["a"].Latest)
	assert.Equal(t, 2.0, all["b"].Latest)
}

func TestCollectorConcurrentRecording(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.RecordMetric("shared", float64(i), nil)
				c.Summary("shared", 0)
			}
		}()
	}
	wg.Wait()

	summary, ok := c.Summary("shared", 0)
	require.True(t, ok)
	assert.Positive(t, summary.Count)
}

func TestCollectorUptime(t *testing.T) {
	c := NewCollector()
	time.Sleep(10 * time.Millisecond)
	assert.Positive(t, c.Uptime())
}
