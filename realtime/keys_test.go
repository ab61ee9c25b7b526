package realtime

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// JetStream KV validates keys against this charset client-side; any key
// outside it is rejected before reaching the server.
var kvKeyPattern = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

func TestCacheKeysValidForKVBuckets(t *testing.T) {
	ids := []string{
		"orders",
		"sensor-7",
		"checkout:events",
		"room 2/floor.1",
		"metrics@prod",
		"温度センサー",
		"",
	}

	for _, id := range ids {
		assert.Regexp(t, kvKeyPattern, LatestKey(id), "latest key for %q", id)
		assert.Regexp(t, kvKeyPattern, HistoryKey(id), "history key for %q", id)
	}
}

func TestCacheKeyPrefixesDistinct(t *testing.T) {
	assert.NotEqual(t, LatestKey("orders"), HistoryKey("orders"))
	assert.Equal(t, "realtime_analysis.orders", LatestKey("orders"))
	assert.Equal(t, "analysis_history.orders", HistoryKey("orders"))
}

func TestEncodeStreamID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"plain id passes through", "sensor_7-a", "sensor_7-a"},
		{"colon escaped", "a:b", "a=3Ab"},
		{"escape char escaped", "a=3Ab", "a=3D3Ab"},
		{"space and slash escaped", "a /b", "a=20=2Fb"},
		{"dot escaped", "v1.2", "v1=2E2"},
		{"empty id marker", "", "="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeStreamID(tt.id))
		})
	}
}

// Ids that differ only by escape-sequence lookalikes must never share a
// key, or one stream's results would overwrite another's.
func TestEncodeStreamIDInjective(t *testing.T) {
	ids := []string{"a:b", "a=3Ab", "a.b", "a=2Eb", "a b", "ab", "", "="}

	seen := make(map[string]string, len(ids))
	for _, id := range ids {
		key := encodeStreamID(id)
		if prior, dup := seen[key]; dup {
			t.Fatalf("ids %q and %q both encode to %q", prior, id, key)
		}
		seen[key] = id
	}
}
