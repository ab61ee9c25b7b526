package realtime

import (
	"fmt"
	"strings"
)

// Cache key prefixes. The dot separator keeps keys inside the character
// set JetStream KV accepts ([-/_=.a-zA-Z0-9]), so the same key works
// against every Store implementation.
const (
	latestKeyPrefix  = "realtime_analysis."
	historyKeyPrefix = "analysis_history."
)

// LatestKey returns the cache key holding the newest result for a stream.
func LatestKey(streamID string) string {
	return latestKeyPrefix + encodeStreamID(streamID)
}

// HistoryKey returns the cache key holding the rolling result history for
// a stream.
func HistoryKey(streamID string) string {
	return historyKeyPrefix + encodeStreamID(streamID)
}

// encodeStreamID escapes a caller-supplied stream id into the KV key
// charset. Bytes outside [A-Za-z0-9_-] become "=" followed by two
// uppercase hex digits; "=" itself is escaped, so distinct ids never
// collide after encoding. An empty id maps to a bare "=" marker, which
// no non-empty id can produce.
func encodeStreamID(id string) string {
	if id == "" {
		return "="
	}

	var b strings.Builder
	b.Grow(len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '-', c == '_':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "=%02X", c)
		}
	}
	return b.String()
}
