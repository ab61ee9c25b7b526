// Package cache provides expiry-aware key/value stores for analysis results.
//
// Three implementations satisfy the Store contract:
//   - Memory: in-process TTL map with a background janitor
//   - KV: networked store backed by a NATS JetStream key/value bucket
//   - Fallback: prefers a networked store and falls back to a local Memory
//     store per call when the network store fails
//
// All stores are thread-safe with built-in statistics and optional
// Prometheus metrics integration.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/c360/streamwatch/errors"
)

// Store is the minimal expiry-aware key/value contract consumed by the
// analyzer. Values are opaque bytes; callers own the encoding. A ttl of
// zero or less means the entry does not expire.
type Store interface {
	// Get retrieves a value by key. Returns errors.ErrKeyNotFound for
	// missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under key with the given time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Stats returns operation statistics for the store.
	Stats() *Statistics

	// Close releases store resources (e.g. background goroutines).
	Close() error
}

// validateKey validates a cache key for basic requirements.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}

// keyNotFound wraps the not-found sentinel with the missing key.
// Callers match it with errors.Is(err, errors.ErrKeyNotFound).
func keyNotFound(key string) error {
	return fmt.Errorf("key %q: %w", key, errors.ErrKeyNotFound)
}
