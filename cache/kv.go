package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/streamwatch/errors"
	"github.com/c360/streamwatch/pkg/retry"
)

// kvEnvelope wraps a stored value with its expiry deadline. NATS KV buckets
// only support a bucket-wide TTL, so per-key expiry is enforced on read.
type kvEnvelope struct {
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Payload   []byte    `json:"payload"`
}

// expired checks the envelope's deadline.
func (e *kvEnvelope) expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// KV is a Store backed by a NATS JetStream key/value bucket. Writes are
// retried with exponential backoff on transient failures; reads are a
// single attempt so a degraded bucket fails fast for fallback handling.
type KV struct {
	bucket  jetstream.KeyValue
	timeout time.Duration
	retry   retry.Config
	stats   *Statistics
	metrics *storeMetrics
}

// NewKV creates a Store over an existing JetStream bucket. opTimeout bounds
// each bucket operation; zero or negative defaults to five seconds.
func NewKV(bucket jetstream.KeyValue, opTimeout time.Duration, opts ...Option) (*KV, error) {
	options := applyOptions(opts...)
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}

	metrics, err := options.buildMetrics()
	if err != nil {
		return nil, err
	}

	return &KV{
		bucket:  bucket,
		timeout: opTimeout,
		retry:   errors.DefaultRetryConfig().ToRetryConfig(),
		stats:   NewStatistics(),
		metrics: metrics,
	}, nil
}

// Get retrieves a value, treating expired envelopes as missing.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, kv.timeout)
	defer cancel()

	entry, err := kv.bucket.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			kv.recordMiss()
			return nil, keyNotFound(key)
		}
		if stderrors.Is(err, jetstream.ErrInvalidKey) {
			return nil, errors.WrapInvalid(err, "KV", "Get", "bucket get")
		}
		return nil, errors.WrapTransient(err, "KV", "Get", "bucket get")
	}

	var envelope kvEnvelope
	if err := json.Unmarshal(entry.Value(), &envelope); err != nil {
		return nil, errors.WrapInvalid(err, "KV", "Get", "envelope decode")
	}

	if envelope.expired() {
		// Best effort removal of the stale key
		_ = kv.bucket.Delete(ctx, key)
		kv.stats.Eviction()
		if kv.metrics != nil {
			kv.metrics.recordEviction()
		}
		kv.recordMiss()
		return nil, keyNotFound(key)
	}

	kv.stats.Hit()
	if kv.metrics != nil {
		kv.metrics.recordHit()
	}
	return envelope.Payload, nil
}

// Set stores a value wrapped in an expiry envelope, retrying transient
// bucket failures.
func (kv *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}

	envelope := kvEnvelope{Payload: value}
	if ttl > 0 {
		envelope.ExpiresAt = time.Now().Add(ttl)
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return errors.WrapInvalid(err, "KV", "Set", "envelope encode")
	}

	err = retry.Do(ctx, kv.retry, func() error {
		opCtx, cancel := context.WithTimeout(ctx, kv.timeout)
		defer cancel()
		_, putErr := kv.bucket.Put(opCtx, key, data)
		if stderrors.Is(putErr, jetstream.ErrInvalidKey) {
			// Rejected client-side; no retry can change the outcome
			return retry.NonRetryable(putErr)
		}
		return putErr
	})
	if err != nil {
		if stderrors.Is(err, jetstream.ErrInvalidKey) {
			return errors.WrapInvalid(err, "KV", "Set", "bucket put")
		}
		return errors.WrapTransient(err, "KV", "Set", "bucket put")
	}

	kv.stats.Set()
	if kv.metrics != nil {
		kv.metrics.recordSet()
	}
	return nil
}

// Delete removes a key. Missing keys are ignored.
func (kv *KV) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, kv.timeout)
	defer cancel()

	if err := kv.bucket.Delete(ctx, key); err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil
		}
		return errors.WrapTransient(err, "KV", "Delete", "bucket delete")
	}

	kv.stats.Delete()
	if kv.metrics != nil {
		kv.metrics.recordDelete()
	}
	return nil
}

// Stats returns store statistics.
func (kv *KV) Stats() *Statistics {
	return kv.stats
}

// Close is a no-op; the underlying NATS connection is owned by the caller.
func (kv *KV) Close() error {
	return nil
}

func (kv *KV) recordMiss() {
	kv.stats.Miss()
	if kv.metrics != nil {
		kv.metrics.recordMiss()
	}
}
