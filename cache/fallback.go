package cache

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/c360/streamwatch/errors"
)

// Fallback prefers a networked primary store and falls back to a local
// store per call when the primary fails. Backend failures never surface to
// callers: a failed write lands in the local store, a failed read is served
// from it. Misses (key not found) are not failures and do not fall back.
type Fallback struct {
	primary  Store
	local    Store
	logger   *slog.Logger
	onFallbk func()
	stats    *Statistics
}

// FallbackOption configures a Fallback store.
type FallbackOption func(*Fallback)

// WithFallbackLogger sets the logger used when the primary store fails.
func WithFallbackLogger(logger *slog.Logger) FallbackOption {
	return func(f *Fallback) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// OnFallback registers a hook invoked each time an operation falls back,
// typically to bump a metric counter.
func OnFallback(fn func()) FallbackOption {
	return func(f *Fallback) {
		f.onFallbk = fn
	}
}

// NewFallback wraps primary with local as the per-call fallback.
func NewFallback(primary, local Store, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		primary: primary,
		local:   local,
		logger:  slog.Default(),
		stats:   NewStatistics(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get reads from the primary store, serving from the local store when the
// primary is unreachable. A clean miss from the primary is returned as-is.
func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := f.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if errors.IsInvalid(err) || stderrors.Is(err, errors.ErrKeyNotFound) {
		return nil, err
	}

	f.fellBack("get", key, err)
	return f.local.Get(ctx, key)
}

// Set writes to the primary store, landing in the local store when the
// primary is unreachable.
func (f *Fallback) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := f.primary.Set(ctx, key, value, ttl)
	if err == nil {
		return nil
	}
	if errors.IsInvalid(err) {
		return err
	}

	f.fellBack("set", key, err)
	return f.local.Set(ctx, key, value, ttl)
}

// Delete removes the key from both stores so a later fallback read cannot
// resurrect it. Primary failures are swallowed.
func (f *Fallback) Delete(ctx context.Context, key string) error {
	if err := f.primary.Delete(ctx, key); err != nil {
		if errors.IsInvalid(err) {
			return err
		}
		f.fellBack("delete", key, err)
	}
	return f.local.Delete(ctx, key)
}

// Stats returns the fallback wrapper's own statistics. Per-store counters
// live on the wrapped stores.
func (f *Fallback) Stats() *Statistics {
	return f.stats
}

// Close closes both stores, keeping the first error.
func (f *Fallback) Close() error {
	err := f.primary.Close()
	if localErr := f.local.Close(); localErr != nil && err == nil {
		err = localErr
	}
	return err
}

func (f *Fallback) fellBack(op, key string, err error) {
	f.stats.Fallback()
	if f.onFallbk != nil {
		f.onFallbk()
	}
	f.logger.Warn("cache primary unavailable, using local store",
		"op", op, "key", key, "error", err)
}
