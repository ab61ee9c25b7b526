package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streamwatch/errors"
)

// flakyStore simulates a networked store that can be switched off.
type flakyStore struct {
	inner *Memory
	fail  bool
}

func newFlakyStore(t *testing.T) *flakyStore {
	t.Helper()
	inner, err := NewMemory(time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inner.Close() })
	return &flakyStore{inner: inner}
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.fail {
		return nil, errors.WrapTransient(errors.ErrNoConnection, "flakyStore", "Get", "network down")
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.fail {
		return errors.WrapTransient(errors.ErrNoConnection, "flakyStore", "Set", "network down")
	}
	return f.inner.Set(ctx, key, value, ttl)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	if f.fail {
		return errors.WrapTransient(errors.ErrNoConnection, "flakyStore", "Delete", "network down")
	}
	return f.inner.Delete(ctx, key)
}

func (f *flakyStore) Stats() *Statistics { return f.inner.Stats() }
func (f *flakyStore) Close() error       { return nil }

func newTestFallback(t *testing.T, opts ...FallbackOption) (*Fallback, *flakyStore, *Memory) {
	t.Helper()

	primary := newFlakyStore(t)
	local, err := NewMemory(time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	return NewFallback(primary, local, opts...), primary, local
}

func TestFallbackPrefersPrimary(t *testing.T) {
	fb, primary, local := newTestFallback(t)
	ctx := context.Background()

	require.NoError(t, fb.Set(ctx, "k", []byte("v"), time.Minute))

	// The write landed on the primary, not the local store
	_, err := primary.inner.Get(ctx, "k")
	require.NoError(t, err)
	_, err = local.Get(ctx, "k")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)

	got, err := fb.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestFallbackSetFallsBackOnTransient(t *testing.T) {
	fb, primary, local := newTestFallback(t)
	ctx := context.Background()

	primary.fail = true
	require.NoError(t, fb.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := local.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestFallbackGetFallsBackOnFailure(t *testing.T) {
	fb, primary, local := newTestFallback(t)
	ctx := context.Background()

	require.NoError(t, local.Set(ctx, "k", []byte("local"), time.Minute))
	primary.fail = true

	got, err := fb.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), got)
}

func TestFallbackCleanMissNotRetried(t *testing.T) {
	fb, _, local := newTestFallback(t)
	ctx := context.Background()

	// Local has the key, but a clean primary miss must not consult it:
	// a healthy primary is authoritative
	require.NoError(t, local.Set(ctx, "k", []byte("stale"), time.Minute))

	_, err := fb.Get(ctx, "k")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)
}

func TestFallbackRecoversWithPrimary(t *testing.T) {
	fb, primary, _ := newTestFallback(t)
	ctx := context.Background()

	primary.fail = true
	require.NoError(t, fb.Set(ctx, "k", []byte("degraded"), time.Minute))

	primary.fail = false
	require.NoError(t, fb.Set(ctx, "k", []byte("recovered"), time.Minute))

	got, err := fb.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), got)
}

func TestFallbackDeleteBothStores(t *testing.T) {
	fb, primary, local := newTestFallback(t)
	ctx := context.Background()

	require.NoError(t, primary.inner.Set(ctx, "k", []byte("p"), time.Minute))
	require.NoError(t, local.Set(ctx, "k", []byte("l"), time.Minute))

	require.NoError(t, fb.Delete(ctx, "k"))

	_, err := primary.inner.Get(ctx, "k")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)
	_, err = local.Get(ctx, "k")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)

	// Primary outage does not fail the delete
	primary.fail = true
	assert.NoError(t, fb.Delete(ctx, "k"))
}

func TestFallbackHook(t *testing.T) {
	fallbacks := 0
	fb, primary, _ := newTestFallback(t, OnFallback(func() { fallbacks++ }))
	ctx := context.Background()

	primary.fail = true
	_ = fb.Set(ctx, "k", []byte("v"), time.Minute)
	_, _ = fb.Get(ctx, "k")

	assert.Equal(t, 2, fallbacks)
	assert.Equal(t, int64(2), fb.Stats().Fallbacks())
}
