package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memEntry holds a stored value and its expiry time.
type memEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiration
}

// isExpired checks if the entry has expired.
func (e *memEntry) isExpired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// Memory is a thread-safe in-process Store with per-key TTL. A background
// janitor removes expired entries; expired keys are also dropped lazily on
// read so Get never returns a stale value.
type Memory struct {
	mu              sync.RWMutex
	cleanupInterval time.Duration
	items           map[string]*memEntry
	stats           *Statistics
	metrics         *storeMetrics // Optional, if metrics enabled

	// Background cleanup coordination
	shutdown chan struct{}
	done     chan struct{}
}

// NewMemory creates a new in-process store. cleanupInterval controls the
// janitor cadence; zero or negative defaults to one minute.
// Returns an error if metrics registration fails when requested.
func NewMemory(cleanupInterval time.Duration, opts ...Option) (*Memory, error) {
	options := applyOptions(opts...)
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	metrics, err := options.buildMetrics()
	if err != nil {
		return nil, err
	}

	m := &Memory{
		cleanupInterval: cleanupInterval,
		items:           make(map[string]*memEntry),
		stats:           NewStatistics(),
		metrics:         metrics,
		shutdown:        make(chan struct{}),
		done:            make(chan struct{}),
	}

	go m.cleanup()

	return m, nil
}

// Get retrieves a value by key, checking for expiration.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	entry, exists := m.items[key]
	m.mu.RUnlock()

	if !exists {
		m.recordMiss()
		return nil, keyNotFound(key)
	}

	if entry.isExpired() {
		m.mu.Lock()
		// Double-check it's still there and still expired
		if current, stillExists := m.items[key]; stillExists && current.isExpired() {
			delete(m.items, key)
			m.stats.Eviction()
			m.stats.UpdateSize(int64(len(m.items)))
			if m.metrics != nil {
				m.metrics.recordEviction()
				m.metrics.updateSize(len(m.items))
			}
		}
		m.mu.Unlock()

		m.recordMiss()
		return nil, keyNotFound(key)
	}

	m.stats.Hit()
	if m.metrics != nil {
		m.metrics.recordHit()
	}

	// Copy so callers cannot mutate the stored value
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set stores a value under key. A ttl of zero or less means no expiry.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.items[key] = &memEntry{value: stored, expiresAt: expiresAt}
	size := len(m.items)
	m.mu.Unlock()

	m.stats.Set()
	m.stats.UpdateSize(int64(size))
	if m.metrics != nil {
		m.metrics.recordSet()
		m.metrics.updateSize(size)
	}

	return nil
}

// Delete removes a key. Missing keys are ignored.
func (m *Memory) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	_, exists := m.items[key]
	delete(m.items, key)
	size := len(m.items)
	m.mu.Unlock()

	if exists {
		m.stats.Delete()
		m.stats.UpdateSize(int64(size))
		if m.metrics != nil {
			m.metrics.recordDelete()
			m.metrics.updateSize(size)
		}
	}

	return nil
}

// Size returns the current number of entries, including not-yet-collected
// expired ones.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Stats returns store statistics.
func (m *Memory) Stats() *Statistics {
	return m.stats
}

// Close stops the background janitor.
func (m *Memory) Close() error {
	select {
	case <-m.shutdown:
		// Already shutting down
	default:
		close(m.shutdown)
	}

	select {
	case <-m.done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for cleanup goroutine to finish")
	}
}

func (m *Memory) recordMiss() {
	m.stats.Miss()
	if m.metrics != nil {
		m.metrics.recordMiss()
	}
}

// cleanup runs in a background goroutine and periodically removes expired entries.
func (m *Memory) cleanup() {
	defer close(m.done)

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.shutdown:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

// removeExpired removes all expired entries from the store.
func (m *Memory) removeExpired() {
	now := time.Now()
	expired := 0

	m.mu.Lock()
	for key, entry := range m.items {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(m.items, key)
			expired++
		}
	}
	size := len(m.items)
	m.mu.Unlock()

	if expired > 0 {
		for range expired {
			m.stats.Eviction()
		}
		m.stats.UpdateSize(int64(size))
		if m.metrics != nil {
			for range expired {
				m.metrics.recordEviction()
			}
			m.metrics.updateSize(size)
		}
	}
}
