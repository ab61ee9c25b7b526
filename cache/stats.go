package cache

import "sync/atomic"

// Statistics tracks store operation counters. Everything is lock-free:
// counters are plain atomic adds, and the size high-water mark is
// maintained with a CAS loop so UpdateSize stays cheap on hot paths.
type Statistics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64
	fallbacks atomic.Int64

	currentSize atomic.Int64
	maxSize     atomic.Int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{}
}

// Hit records a lookup that found a live entry.
func (s *Statistics) Hit() { s.hits.Add(1) }

// Miss records a lookup that found nothing.
func (s *Statistics) Miss() { s.misses.Add(1) }

// Set records a write.
func (s *Statistics) Set() { s.sets.Add(1) }

// Delete records a removal.
func (s *Statistics) Delete() { s.deletes.Add(1) }

// Eviction records an entry dropped because its TTL elapsed.
func (s *Statistics) Eviction() { s.evictions.Add(1) }

// Fallback records an operation that fell back to the local store.
func (s *Statistics) Fallback() { s.fallbacks.Add(1) }

// UpdateSize records the store's current entry count and raises the
// high-water mark when exceeded.
func (s *Statistics) UpdateSize(size int64) {
	s.currentSize.Store(size)
	for {
		max := s.maxSize.Load()
		if size <= max || s.maxSize.CompareAndSwap(max, size) {
			return
		}
	}
}

// Hits returns the total number of cache hits.
func (s *Statistics) Hits() int64 { return s.hits.Load() }

// Misses returns the total number of cache misses.
func (s *Statistics) Misses() int64 { return s.misses.Load() }

// Sets returns the total number of writes.
func (s *Statistics) Sets() int64 { return s.sets.Load() }

// Deletes returns the total number of removals.
func (s *Statistics) Deletes() int64 { return s.deletes.Load() }

// Evictions returns the total number of TTL evictions.
func (s *Statistics) Evictions() int64 { return s.evictions.Load() }

// Fallbacks returns the total number of fallback operations.
func (s *Statistics) Fallbacks() int64 { return s.fallbacks.Load() }

// CurrentSize returns the store's most recently reported entry count.
func (s *Statistics) CurrentSize() int64 { return s.currentSize.Load() }

// MaxSize returns the largest entry count the store has reported.
func (s *Statistics) MaxSize() int64 { return s.maxSize.Load() }
