package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatisticsCounters(t *testing.T) {
	s := NewStatistics()

	s.Hit()
	s.Hit()
	s.Miss()
	s.Set()
	s.Delete()
	s.Eviction()
	s.Fallback()

	assert.Equal(t, int64(2), s.Hits())
	assert.Equal(t, int64(1), s.Misses())
	assert.Equal(t, int64(1), s.Sets())
	assert.Equal(t, int64(1), s.Deletes())
	assert.Equal(t, int64(1), s.Evictions())
	assert.Equal(t, int64(1), s.Fallbacks())
}

func TestStatisticsSizeHighWater(t *testing.T) {
	s := NewStatistics()

	s.UpdateSize(3)
	s.UpdateSize(9)
	s.UpdateSize(2)

	assert.Equal(t, int64(2), s.CurrentSize())
	assert.Equal(t, int64(9), s.MaxSize(), "high-water mark must survive shrinking")
}

func TestStatisticsConcurrentUpdates(t *testing.T) {
	s := NewStatistics()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for i := int64(0); i < 100; i++ {
				s.Hit()
				s.UpdateSize(base + i)
			}
		}(int64(g * 100))
	}
	wg.Wait()

	assert.Equal(t, int64(800), s.Hits())
	assert.Equal(t, int64(799), s.MaxSize())
}
