package application

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultBlockedDatesTTL  = 30 * time.Second
	defaultBlockedDatesSize = 1024
)

// blockedDatesCache keeps recently computed blocked dates per apartment.
// Entries are dropped whenever the confirmed set of an apartment changes. A
// generation counter stops a slow reader from storing dates computed before
// an invalidation that raced with it.
type blockedDatesCache struct {
	mu         sync.Mutex
	generation uint64
	entries    *expirable.LRU[string, []time.Time]
}

func newBlockedDatesCache(size int, ttl time.Duration) *blockedDatesCache {
	if size <= 0 {
		size = defaultBlockedDatesSize
	}
	if ttl <= 0 {
		ttl = defaultBlockedDatesTTL
	}
	return &blockedDatesCache{entries: expirable.NewLRU[string, []time.Time](size, nil, ttl)}
}

func (c *blockedDatesCache) Get(apartmentID string) ([]time.Time, uint64, bool) {
	if c == nil {
		return nil, 0, false
	}
	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	dates, ok := c.entries.Get(apartmentID)
	if !ok {
		return nil, generation, false
	}
	return cloneDates(dates), generation, true
}

// Store records dates computed while generation was current.
func (c *blockedDatesCache) Store(apartmentID string, dates []time.Time, generation uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.entries.Add(apartmentID, cloneDates(dates))
}

func (c *blockedDatesCache) Invalidate(apartmentID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries.Remove(apartmentID)
}

func (c *blockedDatesCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func cloneDates(dates []time.Time) []time.Time {
	if dates == nil {
		return []time.Time{}
	}
	out := make([]time.Time, len(dates))
	copy(out, dates)
	return out
}
