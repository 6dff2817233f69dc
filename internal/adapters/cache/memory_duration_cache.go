package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	seconds   int
	expiresAt time.Time
}

// In-process TTL cache for travel durations. Shared by all callers in the
// process; not persisted, so it starts empty after a restart.
type MemoryDurationCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryDurationCache() *MemoryDurationCache {
	return &MemoryDurationCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryDurationCache) Get(_ context.Context, key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return 0, false
	}

	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return 0, false
	}

	return entry.seconds, true
}

func (c *MemoryDurationCache) Set(_ context.Context, key string, seconds int, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{seconds: seconds, expiresAt: c.now().Add(ttl)}
}
