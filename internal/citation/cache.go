package citation

import (
	"sync"
	"time"
)

// AliasCache holds the compiled alias set for a short time so scans
// triggered on every keystroke do not reload aliases from storage.
//
// Invalidate must be called synchronously after any alias mutation. Each
// invalidation bumps a generation counter, and Store refuses a set loaded
// under an older generation, so a slow load can never reinstate stale data.
type AliasCache struct {
	mu         sync.Mutex
	set        *AliasSet
	stamp      time.Time
	generation uint64
	ttl        time.Duration
	now        func() time.Time
}

// NewAliasCache creates an empty cache. A nil now uses time.Now.
func NewAliasCache(ttl time.Duration, now func() time.Time) *AliasCache {
	if now == nil {
		now = time.Now
	}
	return &AliasCache{ttl: ttl, now: now}
}

// Get returns the cached set if present and fresh, together with the
// generation to pass to Store after a reload.
func (c *AliasCache) Get() (*AliasSet, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set == nil || c.now().Sub(c.stamp) >= c.ttl {
		return nil, c.generation, false
	}
	return c.set, c.generation, true
}

// Store caches set if no invalidation happened since generation was read.
func (c *AliasCache) Store(set *AliasSet, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false
	}
	c.set = set
	c.stamp = c.now()
	return true
}

// Invalidate drops the cached set.
func (c *AliasCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = nil
	c.stamp = time.Time{}
	c.generation++
}
