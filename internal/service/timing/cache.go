package timing

import (
	"sync"
	"sync/atomic"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
)

// PolicyCache holds resolved policies keyed by department ("" is the global
// scope). Every entry is stamped with the generation that was current before
// its store lookup started; only entries stamped with the current generation
// are served, so a write that bumps the generation hides everything loaded
// before it.
type PolicyCache struct {
	generation atomic.Uint64

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	policy     timing.OfficeTimingPolicy
	generation uint64
}

func NewPolicyCache() *PolicyCache {
	return &PolicyCache{
		entries: make(map[string]cacheEntry),
	}
}

// Generation returns the current generation. Loads must capture it before
// reading the store and hand it back to Put.
func (c *PolicyCache) Generation() uint64 {
	return c.generation.Load()
}

func (c *PolicyCache) Get(department string) (timing.OfficeTimingPolicy, bool) {
	gen := c.generation.Load()

	c.mu.RLock()
	e, ok := c.entries[department]
	c.mu.RUnlock()

	if !ok || e.generation != gen {
		return timing.OfficeTimingPolicy{}, false
	}
	return e.policy, true
}

// Put stores a policy loaded under generation gen. Loads that raced with an
// invalidation are dropped.
func (c *PolicyCache) Put(department string, policy timing.OfficeTimingPolicy, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation.Load() {
		return false
	}
	c.entries[department] = cacheEntry{policy: policy, generation: gen}
	return true
}

// Invalidate bumps the generation and drops all entries. It returns the new generation.
func (c *PolicyCache) Invalidate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := c.generation.Add(1)
	clear(c.entries)
	return gen
}

// Len returns the number of stored entries, including stale ones.
func (c *PolicyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
