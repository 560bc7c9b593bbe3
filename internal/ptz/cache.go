package ptz

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vigilcam/ptzd/pkg/onvif"
)

type cacheEntry struct {
	caps    []onvif.Capabilities
	fetched time.Time
}

// capsCache - discovered capabilities by monitor id, entries older than ttl are ignored
type capsCache struct {
	cache *lru.Cache[string, cacheEntry]
	ttl   time.Duration
	now   func() time.Time

	// generation of each id, changed by Remove
	gens map[string]uint64
	mu   sync.Mutex
}

func newCapsCache(size int, ttl time.Duration) *capsCache {
	if size <= 0 {
		size = 128
	}
	c, _ := lru.New[string, cacheEntry](size)
	return &capsCache{cache: c, ttl: ttl, now: time.Now, gens: map[string]uint64{}}
}

func (c *capsCache) Get(id string) ([]onvif.Capabilities, bool) {
	entry, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.fetched) >= c.ttl {
		c.cache.Remove(id)
		return nil, false
	}
	return entry.caps, true
}

// Generation should be taken before fetching capabilities for Add
func (c *capsCache) Generation(id string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[id]
}

// Add store capabilities fetched at generation gen.
// Result of fetch started before Remove is dropped, it can belong to old monitor URL.
func (c *capsCache) Add(id string, caps []onvif.Capabilities, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[id] != gen {
		return false
	}

	c.cache.Add(id, cacheEntry{caps: caps, fetched: c.now()})
	return true
}

func (c *capsCache) Remove(id string) {
	c.mu.Lock()
	c.gens[id]++
	c.cache.Remove(id)
	c.mu.Unlock()
}
