package loader

import (
	"sync"

	"github.com/theirongolddev/rollview/internal/model"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache stores finalized transcripts by session id.
type Cache interface {
	Get(sessionID string) (model.Transcript, bool)
	Set(sessionID string, t model.Transcript)
}

// MapCache is an unbounded Cache. It never evicts.
type MapCache struct {
	mu sync.RWMutex
	m  map[string]model.Transcript
}

// NewMapCache returns an empty MapCache.
func NewMapCache() *MapCache {
	return &MapCache{m: make(map[string]model.Transcript)}
}

// Get implements Cache.
func (c *MapCache) Get(sessionID string) (model.Transcript, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.m[sessionID]
	return t, ok
}

// Set implements Cache.
func (c *MapCache) Set(sessionID string, t model.Transcript) {
	c.mu.Lock()
	c.m[sessionID] = t
	c.mu.Unlock()
}

// Len returns the number of cached transcripts.
func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// DefaultCapacity is the LRU size used when none is configured.
const DefaultCapacity = 64

// LRUCache is a Cache bounded to a fixed number of transcripts; the least
// recently used transcript is evicted first.
type LRUCache struct {
	c *lru.Cache[string, model.Transcript]
}

// NewLRUCache returns an LRUCache holding up to capacity transcripts.
// Non-positive capacities fall back to DefaultCapacity.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[string, model.Transcript](capacity)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &LRUCache{c: c}
}

// Get implements Cache.
func (c *LRUCache) Get(sessionID string) (model.Transcript, bool) {
	return c.c.Get(sessionID)
}

// Set implements Cache.
func (c *LRUCache) Set(sessionID string, t model.Transcript) {
	c.c.Add(sessionID, t)
}

// Len returns the number of cached transcripts.
func (c *LRUCache) Len() int { return c.c.Len() }

// Purge drops every cached transcript.
func (c *LRUCache) Purge() { c.c.Purge() }
