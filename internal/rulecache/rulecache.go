// Package rulecache is the in-memory cache that backs rules.Engine's Cache
// collaborator (§6). Keys arrive pre-namespaced by the caller ("ast:",
// "constant:", "rule-def:", "validation:"); this package only stores and
// expires entries, it never interprets a namespace. Adapted from the
// mutex-guarded map style used throughout internal/storage
// (rule_store_disk.go's locking discipline), generalised to a single
// in-memory map with per-entry TTL instead of disk persistence, since
// compiled ASTs and validation reports are cheap to recompute and not
// worth surviving a restart.
package rulecache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time // zero means no expiry
}

// Cache implements rules.Cache with optional per-put TTL and passive
// expiry checked on read.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New builds a Cache whose entries expire ttl after being put. A ttl of
// zero means entries never expire on their own (only Evict/Clear remove
// them).
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements rules.Cache.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.Evict(key)
		return nil, false
	}
	return e.value, true
}

// Put implements rules.Cache.
func (c *Cache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	c.entries[key] = entry{value: value, expiresAt: expiresAt}
}

// Evict implements rules.Cache.
func (c *Cache) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear implements rules.Cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len reports the number of entries currently stored, including any not
// yet lazily expired.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
