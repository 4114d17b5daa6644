// Package cache memoises answers within one quiz run so a question that
// reappears after a page reload is not sent to the inference backend again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// entry holds a memoised choice with its creation timestamp.
type entry struct {
	choice    int
	createdAt time.Time
}

// Cache is a simple in-memory answer memo. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache with the given maximum number of entries. A
// background goroutine evicts entries older than an hour every 5 minutes;
// a quiz run should never get near that, it just keeps a long run bounded.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}

	go c.cleanupLoop()
	return c
}

// Key hashes a question identity string into a cache key.
func Key(question string) string {
	h := sha256.Sum256([]byte(question))
	return hex.EncodeToString(h[:])
}

// Get retrieves a memoised choice. Returns the choice and whether it was a hit.
func (c *Cache) Get(key string) (int, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return 0, false
	}
	return e.choice, true
}

// Set memoises a choice. If the cache is at capacity, a random entry is
// evicted to make room (map iteration is random in Go).
func (c *Cache) Set(key string, choice int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		choice:    choice,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
