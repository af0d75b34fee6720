// Package cache provides a short-lived in-memory cache of article query
// results, invalidated wholesale on any ingest or subscription change.
package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mkravets/newswire/internal/store"
)

// DefaultTTL is how long a cached page stays valid.
const DefaultTTL = 10 * time.Minute

type entry struct {
	articles []store.Article
	expiry   time.Time
}

// Cache is a mutex-guarded map of normalized filter keys to article pages.
// Expired entries are evicted lazily on access; there is no background sweep.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates a cache with the given TTL. A non-positive TTL falls back to
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key builds the normalized cache key for a filter set. Regions and topics
// are sorted so two requests with the same effective filters share an entry
// regardless of input ordering. The inputs are not mutated.
func Key(regions, topics []string, search string, page, limit int) string {
	r := append([]string(nil), regions...)
	t := append([]string(nil), topics...)
	sort.Strings(r)
	sort.Strings(t)
	return fmt.Sprintf("%s|%s|%s|page:%d|limit:%d",
		strings.Join(r, ","), strings.Join(t, ","), search, page, limit)
}

// Get returns the cached page for key, or false on a miss. An entry past its
// expiry counts as a miss and is removed.
func (c *Cache) Get(key string) ([]store.Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiry) {
		delete(c.entries, key)
		return nil, false
	}
	return e.articles, true
}

// Put stores a page under key with the cache's TTL.
func (c *Cache) Put(key string, articles []store.Article) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{articles: articles, expiry: c.now().Add(c.ttl)}
}

// InvalidateAll clears every entry. Called after any article insert or
// subscription change.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
