package database

import (
	"sync"
	"time"
)

// Cache is a per-table snapshot cache with a bounded-staleness TTL.
// The spreadsheet service has no transactions and no read-after-write
// guarantee, so reads are served from a recent snapshot and every writer
// invalidates the tables it touched immediately after a successful mutation.
// Other processes can still observe stale data for up to the TTL; that is the
// accepted consistency model.
type Cache struct {
	mu      sync.Mutex
	ttls    map[string]time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	rows      [][]string
	fetchedAt time.Time
}

// NewCache creates a Cache with the given per-table TTLs. Tables without an
// explicit TTL are never cached.
func NewCache(ttls map[string]time.Duration) *Cache {
	return &Cache{
		ttls:    ttls,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached snapshot for the table if it is still fresh.
func (c *Cache) Get(table string) ([][]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ttl, cacheable := c.ttls[table]
	if !cacheable {
		return nil, false
	}
	entry, ok := c.entries[table]
	if !ok || c.now().Sub(entry.fetchedAt) >= ttl {
		return nil, false
	}
	return entry.rows, true
}

// Set stores a fresh snapshot for the table.
func (c *Cache) Set(table string, rows [][]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, cacheable := c.ttls[table]; !cacheable {
		return
	}
	c.entries[table] = cacheEntry{rows: rows, fetchedAt: c.now()}
}

// Invalidate drops the snapshots for the given tables. Every repository
// write calls this for the tables it touched before returning.
func (c *Cache) Invalidate(tables ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, table := range tables {
		delete(c.entries, table)
	}
}
