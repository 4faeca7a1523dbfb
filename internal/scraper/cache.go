package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
)

// Cache wraps a Fetcher and keeps the tables of each URL for a TTL. Tables are
// immutable, so cached results are shared between callers.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	pages    map[string][]*table.Table
	cachedAt map[string]time.Time
}

// NewCache creates a cache in front of fetcher
func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		fetcher:  fetcher,
		ttl:      ttl,
		now:      time.Now,
		pages:    make(map[string][]*table.Table),
		cachedAt: make(map[string]time.Time),
	}
}

// FetchTables returns the cached tables of url, fetching them when missing or
// expired. Failed fetches are not cached.
func (c *Cache) FetchTables(ctx context.Context, url string) ([]*table.Table, error) {
	if tables, ok := c.get(url); ok {
		return tables, nil
	}

	tables, err := c.fetcher.FetchTables(ctx, url)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pages[url] = tables
	c.cachedAt[url] = c.now()
	c.mu.Unlock()
	return tables, nil
}

func (c *Cache) get(url string) ([]*table.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tables, exists := c.pages[url]
	if !exists {
		return nil, false
	}
	if c.now().Sub(c.cachedAt[url]) > c.ttl {
		delete(c.pages, url)
		delete(c.cachedAt, url)
		return nil, false
	}
	return tables, true
}

// CleanExpired removes expired entries and returns how many were removed
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for url, cachedAt := range c.cachedAt {
		if now.Sub(cachedAt) > c.ttl {
			delete(c.pages, url)
			delete(c.cachedAt, url)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached pages
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}
