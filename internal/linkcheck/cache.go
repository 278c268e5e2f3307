package linkcheck

import (
	"sync"

	"github.com/nao1215/seocheck/internal/model"
)

// Cache remembers link verification results for a session, keyed by the
// exact URL string. Records are replaced whole, never edited in place.
type Cache struct {
	mu      sync.RWMutex
	records map[string]model.LinkRecord
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{records: make(map[string]model.LinkRecord)}
}

// Get returns the record for url.
func (c *Cache) Get(url string) (model.LinkRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[url]
	return r, ok
}

// Put stores r under r.URL, replacing any previous record.
func (c *Cache) Put(r model.LinkRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[r.URL] = r
}

// Invalidate forgets the given URLs so the next pass verifies them again.
func (c *Cache) Invalidate(urls ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range urls {
		delete(c.records, u)
	}
}

// Clear forgets every record.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]model.LinkRecord)
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Records returns the cached records for urls in the given order.
// URLs without a record are reported as pending.
func (c *Cache) Records(urls []string) []model.LinkRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.LinkRecord, len(urls))
	for i, u := range urls {
		if r, ok := c.records[u]; ok {
			out[i] = r
			continue
		}
		out[i] = model.LinkRecord{URL: u, Status: model.LinkPending}
	}
	return out
}
