package knowledge

import (
	"sync"
	"time"
)

// Catalog holds the default knowledge base that new sessions start from.
type Catalog struct {
	mu       sync.RWMutex
	entries  []Entry
	source   string
	loadedAt time.Time
}

func NewCatalog() *Catalog {
	return &Catalog{entries: []Entry{}}
}

// Replace swaps the whole default knowledge base.
func (c *Catalog) Replace(entries []Entry, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = Clone(entries)
	c.source = source
	c.loadedAt = time.Now()
}

// Snapshot returns a private copy of the entries and the source they came from.
func (c *Catalog) Snapshot() ([]Entry, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Clone(c.entries), c.source
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LoadedAt is the zero time until the first Replace.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
