package scopes

import (
	"github.com/google/uuid"

	"github.com/declbridge/declbridge/internal/declpath"
)

// Cache memoizes lookups for the lifetime of one conversion run, keyed by
// (scope identity, qualified name). Entries are never invalidated piecemeal;
// discarding the cache with the run is the only invalidation, which is safe
// because the trees behind a finalized scope are immutable by then.
type Cache struct {
	entries map[cacheKey][]Result
	hits    int
	misses  int
}

type cacheKey struct {
	scope uuid.UUID
	name  string
}

// NewCache builds an empty lookup cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey][]Result)}
}

// Lookup resolves through the cache.
func (c *Cache) Lookup(s *Scope, name declpath.QName) []Result {
	key := cacheKey{scope: s.ID(), name: name.Key()}
	if cached, ok := c.entries[key]; ok {
		c.hits++
		return cached
	}
	c.misses++
	results := s.Lookup(name)
	c.entries[key] = results
	return results
}

// Stats reports hit/miss counters for progress logging.
func (c *Cache) Stats() (hits, misses int) { return c.hits, c.misses }
