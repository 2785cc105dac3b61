package cache

import (
	"fmt"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// DefaultSize bounds how many paths are held at once.
const DefaultSize = 16

// Stats are hit and miss counters since the last Reset.
type Stats struct {
	Hits   int
	Misses int
	Len    int
}

// Cache holds one computed value per canonical file path. Loads happen under
// the lock, so a path is never computed twice concurrently.
type Cache[V any] struct {
	mu     sync.Mutex
	memory *lru.Cache[string, V]
	hits   int
	misses int
}

// New creates a cache holding at most size paths.
func New[V any](size int) (*Cache[V], error) {
	if size < 1 {
		size = DefaultSize
	}
	memory, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache[V]{memory: memory}, nil
}

// Key canonicalizes path so "./a/../game.sii" and its absolute form share
// one entry.
func Key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// GetOrCompute returns the cached value for path, running load on a miss.
// Failed loads are not cached.
func (c *Cache[V]) GetOrCompute(path string, load func(path string) (V, error)) (V, error) {
	key := Key(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.memory.Get(key); ok {
		c.hits++
		return v, nil
	}

	c.misses++
	v, err := load(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.memory.Add(key, v)
	log.Debug().Str("path", key).Msg("Cached document")
	return v, nil
}

// Invalidate drops the entry for path.
func (c *Cache[V]) Invalidate(path string) {
	key := Key(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.memory.Remove(key) {
		log.Debug().Str("path", key).Msg("Invalidated cached document")
	}
}

// Reset drops every entry and clears the counters.
func (c *Cache[V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memory.Purge()
	c.hits, c.misses = 0, 0
}

// Stats reports the counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{Hits: c.hits, Misses: c.misses, Len: c.memory.Len()}
}
