package compiler

import (
	"sync"

	"github.com/rubengrim/swbvh/asset/compiler/bvh"
	"github.com/rubengrim/swbvh/asset/mesh"
)

type cacheEntry struct {
	generation uint64
	blas       *bvh.BLAS
}

// BlasCache maps mesh IDs to the BLAS built from a particular mesh
// generation. It is safe for concurrent use.
type BlasCache struct {
	mutex   sync.RWMutex
	entries map[mesh.ID]cacheEntry
}

// Create a new empty cache.
func NewBlasCache() *BlasCache {
	return &BlasCache{
		entries: make(map[mesh.ID]cacheEntry),
	}
}

// Lookup the BLAS for a mesh. Entries built from a different mesh
// generation are treated as misses.
func (c *BlasCache) Lookup(id mesh.ID, generation uint64) (*bvh.BLAS, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[id]
	if !exists || entry.generation != generation {
		return nil, false
	}
	return entry.blas, true
}

// Store the BLAS built from a mesh generation, replacing any older entry.
func (c *BlasCache) Store(id mesh.ID, generation uint64, blas *bvh.BLAS) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[id] = cacheEntry{generation: generation, blas: blas}
}

// Drop the cached BLAS for a mesh.
func (c *BlasCache) Invalidate(id mesh.ID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, id)
}

// Get the number of cached entries.
func (c *BlasCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.entries)
}
