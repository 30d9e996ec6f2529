// Package erasure wraps the Reed-Solomon encoder construction behind a
// bounded, concurrency-safe cache keyed by (data shard count, parity
// shard count), so repeated FEC sets of the same shape reuse one encoder
// instead of rebuilding its generator matrix every time.
package erasure

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/reedsolomon"

	"github.com/malbeclabs/turboshred/internal/planner"
)

// Capacity bounds the number of distinct (data, parity) shapes the cache
// keeps alive at once. In practice almost all FEC sets share one of a
// handful of shapes, so this is generous headroom rather than a tight
// budget.
const Capacity = 4 * planner.DataShredsPerFECBlock

type key struct {
	data, parity int
}

type cell struct {
	once    sync.Once
	encoder reedsolomon.Encoder
	err     error
}

// Cache lazily builds and memoizes a reedsolomon.Encoder per
// (data,parity) shape. A shared lock handles the common case (shape
// already seen); only a first-time shape briefly takes the exclusive
// lock to insert a placeholder cell, and the actual reedsolomon.New call
// runs outside any lock via the cell's own sync.Once.
type Cache struct {
	mu    sync.RWMutex
	cells *lru.Cache[key, *cell]
}

// NewCache builds an empty cache with the package default capacity.
func NewCache() *Cache {
	cells, err := lru.New[key, *cell](Capacity)
	if err != nil {
		// Only returns an error for a non-positive size, which Capacity
		// never is.
		panic(fmt.Sprintf("erasure: lru.New: %v", err))
	}
	return &Cache{cells: cells}
}

// Get returns the (possibly newly built) encoder for the given shape.
func (c *Cache) Get(dataShards, parityShards int) (reedsolomon.Encoder, error) {
	k := key{dataShards, parityShards}

	c.mu.RLock()
	cl, ok := c.cells.Get(k)
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		cl, ok = c.cells.Get(k)
		if !ok {
			cl = &cell{}
			c.cells.Add(k, cl)
		}
		c.mu.Unlock()
	}

	cl.once.Do(func() {
		cl.encoder, cl.err = reedsolomon.New(dataShards, parityShards)
	})
	if cl.err != nil {
		return nil, fmt.Errorf("erasure: build encoder for (%d,%d): %w", dataShards, parityShards, cl.err)
	}
	return cl.encoder, nil
}
