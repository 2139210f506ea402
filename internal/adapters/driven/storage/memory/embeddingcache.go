package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCacheStore = (*EmbeddingCache)(nil)

// EmbeddingCache keeps the embedding cache in memory.
type EmbeddingCache struct {
	mu    sync.RWMutex
	cache *domain.EmbeddingCache
	saves int
}

// NewEmbeddingCache creates an empty cache store.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{}
}

// Load returns the stored cache, or nil.
func (c *EmbeddingCache) Load(_ context.Context) (*domain.EmbeddingCache, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cache == nil {
		return nil, nil
	}
	cp := *c.cache
	cp.Records = append([]domain.EmbeddingRecord(nil), c.cache.Records...)
	return &cp, nil
}

// Save replaces the stored cache.
func (c *EmbeddingCache) Save(_ context.Context, cache *domain.EmbeddingCache) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *cache
	c.cache = &cp
	c.saves++
	return nil
}

// Saves returns how many times the cache was written.
func (c *EmbeddingCache) Saves() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saves
}
