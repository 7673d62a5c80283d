package scan

import (
	"context"
	"sync"
	"time"
)

// HeadSource returns the latest block of a chain.
type HeadSource interface {
	GetLatestBlock(ctx context.Context) (uint64, error)
}

// HeadCache caches the result of GetLatestBlock so a batch of resolutions
// does not ask for the chain head once per record.
type HeadCache struct {
	source HeadSource
	ttl    time.Duration

	mu       sync.RWMutex
	cached   uint64
	cachedAt time.Time
}

// NewHeadCache creates a new head cache with the given TTL.
func NewHeadCache(source HeadSource, ttl time.Duration) *HeadCache {
	return &HeadCache{
		source: source,
		ttl:    ttl,
	}
}

// GetLatestBlock returns the cached chain head if within TTL, otherwise fetches fresh.
func (c *HeadCache) GetLatestBlock(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	if time.Since(c.cachedAt) < c.ttl && c.cached > 0 {
		cached := c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	head, err := c.source.GetLatestBlock(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.cached = head
	c.cachedAt = time.Now()
	c.mu.Unlock()

	return head, nil
}
