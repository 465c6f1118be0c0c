package publish

import (
	"context"
	"sync"
	"time"
)

// repoMetadata is the part of the repository record the publisher needs.
type repoMetadata struct {
	FullName string
}

// repoCache holds repository metadata for ttl so publishes do not re-fetch it.
type repoCache struct {
	mu      sync.RWMutex
	meta    repoMetadata
	loaded  bool
	fetched time.Time
	ttl     time.Duration
	fetch   func(context.Context) (repoMetadata, error)
}

func newRepoCache(fetch func(context.Context) (repoMetadata, error), ttl time.Duration) *repoCache {
	return &repoCache{fetch: fetch, ttl: ttl}
}

func (c *repoCache) valid() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// invalidate forces the next get to re-fetch.
func (c *repoCache) invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

// get returns cached metadata, taking the write lock only when a fetch is needed.
func (c *repoCache) get(ctx context.Context) (repoMetadata, error) {
	c.mu.RLock()
	if c.valid() {
		meta := c.meta
		c.mu.RUnlock()
		return meta, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.meta, nil
	}
	meta, err := c.fetch(ctx)
	if err != nil {
		return repoMetadata{}, err
	}
	c.meta = meta
	c.loaded = true
	c.fetched = time.Now()
	return meta, nil
}
