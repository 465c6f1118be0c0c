package docent

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DescriptionCache remembers recent descriptions so a repeated request for
// the same image does not cost another completion. A nil or disabled cache
// misses every lookup.
type DescriptionCache struct {
	lru *expirable.LRU[string, string]
}

// NewDescriptionCache holds up to size descriptions for ttl each. A negative
// ttl disables caching.
func NewDescriptionCache(size int, ttl time.Duration) *DescriptionCache {
	if ttl < 0 || size <= 0 {
		return &DescriptionCache{}
	}
	return &DescriptionCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *DescriptionCache) Get(key string) (string, bool) {
	if c == nil || c.lru == nil {
		return "", false
	}
	return c.lru.Get(key)
}

func (c *DescriptionCache) Add(key, description string) {
	if c == nil || c.lru == nil || description == "" {
		return
	}
	c.lru.Add(key, description)
}

// Len reports the number of live entries.
func (c *DescriptionCache) Len() int {
	if c == nil || c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// cacheKey identifies an image by URL and, for published files, the blob SHA
// so an overwritten upload is described afresh.
func cacheKey(imageURL, version string) string {
	if version == "" {
		return imageURL
	}
	return imageURL + "#" + version
}
