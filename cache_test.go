package docent

import (
	"testing"
	"time"
)

func TestDescriptionCache(t *testing.T) {
	c := NewDescriptionCache(2, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("hit on empty cache")
	}
	c.Add("a", "first")
	c.Add("b", "second")
	c.Add("c", "third")

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry not evicted")
	}
	if got, ok := c.Get("c"); !ok || got != "third" {
		t.Errorf("Get(c) = %q, %v", got, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestDescriptionCacheExpires(t *testing.T) {
	c := NewDescriptionCache(8, 50*time.Millisecond)
	c.Add("k", "v")
	time.Sleep(120 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("entry outlived its ttl")
	}
}

func TestDescriptionCacheDisabled(t *testing.T) {
	c := NewDescriptionCache(8, -1)
	c.Add("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache returned a hit")
	}

	var nilCache *DescriptionCache
	nilCache.Add("k", "v")
	if _, ok := nilCache.Get("k"); ok {
		t.Error("nil cache returned a hit")
	}
}

func TestDescriptionCacheSkipsEmpty(t *testing.T) {
	c := NewDescriptionCache(8, time.Minute)
	c.Add("k", "")
	if _, ok := c.Get("k"); ok {
		t.Error("empty description cached")
	}
}

func TestCacheKey(t *testing.T) {
	if cacheKey("https://x/a.png", "") != "https://x/a.png" {
		t.Error("unversioned key changed")
	}
	if cacheKey("https://x/a.png", "sha1") == cacheKey("https://x/a.png", "sha2") {
		t.Error("versions share a key")
	}
}
