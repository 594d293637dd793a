package cache

import (
	"testing"
	"time"

	"github.com/use-agent/pastpapers/models"
)

func TestKey(t *testing.T) {
	a := Key("https://pastpapers.wiki/category/general-english/", 2024, "Marking Scheme")
	b := Key("https://pastpapers.wiki/category/general-english/", 2024, "marking scheme")
	if a != b {
		t.Error("type filter should be case-insensitive in the key")
	}
	if a == Key("https://pastpapers.wiki/category/general-english/", 2023, "marking scheme") {
		t.Error("different years produced the same key")
	}
	if a == Key("https://pastpapers.wiki/category/general-english/", 2024, "") {
		t.Error("different types produced the same key")
	}
}

func TestGetSet(t *testing.T) {
	c := newCache(10)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	resp := &models.ListingResponse{Success: true, Total: 2}
	c.Set("k", resp)

	if _, ok := c.Get("k", 0); ok {
		t.Error("maxAge 0 must bypass the cache")
	}
	if got, ok := c.Get("k", 1000); !ok || got != resp {
		t.Errorf("Get = %v, %v; want hit", got, ok)
	}
	if _, ok := c.Get("missing", 1000); ok {
		t.Error("hit on missing key")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k", 1000); ok {
		t.Error("stale entry returned")
	}
	if _, ok := c.Get("k", 5000); !ok {
		t.Error("entry younger than maxAge missed")
	}
}

func TestSet_EvictsAtCapacity(t *testing.T) {
	c := newCache(2)
	c.Set("a", &models.ListingResponse{})
	c.Set("b", &models.ListingResponse{})
	c.Set("b", &models.ListingResponse{})
	if c.Len() != 2 {
		t.Fatalf("Len = %d after overwrite, want 2", c.Len())
	}
	c.Set("c", &models.ListingResponse{})
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("c", 1000); !ok {
		t.Error("newest entry was evicted")
	}
}

func TestEvictBefore(t *testing.T) {
	c := newCache(10)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	c.Set("old", &models.ListingResponse{})
	now = now.Add(2 * time.Hour)
	c.Set("new", &models.ListingResponse{})

	c.evictBefore(now.Add(-time.Hour))
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}
