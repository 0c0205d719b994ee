package cache

import (
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[string](3, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.Set("a", "alpha")
	got, ok := c.Get("a")
	if !ok || got != "alpha" {
		t.Fatalf("Get(a) = %q, %v, want alpha, true", got, ok)
	}

	c.Set("a", "alpha2")
	got, _ = c.Get("a")
	if got != "alpha2" {
		t.Errorf("Get(a) after overwrite = %q, want alpha2", got)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1 after overwriting the same key", c.Size())
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now more recently used than b
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should have survived eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be present")
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	c := NewLRUCache[int](5, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry reported as a hit")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after expired entry removed on access", c.Size())
	}
}

func TestLRUCacheDelete(t *testing.T) {
	c := NewLRUCache[int](5, time.Minute)

	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry reported as a hit")
	}

	// Deleting a missing key is a no-op.
	c.Delete("missing")
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := NewLRUCache[int](5, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	// Fresh entry gets the full TTL again, so only a and b expire.
	removed := c.CleanExpired()
	if removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}
