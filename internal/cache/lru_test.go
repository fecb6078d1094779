// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package cache

import (
	"sync"
	"testing"
	"time"
)

func TestLRUEviction(t *testing.T) {
	t.Parallel()
	c := NewLRU[int64, string](3, time.Minute)

	c.Add(1, "a")
	c.Add(2, "b")
	c.Add(3, "c")
	c.Get(1) // 2 is now least recently used
	c.Add(4, "d")

	if _, ok := c.Get(2); ok {
		t.Error("expected 2 to be evicted")
	}
	for _, k := range []int64{1, 3, 4} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %d to be present", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRUExpiry(t *testing.T) {
	t.Parallel()
	c := NewLRU[string, int](10, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Add("k", 1)
	now = now.Add(59 * time.Second)
	if v, ok := c.Get("k"); !ok || v != 1 {
		t.Fatalf("Get() = %d, %v before expiry", v, ok)
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not dropped, Len() = %d", c.Len())
	}

	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 0 {
		t.Errorf("Stats() = %d, %d, %d", hits, misses, size)
	}
}

func TestLRUUpdateAndRemove(t *testing.T) {
	t.Parallel()
	c := NewLRU[string, int](0, 0)
	if c.capacity != defaultCapacity || c.ttl != defaultTTL {
		t.Errorf("defaults = %d, %v", c.capacity, c.ttl)
	}

	c.Add("k", 1)
	c.Add("k", 2)
	if v, _ := c.Get("k"); v != 2 {
		t.Errorf("Get() = %d, want 2", v)
	}
	if !c.Remove("k") || c.Remove("k") {
		t.Error("Remove() should succeed once")
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	t.Parallel()
	c := NewLRU[int, int](50, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Add(g*1000+i, i)
				c.Get(g*1000 + i/2)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
