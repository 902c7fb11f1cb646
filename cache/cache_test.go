package cache

import (
	"sync"
	"testing"
)

func TestLRU_Basic(t *testing.T) {
	c := New[string, int](3)

	c.Put("a", 1)
	c.Put("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("z"); ok {
		t.Error("Get(z) should miss")
	}

	c.Put("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) = %d; want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d; want 2", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := New[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // a is now most recent
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("'b' should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("'a' should still be cached")
	}
	if s := c.Stats(); s.Evicts != 1 {
		t.Errorf("Evicts = %d; want 1", s.Evicts)
	}
}

func TestLRU_GetOrCompute(t *testing.T) {
	c := New[string, string](4)
	calls := 0
	fn := func() string {
		calls++
		return "A, B"
	}

	for i := 0; i < 3; i++ {
		if v := c.GetOrCompute("STATUS", fn); v != "A, B" {
			t.Errorf("GetOrCompute() = %q", v)
		}
	}
	if calls != 1 {
		t.Errorf("fn called %d times; want 1", calls)
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("hits/misses = %d/%d; want 2/1", s.Hits, s.Misses)
	}
	if rate := s.HitRate(); rate < 0.66 || rate > 0.67 {
		t.Errorf("HitRate() = %f", rate)
	}
}

func TestLRU_DefaultCapacity(t *testing.T) {
	c := New[int, int](0)
	if c.Stats().Capacity != 64 {
		t.Errorf("Capacity = %d; want 64", c.Stats().Capacity)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := New[int, int](16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.GetOrCompute(i%32, func() int { return i % 32 })
				c.Get(g)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 16 {
		t.Errorf("Len() = %d; want <= 16", c.Len())
	}
}
