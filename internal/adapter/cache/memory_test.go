package cache

import (
	"testing"
	"time"
)

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemory(2)
	c.Set("a", "1", time.Minute)
	c.Set("b", "2", time.Minute)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}
	c.Set("c", "3", time.Minute)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("c should be present")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Fatalf("expected 1 eviction, got %d", got)
	}
}

func TestMemoryExpiresLazily(t *testing.T) {
	c := NewMemory(10)
	c.Set("k", "v", 10*time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected fresh hit")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry should read as a miss")
	}
	if got := c.Stats().Size; got != 0 {
		t.Fatalf("expired entry should be dropped, size %d", got)
	}
}

func TestMemoryUpdateDoesNotEvict(t *testing.T) {
	c := NewMemory(2)
	c.Set("a", "1", time.Minute)
	c.Set("b", "2", time.Minute)
	c.Set("a", "updated", time.Minute)

	if v, ok := c.Get("a"); !ok || v != "updated" {
		t.Fatalf("expected updated value, got %q ok=%v", v, ok)
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("updating an existing key must not evict")
	}
}

func TestMemoryClearKeepsCounters(t *testing.T) {
	c := NewMemory(10)
	c.Set("a", "1", time.Minute)
	c.Get("a")
	c.Get("nope")
	c.Clear()

	st := c.Stats()
	if st.Size != 0 {
		t.Fatalf("expected empty cache, size %d", st.Size)
	}
	if st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("counters should survive Clear: %+v", st)
	}
}

func TestTTLFor(t *testing.T) {
	cases := []struct {
		kind SearchKind
		want time.Duration
	}{
		{KindNews, time.Hour},
		{KindRegulation, 24 * time.Hour},
		{KindCase, 6 * time.Hour},
		{KindGeneral, 2 * time.Hour},
		{SearchKind("unknown"), time.Hour},
	}
	for _, tc := range cases {
		if got := TTLFor(tc.kind); got != tc.want {
			t.Errorf("TTLFor(%s) = %s, want %s", tc.kind, got, tc.want)
		}
	}
}

func TestNormalizeQuery(t *testing.T) {
	a := NormalizeQuery("  Employment   Contract termination ")
	b := NormalizeQuery("termination contract EMPLOYMENT")
	if a != b {
		t.Fatalf("equivalent queries should normalize identically: %q vs %q", a, b)
	}
	if a != "contract employment termination" {
		t.Fatalf("unexpected normal form %q", a)
	}
}

func TestKeyIsStableAcrossPhrasings(t *testing.T) {
	k1 := Key(KindRegulation, "overtime pay rules")
	k2 := Key(KindRegulation, "Rules  pay overtime")
	if k1 != k2 {
		t.Fatalf("keys should match after normalization: %s vs %s", k1, k2)
	}
	if Key(KindCase, "overtime pay rules") == k1 {
		t.Fatal("different kinds must produce different keys")
	}
}

func TestKeyIncludesOptions(t *testing.T) {
	small := Key(KindCase, "overtime pay rules", "count=1")
	large := Key(KindCase, "overtime pay rules", "count=10")
	if small == large {
		t.Fatal("different options must produce different keys")
	}
	if Key(KindCase, "overtime pay rules", "count=1") != small {
		t.Fatal("keys must be deterministic for equal options")
	}
}
