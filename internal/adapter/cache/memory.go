package cache

import (
	"container/list"
	"sync"
	"time"
)

// Stats are cumulative counters for one cache instance.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
}

type memoryEntry struct {
	key       string
	value     string
	expiresAt time.Time
}

// Memory is an in-process LRU cache with per-entry TTL. Expired entries are
// dropped lazily on access. Safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = least recently used
	items    map[string]*list.Element

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewMemory creates a cache holding at most capacity entries. A non-positive
// capacity selects 100.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 100
	}
	return &Memory{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached value and whether it was present and fresh.
func (c *Memory) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return "", false
	}
	entry := el.Value.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.items, key)
		c.misses++
		return "", false
	}
	c.order.MoveToBack(el)
	c.hits++
	return entry.value, true
}

// Set stores value under key for ttl, evicting the least recently used entry
// when the cache is full.
func (c *Memory) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := time.Now().Add(ttl)
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.value = value
		entry.expiresAt = expires
		c.order.MoveToBack(el)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*memoryEntry).key)
			c.evictions++
		}
	}
	c.items[key] = c.order.PushBack(&memoryEntry{key: key, value: value, expiresAt: expires})
}

// Delete removes key if present.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

// Clear drops every entry. Counters are preserved.
func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// Stats returns a snapshot of the counters.
func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.order.Len(),
		Capacity:  c.capacity,
	}
}
