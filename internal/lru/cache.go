package lru

import (
	"container/list"
	"sync"
)

type CacheIdentifier interface {
	Identifier() string
}

// Cache is a thread-safe, bounded cache of generic entries. The least
// recently used entry is evicted first.
type Cache[T CacheIdentifier] struct {
	capacity int

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
}

func NewCache[T CacheIdentifier](capacity int) *Cache[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[T]{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Add stores entry, replacing any entry with the same identifier.
func (c *Cache[T]) Add(entry T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := entry.Identifier()
	if element, ok := c.entries[id]; ok {
		element.Value = entry
		c.order.MoveToFront(element)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictUnsafe()
	}
	c.entries[id] = c.order.PushFront(entry)
}

func (c *Cache[T]) GetByID(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	c.order.MoveToFront(element)
	return element.Value.(T), true
}

func (c *Cache[T]) DeleteByID(id string) (present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[id]
	if !ok {
		return false
	}
	c.order.Remove(element)
	delete(c.entries, id)
	return true
}

func (c *Cache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache[T]) evictUnsafe() {
	element := c.order.Back()
	if element == nil {
		return
	}
	c.order.Remove(element)
	delete(c.entries, element.Value.(T).Identifier())
}
