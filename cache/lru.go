/*
DESCRIPTION
  lru.go provides a fixed-capacity, insertion-order LRU cache keyed by
  frame index, used by the Video Source to avoid re-decoding frames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package cache provides Cache, a fixed-capacity LRU keyed by frame
// index whose values are produced frame.Buffer values. A hit moves the
// entry to most-recently-used; an insertion past capacity evicts the
// least-recently-used entry. Get, Put and eviction are O(1) amortized.
package cache

import (
	"container/list"
	"sync"

	"github.com/ausocean/vtsource/frame"
)

// DefaultCapacity is the default number of frames the cache holds.
const DefaultCapacity = 30

// entry is the value stored in the backing list; key is kept alongside
// the value so that eviction can remove the matching map entry.
type entry struct {
	key   int
	value frame.Buffer
}

// Cache is a fixed-capacity, frame-index-keyed LRU cache. The zero value
// is not usable; construct with New.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List // Front = most-recently-used.
	items    map[int]*list.Element
}

// New returns a new Cache with the given capacity. A non-positive
// capacity is replaced with DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[int]*list.Element, capacity),
	}
}

// Get returns the cached frame for key, if present, moving it to
// most-recently-used.
func (c *Cache) Get(key int) (frame.Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return frame.Buffer{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).value, true
}

// Put inserts or updates the cached frame for key, evicting the
// least-recently-used entry if the cache is at capacity.
func (c *Cache) Put(key int, value frame.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).value = value
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{key: key, value: value})
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		c.evictOldest()
	}
}

// evictOldest removes the least-recently-used entry. Caller must hold mu.
func (c *Cache) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

// Clear removes all cached entries. Used whenever OutputFormat or the
// loaded source changes.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.items = make(map[int]*list.Element, c.capacity)
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
