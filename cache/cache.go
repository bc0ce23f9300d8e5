// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
//
// Package cache bounds the memory spent on memoized program compilations.
package cache

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/prg"
	"sync"
)

// Entry memoizes one compilation result: the compiled program, or the parse
// or compile error its source produced.
type Entry struct {
	Program prg.Sequence
	Err     err.Error
}

// Programs is a bounded LRU of compilation results, safe for concurrent use.
type Programs struct {
	mu         sync.Mutex
	store      map[string]*item
	head, tail *item
	capacity   int
}

type item struct {
	key        string
	entry      Entry
	prev, next *item
}

func NewPrograms(capacity int) *Programs {
	if capacity < 2 {
		capacity = 2 // helpful invariant
	}
	return &Programs{
		store:    make(map[string]*item, capacity),
		capacity: capacity,
	}
}

func (c *Programs) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.store[key]
	if !ok {
		return Entry{}, false
	}
	c.promote(i)
	return i.entry, true
}

func (c *Programs) Set(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.store[key]; ok {
		i.entry = entry
		c.promote(i)
		return
	}
	if len(c.store) == c.capacity {
		c.evict()
	}
	i := &item{key: key, entry: entry, next: c.head}
	if c.head != nil {
		c.head.prev = i
	}
	c.head = i
	if c.tail == nil {
		c.tail = i
	}
	c.store[key] = i
}

func (c *Programs) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.store {
		delete(c.store, k)
	}
	c.head, c.tail = nil, nil
}

func (c *Programs) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// promote moves i to the head of the recency list.
func (c *Programs) promote(i *item) {
	if i.prev == nil { // already at head
		return
	}
	i.prev.next = i.next
	if i.next == nil { // at tail
		c.tail = i.prev
	} else {
		i.next.prev = i.prev
	}
	i.prev = nil
	i.next = c.head
	c.head.prev = i
	c.head = i
}

// evict drops the least recently used item. The capacity invariant keeps at
// least two items around, so the tail always has a predecessor.
func (c *Programs) evict() {
	t := c.tail
	c.tail = t.prev
	c.tail.next = nil
	t.prev = nil
	delete(c.store, t.key)
}
