// Package explanation keeps recommendation rationales for later lookup.
package explanation

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Defaults applied when the configured values are not positive.
const (
	DefaultTTL      = time.Hour
	DefaultCapacity = 10000
)

// Entry is the stored rationale of one recommendation.
type Entry struct {
	ID                   string   `json:"id"`
	PracticeID           string   `json:"practiceId"`
	Explanation          string   `json:"explanation"`
	PersonalizationNotes []string `json:"personalizationNotes,omitempty"`
}

// Cache is a TTL cache bounded to a fixed number of entries.
// When full, the entry written longest ago is evicted. All entries share one TTL,
// so that is also the entry closest to expiry.
type Cache struct {
	mu       sync.Mutex
	items    *cache.Cache
	capacity int

	// order queues writes oldest first. A queued write is current only while
	// seqs still holds its sequence number; overwrites leave stale entries behind.
	order []write
	seqs  map[string]uint64
	seq   uint64
}

type write struct {
	id  string
	seq uint64
}

// New creates an explanation cache.
func New(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		items:    cache.New(ttl, ttl/2),
		capacity: capacity,
		seqs:     make(map[string]uint64),
	}
}

// Put stores e under e.ID with the default TTL.
func (c *Cache) Put(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, current := c.seqs[e.ID]; !current {
		for c.items.ItemCount() >= c.capacity {
			if !c.evictOldest() {
				break
			}
		}
	}

	c.seq++
	c.seqs[e.ID] = c.seq
	c.order = append(c.order, write{id: e.ID, seq: c.seq})
	c.items.Set(e.ID, e, cache.DefaultExpiration)

	if len(c.order) > 2*c.capacity {
		c.compact()
	}
}

// Get returns the entry for id.
func (c *Cache) Get(id string) (Entry, bool) {
	x, found := c.items.Get(id)
	if !found {
		return Entry{}, false
	}
	e, ok := x.(Entry)
	return e, ok
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// evictOldest deletes the oldest current write. It reports false once the queue is empty.
func (c *Cache) evictOldest() bool {
	for len(c.order) > 0 {
		w := c.order[0]
		c.order = c.order[1:]
		if c.seqs[w.id] != w.seq {
			continue
		}
		delete(c.seqs, w.id)
		c.items.Delete(w.id)
		return true
	}
	return false
}

// compact drops stale queue entries and entries the janitor already expired.
func (c *Cache) compact() {
	live := make([]write, 0, c.capacity)
	for _, w := range c.order {
		if c.seqs[w.id] != w.seq {
			continue
		}
		if _, ok := c.items.Get(w.id); !ok {
			delete(c.seqs, w.id)
			continue
		}
		live = append(live, w)
	}
	c.order = live
}
