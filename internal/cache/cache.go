// Package cache holds recent filter-passing translations keyed by the
// normalized source text.
package cache

import (
	"container/list"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"speech-translation-service/internal/textnorm"
)

const (
	// DefaultTTL is how long an entry stays valid after insertion.
	DefaultTTL = time.Hour
	// DefaultMaxEntries bounds the number of live entries.
	DefaultMaxEntries = 1000
)

// Entry is a cached translation.
type Entry struct {
	Key         string
	Translation string
	InsertedAt  time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries overrides DefaultMaxEntries.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache is a bounded TTL map with FIFO eviction by insertion order.
// Reads never change eviction order. Get and Put are each atomic.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	// order holds *Entry, oldest insertion at the front.
	order   *list.List
	entries map[string]*list.Element
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key derives the cache key for text.
func Key(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(textnorm.Normalize(text)), 16)
}

// Get returns the cached translation for text. An expired entry is evicted
// and reported as absent.
func (c *Cache) Get(text string) (string, bool) {
	key := Key(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	e := el.Value.(*Entry)
	if c.now().Sub(e.InsertedAt) >= c.ttl {
		c.removeElement(el)
		return "", false
	}
	return e.Translation, true
}

// Put stores translation for text. Overwriting an entry refreshes its
// timestamp but keeps its insertion position. When the bound is exceeded the
// oldest-inserted entry is evicted.
func (c *Cache) Put(text, translation string) {
	key := Key(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*Entry)
		e.Translation = translation
		e.InsertedAt = now
		return
	}

	c.entries[key] = c.order.PushBack(&Entry{
		Key:         key,
		Translation: translation,
		InsertedAt:  now,
	})
	if c.order.Len() > c.maxEntries {
		c.removeElement(c.order.Front())
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every expired entry and returns how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if now.Sub(el.Value.(*Entry).InsertedAt) >= c.ttl {
			c.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

func (c *Cache) removeElement(el *list.Element) {
	e := c.order.Remove(el).(*Entry)
	delete(c.entries, e.Key)
}
