// Package cache provides the in-memory TTL store that memoizes fetched Notion content.
package cache

import (
	"sort"
	"sync"
	"time"
)

// DefaultTTL applies when neither the constructor nor a Set call supplies a positive TTL.
const DefaultTTL = 300 * time.Second

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// TTL maps string keys to values that expire after a per-entry duration.
//
// Expired entries are removed lazily: Get and Has delete an entry they find expired, so both
// can mutate the cache. There is no background sweep and no size bound; Keys may therefore list
// entries that are expired but have not been read since.
type TTL struct {
	mu         sync.Mutex
	items      map[string]entry
	now        func() time.Time
	defaultTTL time.Duration
}

// Option customizes a TTL cache.
type Option func(*TTL)

// WithClock replaces the time source (tests use it to advance time deterministically).
func WithClock(now func() time.Time) Option {
	return func(c *TTL) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a cache whose entries live for defaultTTL unless overridden per Set.
func New(defaultTTL time.Duration, opts ...Option) *TTL {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	c := &TTL{
		items:      make(map[string]entry),
		now:        time.Now,
		defaultTTL: defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key with the default TTL.
func (c *TTL) Set(key string, value any) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key, expiring after ttl. A non-positive ttl uses the default.
func (c *TTL) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Get returns the live value for key. An expired entry is deleted as a side effect and
// reported absent.
func (c *TTL) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if item.expired(c.now()) {
		delete(c.items, key)
		return nil, false
	}
	return item.value, true
}

// Has reports whether Get would succeed, evicting the entry if it has expired.
func (c *TTL) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key regardless of expiry.
func (c *TTL) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes every entry.
func (c *TTL) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]entry)
}

// Keys returns every stored key in sorted order, including expired entries not yet evicted.
func (c *TTL) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for key := range c.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports the number of stored entries, expired or not.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Lookup returns the live value for key when it holds a T.
func Lookup[T any](c *TTL, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	raw, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return value, true
}
