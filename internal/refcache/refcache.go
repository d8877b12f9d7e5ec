// Package refcache provides a TTL read-through cache for reference data.
//
// It is meant for tables that change rarely (products, questions, checklist rules,
// direct-deposit fees). Callers accept that a change may take up to the TTL to become
// visible. Never cache per-entity records such as line items, answers or documents.
package refcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc fetches the value for a key on a cache miss.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// Cache is a TTL cache keyed by K. Concurrent misses for the same key share one load.
type Cache[K comparable, V any] struct {
	name  string
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
	stats Observer

	mu      sync.RWMutex
	entries map[K]entry[V]
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Observer receives hit/miss notifications, e.g. to feed metrics.
type Observer func(cache string, hit bool)

// Option configures a Cache.
type Option func(*options)

type options struct {
	now      func() time.Time
	observer Observer
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithObserver registers a hit/miss callback.
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

// New creates a cache. A ttl <= 0 disables caching: every Get loads.
func New[K comparable, V any](name string, ttl time.Duration, opts ...Option) *Cache[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[K, V]{
		name:    name,
		ttl:     ttl,
		now:     o.now,
		stats:   o.observer,
		entries: make(map[K]entry[V]),
	}
}

// Get returns the cached value for key or calls load and stores its result.
// Load errors are not cached. load runs detached from ctx cancellation; ctx
// values are kept.
func (c *Cache[K, V]) Get(ctx context.Context, key K, load LoadFunc[V]) (V, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		c.observe(true)
		return e.value, nil
	}
	c.observe(false)

	// Waiters share one load; it ignores the first caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		value, err := load(loadCtx)
		if err != nil {
			return value, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Invalidate removes a single key.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll clears every entry.
func (c *Cache[K, V]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[K]entry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) observe(hit bool) {
	if c.stats != nil {
		c.stats(c.name, hit)
	}
}
