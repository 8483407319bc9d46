// Package cache provides a generic in-memory TTL cache with background eviction.
package cache

import (
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

func (i item[V]) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// Cache maps keys to values that expire after a per-entry TTL.
// Expired entries are dropped lazily on read and by a periodic sweep.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]item[V]
	now   func() time.Time

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a cache. A cleanupInterval of zero disables the sweeper.
func New[K comparable, V any](cleanupInterval time.Duration, opts ...Option) *Cache[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[K, V]{
		items: make(map[K]item[V]),
		now:   o.now,
		stop:  make(chan struct{}),
	}

	if cleanupInterval > 0 {
		c.wg.Add(1)
		go c.janitor(cleanupInterval)
	}

	return c
}

// Get returns the value for k if present and not expired.
func (c *Cache[K, V]) Get(_ context.Context, k K) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[k]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if it.expired(c.now()) {
		c.mu.Lock()
		if cur, ok := c.items[k]; ok && cur.expired(c.now()) {
			delete(c.items, k)
		}
		c.mu.Unlock()
		return zero, false
	}
	return it.value, true
}

// Set stores v under k. A ttl <= 0 means the entry never expires.
func (c *Cache[K, V]) Set(_ context.Context, k K, v V, ttl time.Duration) {
	it := item[V]{value: v}
	if ttl > 0 {
		it.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[k] = it
	c.mu.Unlock()
}

// Delete removes k.
func (c *Cache[K, V]) Delete(_ context.Context, k K) {
	c.mu.Lock()
	delete(c.items, k)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// DeleteExpired sweeps all expired entries.
func (c *Cache[K, V]) DeleteExpired() {
	now := c.now()

	c.mu.Lock()
	for k, it := range c.items {
		if it.expired(now) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}

// Close stops the sweeper. Safe to call more than once.
func (c *Cache[K, V]) Close() {
	c.once.Do(func() {
		close(c.stop)
	})
	c.wg.Wait()
}

func (c *Cache[K, V]) janitor(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}
