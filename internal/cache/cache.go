package cache

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Cache is a ttlcache with lazy eviction: expired entries are removed by the
// access that finds them and no cleanup goroutine is started. Expiry is
// checked by ttlcache against wall time and again against the Clock, so a
// test clock can move it forward.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	clock Clock
	items *ttlcache.Cache[K, V]
}

// New creates an empty cache. A nil clock uses wall time.
func New[K comparable, V any](clock Clock) *Cache[K, V] {
	if clock == nil {
		clock = realClock{}
	}
	return &Cache[K, V]{
		clock: clock,
		items: ttlcache.New[K, V](
			ttlcache.WithTTL[K, V](ttlcache.NoTTL),
			// a read must not push the expiry back
			ttlcache.WithDisableTouchOnHit[K, V](),
		),
	}
}

// Get returns the value for key unless it is absent or expired
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

// GetOrElse returns the cached value, or orElse(key) when there is none.
// The fallback is not stored.
func (c *Cache[K, V]) GetOrElse(key K, orElse func(K) V) V {
	c.mu.Lock()
	v, ok := c.getLocked(key)
	c.mu.Unlock()
	if ok {
		return v
	}
	return orElse(key)
}

// InsertOrUpdate stores value with no expiry
func (c *Cache[K, V]) InsertOrUpdate(key K, value V) {
	c.InsertOrUpdateTTL(key, value, 0)
}

// InsertOrUpdateTTL stores value until now+ttl. ttl <= 0 never expires.
func (c *Cache[K, V]) InsertOrUpdateTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	c.items.Set(key, value, ttl)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.DeleteAll()
}

// Len counts stored entries, including expired ones not yet evicted
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

func (c *Cache[K, V]) getLocked(key K) (V, bool) {
	var zero V
	item := c.items.Get(key)
	if item == nil {
		// ttlcache hides an expired item but keeps it until deleted
		c.items.Delete(key)
		return zero, false
	}
	if exp := item.ExpiresAt(); !exp.IsZero() && !c.clock.Now().Before(exp) {
		c.items.Delete(key)
		return zero, false
	}
	return item.Value(), true
}
