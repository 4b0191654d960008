package cache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Cache is a small in-process cache with a fixed TTL per entry. It sits in
// front of the shared redis cache, so staleness is bounded by the TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
}

type ttlCache[T any] struct {
	cache *ttlcache.Cache[string, T]
}

func (c *ttlCache[T]) Get(key string) (T, bool) {
	item := c.cache.Get(key)
	if item == nil {
		var zero T
		return zero, false
	}
	return item.Value(), true
}

func (c *ttlCache[T]) Set(key string, data T) {
	c.cache.Set(key, data, ttlcache.DefaultTTL)
}

func (c *ttlCache[T]) Delete(key string) {
	c.cache.Delete(key)
}

func NewTTLCache[T any](ttl time.Duration) Cache[T] {
	backing := ttlcache.New[string, T](
		ttlcache.WithTTL[string, T](ttl),
		ttlcache.WithDisableTouchOnHit[string, T](),
	)
	go backing.Start()
	return &ttlCache[T]{cache: backing}
}
