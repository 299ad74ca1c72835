// Package cache provides the bounded read-through cache used for traffic,
// environment and traffic-prediction lookups.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Options bounds a cache. Size 0 means unlimited and TTL 0 means entries
// never expire; both together reproduce a process-lifetime memo.
type Options struct {
	Size int           `json:"size"`
	TTL  time.Duration `json:"ttl"`
}

// ReadThrough is a goroutine-safe LRU cache that computes missing values with
// a loader. Concurrent misses for the same key share one loader call.
type ReadThrough[V any] struct {
	lru   *expirable.LRU[string, V]
	group singleflight.Group
}

// New returns an empty cache bounded by opts. A positive TTL starts an
// expiry goroutine that lives for the rest of the process, so caches with a
// TTL belong to long-lived owners built once per service.
func New[V any](opts Options) *ReadThrough[V] {
	size := opts.Size
	if size < 0 {
		size = 0
	}
	return &ReadThrough[V]{lru: expirable.NewLRU[string, V](size, nil, opts.TTL)}
}

// Get returns the cached value for key, calling load on a miss. hit reports
// whether the value came from the cache. Loader errors are not cached.
func (c *ReadThrough[V]) Get(ctx context.Context, key string, load func(context.Context) (V, error)) (v V, hit bool, err error) {
	if v, ok := c.lru.Get(key); ok {
		return v, true, nil
	}
	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.lru.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return res.(V), false, nil
}

// Peek returns a cached value without loading.
func (c *ReadThrough[V]) Peek(key string) (V, bool) {
	return c.lru.Peek(key)
}

// Len returns the number of cached entries.
func (c *ReadThrough[V]) Len() int { return c.lru.Len() }

