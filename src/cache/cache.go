// Package cache is the gateway's read-through cache with single-flight
// deduplication: any number of concurrent callers asking for the same
// uncached key share one upstream computation.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

type Cache struct {
	store Store
	group singleflight.Group

	// local is an optional in-process hot tier in front of the store.
	// Entries carry their own deadline because TTLs are per key class,
	// while the LRU's TTL is only an upper bound.
	local *expirable.LRU[string, localEntry]
}

type localEntry struct {
	value    []byte
	deadline time.Time
}

func New(store Store) *Cache {
	return &Cache{store: store}
}

// NewWithLocalTier adds an in-process LRU of the given size in front of the
// store. maxTTL bounds how long any entry may sit in the local tier.
func NewWithLocalTier(store Store, size int, maxTTL time.Duration) *Cache {
	return &Cache{
		store: store,
		local: expirable.NewLRU[string, localEntry](size, nil, maxTTL),
	}
}

// GetOrCompute returns the cached value for key, or runs fn once to produce
// it. Concurrent callers on an uncached key block on a single computation.
// Successful results are stored with ttl; failures are returned to every
// waiter and never cached.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	return c.GetOrComputeTTL(ctx, key, func(ctx context.Context) ([]byte, time.Duration, error) {
		value, err := fn(ctx)
		return value, ttl, err
	})
}

// GetOrComputeTTL is GetOrCompute for computations that only know the
// right TTL once they have the result, e.g. negative "no photo yet"
// lookups that expire much sooner than hits.
func (c *Cache) GetOrComputeTTL(ctx context.Context, key string, fn func(context.Context) ([]byte, time.Duration, error)) ([]byte, error) {
	if value, ok := c.localGet(key); ok {
		return value, nil
	}
	if value, ok := c.storeGet(ctx, key); ok {
		return value, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// A previous flight may have resolved the key while this caller
		// was queueing up behind the flight lock.
		if value, ok := c.storeGet(ctx, key); ok {
			return value, nil
		}
		value, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(ctx, key, value, ttl); err != nil {
			log.Printf("cache: store set %q failed: %v", key, err)
		}
		c.localSet(key, value, ttl)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// storeGet treats store failures as misses: a broken cache backend must not
// take the gateway down, it only costs upstream calls.
func (c *Cache) storeGet(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Printf("cache: store get %q failed: %v", key, err)
		return nil, false
	}
	return value, ok
}

func (c *Cache) localGet(key string) ([]byte, bool) {
	if c.local == nil {
		return nil, false
	}
	entry, ok := c.local.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.deadline) {
		c.local.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *Cache) localSet(key string, value []byte, ttl time.Duration) {
	if c.local == nil {
		return
	}
	c.local.Add(key, localEntry{value: value, deadline: time.Now().Add(ttl)})
}

// GetOrCompute is the typed entry point: values are marshalled to JSON for
// the store and unmarshalled on hits.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	return GetOrComputeTTL(ctx, c, key, func(ctx context.Context) (T, time.Duration, error) {
		value, err := fn(ctx)
		return value, ttl, err
	})
}

// GetOrComputeTTL is the typed variant with a result-dependent TTL.
func GetOrComputeTTL[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, time.Duration, error)) (T, error) {
	var zero T
	raw, err := c.GetOrComputeTTL(ctx, key, func(ctx context.Context) ([]byte, time.Duration, error) {
		value, ttl, err := fn(ctx)
		if err != nil {
			return nil, 0, err
		}
		encoded, err := json.Marshal(value)
		return encoded, ttl, err
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, err
	}
	return out, nil
}
