package colorcube

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// DecodeFunc produces a cube for an asset key. It must be safe for
// concurrent use; the cache guarantees at most one call in flight per key.
type DecodeFunc func(ctx context.Context, key string) (*Cube, error)

// Cache memoizes decoded cubes per asset key for the lifetime of a session.
// Concurrent lookups for the same key share one decode, and the total number
// of decodes running at once is capped so speculative preview loading cannot
// starve the rest of the app.
type Cache struct {
	decode DecodeFunc
	sem    *semaphore.Weighted
	flight singleflight.Group

	mu    sync.Mutex
	cubes map[string]*Cube
}

// DefaultDecodeWorkers bounds concurrent decodes, matching the preview
// pipeline's task limit.
const DefaultDecodeWorkers = 4

// NewCache returns a cache around decode with at most workers concurrent
// decodes (DefaultDecodeWorkers if workers <= 0).
func NewCache(decode DecodeFunc, workers int) *Cache {
	if workers <= 0 {
		workers = DefaultDecodeWorkers
	}
	return &Cache{
		decode: decode,
		sem:    semaphore.NewWeighted(int64(workers)),
		cubes:  make(map[string]*Cube),
	}
}

// Get returns the cube for key, decoding it on first use. Callers blocked on
// the same key all receive the result of a single decode. Cancelling ctx
// abandons the wait; a decode already in flight for another caller still
// completes and populates the cache.
func (c *Cache) Get(ctx context.Context, key string) (*Cube, error) {
	c.mu.Lock()
	cube, ok := c.cubes[key]
	c.mu.Unlock()
	if ok {
		return cube, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		// Detached from the caller's context: the winner of the flight may
		// outlive the caller that started it.
		bg := context.Background()
		if err := c.sem.Acquire(bg, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)

		cube, err := c.decode(bg, key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cubes[key] = cube
		c.mu.Unlock()
		return cube, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Cube), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cached reports whether key is already decoded, without triggering a decode.
func (c *Cache) Cached(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.cubes[key]
	return ok
}
