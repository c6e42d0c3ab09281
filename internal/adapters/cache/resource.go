package cache

import (
	"context"
	"sync"

	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

var _ ports.ResourceCache = (*ResourceCache)(nil)

// ResourceCache holds process-wide resources such as the font book. A
// resolved value is kept for the lifetime of the process; concurrent first
// callers share a single load.
type ResourceCache struct {
	group singleflight.Group

	mu     sync.RWMutex
	values map[string]any
}

// NewResourceCache creates an empty ResourceCache.
func NewResourceCache() *ResourceCache {
	return &ResourceCache{values: make(map[string]any)}
}

// GetOrInit returns the value for key, running load when it is not resolved.
// A load runs detached from the caller's cancellation so that one waiter
// giving up does not fail the others; a failed load is reported to every
// waiter and the next call loads again.
func (c *ResourceCache) GetOrInit(ctx context.Context, key string, load ports.ResourceLoader) (any, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.values[key] = v
		c.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, domain.NewResourceLoadError(key, res.Err)
		}
		return res.Val, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Resolved reports whether key holds a value.
func (c *ResourceCache) Resolved(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c *ResourceCache) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}
