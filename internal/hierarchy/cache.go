package hierarchy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fjacquet/stmt-categorizer/internal/models"
)

// DefaultTTL is how long a fetched category list is served from memory.
const DefaultTTL = 5 * time.Minute

// Source reads the flat category list from a record store.
type Source interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

type snapshot struct {
	list      []models.Category
	fetchedAt time.Time
}

// Cache serves the category list for TTL after each fetch. The list and
// its fetch time are swapped together, so readers never see one without
// the other. Concurrent misses share a single fetch. Returned slices are
// shared between callers and must not be modified.
type Cache struct {
	source Source
	ttl    time.Duration
	clock  Clock

	mu         sync.RWMutex
	snap       *snapshot
	generation uint64

	group singleflight.Group
}

// NewCache creates a Cache. A zero ttl uses DefaultTTL and a nil clock uses
// time.Now.
func NewCache(source Source, ttl time.Duration, clock Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	return &Cache{source: source, ttl: ttl, clock: clock}
}

// Get returns the cached list while it is fresh and fetches it otherwise.
func (c *Cache) Get(ctx context.Context) ([]models.Category, error) {
	c.mu.RLock()
	snap, gen := c.snap, c.generation
	c.mu.RUnlock()
	if c.fresh(snap) {
		return snap.list, nil
	}

	ch := c.group.DoChan(fmt.Sprintf("categories/%d", gen), func() (interface{}, error) {
		c.mu.RLock()
		current := c.snap
		c.mu.RUnlock()
		if c.fresh(current) {
			return current.list, nil
		}

		list, err := c.source.ListCategories(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation == gen {
			c.snap = &snapshot{list: list, fetchedAt: c.clock.Now()}
		}
		return list, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.Category), nil
	}
}

func (c *Cache) fresh(s *snapshot) bool {
	return s != nil && c.clock.Now().Sub(s.fetchedAt) < c.ttl
}

// Invalidate drops the cached list. A fetch already in flight will not
// repopulate the cache.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.generation++
	c.mu.Unlock()
}
