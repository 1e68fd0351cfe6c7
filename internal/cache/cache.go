// Package cache holds short-lived copies of item list responses.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/lostfound/internal/domain/item"
)

// Version pins a Set to the cache generation observed by the Get that missed.
// The zero Version stores nothing.
type Version struct {
	key string
	gen int64
	ok  bool
}

// ListCache stores list results by key. Misses and backend failures look the same to callers.
//
// Callers read the store only after a miss and hand the returned Version back to Set,
// so a read that raced with Invalidate is dropped instead of cached.
type ListCache interface {
	Get(ctx context.Context, key string) ([]item.Item, Version, bool)
	Set(ctx context.Context, v Version, items []item.Item)
	// Invalidate drops every cached list; called after any item mutation.
	Invalidate(ctx context.Context)
}

type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	gen int64
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	val []item.Item
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]item.Item, Version, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	v := Version{key: key, gen: c.gen, ok: true}
	c.mu.RUnlock()
	if !ok {
		return nil, v, false
	}

	if !now.Before(e.exp) {
		c.mu.Lock()
		if cur, still := c.m[key]; still && cur.exp.Equal(e.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, v, false
	}

	return e.val, v, true
}

func (c *Memory) Set(_ context.Context, v Version, items []item.Item) {
	if !v.ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v.gen != c.gen {
		return
	}
	c.m[v.key] = entry{val: items, exp: c.now().Add(c.ttl)}
}

func (c *Memory) Invalidate(_ context.Context) {
	c.mu.Lock()
	c.gen++
	c.m = make(map[string]entry)
	c.mu.Unlock()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]item.Item, Version, bool) { return nil, Version{}, false }
func (Noop) Set(context.Context, Version, []item.Item)                {}
func (Noop) Invalidate(context.Context)                               {}
