package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v   []byte
	exp time.Time
}

// TTLCache is an in-process BytesCache. Expired entries are dropped lazily on
// read and swept once the map grows past maxEntries.
type TTLCache struct {
	mu         sync.RWMutex
	m          map[string]entry
	maxEntries int
	now        func() time.Time
}

func NewTTLCache(maxEntries int) *TTLCache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &TTLCache{m: make(map[string]entry), maxEntries: maxEntries, now: time.Now}
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.v, true, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.m) >= c.maxEntries {
		c.sweepLocked()
	}
	c.m[key] = entry{v: value, exp: exp}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// sweepLocked drops expired entries; if none expired it drops the entry
// closest to expiry so the map stays bounded.
func (c *TTLCache) sweepLocked() {
	now := c.now()
	var (
		victim  string
		soonest time.Time
	)
	for k, e := range c.m {
		if e.exp.IsZero() {
			continue
		}
		if now.After(e.exp) {
			delete(c.m, k)
			continue
		}
		if soonest.IsZero() || e.exp.Before(soonest) {
			victim, soonest = k, e.exp
		}
	}
	if len(c.m) >= c.maxEntries && victim != "" {
		delete(c.m, victim)
	}
}
