package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a keyed token bucket. Each key starts full with capacity tokens
// and refills at refillPerSec.
type Limiter struct {
	mu           sync.Mutex
	m            map[string]*bucket
	capacity     float64
	refillPerSec float64
	idleTTL      time.Duration
	lastSweep    time.Time
	now          func() time.Time
}

func New(capacity, refillPerSec float64) *Limiter {
	return &Limiter{
		m:            make(map[string]*bucket),
		capacity:     capacity,
		refillPerSec: refillPerSec,
		idleTTL:      10 * time.Minute,
		now:          time.Now,
	}
}

// Allow reports whether one token could be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.idleTTL {
		l.sweep(now)
	}

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refillPerSec
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// sweep forgets buckets idle long enough to have refilled completely.
func (l *Limiter) sweep(now time.Time) {
	for k, b := range l.m {
		if now.Sub(b.last) > l.idleTTL {
			delete(l.m, k)
		}
	}
	l.lastSweep = now
}
