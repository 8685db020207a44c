package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultIdleTTL = 10 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key, e.g. per client IP. Buckets not
// used for the idle TTL are dropped by a background sweep.
type Limiter struct {
	mu      sync.Mutex
	m       map[string]*bucket
	idleTTL time.Duration
	now     func() time.Time

	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures Limiter.
type Option func(*Limiter)

// WithIdleTTL sets how long an unused bucket is kept.
func WithIdleTTL(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.idleTTL = d
		}
	}
}

// New starts a limiter whose sweep runs every half idle TTL. Close stops it.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		m:       make(map[string]*bucket),
		idleTTL: defaultIdleTTL,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.ticker = time.NewTicker(l.idleTTL / 2)
	go l.sweepLoop()
	return l
}

// Allow returns true if one token can be consumed for key. The bucket for a
// key is created on first use with the given capacity and refill rate.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	l.mu.Lock()
	b, ok := l.m[key]
	if !ok {
		burst := int(capacity)
		if burst < 1 {
			burst = 1
		}
		b = &bucket{lim: rate.NewLimiter(rate.Limit(refillPerSec), burst)}
		l.m[key] = b
	}
	b.lastSeen = l.now()
	l.mu.Unlock()
	return b.lim.Allow()
}

// Len reports how many keys hold a bucket.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Limiter) sweepLoop() {
	for {
		select {
		case <-l.done:
			return
		case <-l.ticker.C:
			l.sweep()
		}
	}
}

// sweep drops buckets idle for at least the TTL and returns how many went.
// A dropped key starts over with a full bucket.
func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idleTTL)
	n := 0
	for key, b := range l.m {
		if !b.lastSeen.After(cutoff) {
			delete(l.m, key)
			n++
		}
	}
	return n
}

// Close stops the sweep goroutine.
func (l *Limiter) Close() error {
	l.closeOnce.Do(func() {
		l.ticker.Stop()
		close(l.done)
	})
	return nil
}
