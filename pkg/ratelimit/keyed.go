// Package ratelimit keeps one token bucket per key and forgets idle keys.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	PerSecond       float64       // tokens added per second
	Burst           int           // bucket size
	CleanupInterval time.Duration // how often idle keys are swept
	IdleTimeout     time.Duration // a key unused this long is forgotten
}

type KeyedLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  Config
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func New(conf Config) *KeyedLimiter {
	if conf.Burst < 1 {
		conf.Burst = 1
	}
	return &KeyedLimiter{
		buckets: make(map[string]*bucket),
		config:  conf,
		now:     time.Now,
	}
}

// Allow takes one token from key's bucket.
func (l *KeyedLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Run sweeps idle keys until ctx is done.
func (l *KeyedLimiter) Run(ctx context.Context) {
	interval := l.config.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func (l *KeyedLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.config.IdleTimeout {
			delete(l.buckets, key)
		}
	}
}

func (l *KeyedLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.config.PerSecond), l.config.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = l.now()
	return b.limiter
}
