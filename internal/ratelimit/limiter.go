// Package ratelimit throttles requests per client key with fixed windows.
//
// A fixed window lets a client send up to twice the limit across a window
// boundary (the tail of one window plus the head of the next). That burst is
// accepted in exchange for O(1) state per client.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/sp3dr4/linkie/internal/domain"
)

const shardCount = 64

// Limiter admits or rejects a request for a client key. Admit never blocks
// on I/O.
type Limiter interface {
	Admit(key string) error
}

type Config struct {
	Window      time.Duration
	MaxRequests int
}

type counter struct {
	count       int
	windowStart time.Time
}

type shard struct {
	mu       sync.Mutex
	counters map[string]*counter
}

// FixedWindow keeps one counter per key. Keys are spread over independently
// locked shards so unrelated clients rarely wait on each other; the
// check-and-increment for one key is atomic under its shard's lock.
type FixedWindow struct {
	cfg    Config
	now    func() time.Time
	shards [shardCount]*shard
}

type Option func(*FixedWindow)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *FixedWindow) {
		l.now = now
	}
}

func NewFixedWindow(cfg Config, opts ...Option) *FixedWindow {
	l := &FixedWindow{cfg: cfg, now: time.Now}
	for i := range l.shards {
		l.shards[i] = &shard{counters: make(map[string]*counter)}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *FixedWindow) shardFor(key string) *shard {
	return l.shards[xxhash.Sum64String(key)%shardCount]
}

// Admit counts a request for key. It fails with domain.KindRateLimited once
// MaxRequests have been admitted in the current window.
func (l *FixedWindow) Admit(key string) error {
	now := l.now()
	s := l.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok {
		c = &counter{windowStart: now}
		s.counters[key] = c
	}

	if now.Sub(c.windowStart) > l.cfg.Window {
		c.count = 0
		c.windowStart = now
	}

	if c.count >= l.cfg.MaxRequests {
		return &domain.Error{
			Kind:       domain.KindRateLimited,
			Op:         "ratelimit.FixedWindow.Admit",
			RetryAfter: c.windowStart.Add(l.cfg.Window).Sub(now),
		}
	}

	c.count++
	return nil
}

// Sweep drops counters whose window has ended and returns how many were
// removed. A dropped counter behaves exactly like a reset one.
func (l *FixedWindow) Sweep() int {
	now := l.now()
	removed := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for key, c := range s.counters {
			if now.Sub(c.windowStart) > l.cfg.Window {
				delete(s.counters, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// size returns the number of tracked keys.
func (l *FixedWindow) size() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.counters)
		s.mu.Unlock()
	}
	return n
}

// Run sweeps expired counters every interval until ctx is done.
func (l *FixedWindow) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
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

// Permissive admits every request. Used in development mode.
type Permissive struct{}

func NewPermissive() Permissive {
	return Permissive{}
}

func (Permissive) Admit(string) error {
	return nil
}
