package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sp3dr4/linkie/internal/domain"
	"github.com/sp3dr4/linkie/internal/infrastructure/memory"
	"github.com/sp3dr4/linkie/internal/pkg/metrics"
)

var errBackendDown = errors.New("connection refused")

// countingStore wraps the in-memory store, counting reads and optionally
// failing every call.
type countingStore struct {
	*memory.MappingStore
	gets    atomic.Int64
	puts    atomic.Int64
	failing atomic.Bool
}

func newCountingStore() *countingStore {
	return &countingStore{MappingStore: memory.NewMappingStore()}
}

func (s *countingStore) Put(ctx context.Context, code, url string) error {
	s.puts.Add(1)
	if s.failing.Load() {
		return domain.E("test.Put", domain.KindStoreUnavailable, errBackendDown)
	}
	return s.MappingStore.Put(ctx, code, url)
}

func (s *countingStore) Get(ctx context.Context, code string) (string, bool, error) {
	s.gets.Add(1)
	if s.failing.Load() {
		return "", false, domain.E("test.Get", domain.KindStoreUnavailable, errBackendDown)
	}
	return s.MappingStore.Get(ctx, code)
}

func (s *countingStore) HealthCheck(ctx context.Context) error {
	if s.failing.Load() {
		return domain.E("test.HealthCheck", domain.KindStoreUnavailable, errBackendDown)
	}
	return nil
}

type cacheEntry struct {
	url string
	ttl time.Duration
}

// mapCache is a map-backed domain.Cache whose reads and writes can be made
// to fail independently.
type mapCache struct {
	mu        sync.Mutex
	entries   map[string]cacheEntry
	failGet   bool
	failSet   bool
	setCtxErr error
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]cacheEntry)}
}

func (c *mapCache) Get(_ context.Context, code string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return "", false, domain.E("test.CacheGet", domain.KindCacheUnavailable, errBackendDown)
	}
	e, ok := c.entries[code]
	return e.url, ok, nil
}

func (c *mapCache) Set(ctx context.Context, code, url string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCtxErr = ctx.Err()
	if c.failSet {
		return domain.E("test.CacheSet", domain.KindCacheUnavailable, errBackendDown)
	}
	c.entries[code] = cacheEntry{url: url, ttl: ttl}
	return nil
}

func (c *mapCache) entry(code string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[code]
	return e, ok
}

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close() error                { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

// recordingRegistry counts business metric calls by name.
type recordingRegistry struct {
	metrics.NoOpRegistry
	mu     sync.Mutex
	counts map[string]int
}

func newRecordingRegistry() *recordingRegistry {
	return &recordingRegistry{counts: make(map[string]int)}
}

func (r *recordingRegistry) inc(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name]++
}

func (r *recordingRegistry) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

func (r *recordingRegistry) IncLinksCreated()            { r.inc("links_created") }
func (r *recordingRegistry) IncGenerationConflicts()     { r.inc("conflicts") }
func (r *recordingRegistry) IncRedirects(outcome string) { r.inc("redirect:" + outcome) }
func (r *recordingRegistry) IncCacheLookups(res string)  { r.inc("cache:" + res) }
func (r *recordingRegistry) IncCacheWriteFailures()      { r.inc("cache_write_failures") }
