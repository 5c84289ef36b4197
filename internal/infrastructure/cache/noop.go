package cache

import (
	"context"
	"time"
)

// NoOpCache is used when caching is disabled. Every lookup misses, so the
// resolver always reads the store.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

func (c *NoOpCache) Set(_ context.Context, _, _ string, _ time.Duration) error {
	return nil
}

func (c *NoOpCache) Ping(_ context.Context) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
