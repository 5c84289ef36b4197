package domain

import (
	"context"
	"time"
)

// Cache is a volatile short code to URL projection used to spare the store.
// Implementations enforce expiry themselves. Errors are always of
// KindCacheUnavailable and callers treat them as a miss.
type Cache interface {
	// Get returns the cached destination URL, if any.
	Get(ctx context.Context, shortCode string) (string, bool, error)

	// Set stores a destination URL with the given TTL.
	Set(ctx context.Context, shortCode, destinationURL string, ttl time.Duration) error

	// Ping checks if the cache is available.
	Ping(ctx context.Context) error

	Close() error
}
