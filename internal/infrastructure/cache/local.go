package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/sp3dr4/linkie/internal/domain"
)

const DefaultLocalMaxItems = 100_000

var errLocalClosed = errors.New("local cache closed")

// LocalCache is an in-process cache bounded by item count. Each entry costs
// 1, so MaxCost is the item limit. Sets are admitted asynchronously and may
// be dropped under contention; a dropped set is just a later miss.
type LocalCache struct {
	cache     *ristretto.Cache
	closed    chan struct{}
	closeOnce sync.Once
}

func NewLocalCache(maxItems int64) (*LocalCache, error) {
	if maxItems <= 0 {
		maxItems = DefaultLocalMaxItems
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxItems * 10,
		MaxCost:            maxItems,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}

	return &LocalCache{cache: c, closed: make(chan struct{})}, nil
}

func (c *LocalCache) Get(ctx context.Context, shortCode string) (string, bool, error) {
	if c.isClosed() {
		return "", false, domain.E("cache.LocalCache.Get", domain.KindCacheUnavailable, errLocalClosed)
	}

	v, ok := c.cache.Get(Key(shortCode))
	if !ok {
		return "", false, nil
	}
	url, ok := v.(string)
	if !ok {
		return "", false, nil
	}
	return url, true, nil
}

func (c *LocalCache) Set(ctx context.Context, shortCode, destinationURL string, ttl time.Duration) error {
	if c.isClosed() {
		return domain.E("cache.LocalCache.Set", domain.KindCacheUnavailable, errLocalClosed)
	}
	c.cache.SetWithTTL(Key(shortCode), destinationURL, 1, ttl)
	return nil
}

// Wait blocks until buffered sets have been applied.
func (c *LocalCache) Wait() {
	c.cache.Wait()
}

func (c *LocalCache) Ping(_ context.Context) error {
	if c.isClosed() {
		return domain.E("cache.LocalCache.Ping", domain.KindCacheUnavailable, errLocalClosed)
	}
	return nil
}

func (c *LocalCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.cache.Close()
	})
	return nil
}

func (c *LocalCache) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
