package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sp3dr4/linkie/internal/domain"
	"github.com/sp3dr4/linkie/internal/infrastructure/cache"
)

// RedisCache stores plain destination URLs under short:<code> with a
// per-key expiry. Failures are reported as domain.KindCacheUnavailable and
// logged by the caller.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewClient parses a redis:// URL and returns an unconnected client.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (c *RedisCache) Get(ctx context.Context, shortCode string) (string, bool, error) {
	val, err := c.client.Get(ctx, cache.Key(shortCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, domain.E("redis.RedisCache.Get", domain.KindCacheUnavailable, err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, shortCode, destinationURL string, ttl time.Duration) error {
	if err := c.client.Set(ctx, cache.Key(shortCode), destinationURL, ttl).Err(); err != nil {
		return domain.E("redis.RedisCache.Set", domain.KindCacheUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return domain.E("redis.RedisCache.Ping", domain.KindCacheUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
