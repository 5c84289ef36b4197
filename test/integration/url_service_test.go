package integration

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/linkie/internal/application"
	"github.com/sp3dr4/linkie/internal/domain"
)

func TestURLService_CreateAndResolve_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	resp, err := env.Service.CreateShortURL(ctx, application.CreateURLRequest{URL: "https://example.com/page"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.ShortURL, testBaseURL+"/"))
	assert.Len(t, resp.ShortCode, 8)

	out, err := env.Service.Resolve(ctx, resp.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, domain.Found("https://example.com/page"), out)
}

func TestPostgresStore_Conflict_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	require.NoError(t, env.Store.Put(ctx, "aB3xY9kQ", "https://example.com/a"))

	err := env.Store.Put(ctx, "aB3xY9kQ", "https://example.com/b")
	assert.ErrorIs(t, err, domain.ErrStoreConflict)

	url, found, err := env.Store.Get(ctx, "aB3xY9kQ")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://example.com/a", url)
}

func TestPostgresStore_HealthCheck_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	assert.NoError(t, env.Store.HealthCheck(context.Background()))
}

func TestResolver_PopulatesRedis_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	require.NoError(t, env.Store.Put(ctx, "cachetst", "https://example.com/cached"))

	// Creation does not write the cache.
	err := env.RedisClient.Get(ctx, "short:cachetst").Err()
	assert.ErrorIs(t, err, goredis.Nil)

	out, err := env.Resolver.Resolve(ctx, "cachetst")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cached", out.DestinationURL)

	cached, err := env.RedisClient.Get(ctx, "short:cachetst").Result()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cached", cached)

	ttl, err := env.RedisClient.TTL(ctx, "short:cachetst").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
}

func TestResolver_ServesFromRedis_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	// An entry only in the cache is served without touching the store.
	require.NoError(t, env.Cache.Set(ctx, "onlyhere", "https://example.com/from-cache", time.Minute))

	out, err := env.Resolver.Resolve(ctx, "onlyhere")
	require.NoError(t, err)
	assert.Equal(t, domain.Found("https://example.com/from-cache"), out)
}

func TestResolver_NotFound_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	out, err := env.Resolver.Resolve(ctx, "missing1")
	require.NoError(t, err)
	assert.False(t, out.Found)

	err = env.RedisClient.Get(ctx, "short:missing1").Err()
	assert.ErrorIs(t, err, goredis.Nil)
}

func TestURLService_ConcurrentCreates_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	const n = 20
	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := env.Service.CreateShortURL(ctx, application.CreateURLRequest{URL: "https://example.com/same"})
			if assert.NoError(t, err) {
				codes <- resp.ShortCode
			}
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]struct{})
	for code := range codes {
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, n)

	var count int
	require.NoError(t, env.DB.Get(&count, "SELECT COUNT(*) FROM shortlinks"))
	assert.Equal(t, n, count)
}
