package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/linkie/internal/domain"
)

func TestNoOpCache_AlwaysMisses(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "aB3xY9kQ", "https://example.com", time.Hour))

	url, found, err := c.Get(ctx, "aB3xY9kQ")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, url)
	assert.NoError(t, c.Ping(ctx))
}

func TestLocalCache_SetAndGet(t *testing.T) {
	c, err := NewLocalCache(100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "aB3xY9kQ", "https://example.com/page", time.Hour))
	c.Wait()

	url, found, err := c.Get(ctx, "aB3xY9kQ")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://example.com/page", url)

	_, found, err = c.Get(ctx, "missing1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocalCache_Expiry(t *testing.T) {
	c, err := NewLocalCache(100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "aB3xY9kQ", "https://example.com", 50*time.Millisecond))
	c.Wait()

	assert.Eventually(t, func() bool {
		_, found, _ := c.Get(ctx, "aB3xY9kQ")
		return !found
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLocalCache_ClosedIsUnavailable(t *testing.T) {
	c, err := NewLocalCache(10)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	ctx := context.Background()
	_, _, err = c.Get(ctx, "aB3xY9kQ")
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
	assert.ErrorIs(t, c.Set(ctx, "aB3xY9kQ", "https://example.com", time.Hour), domain.ErrCacheUnavailable)
	assert.ErrorIs(t, c.Ping(ctx), domain.ErrCacheUnavailable)
}

func TestLocalCache_ConcurrentClose(t *testing.T) {
	c, err := NewLocalCache(10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotPanics(t, func() { _ = c.Close() })
		}()
	}
	wg.Wait()

	assert.ErrorIs(t, c.Ping(context.Background()), domain.ErrCacheUnavailable)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "short:aB3xY9kQ", Key("aB3xY9kQ"))
}
