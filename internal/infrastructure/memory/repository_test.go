package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/linkie/internal/domain"
)

func TestMappingStore_PutAndGet(t *testing.T) {
	store := NewMappingStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "aB3xY9kQ", "https://example.com/page"))

	url, found, err := store.Get(ctx, "aB3xY9kQ")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://example.com/page", url)
}

func TestMappingStore_Conflict(t *testing.T) {
	store := NewMappingStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "aB3xY9kQ", "https://example.com/a"))

	err := store.Put(ctx, "aB3xY9kQ", "https://example.com/b")
	assert.ErrorIs(t, err, domain.ErrStoreConflict)

	// The original mapping is never overwritten.
	url, _, err := store.Get(ctx, "aB3xY9kQ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", url)
}

func TestMappingStore_Absent(t *testing.T) {
	store := NewMappingStore()

	url, found, err := store.Get(context.Background(), "missing1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, url)
}

func TestMappingStore_CancelledContext(t *testing.T) {
	store := NewMappingStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := store.Get(ctx, "aB3xY9kQ")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Put(ctx, "aB3xY9kQ", "https://example.com"), domain.ErrStoreUnavailable)
}

func TestMappingStore_ConcurrentPutSameCode(t *testing.T) {
	store := NewMappingStore()
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if store.Put(ctx, "samecode", fmt.Sprintf("https://example.com/%d", i)) == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, store.size())
}
