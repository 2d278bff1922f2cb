package redis_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/extraction-cache/internal/core/domain/apperr"
	"github.com/avatarctic/extraction-cache/internal/core/domain/extraction"
	"github.com/avatarctic/extraction-cache/internal/core/ports"
	"github.com/avatarctic/extraction-cache/internal/infrastructure/redis"
)

func newMiniredisStore(t *testing.T) (ports.ExtractionCacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redis.NewExtractionStore(client, "lw", nil)
	require.NoError(t, store.Init(context.Background()))
	return store, mr
}

func TestExtractionStore_MissThenLastWriterWins(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	_, found, err := store.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, &extraction.CacheEntry{Fingerprint: "abc123", SourcePath: "/a.pdf", ResponsePayload: "v1", BackendIdentifier: "b1"}))
	require.NoError(t, store.Save(ctx, &extraction.CacheEntry{Fingerprint: "abc123", SourcePath: "/b.pdf", ResponsePayload: "v2", BackendIdentifier: "b2"}))

	payload, found, err := store.Lookup(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v2", payload)

	entry, found, err := store.Get(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "/b.pdf", entry.SourcePath)
	assert.Equal(t, "b2", entry.BackendIdentifier)
	assert.NotZero(t, entry.CachedAt)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExtractionStore_EmptyPayloadIsAHit(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &extraction.CacheEntry{Fingerprint: "abc123", ResponsePayload: ""}))

	payload, found, err := store.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, payload)
}

func TestExtractionStore_IndexFingerprintDoesNotCollide(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &extraction.CacheEntry{Fingerprint: "abc123", ResponsePayload: "a"}))
	require.NoError(t, store.Save(ctx, &extraction.CacheEntry{Fingerprint: "index", ResponsePayload: "x"}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for fp, want := range map[string]string{"abc123": "a", "index": "x"} {
		payload, found, err := store.Lookup(ctx, fp)
		require.NoError(t, err)
		require.True(t, found, fp)
		assert.Equal(t, want, payload)
	}

	assert.Equal(t, "set", mr.Type("lw:extraction:index"))
	assert.Equal(t, "hash", mr.Type("lw:extraction:entry:index"))
}

func TestExtractionStore_ConcurrentSavesSameKey(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Save(ctx, &extraction.CacheEntry{
				Fingerprint:       "abc123",
				SourcePath:        fmt.Sprintf("p_%d", i),
				ResponsePayload:   fmt.Sprintf("v_%d", i),
				BackendIdentifier: fmt.Sprintf("b_%d", i),
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entry, found, err := store.Get(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, found)
	var i int
	_, err = fmt.Sscanf(entry.ResponsePayload, "v_%d", &i)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("p_%d", i), entry.SourcePath)
	assert.Equal(t, fmt.Sprintf("b_%d", i), entry.BackendIdentifier)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExtractionStore_UnreachableServerIsDatabaseError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := redis.NewExtractionStore(client, "lw", nil)
	mr.Close()

	_, _, err := store.Lookup(context.Background(), "abc123")
	require.Error(t, err)
	assert.Equal(t, apperr.KindDatabaseError, apperr.KindOf(err))

	err = store.Init(context.Background())
	assert.Equal(t, apperr.KindDatabaseError, apperr.KindOf(err))
}
