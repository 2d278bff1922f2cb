package repositories_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/extraction-cache/configs"
	"github.com/avatarctic/extraction-cache/internal/core/domain/apperr"
	"github.com/avatarctic/extraction-cache/internal/core/domain/extraction"
	"github.com/avatarctic/extraction-cache/internal/core/ports"
	"github.com/avatarctic/extraction-cache/internal/infrastructure/db"
	"github.com/avatarctic/extraction-cache/internal/infrastructure/repositories"
)

func sqliteConfig(path string) configs.DatabaseConfig {
	return configs.DatabaseConfig{
		Driver:           configs.BackendSQLite,
		Path:             path,
		DSN:              configs.SQLiteDSN(path),
		OperationTimeout: 10 * time.Second,
	}
}

func newSQLiteRepo(t *testing.T) (ports.ExtractionCacheRepository, *db.Opener) {
	t.Helper()
	// nested dir exercises parent directory creation
	path := filepath.Join(t.TempDir(), "appdata", "legal-workbench", "cache.db")
	opener := db.NewOpener(sqliteConfig(path))
	repo := repositories.NewExtractionCacheRepository(opener, nil)
	require.NoError(t, repo.Init(context.Background()))
	return repo, opener
}

func rowsForKey(t *testing.T, opener *db.Opener, fingerprint string) int {
	t.Helper()
	d, err := opener.Open(context.Background())
	require.NoError(t, err)
	defer d.Close()
	var n int
	require.NoError(t, d.DB.Get(&n, `SELECT COUNT(*) FROM extraction_cache WHERE fingerprint = ?`, fingerprint))
	return n
}

func TestExtractionCacheRepository_MissThenHit(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	fp := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	payload, found, err := repo.Lookup(ctx, fp)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, payload)

	require.NoError(t, repo.Save(ctx, &extraction.CacheEntry{
		Fingerprint:       fp,
		SourcePath:        "/processos/0001/empty.pdf",
		ResponsePayload:   "{}",
		BackendIdentifier: "test-backend",
	}))

	payload, found, err = repo.Lookup(ctx, fp)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "{}", payload)
}

func TestExtractionCacheRepository_PayloadRoundTripsExactly(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	payload := "{\"texto\":\"Excelentíssimo Senhor Doutor Juiz\\n\",\"páginas\":3}\t "

	require.NoError(t, repo.Save(ctx, &extraction.CacheEntry{Fingerprint: "utf8", SourcePath: "a.pdf", ResponsePayload: payload, BackendIdentifier: "b"}))
	got, found, err := repo.Lookup(ctx, "utf8")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, payload, got)
}

func TestExtractionCacheRepository_LastWriterWins(t *testing.T) {
	repo, opener := newSQLiteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &extraction.CacheEntry{Fingerprint: "abc123", SourcePath: "/old/a.pdf", ResponsePayload: "v1", BackendIdentifier: "marker-v1"}))
	require.NoError(t, repo.Save(ctx, &extraction.CacheEntry{Fingerprint: "abc123", SourcePath: "/new/a.pdf", ResponsePayload: "v2", BackendIdentifier: "marker-v2"}))

	payload, found, err := repo.Lookup(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v2", payload)
	assert.Equal(t, 1, rowsForKey(t, opener, "abc123"))

	entry, found, err := repo.Get(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "/new/a.pdf", entry.SourcePath)
	assert.Equal(t, "marker-v2", entry.BackendIdentifier)
	assert.InDelta(t, time.Now().Unix(), entry.CachedAt, 5)
}

func TestExtractionCacheRepository_InitIsIdempotent(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &extraction.CacheEntry{Fingerprint: "keep", SourcePath: "p", ResponsePayload: "kept", BackendIdentifier: "b"}))
	require.NoError(t, repo.Init(ctx))
	require.NoError(t, repo.Init(ctx))

	payload, found, err := repo.Lookup(ctx, "keep")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "kept", payload)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExtractionCacheRepository_GetMiss(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	entry, found, err := repo.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, entry)
}

func TestExtractionCacheRepository_InitDirectoryFailureIsIoError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	repo := repositories.NewExtractionCacheRepository(db.NewOpener(sqliteConfig(filepath.Join(blocker, "sub", "cache.db"))), nil)
	err := repo.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindIoError, apperr.KindOf(err))
}

func TestExtractionCacheRepository_LookupBeforeInitIsDatabaseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	repo := repositories.NewExtractionCacheRepository(db.NewOpener(sqliteConfig(path)), nil)

	_, _, err := repo.Lookup(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, apperr.KindDatabaseError, apperr.KindOf(err))
}

func TestExtractionCacheRepository_ConcurrentSavesDistinctKeys(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Save(ctx, &extraction.CacheEntry{
				Fingerprint:       fmt.Sprintf("fp-%02d", i),
				SourcePath:        fmt.Sprintf("/proc/%02d.pdf", i),
				ResponsePayload:   fmt.Sprintf("payload-%02d", i),
				BackendIdentifier: "b",
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, count)
	for i := 0; i < 16; i++ {
		payload, found, err := repo.Lookup(ctx, fmt.Sprintf("fp-%02d", i))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, fmt.Sprintf("payload-%02d", i), payload)
	}
}

func TestExtractionCacheRepository_ConcurrentSavesSameKeyLeaveOneCoherentRow(t *testing.T) {
	repo, opener := newSQLiteRepo(t)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Save(ctx, &extraction.CacheEntry{
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

	assert.Equal(t, 1, rowsForKey(t, opener, "abc123"))

	entry, found, err := repo.Get(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, found)
	var i int
	_, err = fmt.Sscanf(entry.ResponsePayload, "v_%d", &i)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("p_%d", i), entry.SourcePath)
	assert.Equal(t, fmt.Sprintf("b_%d", i), entry.BackendIdentifier)
}
