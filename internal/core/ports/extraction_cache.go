package ports

import (
	"context"
	"time"

	"github.com/avatarctic/extraction-cache/internal/core/domain/extraction"
)

// Hasher computes content fingerprints for files on disk.
type Hasher interface {
	// Fingerprint returns the lowercase hex digest of the file's full content.
	Fingerprint(ctx context.Context, path string) (string, error)
}

// ExtractionCacheRepository defines the durable store of extraction results.
// A miss is reported through found=false, never as an error.
type ExtractionCacheRepository interface {
	// Init prepares the backing storage. Safe to call on every startup.
	Init(ctx context.Context) error
	Lookup(ctx context.Context, fingerprint string) (payload string, found bool, err error)
	Get(ctx context.Context, fingerprint string) (*extraction.CacheEntry, bool, error)
	// Save inserts or fully replaces the entry for entry.Fingerprint.
	// CachedAt is set by the repository.
	Save(ctx context.Context, entry *extraction.CacheEntry) error
	Count(ctx context.Context) (int, error)
}

// ExtractionCacheService defines the cache operations exposed to callers.
type ExtractionCacheService interface {
	Initialize(ctx context.Context) error
	Fingerprint(ctx context.Context, path string) (string, error)
	FingerprintMany(ctx context.Context, paths []string) ([]string, error)
	GetCached(ctx context.Context, fingerprint string) (string, bool, error)
	GetEntry(ctx context.Context, fingerprint string) (*extraction.CacheEntry, bool, error)
	SaveCached(ctx context.Context, req *extraction.SaveRequest) error
	LookupFile(ctx context.Context, path string) (*extraction.LookupResult, error)
	EntryCount(ctx context.Context) (int, error)
	Stats() *extraction.Stats
}

// CacheObserver receives cache activity for metrics. Implementations must be
// safe for concurrent use.
type CacheObserver interface {
	ObserveLookup(hit bool)
	ObserveSave()
	ObserveError(op string)
	ObserveDuration(op string, d time.Duration)
	Stats() *extraction.Stats
}
