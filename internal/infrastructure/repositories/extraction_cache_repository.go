package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/extraction-cache/internal/core/domain/apperr"
	"github.com/avatarctic/extraction-cache/internal/core/domain/extraction"
	"github.com/avatarctic/extraction-cache/internal/core/ports"
	"github.com/avatarctic/extraction-cache/internal/infrastructure/db"
)

// ExtractionCacheRepository implements the extraction cache store on SQL.
// Each call opens its own database handle and closes it before returning.
type ExtractionCacheRepository struct {
	opener *db.Opener
	logger *logrus.Logger
	now    func() time.Time
}

// NewExtractionCacheRepository creates a new SQL-backed extraction cache repository
func NewExtractionCacheRepository(opener *db.Opener, logger *logrus.Logger) ports.ExtractionCacheRepository {
	return &ExtractionCacheRepository{
		opener: opener,
		logger: logger,
		now:    time.Now,
	}
}

func (r *ExtractionCacheRepository) withDB(ctx context.Context, op string, fn func(ctx context.Context, d *db.Database) error) error {
	if timeout := r.opener.OperationTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	database, err := r.opener.Open(ctx)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"op": op, "driver": r.opener.Driver()}).WithError(err).Error("db: failed to open cache database")
		}
		return apperr.Database(op, err)
	}
	defer database.Close()

	if err := fn(ctx, database); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"op": op}).WithError(err).Error("db: cache operation failed")
		}
		return apperr.Database(op, err)
	}
	return nil
}

// Init creates the containing directory and the extraction_cache table if
// missing. Existing rows are never touched.
func (r *ExtractionCacheRepository) Init(ctx context.Context) error {
	if path := r.opener.Path(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return apperr.IO("create cache directory", err)
		}
		unlock, err := db.AcquireFileLock(ctx, path)
		if err != nil {
			return apperr.IO("lock cache database", err)
		}
		defer func() { _ = unlock() }()
	}

	err := r.withDB(ctx, "initialize cache", func(_ context.Context, d *db.Database) error {
		return d.Migrate()
	})
	if err != nil {
		return err
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"driver": r.opener.Driver(), "path": r.opener.Path()}).Info("db: extraction cache initialized")
	}
	return nil
}

// Lookup returns the stored payload for fingerprint. found is false on a miss.
func (r *ExtractionCacheRepository) Lookup(ctx context.Context, fingerprint string) (string, bool, error) {
	var (
		payload string
		found   bool
	)
	query := `SELECT response_payload FROM extraction_cache WHERE fingerprint = ?`

	err := r.withDB(ctx, "lookup cached result", func(ctx context.Context, d *db.Database) error {
		err := d.DB.GetContext(ctx, &payload, d.DB.Rebind(query), fingerprint)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"fingerprint": fingerprint, "found": found}).Debug("db: cache lookup")
	}
	return payload, found, nil
}

// Get returns the full entry including provenance.
func (r *ExtractionCacheRepository) Get(ctx context.Context, fingerprint string) (*extraction.CacheEntry, bool, error) {
	var entry extraction.CacheEntry
	found := false
	query := `
		SELECT fingerprint, source_path, response_payload, backend_identifier, cached_at
		FROM extraction_cache
		WHERE fingerprint = ?`

	err := r.withDB(ctx, "get cache entry", func(ctx context.Context, d *db.Database) error {
		err := d.DB.GetContext(ctx, &entry, d.DB.Rebind(query), fingerprint)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	return &entry, true, nil
}

// Save inserts the entry or replaces every column of the existing row.
func (r *ExtractionCacheRepository) Save(ctx context.Context, entry *extraction.CacheEntry) error {
	entry.CachedAt = r.now().Unix()
	query := `
		INSERT INTO extraction_cache (fingerprint, source_path, response_payload, backend_identifier, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET
			source_path = excluded.source_path,
			response_payload = excluded.response_payload,
			backend_identifier = excluded.backend_identifier,
			cached_at = excluded.cached_at`

	err := r.withDB(ctx, "save cached result", func(ctx context.Context, d *db.Database) error {
		_, err := d.DB.ExecContext(ctx, d.DB.Rebind(query),
			entry.Fingerprint, entry.SourcePath, entry.ResponsePayload, entry.BackendIdentifier, entry.CachedAt)
		return err
	})
	if err != nil {
		return err
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"fingerprint": entry.Fingerprint, "path": entry.SourcePath, "backend": entry.BackendIdentifier}).Info("db: cache entry saved")
	}
	return nil
}

// Count returns the number of cached entries.
func (r *ExtractionCacheRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM extraction_cache`

	err := r.withDB(ctx, "count cache entries", func(ctx context.Context, d *db.Database) error {
		return d.DB.GetContext(ctx, &count, query)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
