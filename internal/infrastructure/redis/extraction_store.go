package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/extraction-cache/internal/core/domain/apperr"
	"github.com/avatarctic/extraction-cache/internal/core/domain/extraction"
	"github.com/avatarctic/extraction-cache/internal/core/ports"
)

const (
	fieldSourcePath = "source_path"
	fieldPayload    = "response_payload"
	fieldBackend    = "backend_identifier"
	fieldCachedAt   = "cached_at"
)

// ExtractionStore keeps one hash per fingerprint under
// <prefix>:extraction:entry:<fp> plus the set <prefix>:extraction:index of
// stored fingerprints. Entries never expire.
type ExtractionStore struct {
	r      redis.Cmdable
	prefix string
	logger *logrus.Logger
	now    func() time.Time
}

// NewExtractionStore creates a Redis-backed extraction cache store.
func NewExtractionStore(r redis.Cmdable, prefix string, logger *logrus.Logger) ports.ExtractionCacheRepository {
	return &ExtractionStore{r: r, prefix: prefix, logger: logger, now: time.Now}
}

func (s *ExtractionStore) namespaced(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Entries and the index live under separate segments so that no
// fingerprint, including "index", can collide with the index key.
func (s *ExtractionStore) entryKey(fingerprint string) string {
	return s.namespaced("extraction:entry:" + fingerprint)
}

func (s *ExtractionStore) indexKey() string {
	return s.namespaced("extraction:index")
}

// Init verifies the server is reachable; Redis needs no schema.
func (s *ExtractionStore) Init(ctx context.Context) error {
	if err := s.r.Ping(ctx).Err(); err != nil {
		return apperr.Database("initialize cache", err)
	}
	return nil
}

func (s *ExtractionStore) Lookup(ctx context.Context, fingerprint string) (string, bool, error) {
	payload, err := s.r.HGet(ctx, s.entryKey(fingerprint), fieldPayload).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.Database("lookup cached result", err)
	}
	return payload, true, nil
}

func (s *ExtractionStore) Get(ctx context.Context, fingerprint string) (*extraction.CacheEntry, bool, error) {
	fields, err := s.r.HGetAll(ctx, s.entryKey(fingerprint)).Result()
	if err != nil {
		return nil, false, apperr.Database("get cache entry", err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}
	cachedAt, err := strconv.ParseInt(fields[fieldCachedAt], 10, 64)
	if err != nil {
		return nil, false, apperr.Database("get cache entry", err)
	}
	return &extraction.CacheEntry{
		Fingerprint:       fingerprint,
		SourcePath:        fields[fieldSourcePath],
		ResponsePayload:   fields[fieldPayload],
		BackendIdentifier: fields[fieldBackend],
		CachedAt:          cachedAt,
	}, true, nil
}

// Save replaces the whole hash inside MULTI/EXEC so readers never observe a
// mix of old and new fields.
func (s *ExtractionStore) Save(ctx context.Context, entry *extraction.CacheEntry) error {
	entry.CachedAt = s.now().Unix()
	key := s.entryKey(entry.Fingerprint)

	_, err := s.r.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]interface{}{
			fieldSourcePath: entry.SourcePath,
			fieldPayload:    entry.ResponsePayload,
			fieldBackend:    entry.BackendIdentifier,
			fieldCachedAt:   entry.CachedAt,
		})
		pipe.SAdd(ctx, s.indexKey(), entry.Fingerprint)
		return nil
	})
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"fingerprint": entry.Fingerprint}).WithError(err).Error("redis: failed to save cache entry")
		}
		return apperr.Database("save cached result", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"fingerprint": entry.Fingerprint, "path": entry.SourcePath, "backend": entry.BackendIdentifier}).Info("redis: cache entry saved")
	}
	return nil
}

func (s *ExtractionStore) Count(ctx context.Context) (int, error) {
	n, err := s.r.SCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, apperr.Database("count cache entries", err)
	}
	return int(n), nil
}
