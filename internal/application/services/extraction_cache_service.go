package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/avatarctic/extraction-cache/internal/core/domain/extraction"
	"github.com/avatarctic/extraction-cache/internal/core/ports"
)

type ExtractionCacheConfig struct {
	// FingerprintConcurrency bounds parallel hashing in FingerprintMany.
	FingerprintConcurrency int
}

// ExtractionCacheService composes the hasher and the cache store. It keeps
// no copy of cached entries; every lookup and save goes to the store.
type ExtractionCacheService struct {
	hasher   ports.Hasher
	repo     ports.ExtractionCacheRepository
	observer ports.CacheObserver
	config   ExtractionCacheConfig
	logger   *logrus.Logger
}

func NewExtractionCacheService(hasher ports.Hasher, repo ports.ExtractionCacheRepository, observer ports.CacheObserver, config *ExtractionCacheConfig, logger *logrus.Logger) ports.ExtractionCacheService {
	cfg := ExtractionCacheConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.FingerprintConcurrency <= 0 {
		cfg.FingerprintConcurrency = 4
	}
	return &ExtractionCacheService{
		hasher:   hasher,
		repo:     repo,
		observer: observer,
		config:   cfg,
		logger:   logger,
	}
}

func (s *ExtractionCacheService) track(op string, start time.Time, err error) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveDuration(op, time.Since(start))
	if err != nil {
		s.observer.ObserveError(op)
	}
}

func (s *ExtractionCacheService) Initialize(ctx context.Context) (err error) {
	defer func(start time.Time) { s.track("init", start, err) }(time.Now())

	if err = s.repo.Init(ctx); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to initialize extraction cache")
		}
		return err
	}
	return nil
}

func (s *ExtractionCacheService) Fingerprint(ctx context.Context, path string) (fp string, err error) {
	defer func(start time.Time) { s.track("fingerprint", start, err) }(time.Now())

	fp, err = s.hasher.Fingerprint(ctx, path)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"path": path}).WithError(err).Warn("failed to fingerprint file")
		}
		return "", err
	}
	return fp, nil
}

// FingerprintMany hashes paths concurrently and returns digests in input
// order. The first failure cancels the rest and is returned alone.
func (s *ExtractionCacheService) FingerprintMany(ctx context.Context, paths []string) ([]string, error) {
	out := make([]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.FingerprintConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			fp, err := s.Fingerprint(gctx, path)
			if err != nil {
				return err
			}
			out[i] = fp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ExtractionCacheService) GetCached(ctx context.Context, fingerprint string) (payload string, found bool, err error) {
	defer func(start time.Time) { s.track("lookup", start, err) }(time.Now())

	payload, found, err = s.repo.Lookup(ctx, fingerprint)
	if err != nil {
		return "", false, err
	}
	if s.observer != nil {
		s.observer.ObserveLookup(found)
	}
	return payload, found, nil
}

func (s *ExtractionCacheService) GetEntry(ctx context.Context, fingerprint string) (entry *extraction.CacheEntry, found bool, err error) {
	defer func(start time.Time) { s.track("get_entry", start, err) }(time.Now())
	return s.repo.Get(ctx, fingerprint)
}

func (s *ExtractionCacheService) SaveCached(ctx context.Context, req *extraction.SaveRequest) (err error) {
	defer func(start time.Time) { s.track("save", start, err) }(time.Now())

	entry := &extraction.CacheEntry{
		Fingerprint:       req.Fingerprint,
		SourcePath:        req.SourcePath,
		ResponsePayload:   req.ResponsePayload,
		BackendIdentifier: req.BackendIdentifier,
	}
	if err = s.repo.Save(ctx, entry); err != nil {
		return err
	}
	if s.observer != nil {
		s.observer.ObserveSave()
	}
	return nil
}

// LookupFile fingerprints path and checks the store. On a miss the caller
// runs the extraction backend and then calls SaveCached with the returned
// fingerprint.
func (s *ExtractionCacheService) LookupFile(ctx context.Context, path string) (*extraction.LookupResult, error) {
	fp, err := s.Fingerprint(ctx, path)
	if err != nil {
		return nil, err
	}
	payload, found, err := s.GetCached(ctx, fp)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"path": path, "fingerprint": fp, "hit": found}).Debug("cache lookup for file")
	}
	return &extraction.LookupResult{Fingerprint: fp, Hit: found, Payload: payload}, nil
}

func (s *ExtractionCacheService) EntryCount(ctx context.Context) (n int, err error) {
	defer func(start time.Time) { s.track("count", start, err) }(time.Now())
	return s.repo.Count(ctx)
}

func (s *ExtractionCacheService) Stats() *extraction.Stats {
	if s.observer == nil {
		return &extraction.Stats{Latencies: map[string]extraction.LatencySummary{}}
	}
	return s.observer.Stats()
}
