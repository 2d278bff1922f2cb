// Package mocks holds function-field fakes of the core ports for tests.
package mocks

import (
	"context"
	"errors"

	"github.com/avatarctic/extraction-cache/internal/core/domain/extraction"
	"github.com/avatarctic/extraction-cache/internal/core/ports"
)

var errNotConfigured = errors.New("mock: not configured")

// ExtractionCacheServiceMock implements ports.ExtractionCacheService.
type ExtractionCacheServiceMock struct {
	InitializeFn      func(ctx context.Context) error
	FingerprintFn     func(ctx context.Context, path string) (string, error)
	FingerprintManyFn func(ctx context.Context, paths []string) ([]string, error)
	GetCachedFn       func(ctx context.Context, fingerprint string) (string, bool, error)
	GetEntryFn        func(ctx context.Context, fingerprint string) (*extraction.CacheEntry, bool, error)
	SaveCachedFn      func(ctx context.Context, req *extraction.SaveRequest) error
	LookupFileFn      func(ctx context.Context, path string) (*extraction.LookupResult, error)
	EntryCountFn      func(ctx context.Context) (int, error)
	StatsFn           func() *extraction.Stats
}

var _ ports.ExtractionCacheService = (*ExtractionCacheServiceMock)(nil)

func (m *ExtractionCacheServiceMock) Initialize(ctx context.Context) error {
	if m.InitializeFn != nil {
		return m.InitializeFn(ctx)
	}
	return nil
}

func (m *ExtractionCacheServiceMock) Fingerprint(ctx context.Context, path string) (string, error) {
	if m.FingerprintFn != nil {
		return m.FingerprintFn(ctx, path)
	}
	return "", errNotConfigured
}

func (m *ExtractionCacheServiceMock) FingerprintMany(ctx context.Context, paths []string) ([]string, error) {
	if m.FingerprintManyFn != nil {
		return m.FingerprintManyFn(ctx, paths)
	}
	return nil, errNotConfigured
}

func (m *ExtractionCacheServiceMock) GetCached(ctx context.Context, fingerprint string) (string, bool, error) {
	if m.GetCachedFn != nil {
		return m.GetCachedFn(ctx, fingerprint)
	}
	return "", false, nil
}

func (m *ExtractionCacheServiceMock) GetEntry(ctx context.Context, fingerprint string) (*extraction.CacheEntry, bool, error) {
	if m.GetEntryFn != nil {
		return m.GetEntryFn(ctx, fingerprint)
	}
	return nil, false, nil
}

func (m *ExtractionCacheServiceMock) SaveCached(ctx context.Context, req *extraction.SaveRequest) error {
	if m.SaveCachedFn != nil {
		return m.SaveCachedFn(ctx, req)
	}
	return nil
}

func (m *ExtractionCacheServiceMock) LookupFile(ctx context.Context, path string) (*extraction.LookupResult, error) {
	if m.LookupFileFn != nil {
		return m.LookupFileFn(ctx, path)
	}
	return nil, errNotConfigured
}

func (m *ExtractionCacheServiceMock) EntryCount(ctx context.Context) (int, error) {
	if m.EntryCountFn != nil {
		return m.EntryCountFn(ctx)
	}
	return 0, nil
}

func (m *ExtractionCacheServiceMock) Stats() *extraction.Stats {
	if m.StatsFn != nil {
		return m.StatsFn()
	}
	return &extraction.Stats{}
}

// HealthCheckerMock implements ports.HealthChecker.
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

var _ ports.HealthChecker = (*HealthCheckerMock)(nil)

func (m *HealthCheckerMock) Name() string { return m.NameValue }

func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}
