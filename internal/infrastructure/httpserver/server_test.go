package httpserver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/extraction-cache/internal/core/ports"
	cachehttp "github.com/avatarctic/extraction-cache/internal/infrastructure/httpserver"
	"github.com/avatarctic/extraction-cache/test/mocks"
)

func signedToken(t *testing.T, secret string, method jwt.SigningMethod) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, jwt.RegisteredClaims{Subject: "desktop-shell"}).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestAPI_RequiresTokenWhenSecretSet(t *testing.T) {
	srv := newTestServer(t, &mocks.ExtractionCacheServiceMock{}, "s3cret")

	rec := do(t, srv, http.MethodGet, "/api/v1/cache/stats", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "wrong", jwt.SigningMethodHS256))
	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "s3cret", jwt.SigningMethodHS256))
	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth_IsOpenWithoutToken(t *testing.T) {
	srv := newTestServer(t, &mocks.ExtractionCacheServiceMock{}, "s3cret")
	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth_DegradedWhenStorageFails(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	srv := cachehttp.NewServer(&cachehttp.ServerConfig{Host: "127.0.0.1", Port: "0"}, "", logger, cachehttp.ServerDeps{
		CacheService: &mocks.ExtractionCacheServiceMock{},
		HealthCheckers: []ports.HealthChecker{
			&mocks.HealthCheckerMock{NameValue: "sqlite"},
			&mocks.HealthCheckerMock{NameValue: "redis", CheckFn: func(ctx context.Context) error { return errors.New("connection refused") }},
		},
	})

	rec := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "degraded", out["status"])
	deps := out["dependencies"].(map[string]interface{})
	assert.Equal(t, "healthy", deps["sqlite"].(map[string]interface{})["status"])
	assert.Equal(t, "unhealthy", deps["redis"].(map[string]interface{})["status"])
}

func TestRequestID_IsSet(t *testing.T) {
	rec := do(t, newTestServer(t, &mocks.ExtractionCacheServiceMock{}, ""), http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &mocks.ExtractionCacheServiceMock{}, "")
	_ = do(t, srv, http.MethodGet, "/api/v1/cache/stats", "")

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "extraction_cache_http_requests_total")
}
