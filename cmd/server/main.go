package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	config "github.com/avatarctic/extraction-cache/configs"
	"github.com/avatarctic/extraction-cache/internal/application/services"
	"github.com/avatarctic/extraction-cache/internal/core/ports"
	"github.com/avatarctic/extraction-cache/internal/infrastructure/db"
	"github.com/avatarctic/extraction-cache/internal/infrastructure/hashing"
	"github.com/avatarctic/extraction-cache/internal/infrastructure/health"
	"github.com/avatarctic/extraction-cache/internal/infrastructure/httpserver"
	"github.com/avatarctic/extraction-cache/internal/infrastructure/metrics"
	cacheredis "github.com/avatarctic/extraction-cache/internal/infrastructure/redis"
	"github.com/avatarctic/extraction-cache/internal/infrastructure/repositories"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := newLogger(cfg.Log)
	logger.WithField("backend", cfg.Cache.Backend).Info("Starting extraction cache...")

	var (
		repo     ports.ExtractionCacheRepository
		checkers []ports.HealthChecker
		cleanup  = func() {}
	)
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		client, err := cacheredis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		cleanup = func() { _ = client.Close() }
		repo = cacheredis.NewExtractionStore(client, cfg.Redis.KeyPrefix, logger)
		checkers = append(checkers, health.NewRedisHealthChecker(client))
	default:
		// SQL backends hold no handle; each operation opens its own.
		opener := db.NewOpener(cfg.Database)
		repo = repositories.NewExtractionCacheRepository(opener, logger)
		checkers = append(checkers, health.NewSQLChecker(opener))
	}
	defer cleanup()

	cacheService := services.NewExtractionCacheService(
		hashing.NewSHA256Hasher(cfg.Fingerprint.ChunkSize, logger),
		repo,
		metrics.NewCacheMetrics(prometheus.DefaultRegisterer),
		&services.ExtractionCacheConfig{FingerprintConcurrency: cfg.Fingerprint.Concurrency},
		logger,
	)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	err = cacheService.Initialize(initCtx)
	cancelInit()
	if err != nil {
		logger.Fatal("Failed to initialize cache storage:", err)
	}
	logger.Info("Cache storage initialized")

	server := httpserver.NewServer(&httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, cfg.Auth.Secret, logger, httpserver.ServerDeps{
		CacheService:   cacheService,
		HealthCheckers: checkers,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}
