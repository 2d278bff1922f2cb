package health

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/extraction-cache/internal/core/ports"
	infraDB "github.com/avatarctic/extraction-cache/internal/infrastructure/db"
)

// sqlHealthChecker opens a fresh handle the same way cache operations do, so
// a passing check means the next operation can reach the store.
type sqlHealthChecker struct{ opener *infraDB.Opener }

func (d *sqlHealthChecker) Name() string { return d.opener.Driver() }

func (d *sqlHealthChecker) Check(ctx context.Context) error {
	database, err := d.opener.Open(ctx)
	if err != nil {
		return err
	}
	return database.Close()
}

type redisHealthChecker struct{ client redis.Cmdable }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// NewSQLChecker creates a health checker for the SQLite or Postgres store.
func NewSQLChecker(opener *infraDB.Opener) ports.HealthChecker { return &sqlHealthChecker{opener: opener} }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.Cmdable) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}
