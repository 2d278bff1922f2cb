package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/avatarctic/extraction-cache/configs"
)

//go:embed migrations
var migrationsFS embed.FS

type Database struct {
	DB     *sqlx.DB
	driver string
}

// Opener opens a fresh Database per operation. No handle is kept between
// calls, so nothing outlives the operation that acquired it.
type Opener struct {
	cfg configs.DatabaseConfig
}

func NewOpener(cfg configs.DatabaseConfig) *Opener {
	return &Opener{cfg: cfg}
}

// Path returns the database file path, empty for server databases.
func (o *Opener) Path() string {
	return o.cfg.Path
}

func (o *Opener) Driver() string {
	return o.cfg.Driver
}

// OperationTimeout bounds a single open-run-close cycle.
func (o *Opener) OperationTimeout() time.Duration {
	return o.cfg.OperationTimeout
}

// Open opens and pings a database using the opener's config.
func (o *Opener) Open(ctx context.Context) (*Database, error) {
	return NewDatabaseWithConfig(ctx, &o.cfg)
}

// NewDatabaseWithConfig opens a DB for cfg.Driver and verifies it with a ping.
func NewDatabaseWithConfig(ctx context.Context, cfg *configs.DatabaseConfig) (*Database, error) {
	driverName := cfg.Driver
	if driverName == "" {
		driverName = configs.BackendPostgres
	}

	dbx, err := sqlx.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driverName == configs.BackendSQLite {
		// One writer per file; a single connection keeps pragmas on the handle we use.
		dbx.SetMaxOpenConns(1)
	}

	// Use PingContext with timeout to avoid hanging
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbx.PingContext(pingCtx); err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: dbx, driver: driverName}, nil
}

func (d *Database) Driver() string {
	return d.driver
}

func (d *Database) Close() error {
	return d.DB.Close()
}

// Migrate applies the embedded schema for the database's driver. Running it
// against an up-to-date schema is a no-op. The migrate instance owns the
// handle afterwards and closes it.
func (d *Database) Migrate() error {
	var (
		driver database.Driver
		err    error
	)
	switch d.driver {
	case configs.BackendSQLite:
		driver, err = sqlite.WithInstance(d.DB.DB, &sqlite.Config{})
	case configs.BackendPostgres:
		driver, err = postgres.WithInstance(d.DB.DB, &postgres.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", d.driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+d.driver)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to create migrate source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, d.driver, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
