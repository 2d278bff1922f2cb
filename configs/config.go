package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Server      ServerConfig
	Cache       CacheConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Log         LogConfig
	Fingerprint FingerprintConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type CacheConfig struct {
	Backend string
	DataDir string
	DBFile  string
}

// DBPath returns the SQLite database path inside the data directory.
func (c CacheConfig) DBPath() string {
	return filepath.Join(c.DataDir, c.DBFile)
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Path is set for sqlite; parent directories are created on init.
	Path             string
	OperationTimeout time.Duration
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	KeyPrefix    string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type AuthConfig struct {
	// Secret enables bearer JWT auth on the API when non-empty.
	Secret string
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type FingerprintConfig struct {
	ChunkSize   int
	Concurrency int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "127.0.0.1"),
			Port:         getEnv("SERVER_PORT", "8765"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 5*time.Minute),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", BackendSQLite),
			DataDir: getEnv("CACHE_DATA_DIR", defaultDataDir()),
			DBFile:  getEnv("CACHE_DB_FILE", "cache.db"),
		},
		Database: DatabaseConfig{
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             getEnv("DB_PORT", "5432"),
			User:             getEnv("DB_USER", "postgres"),
			Password:         getEnv("DB_PASSWORD", "postgres"),
			DBName:           getEnv("DB_NAME", "extraction_cache"),
			SSLMode:          getEnv("DB_SSL_MODE", "disable"),
			OperationTimeout: getDurationEnv("DB_OPERATION_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "lwcache"),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Auth: AuthConfig{
			Secret: getEnv("AUTH_SECRET", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Fingerprint: FingerprintConfig{
			ChunkSize:   getIntEnv("FINGERPRINT_CHUNK_SIZE", 8192),
			Concurrency: getIntEnv("FINGERPRINT_CONCURRENCY", 4),
		},
	}

	switch cfg.Cache.Backend {
	case BackendSQLite:
		cfg.Database.Driver = BackendSQLite
		cfg.Database.Path = cfg.Cache.DBPath()
		cfg.Database.DSN = SQLiteDSN(cfg.Database.Path)
	case BackendPostgres:
		cfg.Database.Driver = BackendPostgres
		cfg.Database.DSN = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.DBName,
			cfg.Database.SSLMode,
		)
	case BackendRedis:
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q (want %s, %s or %s)", cfg.Cache.Backend, BackendSQLite, BackendPostgres, BackendRedis)
	}

	return cfg, nil
}

// SQLiteDSN builds a modernc.org/sqlite DSN with a busy timeout so concurrent
// writers wait on the file lock instead of failing immediately.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", filepath.ToSlash(path))
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "legal-workbench")
	}
	return ".legal-workbench"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
