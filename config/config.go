// Package config loads connector settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultBatchSize   = 500
	MaxBatchSize       = 10000
	DefaultMaxFileSize = 512 << 20 // 512 MB
	DefaultWorkerCount = 4
	DefaultMaxConns    = 10
)

// Config holds the settings for one connector process.
type Config struct {
	// Connection
	DatabaseURL string
	Driver      string // "postgres" or "pgx"
	MaxConns    int

	// Import
	BatchSize   int
	MaxFileSize int64
	WorkerCount int
	StagingDir  string
	RejectDir   string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Driver:      strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		MaxConns:    getEnvInt("DB_MAX_CONNS", DefaultMaxConns),
		BatchSize:   getEnvInt("BATCH_SIZE", DefaultBatchSize),
		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", DefaultMaxFileSize),
		WorkerCount: getEnvInt("WORKER_COUNT", DefaultWorkerCount),
		StagingDir:  getEnv("STAGING_DIR", os.TempDir()),
		RejectDir:   getEnv("REJECT_DIR", ""),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			getEnv("DB_NAME", "lmsconnector"),
			getEnv("DB_SSLMODE", "disable"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want postgres or pgx", c.Driver)
	}
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("invalid BATCH_SIZE %d: must be between 1 and %d", c.BatchSize, MaxBatchSize)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("invalid MAX_FILE_SIZE %d: must be positive", c.MaxFileSize)
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
		log.Printf("Warning: ignoring non-numeric %s=%q", key, val)
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
		log.Printf("Warning: ignoring non-numeric %s=%q", key, val)
	}
	return defaultVal
}
