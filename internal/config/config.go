// Package config provides configuration for the course builder service
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultServerPort      = 8080
	defaultLogLevel        = "info"
	defaultRateLimit       = 100
	defaultMaxRequestSize  = 10 << 20 // 10 MB
	defaultMigrationsPath  = "file://migrations"
	defaultMigrationsTable = "coursebuilder_schema_migrations"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Logging    LoggingConfig
	CORS       CORSConfig
	Migrations MigrationsConfig
	Jobs       JobsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port               int
	RateLimitPerMinute int
	MaxRequestSize     int64
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// MigrationsConfig holds schema migration settings
type MigrationsConfig struct {
	Path  string
	Table string
}

// JobsConfig holds background job settings
type JobsConfig struct {
	// UnusedBlockReportSchedule is a standard cron expression; empty disables the report
	UnusedBlockReportSchedule string
}

// Load reads configuration from the environment.
//
// A .env file in the working directory is loaded first if it exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	var err error

	if cfg.Database.Host, err = requiredEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = requiredIntEnv("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Database.User, err = requiredEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requiredEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.DBName, err = requiredEnv("DB_NAME"); err != nil {
		return nil, err
	}

	if cfg.Server.Port, err = intEnv("SERVER_PORT", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.Server.RateLimitPerMinute, err = intEnv("RATE_LIMIT_PER_MINUTE", defaultRateLimit); err != nil {
		return nil, err
	}
	maxSize, err := intEnv("MAX_REQUEST_SIZE", defaultMaxRequestSize)
	if err != nil {
		return nil, err
	}
	cfg.Server.MaxRequestSize = int64(maxSize)

	cfg.Logging.Level = stringEnv("LOG_LEVEL", defaultLogLevel)
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.Migrations.Path = stringEnv("MIGRATIONS_PATH", defaultMigrationsPath)
	cfg.Migrations.Table = defaultMigrationsTable
	cfg.Jobs.UnusedBlockReportSchedule = strings.TrimSpace(os.Getenv("UNUSED_BLOCK_REPORT_SCHEDULE"))

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true&clientFoundRows=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

func requiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func requiredIntEnv(key string) (int, error) {
	value, err := requiredEnv(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func stringEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return n, nil
}

// parseOrigins splits a comma-separated origin list, "*" when nothing usable is given
func parseOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
