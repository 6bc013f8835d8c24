package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the database settings for integration tests from TEST_DB_* variables.
//
// When any of them is missing an empty Config is returned and the caller decides whether to skip.
func LoadTestConfig() (*Config, error) {
	// optional, the tests run from test/integration
	_ = godotenv.Load("./../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	for _, key := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
		if os.Getenv(key) == "" {
			return cfg, nil
		}
	}

	port, err := requiredIntEnv("TEST_DB_PORT")
	if err != nil {
		return nil, err
	}

	cfg.Database = DatabaseConfig{
		Host:     os.Getenv("TEST_DB_HOST"),
		Port:     port,
		User:     os.Getenv("TEST_DB_USER"),
		Password: os.Getenv("TEST_DB_PASSWORD"),
		DBName:   os.Getenv("TEST_DB_NAME"),
	}
	cfg.Migrations = MigrationsConfig{
		Path:  stringEnv("TEST_MIGRATIONS_PATH", "file://../../migrations"),
		Table: defaultMigrationsTable,
	}

	return cfg, nil
}

// IsSet reports whether the database settings are filled in
func (c *Config) IsSet() bool {
	return c.Database.Host != "" && c.Database.DBName != ""
}
