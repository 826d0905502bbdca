// Package config loads tool configuration from environment variables with
// sensible defaults.
//
// Environment Variables:
//
//   - PORT: HTTP server port for serve mode (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - DATABASE_TYPE: Run-store backend - "sqlite" or "postgres" (default: sqlite)
//   - DATABASE_PATH: SQLite database file path (default: ./fabric-migrator.db)
//   - POSTGRES_HOST: PostgreSQL host (required if using PostgreSQL)
//   - POSTGRES_PORT: PostgreSQL port (default: 5432)
//   - POSTGRES_DB: PostgreSQL database name (required if using PostgreSQL)
//   - POSTGRES_USER: PostgreSQL username (required if using PostgreSQL)
//   - POSTGRES_PASSWORD: PostgreSQL password
//   - POSTGRES_SSL_MODE: PostgreSQL SSL mode (default: disable)
//   - VARIABLE_LIBRARY: Library name global parameters are re-addressed to
//     (empty leaves global-parameter indirections verbatim)
//   - SUPPORTED_CONNECTORS: Comma-separated override of the supported
//     connector-type snapshot
package config

import (
	"fmt"
	"os"
	"strings"

	"fabric-migrator/internal/common/errors"
)

// Config holds the tool configuration.
type Config struct {
	Port     string
	LogLevel string

	DatabaseType     string
	DatabasePath     string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	VariableLibrary     string
	SupportedConnectors []string
}

// Load reads configuration from the environment.
func Load() *Config {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabaseType:     getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:     getEnv("DATABASE_PATH", "./fabric-migrator.db"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),
		VariableLibrary:  os.Getenv("VARIABLE_LIBRARY"),
	}

	if raw := os.Getenv("SUPPORTED_CONNECTORS"); raw != "" {
		for _, item := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				cfg.SupportedConnectors = append(cfg.SupportedConnectors, trimmed)
			}
		}
	}

	return cfg
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	switch c.DatabaseType {
	case "sqlite":
		if c.DatabasePath == "" {
			return errors.ConfigError("DATABASE_PATH is required for sqlite")
		}
	case "postgres":
		if c.PostgresHost == "" {
			return errors.ConfigError("POSTGRES_HOST is required for postgres")
		}
		if c.PostgresDB == "" {
			return errors.ConfigError("POSTGRES_DB is required for postgres")
		}
		if c.PostgresUser == "" {
			return errors.ConfigError("POSTGRES_USER is required for postgres")
		}
	default:
		return errors.ConfigError(fmt.Sprintf("unsupported database type: %s", c.DatabaseType))
	}
	return nil
}

// PostgresDSN builds the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresUser, c.PostgresPassword, c.PostgresSSLMode)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
