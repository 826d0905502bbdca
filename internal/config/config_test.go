package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "DATABASE_TYPE", "DATABASE_PATH", "VARIABLE_LIBRARY", "SUPPORTED_CONNECTORS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "./fabric-migrator.db", cfg.DatabasePath)
	assert.Equal(t, "5432", cfg.PostgresPort)
	assert.Equal(t, "disable", cfg.PostgresSSLMode)
	assert.Empty(t, cfg.VariableLibrary)
	assert.Empty(t, cfg.SupportedConnectors)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_DB", "migrations")
	t.Setenv("POSTGRES_USER", "migrator")
	t.Setenv("VARIABLE_LIBRARY", "Env")
	t.Setenv("SUPPORTED_CONNECTORS", "DelimitedText, Parquet ,,Json")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, "Env", cfg.VariableLibrary)
	assert.Equal(t, []string{"DelimitedText", "Parquet", "Json"}, cfg.SupportedConnectors)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"sqlite ok", func(c *Config) {}, ""},
		{"sqlite missing path", func(c *Config) { c.DatabasePath = "" }, "DATABASE_PATH"},
		{
			"postgres missing host",
			func(c *Config) { c.DatabaseType = "postgres"; c.PostgresDB = "d"; c.PostgresUser = "u" },
			"POSTGRES_HOST",
		},
		{
			"postgres missing db",
			func(c *Config) { c.DatabaseType = "postgres"; c.PostgresHost = "h"; c.PostgresUser = "u" },
			"POSTGRES_DB",
		},
		{
			"postgres missing user",
			func(c *Config) { c.DatabaseType = "postgres"; c.PostgresHost = "h"; c.PostgresDB = "d" },
			"POSTGRES_USER",
		},
		{"unknown backend", func(c *Config) { c.DatabaseType = "oracle" }, "unsupported database type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DatabaseType: "sqlite", DatabasePath: "./x.db"}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost:     "db.internal",
		PostgresPort:     "5432",
		PostgresDB:       "migrations",
		PostgresUser:     "migrator",
		PostgresPassword: "secret",
		PostgresSSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5432 dbname=migrations user=migrator password=secret sslmode=require",
		cfg.PostgresDSN())
}
