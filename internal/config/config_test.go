package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("POSTGRES_USER", "postgres")
	t.Setenv("POSTGRES_PASSWORD", "postgres")
	t.Setenv("POSTGRES_DB", "gigmarket")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5432, cfg.PostgresPort)
	assert.Equal(t, "notifications", cfg.NotifyQueue)
	assert.Equal(t, 10, cfg.WorkerConcurrency)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=gigmarket sslmode=disable", cfg.PostgresDSN())
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5433, cfg.PostgresPort)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.PostgresDSN())
}

func TestValidate(t *testing.T) {
	base := Config{
		Port:              "8080",
		GoEnv:             "dev",
		JWTSecret:         "s",
		DatabaseURL:       "postgres://x",
		RedisAddr:         "localhost:6379",
		WorkerConcurrency: 1,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "missing jwt", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "missing postgres user without url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "POSTGRES_USER is required"},
		{name: "bad env", mutate: func(c *Config) { c.GoEnv = "staging" }, wantErr: "GO_ENV must be"},
		{name: "prod needs storage", mutate: func(c *Config) { c.GoEnv = "prod" }, wantErr: "STORAGE_URL and STORAGE_KEY"},
		{name: "zero workers", mutate: func(c *Config) { c.WorkerConcurrency = 0 }, wantErr: "WORKER_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
