package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.Database.RunMigrations)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "storefront-service", cfg.AMQP.Producer)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.AMQP.URL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	cfg, err := load("", []string{
		"STOREFRONT_HTTP_ADDR=:9090",
		"STOREFRONT_DATABASE_DSN=postgres://u:p@db:5432/shop",
		"STOREFRONT_DATABASE_RUN_MIGRATIONS=false",
		"STOREFRONT_REDIS_ADDR=redis:6379",
		"STOREFRONT_REDIS_TTL=30s",
		"STOREFRONT_AUTH_JWT_SECRET=abc",
		"STOREFRONT_AUTH_TOKEN_TTL=1h",
		"STOREFRONT_CORS_ALLOW_ORIGINS=https://a.example, https://b.example",
		"STOREFRONT_ENVIRONMENT=production",
		"OTHER_HTTP_ADDR=:1",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://u:p@db:5432/shop", cfg.Database.DSN)
	assert.False(t, cfg.Database.RunMigrations)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "abc", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STOREFRONT_HTTP_ADDR=:7070\nSTOREFRONT_LOG_LEVEL=debug\n"), 0o600))

	cfg, err := load(path, []string{"STOREFRONT_LOG_LEVEL=warn"})
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := load("", nil)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "development without secret", mutate: func(c *Config) {}},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, want: ErrMissingDSN},
		{name: "zero token ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, want: ErrBadTokenTTL},
		{name: "production without secret", mutate: func(c *Config) { c.Environment = "production" }, want: ErrNoSecret},
		{name: "production weak secret", mutate: func(c *Config) {
			c.Environment = "production"
			c.Auth.JWTSecret = "short"
		}, want: ErrWeakSecret},
		{name: "production strong secret", mutate: func(c *Config) {
			c.Environment = "production"
			c.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
