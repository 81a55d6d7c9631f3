package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, "tools.db", cfg.Database.DSN)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.EqualValues(t, 16*1024*1024, cfg.Upload.MaxBytes)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.Sweep.Grace)
	assert.Equal(t, "components", cfg.Minio.Prefix)
	assert.False(t, cfg.Minio.Enabled())
	assert.Empty(t, cfg.Redis.Addr)
	assert.Contains(t, cfg.CORS, "http://localhost:5173")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/tools")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_ACCESS_KEY", "ak")
	t.Setenv("MINIO_SECRET_KEY", "sk")
	t.Setenv("MINIO_BUCKET", "tools")
	t.Setenv("MINIO_PREFIX", "/html/")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://u:p@db:5432/tools", cfg.Database.DSN)
	assert.EqualValues(t, 1024, cfg.Upload.MaxBytes)
	assert.True(t, cfg.Minio.Enabled())
	assert.Equal(t, "html", cfg.Minio.Prefix)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DSN", "from-env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database-dsn", "", "")
	flags.String("unbound", "", "")
	require.NoError(t, flags.Parse([]string{"--database-dsn", "from-flag.db"}))

	v := New()
	require.NoError(t, BindFlags(v, flags, map[string]string{
		"database-dsn": "database.dsn",
		"missing":      "upload.dir",
	}))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-flag.db", cfg.Database.DSN)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("empty dsn", func(t *testing.T) {
		t.Setenv("DATABASE_DSN", " ")
		_, err := Load(New())
		require.Error(t, err)
	})
	t.Run("unknown gin mode", func(t *testing.T) {
		t.Setenv("GIN_MODE", "verbose")
		_, err := Load(New())
		require.Error(t, err)
	})
	t.Run("nil viper", func(t *testing.T) {
		_, err := Load(nil)
		require.Error(t, err)
	})
}

func TestNonPositiveLimitsFallBack(t *testing.T) {
	t.Setenv("UPLOAD_MAX_BYTES", "-5")
	t.Setenv("CACHE_TTL", "0s")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.EqualValues(t, defaultMaxUploadBytes, cfg.Upload.MaxBytes)
	assert.Equal(t, defaultCacheTTL, cfg.CacheTTL)
}
