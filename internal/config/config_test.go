package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "json", cfg.Storage.Type)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxFileBytes)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/gif"}, cfg.Uploads.AllowedTypes)
	assert.Equal(t, "image", cfg.Uploads.Field)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.Cleanup.Enabled)
}

func TestLoadConfigFromYAML(t *testing.T) {
	t.Setenv("PORT", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: 7000
storage:
  type: sqlite
  sqlite_path: /tmp/props.db
uploads:
  dir: /srv/uploads
rate_limit:
  enabled: true
  requests_per_minute: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "/tmp/props.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "/srv/uploads", cfg.Uploads.Dir)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.RequestsPerMinute)
	// untouched keys keep their defaults
	assert.Equal(t, "image", cfg.Uploads.Field)
	assert.Equal(t, 600, cfg.RateLimit.RequestsPerHour)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8123")
	t.Setenv("STORAGE_TYPE", "postgres")
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "listings")
	t.Setenv("MEILISEARCH_HOST", "http://search:7700")
	t.Setenv("S3_BUCKET", "images")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8123", cfg.Server.Addr())
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "pg.internal", cfg.Storage.Postgres.Host)
	assert.Equal(t, 6543, cfg.Storage.Postgres.Port)
	assert.Equal(t, "listings", cfg.Storage.Postgres.Database)
	assert.Empty(t, cfg.Storage.MySQL.Host)
	assert.Equal(t, "http://search:7700", cfg.Search.Meilisearch.Host)
	assert.Equal(t, "images", cfg.Uploads.MinIO.Bucket)
}

func TestApplyEnvInvalidPort(t *testing.T) {
	t.Setenv("PORT", "eighty")

	cfg := DefaultConfig()
	assert.Error(t, cfg.ApplyEnv())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LISTINGS_TEST_VAR=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LISTINGS_TEST_VAR") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-dotenv", os.Getenv("LISTINGS_TEST_VAR"))
}
