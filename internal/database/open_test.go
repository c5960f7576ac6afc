package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-listing/internal/config"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		s, err := Open(config.StorageConfig{Type: "json", JSONPath: filepath.Join(dir, "p.json")})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &JSONStore{}, s)
	})

	t.Run("default is json", func(t *testing.T) {
		s, err := Open(config.StorageConfig{JSONPath: filepath.Join(dir, "d.json")})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &JSONStore{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(config.StorageConfig{Type: "sqlite", SQLitePath: filepath.Join(dir, "p.db")})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &GormDB{}, s)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(config.StorageConfig{Type: "redis"})
		assert.Error(t, err)
	})
}
