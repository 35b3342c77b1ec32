package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nimbus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("DefaultsApplied", func(t *testing.T) {
		path := writeConfig(t, `
auth:
  jwt_secret: test-secret
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.Equal(t, ":8080", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
		assert.Equal(t, "memory", cfg.Metadata.Type)
		assert.Equal(t, "memory", cfg.Content.Type)
		assert.Equal(t, 30*24*time.Hour, cfg.Trash.Retention)
	})

	t.Run("FileValuesPreserved", func(t *testing.T) {
		path := writeConfig(t, `
logging:
  level: debug
  format: console
server:
  listen: ":9999"
auth:
  jwt_secret: test-secret
  token_ttl: 1h
trash:
  sweep_enabled: true
  retention: 168h
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "console", cfg.Logging.Format)
		assert.Equal(t, ":9999", cfg.Server.Listen)
		assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
		assert.True(t, cfg.Trash.SweepEnabled)
		assert.Equal(t, 7*24*time.Hour, cfg.Trash.Retention)
	})

	t.Run("MissingSecretRejected", func(t *testing.T) {
		path := writeConfig(t, `
logging:
  level: info
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("BadLogLevelRejected", func(t *testing.T) {
		path := writeConfig(t, `
logging:
  level: loud
auth:
  jwt_secret: test-secret
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("BadgerWithoutPathRejected", func(t *testing.T) {
		path := writeConfig(t, `
auth:
  jwt_secret: test-secret
metadata:
  type: badger
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("BadgerInMemoryAllowed", func(t *testing.T) {
		path := writeConfig(t, `
auth:
  jwt_secret: test-secret
metadata:
  type: badger
  badger:
    in_memory: true
`)
		_, err := Load(path)
		assert.NoError(t, err)
	})

	t.Run("S3RequiresBucketAndRegion", func(t *testing.T) {
		path := writeConfig(t, `
auth:
  jwt_secret: test-secret
content:
  type: s3
  s3:
    bucket: nimbus-content
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("MissingFileRejectedWhenExplicit", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestCreateMetadataStore(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		store, err := CreateMetadataStore(MetadataConfig{Type: "memory"})
		require.NoError(t, err)
		require.NoError(t, store.Close())
	})

	t.Run("BadgerInMemory", func(t *testing.T) {
		store, err := CreateMetadataStore(MetadataConfig{
			Type:   "badger",
			Badger: map[string]any{"in_memory": true},
		})
		require.NoError(t, err)
		require.NoError(t, store.Close())
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		_, err := CreateMetadataStore(MetadataConfig{Type: "postgres"})
		assert.Error(t, err)
	})
}
