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
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.ServerAddress)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, 10*time.Second, cfg.HealthInterval)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, filepath.Join(dir, "greenkeep.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "token"), cfg.TokenPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("SERVER_ADDRESS", "sync.greenkeep.test")
	t.Setenv("ENABLE_TLS", "true")
	t.Setenv("SYNC_INTERVAL_SECONDS", "5")
	t.Setenv("TENANT_ID", "pebble-creek")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://sync.greenkeep.test", cfg.BaseURL())
	assert.Equal(t, 5*time.Second, cfg.SyncInterval)
	assert.Equal(t, "pebble-creek", cfg.TenantID)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(
		"server_address: http://127.0.0.1:9000\nhealth_interval_seconds: 3\nconfig_dir: "+dir+"\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000", cfg.BaseURL())
	assert.Equal(t, 3*time.Second, cfg.HealthInterval)
	assert.Equal(t, dir, cfg.ConfigDir)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidInterval(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("SYNC_INTERVAL_SECONDS", "0")

	_, err := Load("")
	assert.Error(t, err)
}
