package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "file", cfg.Store.Primary.Driver)
	assert.Equal(t, "file", cfg.Store.Backup.Driver)
	assert.NotEqual(t, cfg.Store.Primary.Name, cfg.Store.Backup.Name)
	assert.Equal(t, 30*time.Second, cfg.Store.FlushInterval)
	assert.Equal(t, 1000, cfg.Store.MaxActivityLogs)
	assert.Equal(t, 5000, cfg.Store.MaxChatMessages)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CLAIMS_ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := AppConfig{Store: StoreConfig{
		Primary:       SlotConfig{Driver: "floppy", Name: "a"},
		Backup:        SlotConfig{Driver: "file", Name: "b"},
		FlushInterval: time.Second,
	}}
	assert.Error(t, cfg.validate())
}

func TestValidateRejectsSameSlot(t *testing.T) {
	cfg := AppConfig{Store: StoreConfig{
		Primary:       SlotConfig{Driver: "file", Name: "a"},
		Backup:        SlotConfig{Driver: "file", Name: "a"},
		FlushInterval: time.Second,
	}}
	assert.Error(t, cfg.validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.yaml")
	yaml := []byte(`
store:
  primary:
    driver: memory
    name: primary
  backup:
    driver: file
    name: backup
  flushinterval: 5s
allowcorsorigins: "https://claims.example.com,https://admin.example.com"
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Primary.Driver)
	assert.Equal(t, 5*time.Second, cfg.Store.FlushInterval)
	assert.Equal(t, []string{"https://claims.example.com", "https://admin.example.com"}, cfg.AllowCORSOrigins)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
