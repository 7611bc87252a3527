package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./work", cfg.Download.WorkDir)
	assert.Equal(t, "./output", cfg.Download.OutputDir)
	assert.Equal(t, 5*time.Minute, cfg.Download.MethodTimeout)
	assert.Equal(t, "alloy", cfg.Speech.DefaultVoice)
	assert.Equal(t, "ffmpeg", cfg.Process.FfmpegPath)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "./data/clipwash.db", cfg.Store.SQLitePath)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "9090"
download:
  work_dir: /tmp/cw-work
  method_timeout: 1m
  remote_browser:
    api_key: secret
speech:
  default_voice: nova
store:
  backend: postgres
  postgres_dsn: postgres://cw@localhost/cw
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/tmp/cw-work", cfg.Download.WorkDir)
	assert.Equal(t, time.Minute, cfg.Download.MethodTimeout)
	assert.Equal(t, "secret", cfg.Download.RemoteBrowser.APIKey)
	assert.Equal(t, "nova", cfg.Speech.DefaultVoice)
	assert.Equal(t, "postgres", cfg.Store.Backend)
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: postgres\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: dynamo\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
