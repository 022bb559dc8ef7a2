package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 15s
database:
  path: "/tmp/test.db"
escalation:
  scan_interval: 2m
logger:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Minute, cfg.Escalation.ScanInterval)
	assert.Equal(t, "debug", cfg.Logger.Level)

	// Defaults fill unspecified values.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidPort(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 99999
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidScanInterval(t *testing.T) {
	path := writeConfig(t, `
escalation:
  scan_interval: -1m
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Server:     ServerConfig{Port: 8080},
		Database:   DatabaseConfig{Path: "data/test.db"},
		Escalation: EscalationConfig{ScanInterval: time.Minute},
	}
	assert.NoError(t, valid.Validate())

	noDB := *valid
	noDB.Database.Path = ""
	assert.Error(t, noDB.Validate())
}
