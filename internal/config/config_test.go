package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "failed to write test config")
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
[upstream]
base_url = "http://localhost:9999"
timeout = "5s"
page_size = 24
retry_attempts = 4
retry_delay = "1s"

[server]
host = "127.0.0.1"
port = 8080

[log]
level = "debug"
format = "json"
file = "/tmp/episodic.log"
max_size_mb = 10
max_backups = 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, UpstreamConfig{
		BaseURL:       "http://localhost:9999",
		Timeout:       5 * time.Second,
		PageSize:      24,
		RetryAttempts: 4,
		RetryDelay:    time.Second,
	}, cfg.Upstream)
	assert.Equal(t, ServerConfig{Host: "127.0.0.1", Port: 8080}, cfg.Server)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json", File: "/tmp/episodic.log", MaxSizeMB: 10, MaxBackups: 7}, cfg.Log)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "https://api.imdbapi.dev", cfg.Upstream.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 12, cfg.Upstream.PageSize)
	assert.Equal(t, 2, cfg.Upstream.RetryAttempts)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8585, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingEnvVar(t *testing.T) {
	path := writeConfig(t, `
[upstream]
base_url = "${EPISODIC_TEST_MISSING_URL}"
`)

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, path, cfgErr.Path)
	assert.Equal(t, []string{"EPISODIC_TEST_MISSING_URL"}, cfgErr.Missing)
}

func TestLoad_EnvVarDefault(t *testing.T) {
	t.Setenv("EPISODIC_TEST_HOST", "")
	path := writeConfig(t, `
[server]
host = "${EPISODIC_TEST_HOST:-localhost}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 99999

[log]
format = "xml"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoad_ParseError(t *testing.T) {
	_, err := Load(writeConfig(t, "[server\nport = "))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadWithoutValidation(t *testing.T) {
	cfg, err := LoadWithoutValidation(writeConfig(t, "[server]\nport = 99999\n"))
	require.NoError(t, err)
	assert.Equal(t, 99999, cfg.Server.Port)
}

func TestServerConfig_URL(t *testing.T) {
	assert.Equal(t, "http://localhost:8585", ServerConfig{Host: "0.0.0.0", Port: 8585}.URL())
	assert.Equal(t, "http://10.0.0.2:80", ServerConfig{Host: "10.0.0.2", Port: 80}.URL())
	assert.Equal(t, "0.0.0.0:8585", ServerConfig{Host: "0.0.0.0", Port: 8585}.Addr())
}
