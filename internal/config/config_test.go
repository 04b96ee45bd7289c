package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every CLUBDESK_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CLUBDESK_SERVER_URL", "CLUBDESK_STATE_PATH", "CLUBDESK_STATE_BACKEND",
		"CLUBDESK_LOG_LEVEL", "CLUBDESK_LOG_FORMAT", "CLUBDESK_HTTP_TIMEOUT",
		"CLUBDESK_OTEL_ENDPOINT", "CLUBDESK_CONSOLE_ADDR",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, BackendBolt, cfg.StateBackend)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "127.0.0.1:8080", cfg.ConsoleAddr)
	assert.Empty(t, cfg.OTelEndpoint)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotenvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLUBDESK_LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CLUBDESK_SERVER_URL=https://school.example\nCLUBDESK_LOG_LEVEL=debug\nCLUBDESK_HTTP_TIMEOUT=3s\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("CLUBDESK_SERVER_URL")
		os.Unsetenv("CLUBDESK_HTTP_TIMEOUT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://school.example", cfg.ServerURL)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
}

func TestParseEnvError(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLUBDESK_HTTP_TIMEOUT", "soon")

	var cfg Config
	err := ParseEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	base := Config{ServerURL: "http://localhost:8000", StateBackend: BackendSQLite, HTTPTimeout: time.Second}
	require.NoError(t, base.Validate())

	bad := base
	bad.ServerURL = "localhost:8000"
	assert.Error(t, bad.Validate())

	bad = base
	bad.StateBackend = "redis"
	assert.Error(t, bad.Validate())

	bad = base
	bad.HTTPTimeout = 0
	assert.Error(t, bad.Validate())
}

func TestResolvedStatePath(t *testing.T) {
	p, err := Config{StateBackend: BackendMemory, StatePath: "/ignored"}.ResolvedStatePath()
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = Config{StateBackend: BackendBolt, StatePath: "/tmp/x.db"}.ResolvedStatePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", p)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	p, err = Config{StateBackend: BackendSQLite}.ResolvedStatePath()
	require.NoError(t, err)
	assert.Equal(t, "state.sqlite", filepath.Base(p))
	assert.Equal(t, "clubdesk", filepath.Base(filepath.Dir(p)))
}
