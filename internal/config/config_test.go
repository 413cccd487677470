package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"HRA_CONFIG", "HRA_API_URL", "HRA_REALTIME_URL", "HRA_DB", "HRA_TIMEZONE",
		"HRA_LOG_LEVEL", "HRA_LOG_FORMAT", "HRA_LOG_FILE", "HRA_REQUEST_TIMEOUT_MS",
		"HRA_MAX_RETRIES", "HRA_REALTIME_TRANSPORTS", "HRA_RECONNECT_ATTEMPTS",
	} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(Flags{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", cfg.APIURL)
	assert.Equal(t, "http://localhost:5000", cfg.RealtimeURL)
	assert.Equal(t, filepath.Join(home, ".hra", "hra.db"), cfg.DBPath)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, 5, cfg.Realtime.ReconnectAttempts)
	assert.Equal(t, []string{"websocket", "polling"}, cfg.Realtime.Transports)
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://file:5000/api
realtime_url: http://file:5000
log_level: debug
max_retries: 3
realtime:
  transports: [polling]
  reconnect_attempts: 2
  delay_min_ms: 250
  request_timeout_ms: 60000
`), 0o600))
	t.Setenv("HRA_REALTIME_URL", "http://env:5000")
	t.Setenv("HRA_LOG_LEVEL", "warn")

	cfg, err := Load(Flags{ConfigPath: path, LogLevel: "error"})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "http://file:5000/api", cfg.APIURL, "file overrides default")
	assert.Equal(t, "http://env:5000", cfg.RealtimeURL, "env overrides file")
	assert.Equal(t, "error", cfg.LogLevel, "flag overrides env")
	assert.Equal(t, 3, cfg.MaxRetries)

	rt := cfg.RealtimeChannel()
	assert.Equal(t, []string{"polling"}, rt.Transports)
	assert.Equal(t, 2, rt.ReconnectAttempts)
	assert.Equal(t, 250*time.Millisecond, rt.DelayMin)
	assert.Equal(t, 5*time.Second, rt.DelayMax)
	assert.Equal(t, time.Minute, rt.RequestTimeout)
	assert.Equal(t, "http://env:5000", rt.URL)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(Flags{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	t.Setenv("HRA_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err = Load(Flags{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BadYAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unterminated"), 0o600))
	_, err := Load(Flags{ConfigPath: path})
	assert.Error(t, err)
}

func TestLoad_EnvNumbersAndTransports(t *testing.T) {
	isolate(t)
	t.Setenv("HRA_REQUEST_TIMEOUT_MS", "2500")
	t.Setenv("HRA_MAX_RETRIES", "-1")
	t.Setenv("HRA_REALTIME_TRANSPORTS", " polling , websocket ")
	t.Setenv("HRA_RECONNECT_ATTEMPTS", "0")

	cfg, err := Load(Flags{})
	require.NoError(t, err)
	assert.Equal(t, 2500, cfg.API().TimeoutMs)
	assert.Equal(t, 1, cfg.MaxRetries, "negative retries ignored")
	assert.Equal(t, []string{"polling", "websocket"}, cfg.Realtime.Transports)
	assert.Equal(t, 0, cfg.RealtimeChannel().ReconnectAttempts)
}

func TestValidate(t *testing.T) {
	isolate(t)
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Timezone = "Mars/Olympus"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.RealtimeURL = "ftp://x"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Realtime.Transports = []string{"smoke"}
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Realtime.Randomization = 2
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.APIURL = " "
	assert.Error(t, bad.Validate())
}

func TestFlagsBind(t *testing.T) {
	var f Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Bind(fs)
	require.NoError(t, fs.Parse([]string{"--api-url", "http://x/api", "--db", "/tmp/h.db", "--timezone", "UTC"}))
	assert.Equal(t, "http://x/api", f.APIURL)
	assert.Equal(t, "/tmp/h.db", f.DBPath)
	assert.Equal(t, "UTC", f.Timezone)
}

func TestConversions(t *testing.T) {
	isolate(t)
	cfg := DefaultConfig()
	cfg.APIURL = "http://h/api/"
	cfg.Timezone = "UTC"
	assert.Equal(t, "http://h/api", cfg.API().BaseURL)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, "UTC", cfg.Clock().Location().String())
}
