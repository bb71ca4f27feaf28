package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8001", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.AltScreen)
	assert.Equal(t, 400*time.Millisecond, cfg.Stub.StageDelay)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("COUNCIL_API_URL", "http://council.internal:9000/")
	t.Setenv("COUNCIL_LOG_FORMAT", "JSON")
	t.Setenv("COUNCIL_ALT_SCREEN", "false")
	t.Setenv("COUNCIL_STUB_STAGE_DELAY", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://council.internal:9000", cfg.APIURL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.AltScreen)
	assert.Zero(t, cfg.Stub.StageDelay)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("COUNCIL_REQUEST_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateNormalises(t *testing.T) {
	cfg := Config{LogFormat: "yaml", RequestTimeout: -1}
	cfg.Validate()
	assert.Equal(t, defaultAPIURL, cfg.APIURL)
	assert.Equal(t, defaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8001", cfg.Stub.Addr)
}
