package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", "debug")
	logger.WithField("stream_id", "s-1").Debug("stream event")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "s-1", entry["stream_id"])
	assert.Equal(t, "stream event", entry["msg"])
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	logger := New(&bytes.Buffer{}, "text", "chatty")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "council.log")
	logger, closer, err := OpenFile(path, "text", "info")
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestOpenFileDisabled(t *testing.T) {
	logger, closer, err := OpenFile("-", "text", "info")
	require.NoError(t, err)
	logger.Info("dropped")
	assert.NoError(t, closer.Close())
}
