package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_ConsoleLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("warn", "", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "WARN")
}

func TestNew_FileGetsJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "devinfo.log")

	logger, err := newLogger("debug", path, &buf)
	require.NoError(t, err)
	logger.Debug("collected", zap.String("category", "hardware"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "collected", entry["msg"])
	assert.Equal(t, "hardware", entry["category"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, buf.String(), "collected")
}

func TestNew_None(t *testing.T) {
	logger, err := New("none", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.FatalLevel))
}

func TestNew_Errors(t *testing.T) {
	_, err := New("chatty", "")
	assert.Error(t, err)

	_, err = New("info", filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.ErrorContains(t, err, "opening log file")
}
