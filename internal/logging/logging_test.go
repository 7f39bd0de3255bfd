// internal/logging/logging_test.go
package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/neptun-bridge/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("info"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
}

func TestNew_JSONFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LoggingConfig{Level: "warn", Format: "json"})

	logger.Info().Msg("dropped")
	logger.Warn().Str("hub", "home").Msg("kept")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev))
	assert.Equal(t, "warn", ev["level"])
	assert.Equal(t, "home", ev["hub"])
	assert.Equal(t, "kept", ev["message"])
	assert.Contains(t, ev, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LoggingConfig{Level: "info", Format: "console"})

	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neptun.log")

	logger, closer, err := Init(config.LoggingConfig{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	logger.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestInit_BadFile(t *testing.T) {
	_, _, err := Init(config.LoggingConfig{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}
