package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "poplayers.log")
	logger, closer, err := LogConfig{Level: "debug", File: file}.Logger(nil)
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	logger.Info().Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestLoggerInvalidLevel(t *testing.T) {
	_, _, err := LogConfig{Level: "loud"}.Logger(os.Stderr)
	assert.Error(t, err)
}

func TestDefaultsDecode(t *testing.T) {
	var display map[string]any
	_, err := toml.Decode(string(DisplayToml), &display)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7081/player", display["player_url"])
	assert.IsType(t, map[string]any{}, display["player"])

	var proxy map[string]any
	_, err = toml.Decode(string(ProxyToml), &proxy)
	require.NoError(t, err)
	assert.Equal(t, int64(4), proxy["num_workers"])
}
