package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work6189/PoPlayers/pkg/player"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := defaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "display01", cfg.Name)
	assert.Equal(t, "ws://localhost:7081/ws", cfg.ProxyAddr)
	assert.Equal(t, "http://localhost:7081/player", cfg.PlayerURL)
	assert.Equal(t, 10*time.Second, cfg.NTPTimeout)
	assert.True(t, cfg.Kiosk)

	assert.Equal(t, player.Dimension("100%"), cfg.Player.Width)
	assert.Equal(t, player.ThemeDark, cfg.Player.Theme)
	assert.Equal(t, []float64{0.5, 1, 1.5, 2}, cfg.Player.PlaybackRates)
	require.NoError(t, cfg.Player.Validate())

	flags := cfg.browserFlags()
	assert.Equal(t, true, flags["kiosk"])
	assert.Equal(t, "no-user-gesture-required", flags["autoplay-policy"])
}
