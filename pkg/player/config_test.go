package player_test

import (
	"testing"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work6189/PoPlayers/pkg/player"
)

func TestDecodeConfig(t *testing.T) {
	cfg, err := player.DecodeConfig(`
width = 640
height = "50vh"
autoplay = true
theme = "light"
playback_rates = [1.0, 2.0]
`)
	require.NoError(t, err)
	assert.Equal(t, "640px", cfg.Width.CSS())
	assert.Equal(t, "50vh", cfg.Height.CSS())
	assert.True(t, cfg.Autoplay)
	assert.Equal(t, player.ThemeLight, cfg.Theme)
	assert.Equal(t, []float64{1, 2}, cfg.PlaybackRates)

	// untouched keys keep their defaults
	assert.True(t, cfg.Controls)
	assert.Equal(t, player.PreloadMetadata, cfg.Preload)
	assert.Equal(t, 1.0, cfg.Volume)
	assert.True(t, cfg.Responsive)
	assert.NoError(t, cfg.Validate())
}

func TestDecodeConfig_Broken(t *testing.T) {
	_, err := player.DecodeConfig(`width = [1, 2]`)
	assert.Error(t, err)
	_, err = player.DecodeConfig(`volume = `)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	for field, mutate := range map[string]func(*player.Config){
		"preload":        func(c *player.Config) { c.Preload = "eager" },
		"theme":          func(c *player.Config) { c.Theme = "neon" },
		"volume":         func(c *player.Config) { c.Volume = -0.1 },
		"start_time":     func(c *player.Config) { c.StartTime = -1 },
		"playback_rates": func(c *player.Config) { c.PlaybackRates = []float64{1, 0} },
	} {
		t.Run(field, func(t *testing.T) {
			cfg := player.DefaultConfig()
			mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *player.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, field, cfgErr.Field)
			assert.ErrorIs(t, err, player.ErrInvalidConfig)
		})
	}
}

func TestDimensionCSS(t *testing.T) {
	assert.Equal(t, "320px", player.Px(320).CSS())
	assert.Equal(t, "12.5px", player.Dimension("12.5").CSS())
	assert.Equal(t, "100%", player.Dimension("100%").CSS())
	assert.Equal(t, "auto", player.Dimension(" auto ").CSS())
}
