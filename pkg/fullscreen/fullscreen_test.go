package fullscreen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func enabledSet(props ...string) func(string) bool {
	return func(p string) bool {
		for _, x := range props {
			if x == p {
				return true
			}
		}
		return false
	}
}

func TestProbe_PrefersStandard(t *testing.T) {
	api, ok := Probe(enabledSet("webkitFullscreenEnabled", "fullscreenEnabled"))

	assert.True(t, ok)
	assert.Equal(t, "standard", api.Name)
	assert.Equal(t, "fullscreenchange", api.ChangeEvent)
}

func TestProbe_FallsBackInOrder(t *testing.T) {
	api, ok := Probe(enabledSet("msFullscreenEnabled", "mozFullScreenEnabled"))

	assert.True(t, ok)
	assert.Equal(t, "moz", api.Name)
	assert.Equal(t, "mozCancelFullScreen", api.Exit)
}

func TestProbe_Unsupported(t *testing.T) {
	_, ok := Probe(enabledSet())

	assert.False(t, ok)
}

func TestEnabledProperties(t *testing.T) {
	assert.Equal(t, []string{
		"fullscreenEnabled",
		"webkitFullscreenEnabled",
		"mozFullScreenEnabled",
		"msFullscreenEnabled",
	}, EnabledProperties())
}
