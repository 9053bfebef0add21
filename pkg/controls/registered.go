package controls

import (
	"context"

	"emperror.dev/errors"
	"github.com/work6189/PoPlayers/pkg/player"
)

// Registered returns Actions which look the named player up in the registry
// on every call. It keeps working when the player is recreated under the same
// name, as happens when the page navigates.
func Registered(registry *player.Registry, name string) Actions {
	return registered{registry: registry, name: name}
}

type registered struct {
	registry *player.Registry
	name     string
}

func (r registered) get() (*player.Player, bool) {
	return r.registry.Get(r.name)
}

func (r registered) State() player.State {
	if p, ok := r.get(); ok {
		return p.State()
	}
	return player.State{IsPaused: true, PlaybackRate: 1}
}

func (r registered) Config() player.Config {
	if p, ok := r.get(); ok {
		return p.Config()
	}
	return player.DefaultConfig()
}

func (r registered) Play(ctx context.Context) error {
	p, ok := r.get()
	if !ok {
		return errors.Errorf("player %s not found", r.name)
	}
	return p.Play(ctx)
}

func (r registered) Pause() {
	if p, ok := r.get(); ok {
		p.Pause()
	}
}

func (r registered) Seek(seconds float64) {
	if p, ok := r.get(); ok {
		p.Seek(seconds)
	}
}

func (r registered) SetVolume(volume float64) {
	if p, ok := r.get(); ok {
		p.SetVolume(volume)
	}
}

func (r registered) SetPlaybackRate(rate float64) {
	if p, ok := r.get(); ok {
		p.SetPlaybackRate(rate)
	}
}

func (r registered) EnterFullscreen() {
	if p, ok := r.get(); ok {
		p.EnterFullscreen()
	}
}

func (r registered) ExitFullscreen() {
	if p, ok := r.get(); ok {
		p.ExitFullscreen()
	}
}
