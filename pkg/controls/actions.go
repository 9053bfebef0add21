// Package controls provides the user interfaces driving a player: the control
// bar inside the page and a terminal view of the same state.
package controls

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/work6189/PoPlayers/pkg/player"
)

const (
	seekStep   = 10.0
	volumeStep = 0.1
	// playTimeout bounds a play request started from a click or a key.
	playTimeout = 10 * time.Second
)

// Actions is the part of the player the controls act on.
type Actions interface {
	State() player.State
	Config() player.Config
	Play(ctx context.Context) error
	Pause()
	Seek(seconds float64)
	SetVolume(volume float64)
	SetPlaybackRate(rate float64)
	EnterFullscreen()
	ExitFullscreen()
}

// actions maps user intents onto player operations. It is shared by the page
// control bar and the terminal model.
type actions struct {
	p      Actions
	logger zLogger.ZLogger
	volume float64
	rates  []float64

	mu        sync.Mutex
	rateIndex int
}

func newActions(p Actions, logger zLogger.ZLogger) *actions {
	cfg := p.Config()
	a := &actions{
		p:      p,
		logger: logger,
		volume: cfg.Volume,
		rates:  cfg.PlaybackRates,
	}
	if a.volume == 0 {
		a.volume = 1
	}
	if i := slices.Index(a.rates, 1); i >= 0 {
		a.rateIndex = i
	}
	return a
}

// play does not block the caller. Clicks and keys arrive on the event
// dispatcher, which must stay free while the browser decides.
func (a *actions) play() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
		defer cancel()
		if err := a.p.Play(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("play failed")
		}
	}()
}

func (a *actions) togglePlay() {
	if a.p.State().IsPlaying {
		a.p.Pause()
		return
	}
	a.play()
}

func (a *actions) seekBy(delta float64) {
	a.p.Seek(a.p.State().CurrentTime + delta)
}

func (a *actions) seekFraction(fraction float64) {
	a.p.Seek(fraction * a.p.State().Duration)
}

func (a *actions) volumeBy(delta float64) {
	a.p.SetVolume(a.p.State().Volume + delta)
}

// toggleMute mutes, or restores the configured volume.
func (a *actions) toggleMute() {
	state := a.p.State()
	if state.IsMuted || state.Volume == 0 {
		a.p.SetVolume(a.volume)
		return
	}
	a.p.SetVolume(0)
}

// nextRate cycles through the configured playback rates.
func (a *actions) nextRate() {
	if len(a.rates) == 0 {
		return
	}
	a.mu.Lock()
	a.rateIndex = (a.rateIndex + 1) % len(a.rates)
	rate := a.rates[a.rateIndex]
	a.mu.Unlock()
	a.p.SetPlaybackRate(rate)
}

func (a *actions) toggleFullscreen() {
	if a.p.State().IsFullscreen {
		a.p.ExitFullscreen()
		return
	}
	a.p.EnterFullscreen()
}
