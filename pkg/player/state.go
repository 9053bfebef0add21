package player

import (
	"math"

	"github.com/work6189/PoPlayers/pkg/dom"
)

// State is a point in time read of the player.
type State struct {
	IsPlaying    bool           `json:"isPlaying"`
	IsPaused     bool           `json:"isPaused"`
	IsEnded      bool           `json:"isEnded"`
	IsMuted      bool           `json:"isMuted"`
	IsFullscreen bool           `json:"isFullscreen"`
	CurrentTime  float64        `json:"currentTime"`
	Duration     float64        `json:"duration"`
	Volume       float64        `json:"volume"`
	PlaybackRate float64        `json:"playbackRate"`
	Buffered     dom.TimeRanges `json:"buffered"`
	Seekable     dom.TimeRanges `json:"seekable"`
}

// quiescentState is reported once the player is destroyed.
var quiescentState = State{
	IsPaused:     true,
	PlaybackRate: 1,
}

func stateFrom(props dom.MediaProperties, fullscreen bool) State {
	return State{
		IsPlaying:    !props.Paused && !props.Ended,
		IsPaused:     props.Paused,
		IsEnded:      props.Ended,
		IsMuted:      props.Muted,
		IsFullscreen: fullscreen,
		CurrentTime:  props.CurrentTime,
		Duration:     knownDuration(props.Duration),
		Volume:       props.Volume,
		PlaybackRate: props.PlaybackRate,
		Buffered:     props.Buffered,
		Seekable:     props.Seekable,
	}
}

// knownDuration maps the NaN of an unloaded element to 0.
func knownDuration(d float64) float64 {
	if math.IsNaN(d) {
		return 0
	}
	return d
}
