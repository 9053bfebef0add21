package event

import (
	"fmt"
	"math"

	"github.com/work6189/PoPlayers/pkg/player"
)

type Action string

const (
	ActionPlay           Action = "play"
	ActionPause          Action = "pause"
	ActionStop           Action = "stop"
	ActionLoad           Action = "load"
	ActionSeek           Action = "seek"
	ActionVolume         Action = "volume"
	ActionRate           Action = "rate"
	ActionFullscreen     Action = "fullscreen"
	ActionExitFullscreen Action = "exit-fullscreen"
	ActionState          Action = "state"
	ActionDestroy        Action = "destroy"
	ActionScreenshot     Action = "screenshot"
)

type Source struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// Command is sent by a controller to a display. Value carries the seek
// position, volume or rate; URL or Sources the media of a load; Width,
// Height and Sigma the screenshot geometry.
type Command struct {
	Player  string   `json:"player"`
	Action  Action   `json:"action"`
	Value   float64  `json:"value,omitempty"`
	URL     string   `json:"url,omitempty"`
	Sources []Source `json:"sources,omitempty"`
	Width   int      `json:"width,omitempty"`
	Height  int      `json:"height,omitempty"`
	Sigma   float64  `json:"sigma,omitempty"`
}

func (c *Command) String() string {
	return fmt.Sprintf("%s %s", c.Action, c.Player)
}

func (c *Command) Type() EventType {
	return TypePlayerCommand
}

// MediaSource converts the load target into a player source. Sources win
// over URL.
func (c *Command) MediaSource() player.Source {
	if len(c.Sources) == 0 {
		return player.URL(c.URL)
	}
	candidates := make([]player.Candidate, 0, len(c.Sources))
	for _, s := range c.Sources {
		candidates = append(candidates, player.Candidate{URL: s.URL, MimeType: s.Type})
	}
	return player.Candidates(candidates...)
}

// PlayerEvent mirrors a domain event of a player. Value holds the number
// belonging to the event name. Live is set instead of an infinite duration.
type PlayerEvent struct {
	Player     string  `json:"player"`
	Name       string  `json:"name"`
	Value      float64 `json:"value,omitempty"`
	Live       bool    `json:"live,omitempty"`
	Fullscreen bool    `json:"fullscreen,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func NewPlayerEvent(name string, evt player.Event) *PlayerEvent {
	pe := &PlayerEvent{
		Player:     name,
		Name:       string(evt.Name),
		Fullscreen: evt.Fullscreen,
	}
	switch evt.Name {
	case player.EventTimeUpdate:
		pe.Value = evt.CurrentTime
	case player.EventDurationChange:
		pe.Value, pe.Live = finite(evt.Duration)
	case player.EventVolumeChange:
		pe.Value = evt.Volume
	case player.EventRateChange:
		pe.Value = evt.Rate
	}
	if evt.Err != nil {
		pe.Error = evt.Err.Error()
	}
	return pe
}

func (p *PlayerEvent) String() string {
	return fmt.Sprintf("%s: %s", p.Player, p.Name)
}

func (p *PlayerEvent) Type() EventType {
	return TypePlayerEvent
}

// PlayerState answers a state command.
type PlayerState struct {
	Player string       `json:"player"`
	Live   bool         `json:"live,omitempty"`
	State  player.State `json:"state"`
}

func NewPlayerState(name string, state player.State) *PlayerState {
	ps := &PlayerState{Player: name, State: state}
	ps.State.Duration, ps.Live = finite(state.Duration)
	return ps
}

func (p *PlayerState) String() string {
	return fmt.Sprintf("%s: %.1f/%.1f", p.Player, p.State.CurrentTime, p.State.Duration)
}

func (p *PlayerState) Type() EventType {
	return TypePlayerState
}

type Screenshot struct {
	Player   string `json:"player"`
	MimeType string `json:"mimetype"`
	Data     []byte `json:"data"`
}

func (s *Screenshot) String() string {
	return fmt.Sprintf("%s: %s (%d bytes)", s.Player, s.MimeType, len(s.Data))
}

func (s *Screenshot) Type() EventType {
	return TypeScreenshot
}

// finite maps an infinite duration, which JSON cannot carry, to 0 and live.
func finite(v float64) (float64, bool) {
	if math.IsInf(v, 0) {
		return 0, true
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, false
}

var (
	_ DataInterface = (*Command)(nil)
	_ DataInterface = (*PlayerEvent)(nil)
	_ DataInterface = (*PlayerState)(nil)
	_ DataInterface = (*Screenshot)(nil)
)
