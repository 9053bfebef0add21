package event

import (
	"encoding/json"
	"math"
	"testing"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work6189/PoPlayers/pkg/player"
)

func TestNewEventCommand(t *testing.T) {
	evt, err := NewEvent(&Command{Player: "main", Action: ActionSeek, Value: 42}, "display1", "")
	require.NoError(t, err)
	assert.Equal(t, TypePlayerCommand, evt.GetType())
	assert.Equal(t, "display1", evt.GetTarget())

	data, err := json.Marshal(evt)
	require.NoError(t, err)
	var wire Event
	require.NoError(t, json.Unmarshal(data, &wire))

	cmd, err := wire.Command()
	require.NoError(t, err)
	assert.Equal(t, "main", cmd.Player)
	assert.Equal(t, ActionSeek, cmd.Action)
	assert.Equal(t, 42.0, cmd.Value)

	generic, err := wire.GetData()
	require.NoError(t, err)
	assert.IsType(t, &Command{}, generic)
}

func TestCommandWrongType(t *testing.T) {
	evt, err := NewEvent(NewGenericStringMessage(TypeStringMessage, "hello"), "", "")
	require.NoError(t, err)
	_, err = evt.Command()
	assert.Error(t, err)

	data, err := evt.GetData()
	require.NoError(t, err)
	assert.Equal(t, "hello", data)
}

func TestNTPData(t *testing.T) {
	raw := []byte{0x1b, 0, 0, 0}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	evt := &Event{Type: TypeNTPResponse, Data: data}
	got, err := evt.GetData()
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestCommandMediaSource(t *testing.T) {
	cmd := &Command{URL: "a.mp4"}
	assert.Equal(t, player.URL("a.mp4"), cmd.MediaSource())

	cmd.Sources = []Source{{URL: "a.webm", Type: "video/webm"}, {URL: "a.mp4"}}
	assert.Equal(t, player.Candidates(
		player.Candidate{URL: "a.webm", MimeType: "video/webm"},
		player.Candidate{URL: "a.mp4"},
	), cmd.MediaSource())
}

func TestNewPlayerEvent(t *testing.T) {
	assert.Equal(t, &PlayerEvent{Player: "p", Name: "volumechange", Value: 0.5},
		NewPlayerEvent("p", player.Event{Name: player.EventVolumeChange, Volume: 0.5}))
	assert.Equal(t, &PlayerEvent{Player: "p", Name: "durationchange", Live: true},
		NewPlayerEvent("p", player.Event{Name: player.EventDurationChange, Duration: math.Inf(1)}))
	assert.Equal(t, &PlayerEvent{Player: "p", Name: "error", Error: "boom"},
		NewPlayerEvent("p", player.Event{Name: player.EventError, Err: errors.New("boom")}))
}

func TestPlayerStateLive(t *testing.T) {
	ps := NewPlayerState("p", player.State{IsPlaying: true, Duration: math.Inf(1), PlaybackRate: 1})
	assert.True(t, ps.Live)
	assert.Equal(t, 0.0, ps.State.Duration)

	evt, err := NewEvent(ps, "control", "")
	require.NoError(t, err)
	got, err := evt.GetData()
	require.NoError(t, err)
	assert.Equal(t, ps, got)
}
