package client

import (
	"sync"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work6189/PoPlayers/pkg/dom"
	"github.com/work6189/PoPlayers/pkg/dom/memdom"
	"github.com/work6189/PoPlayers/pkg/event"
	"github.com/work6189/PoPlayers/pkg/player"
)

type sent struct {
	data   event.DataInterface
	target string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
}

func (s *fakeSender) SendData(data event.DataInterface, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sent{data: data, target: target})
	return nil
}

func (s *fakeSender) all() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.sent...)
}

func (s *fakeSender) events(name string) []*event.PlayerEvent {
	var result []*event.PlayerEvent
	for _, m := range s.all() {
		if pe, ok := m.data.(*event.PlayerEvent); ok && pe.Name == name {
			result = append(result, pe)
		}
	}
	return result
}

type remoteFixture struct {
	registry *player.Registry
	sender   *fakeSender
	remote   *Remote
	media    *memdom.Media
}

func newRemoteFixture(t *testing.T, opts ...RemoteOption) *remoteFixture {
	t.Helper()
	logger := zerolog.Nop()
	doc := memdom.New()
	doc.AddContainer("stage")
	registry := player.NewRegistry(player.WithLogger(&logger))
	p, err := registry.Create("main", doc, dom.ID("stage"))
	require.NoError(t, err)
	media, ok := p.Media().(*memdom.Media)
	require.True(t, ok)
	sender := &fakeSender{}
	remote := NewRemote(registry, sender, "control", &logger, opts...)
	require.NoError(t, remote.Attach("main"))
	t.Cleanup(func() {
		remote.Close()
		registry.DestroyAll()
	})
	return &remoteFixture{registry: registry, sender: sender, remote: remote, media: media}
}

func command(t *testing.T, source string, cmd *event.Command) *event.Event {
	t.Helper()
	evt, err := event.NewEvent(cmd, "display", "")
	require.NoError(t, err)
	evt.Source = source
	return evt
}

func TestRemoteAttachSendsState(t *testing.T) {
	f := newRemoteFixture(t)
	all := f.sender.all()
	require.Len(t, all, 1)
	assert.Equal(t, "control", all[0].target)
	state, ok := all[0].data.(*event.PlayerState)
	require.True(t, ok)
	assert.Equal(t, "main", state.Player)
	assert.True(t, state.State.IsPaused)
}

func TestRemoteAttachUnknown(t *testing.T) {
	f := newRemoteFixture(t)
	assert.Error(t, f.remote.Attach("nope"))
}

func TestRemoteCommands(t *testing.T) {
	f := newRemoteFixture(t)
	f.media.SetDuration(100)

	f.remote.Handle(command(t, "ctl", &event.Command{Player: "main", Action: event.ActionSeek, Value: 30}))
	f.remote.Handle(command(t, "ctl", &event.Command{Player: "main", Action: event.ActionVolume, Value: 0.25}))
	f.remote.Handle(command(t, "ctl", &event.Command{Player: "main", Action: event.ActionRate, Value: 2}))

	p, ok := f.registry.Get("main")
	require.True(t, ok)
	state := p.State()
	assert.Equal(t, 30.0, state.CurrentTime)
	assert.Equal(t, 0.25, state.Volume)
	assert.Equal(t, 2.0, state.PlaybackRate)

	vol := f.sender.events("volumechange")
	require.NotEmpty(t, vol)
	assert.Equal(t, 0.25, vol[len(vol)-1].Value)
	assert.Equal(t, "main", vol[len(vol)-1].Player)
}

func TestRemotePlayPause(t *testing.T) {
	f := newRemoteFixture(t)
	p, _ := f.registry.Get("main")

	require.NoError(t, f.remote.Execute(&event.Command{Player: "main", Action: event.ActionPlay}, "ctl"))
	assert.Eventually(t, func() bool { return p.State().IsPlaying }, time.Second, 5*time.Millisecond)
	assert.NotEmpty(t, f.sender.events("play"))

	require.NoError(t, f.remote.Execute(&event.Command{Player: "main", Action: event.ActionPause}, "ctl"))
	assert.False(t, p.State().IsPlaying)
	assert.NotEmpty(t, f.sender.events("pause"))
}

func TestRemoteLoad(t *testing.T) {
	f := newRemoteFixture(t)
	require.NoError(t, f.remote.Execute(&event.Command{
		Player:  "main",
		Action:  event.ActionLoad,
		Sources: []event.Source{{URL: "a.webm", Type: "video/webm"}, {URL: "a.mp4", Type: "video/mp4"}},
	}, "ctl"))
	assert.Equal(t, []dom.MediaSource{
		{URL: "a.webm", MimeType: "video/webm"},
		{URL: "a.mp4", MimeType: "video/mp4"},
	}, f.media.Sources())
	assert.Equal(t, 1, f.media.LoadCalls())

	assert.Error(t, f.remote.Execute(&event.Command{Player: "main", Action: event.ActionLoad}, "ctl"))
}

func TestRemoteStateRepliesToSource(t *testing.T) {
	f := newRemoteFixture(t)
	f.remote.Handle(command(t, "ctl7", &event.Command{Player: "main", Action: event.ActionState}))
	all := f.sender.all()
	last := all[len(all)-1]
	assert.Equal(t, "ctl7", last.target)
	assert.IsType(t, &event.PlayerState{}, last.data)
}

func TestRemoteErrors(t *testing.T) {
	f := newRemoteFixture(t)
	assert.Error(t, f.remote.Execute(&event.Command{Player: "other", Action: event.ActionPause}, "ctl"))
	assert.Error(t, f.remote.Execute(&event.Command{Player: "main", Action: "rewind"}, "ctl"))
	assert.Error(t, f.remote.Execute(&event.Command{Player: "main", Action: event.ActionRate}, "ctl"))
	assert.Error(t, f.remote.Execute(&event.Command{Player: "main", Action: event.ActionScreenshot}, "ctl"))
}

func TestRemoteDestroy(t *testing.T) {
	f := newRemoteFixture(t)
	p, _ := f.registry.Get("main")
	require.NoError(t, f.remote.Execute(&event.Command{Player: "main", Action: event.ActionDestroy}, "ctl"))
	assert.True(t, p.IsDestroyed())
	_, ok := f.registry.Get("main")
	assert.False(t, ok)
}

func TestRemoteDetachStopsForwarding(t *testing.T) {
	f := newRemoteFixture(t)
	p, _ := f.registry.Get("main")
	f.remote.Detach("main")
	p.SetVolume(0.5)
	assert.Empty(t, f.sender.events("volumechange"))
}

func TestRemoteScreenshot(t *testing.T) {
	var gotW, gotH int
	f := newRemoteFixture(t, WithScreenshot(func(width, height int, sigma float64) ([]byte, string, error) {
		gotW, gotH = width, height
		return []byte{1, 2, 3}, "image/jpeg", nil
	}))
	require.NoError(t, f.remote.Execute(&event.Command{Player: "main", Action: event.ActionScreenshot, Width: 320, Height: 180}, "ctl"))
	assert.Equal(t, 320, gotW)
	assert.Equal(t, 180, gotH)
	all := f.sender.all()
	assert.Equal(t, sent{data: &event.Screenshot{Player: "main", MimeType: "image/jpeg", Data: []byte{1, 2, 3}}, target: "ctl"}, all[len(all)-1])
}

func TestRemoteNavigate(t *testing.T) {
	var got string
	f := newRemoteFixture(t, WithNavigate(func(u string) error {
		got = u
		return errors.New("offline")
	}))
	evt, err := event.NewEvent(event.NewGenericStringMessage(event.TypeBrowserNavigate, "http://localhost/player/main"), "display", "")
	require.NoError(t, err)
	f.remote.Handle(evt)
	assert.Equal(t, "http://localhost/player/main", got)
}
