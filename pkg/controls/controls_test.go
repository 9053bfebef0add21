package controls_test

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work6189/PoPlayers/pkg/controls"
	"github.com/work6189/PoPlayers/pkg/dom"
	"github.com/work6189/PoPlayers/pkg/dom/memdom"
	"github.com/work6189/PoPlayers/pkg/player"
)

type fixture struct {
	doc       *memdom.Document
	container *memdom.Element
	player    *player.Player
	media     *memdom.Media
	clock     *clockwork.FakeClock
}

func newFixture(t *testing.T, opts ...player.Option) *fixture {
	t.Helper()
	doc := memdom.New()
	container := doc.AddContainer("player")
	clock := clockwork.NewFakeClock()
	opts = append([]player.Option{
		player.WithClock(clock),
		player.WithSurface(controls.Factory()),
	}, opts...)
	p, err := player.New(doc, dom.ID("player"), opts...)
	require.NoError(t, err)
	t.Cleanup(p.Destroy)
	return &fixture{
		doc:       doc,
		container: container,
		player:    p,
		media:     p.Media().(*memdom.Media),
		clock:     clock,
	}
}

func (f *fixture) find(t *testing.T, class string) *memdom.Element {
	t.Helper()
	el := f.container.Find(class)
	require.NotNil(t, el, "element .%s", class)
	return el
}

func TestControls_Structure(t *testing.T) {
	f := newFixture(t)
	root := f.find(t, "player-controls")
	bar := root.Find("controls-bar")
	require.NotNil(t, bar)
	for _, class := range []string{"play-button", "progress-bar", "time-display", "volume-container", "volume-button", "volume-slider", "rate-button", "fullscreen-button"} {
		assert.NotNil(t, bar.Find(class), class)
	}
	assert.NotNil(t, f.find(t, "progress-bar").Find("progress-filled"))
	assert.NotNil(t, f.find(t, "progress-bar").Find("progress-handle"))
	assert.NotNil(t, f.find(t, "volume-container").Find("volume-slider"))

	slider := f.find(t, "volume-slider")
	assert.Equal(t, "range", slider.Attribute("type"))
	assert.Equal(t, "0", slider.Attribute("min"))
	assert.Equal(t, "1", slider.Attribute("max"))
	assert.Equal(t, "0.1", slider.Attribute("step"))
	assert.Equal(t, "1", slider.Value())
	assert.Equal(t, "0", f.container.Attribute("tabindex"))

	assert.Equal(t, "▶", f.find(t, "play-button").Text())
	assert.Equal(t, "0:00 / 0:00", f.find(t, "time-display").Text())
	assert.Equal(t, "1x", f.find(t, "rate-button").Text())
	assert.Equal(t, "Play", f.find(t, "play-button").Attribute("aria-label"))
}

func TestControls_NotBuiltWhenDisabled(t *testing.T) {
	f := newFixture(t, player.WithControls(false))
	assert.Nil(t, f.container.Find("player-controls"))
	assert.Zero(t, f.doc.ListenerCount(dom.EventKeyDown))
}

func TestControls_PlayButton(t *testing.T) {
	f := newFixture(t)
	button := f.find(t, "play-button")

	button.Click(0)
	assert.Eventually(t, func() bool { return f.player.State().IsPlaying }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return button.Text() == "❚❚" }, time.Second, 5*time.Millisecond)
	assert.True(t, button.HasClass("playing"))

	button.Click(0)
	assert.False(t, f.player.State().IsPlaying)
	assert.True(t, button.HasClass("paused"))
	assert.False(t, button.HasClass("playing"))
}

func TestControls_ProgressAndTime(t *testing.T) {
	f := newFixture(t)
	f.media.SetDuration(100)
	f.find(t, "progress-bar").Click(0.25)

	assert.Equal(t, 25.0, f.player.State().CurrentTime)
	assert.Equal(t, "0:25 / 1:40", f.find(t, "time-display").Text())
	assert.Equal(t, "25.00%", f.find(t, "progress-filled").Style("width"))
	assert.Equal(t, "25.00%", f.find(t, "progress-handle").Style("left"))
}

func TestControls_DragSeek(t *testing.T) {
	f := newFixture(t)
	f.media.SetDuration(200)
	progress := f.find(t, "progress-bar")
	handle := f.find(t, "progress-handle")
	move := func(fraction float64) {
		progress.Dispatch(dom.Event{Type: dom.EventMouseMove, Fraction: fraction})
	}

	move(0.5)
	assert.Equal(t, 0.0, f.player.State().CurrentTime, "moving without a drag does not seek")

	handle.Dispatch(dom.Event{Type: dom.EventMouseDown})
	move(0.1)
	assert.Equal(t, 20.0, f.player.State().CurrentTime)
	move(0.75)
	assert.Equal(t, 150.0, f.player.State().CurrentTime)
	assert.Equal(t, "75.00%", handle.Style("left"))

	f.doc.Dispatch(dom.Event{Type: dom.EventMouseUp})
	move(0.2)
	assert.Equal(t, 150.0, f.player.State().CurrentTime)
}

func TestControls_VolumeSlider(t *testing.T) {
	f := newFixture(t)
	slider := f.find(t, "volume-slider")

	slider.Dispatch(dom.Event{Type: dom.EventInput, Value: "0.3"})
	assert.InDelta(t, 0.3, f.player.State().Volume, 1e-9)
	assert.False(t, f.player.State().IsMuted)

	slider.Dispatch(dom.Event{Type: dom.EventInput, Value: "0"})
	assert.True(t, f.player.State().IsMuted)
	assert.True(t, f.find(t, "volume-button").HasClass("muted"))

	slider.Dispatch(dom.Event{Type: dom.EventInput, Value: "loud"})
	assert.True(t, f.player.State().IsMuted)

	f.player.SetVolume(0.8)
	assert.Equal(t, "0.8", slider.Value())
	f.find(t, "volume-button").Click(0)
	assert.Equal(t, "0", slider.Value())
}

func TestControls_VolumeButton(t *testing.T) {
	f := newFixture(t, player.WithVolume(0.6))
	button := f.find(t, "volume-button")

	button.Click(0)
	state := f.player.State()
	assert.True(t, state.IsMuted)
	assert.Equal(t, 0.0, state.Volume)
	assert.True(t, button.HasClass("muted"))

	button.Click(0)
	state = f.player.State()
	assert.False(t, state.IsMuted)
	assert.Equal(t, 0.6, state.Volume)
	assert.False(t, button.HasClass("muted"))
}

func TestControls_RateButton(t *testing.T) {
	f := newFixture(t, player.WithPlaybackRates(0.5, 1, 2))
	button := f.find(t, "rate-button")

	button.Click(0)
	assert.Equal(t, 2.0, f.player.State().PlaybackRate)
	assert.Equal(t, "2x", button.Text())
	button.Click(0)
	assert.Equal(t, 0.5, f.player.State().PlaybackRate)
	assert.Equal(t, "0.5x", button.Text())
	button.Click(0)
	assert.Equal(t, 1.0, f.player.State().PlaybackRate)
}

func TestControls_FullscreenButton(t *testing.T) {
	f := newFixture(t)
	button := f.find(t, "fullscreen-button")

	button.Click(0)
	assert.True(t, f.player.State().IsFullscreen)
	assert.True(t, button.HasClass("active"))

	button.Click(0)
	assert.False(t, f.player.State().IsFullscreen)
	assert.False(t, button.HasClass("active"))
}

func TestControls_Keyboard(t *testing.T) {
	f := newFixture(t, player.WithVolume(0.5))
	f.media.SetDuration(100)
	key := func(code string) {
		f.doc.Dispatch(dom.Event{Type: dom.EventKeyDown, Code: code})
	}

	key("ArrowRight")
	assert.Equal(t, 0.0, f.player.State().CurrentTime, "keys are ignored without focus")
	f.container.Dispatch(dom.Event{Type: dom.EventFocusIn})

	key("ArrowRight")
	key("ArrowRight")
	assert.Equal(t, 20.0, f.player.State().CurrentTime)
	key("ArrowLeft")
	assert.Equal(t, 10.0, f.player.State().CurrentTime)

	key("ArrowUp")
	assert.InDelta(t, 0.6, f.player.State().Volume, 1e-9)
	key("ArrowDown")
	key("ArrowDown")
	assert.InDelta(t, 0.4, f.player.State().Volume, 1e-9)

	key("KeyM")
	assert.True(t, f.player.State().IsMuted)
	key("KeyM")
	assert.Equal(t, 0.5, f.player.State().Volume)

	key("KeyF")
	assert.True(t, f.player.State().IsFullscreen)
	key("KeyF")
	assert.False(t, f.player.State().IsFullscreen)

	key("Space")
	assert.Eventually(t, func() bool { return f.player.State().IsPlaying }, time.Second, 5*time.Millisecond)
	key("Space")
	assert.False(t, f.player.State().IsPlaying)

	key("KeyQ")

	f.container.Dispatch(dom.Event{Type: dom.EventFocusOut})
	key("ArrowRight")
	assert.Equal(t, 0.0, f.player.State().CurrentTime)
}

func TestControls_KeyboardFollowsFocus(t *testing.T) {
	doc := memdom.New()
	containers := map[string]*memdom.Element{"a": doc.AddContainer("a"), "b": doc.AddContainer("b")}
	registry := player.NewRegistry(player.WithSurface(controls.Factory()))
	defer registry.DestroyAll()
	for name := range containers {
		p, err := registry.Create(name, doc, dom.ID(name))
		require.NoError(t, err)
		p.Media().(*memdom.Media).SetDuration(60)
	}
	a, _ := registry.Get("a")
	b, _ := registry.Get("b")
	arrowRight := dom.Event{Type: dom.EventKeyDown, Code: "ArrowRight"}

	containers["a"].Dispatch(dom.Event{Type: dom.EventFocusIn})
	doc.Dispatch(arrowRight)
	assert.Equal(t, 10.0, a.State().CurrentTime)
	assert.Equal(t, 0.0, b.State().CurrentTime)

	// focus moves from a to b
	containers["a"].Dispatch(dom.Event{Type: dom.EventFocusOut})
	containers["b"].Dispatch(dom.Event{Type: dom.EventFocusIn})
	doc.Dispatch(arrowRight)
	assert.Equal(t, 10.0, a.State().CurrentTime)
	assert.Equal(t, 10.0, b.State().CurrentTime)
}

func TestControls_AutoHide(t *testing.T) {
	f := newFixture(t)
	root := f.find(t, "player-controls")
	f.media.Started()

	f.container.Dispatch(dom.Event{Type: dom.EventMouseMove})
	assert.False(t, root.HasClass("hidden"))

	f.clock.Advance(3 * time.Second)
	assert.Eventually(t, func() bool { return root.HasClass("hidden") }, time.Second, 5*time.Millisecond)

	f.clock.Advance(time.Second)
	f.container.Dispatch(dom.Event{Type: dom.EventMouseMove})
	assert.Eventually(t, func() bool { return !root.HasClass("hidden") }, time.Second, 5*time.Millisecond)

	f.container.Dispatch(dom.Event{Type: dom.EventMouseLeave})
	assert.True(t, root.HasClass("hidden"))

	// pausing brings the bar back
	require.NoError(t, f.media.Pause())
	assert.False(t, root.HasClass("hidden"))
}

func TestControls_StaysVisibleWhilePaused(t *testing.T) {
	f := newFixture(t)
	root := f.find(t, "player-controls")

	f.container.Dispatch(dom.Event{Type: dom.EventMouseMove})
	f.container.Dispatch(dom.Event{Type: dom.EventMouseLeave})
	f.clock.Advance(5 * time.Second)
	assert.Never(t, func() bool { return root.HasClass("hidden") }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestControls_DestroyedWithPlayer(t *testing.T) {
	f := newFixture(t)
	require.NotNil(t, f.container.Find("player-controls"))
	require.Equal(t, 1, f.doc.ListenerCount(dom.EventKeyDown))

	f.player.Destroy()
	assert.Nil(t, f.container.Find("player-controls"))
	assert.Zero(t, f.doc.ListenerCount(dom.EventKeyDown))
	assert.Zero(t, f.container.ListenerCount(dom.EventMouseMove))
	assert.Zero(t, f.container.ListenerCount(dom.EventMouseLeave))
	assert.Zero(t, f.container.ListenerCount(dom.EventFocusIn))
	assert.Zero(t, f.container.ListenerCount(dom.EventFocusOut))
	assert.Zero(t, f.doc.ListenerCount(dom.EventMouseUp))
}

func TestControls_DestroyIdempotent(t *testing.T) {
	doc := memdom.New()
	doc.AddContainer("player")
	p, err := player.New(doc, dom.ID("player"), player.WithControls(false))
	require.NoError(t, err)
	defer p.Destroy()

	c, err := controls.New(p, controls.WithKeyboard(false))
	require.NoError(t, err)
	assert.Zero(t, doc.ListenerCount(dom.EventKeyDown))
	c.Destroy()
	c.Destroy()
	assert.Nil(t, p.Container().(*memdom.Element).Find("player-controls"))
}

func TestView_Render(t *testing.T) {
	line := controls.View{Width: 60}.Render(player.State{
		IsPlaying:    true,
		CurrentTime:  83,
		Duration:     296,
		Volume:       1,
		PlaybackRate: 1,
	})
	assert.Contains(t, line, "▶")
	assert.Contains(t, line, "1:23")
	assert.Contains(t, line, "4:56")
	assert.Contains(t, line, "▓")
	assert.Contains(t, line, "░")
	assert.Contains(t, line, "100%")
	assert.Contains(t, line, "1x")

	narrow := controls.View{Width: 10}.Render(player.State{IsPaused: true, IsMuted: true, PlaybackRate: 1})
	assert.Contains(t, narrow, "0:00 / 0:00")
	assert.Contains(t, narrow, "🔇")
}

func TestModel_Keys(t *testing.T) {
	doc := memdom.New()
	doc.AddContainer("player")
	p, err := player.New(doc, dom.ID("player"), player.WithControls(false))
	require.NoError(t, err)
	defer p.Destroy()
	p.Media().(*memdom.Media).SetDuration(60)

	var m tea.Model = controls.NewModel("lobby", p, p.Logger())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 10.0, p.State().CurrentTime)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	assert.True(t, p.State().IsMuted)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	assert.Eventually(t, func() bool { return p.State().IsPlaying }, time.Second, 5*time.Millisecond)
	assert.Contains(t, m.View(), "lobby")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_FollowsRecreatedPlayer(t *testing.T) {
	doc := memdom.New()
	doc.AddContainer("player")
	registry := player.NewRegistry(player.WithControls(false))
	defer registry.DestroyAll()
	first, err := registry.Create("main", doc, dom.ID("player"))
	require.NoError(t, err)

	var m tea.Model = controls.NewModel("lobby", controls.Registered(registry, "main"), first.Logger())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	assert.True(t, first.State().IsMuted)

	require.True(t, registry.Destroy("main"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	second, err := registry.Create("main", doc, dom.ID("player"))
	require.NoError(t, err)

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	assert.True(t, second.State().IsMuted, "keys reach the recreated player")
}
