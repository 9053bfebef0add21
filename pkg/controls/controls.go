package controls

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/jonboulle/clockwork"
	"github.com/work6189/PoPlayers/pkg/dom"
	"github.com/work6189/PoPlayers/pkg/player"
	"github.com/work6189/PoPlayers/pkg/throttle"
	"github.com/work6189/PoPlayers/pkg/timefmt"
)

const (
	defaultHideDelay = 3 * time.Second
	mouseMoveRate    = 100 * time.Millisecond
)

// Player is the public player API the control bar is built on.
type Player interface {
	Actions
	ID() string
	Document() dom.Document
	Container() dom.Element
	Clock() clockwork.Clock
	Logger() zLogger.ZLogger
	On(name player.EventName, l player.Listener)
	Off(name player.EventName, l player.Listener)
}

type Option func(*Controls)

// WithHideDelay sets how long the bar stays visible after the last mouse move.
func WithHideDelay(d time.Duration) Option {
	return func(c *Controls) { c.hideDelay = d }
}

// WithKeyboard enables or disables the keyboard shortcuts.
func WithKeyboard(enabled bool) Option {
	return func(c *Controls) { c.keyboard = enabled }
}

// Factory returns the surface factory which installs the control bar into new players.
func Factory(opts ...Option) player.SurfaceFactory {
	return func(p *player.Player) (player.Surface, error) {
		c, err := New(p, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type subscription struct {
	name     player.EventName
	listener player.Listener
}

// Controls is the control bar of a player.
type Controls struct {
	p         Player
	actions   *actions
	logger    zLogger.ZLogger
	clock     clockwork.Clock
	hideDelay time.Duration
	keyboard  bool

	root, bar, progress, filled  dom.Element
	handle                       dom.Element
	playButton, volumeButton     dom.Element
	volumeGroup, volumeSlider    dom.Element
	rateButton, fullscreenButton dom.Element
	timeDisplay                  dom.Element

	subscriptions []subscription
	removers      []func()
	mouseMove     *throttle.Throttle[struct{}]

	mu          sync.Mutex
	hideTimer   clockwork.Timer
	hidden      bool
	sliderValue string

	// focused is set while the container or one of its descendants has focus.
	focused  atomic.Bool
	dragging atomic.Bool

	destroyed atomic.Bool
}

// New builds the control bar and appends it to the player container.
func New(p Player, opts ...Option) (*Controls, error) {
	c := &Controls{
		p:         p,
		logger:    p.Logger(),
		clock:     p.Clock(),
		hideDelay: defaultHideDelay,
		keyboard:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.actions = newActions(p, c.logger)
	if err := c.build(); err != nil {
		return nil, errors.Wrapf(err, "cannot build controls of player %s", p.ID())
	}
	c.subscribe()
	c.wire()
	c.render(p.State())
	return c, nil
}

func (c *Controls) build() error {
	doc := c.p.Document()
	var err error
	create := func(tag, class string) dom.Element {
		if err != nil {
			return nil
		}
		var el dom.Element
		el, err = doc.CreateElement(tag, class)
		return el
	}
	c.root = create("div", "player-controls")
	c.bar = create("div", "controls-bar")
	c.playButton = create("button", "play-button")
	c.progress = create("div", "progress-bar")
	c.filled = create("div", "progress-filled")
	c.handle = create("div", "progress-handle")
	c.timeDisplay = create("div", "time-display")
	c.volumeGroup = create("div", "volume-container")
	c.volumeButton = create("button", "volume-button")
	c.volumeSlider = create("input", "volume-slider")
	c.rateButton = create("button", "rate-button")
	c.fullscreenButton = create("button", "fullscreen-button")
	if err != nil {
		return errors.WithStack(err)
	}

	for _, pair := range [][2]dom.Element{
		{c.progress, c.filled},
		{c.progress, c.handle},
		{c.volumeGroup, c.volumeButton},
		{c.volumeGroup, c.volumeSlider},
		{c.bar, c.playButton},
		{c.bar, c.progress},
		{c.bar, c.timeDisplay},
		{c.bar, c.volumeGroup},
		{c.bar, c.rateButton},
		{c.bar, c.fullscreenButton},
		{c.root, c.bar},
	} {
		if err := pair[0].AppendChild(pair[1]); err != nil {
			return errors.WithStack(err)
		}
	}
	for _, attr := range []struct {
		el          dom.Element
		name, value string
	}{
		{c.playButton, "aria-label", "Play"},
		{c.volumeButton, "aria-label", "Mute"},
		{c.volumeSlider, "aria-label", "Volume"},
		{c.volumeSlider, "type", "range"},
		{c.volumeSlider, "min", "0"},
		{c.volumeSlider, "max", "1"},
		{c.volumeSlider, "step", strconv.FormatFloat(volumeStep, 'f', -1, 64)},
		{c.rateButton, "aria-label", "Playback rate"},
		{c.fullscreenButton, "aria-label", "Fullscreen"},
	} {
		if err := attr.el.SetAttribute(attr.name, attr.value); err != nil {
			return errors.WithStack(err)
		}
	}
	// the container must be focusable for the keyboard shortcuts
	if err := c.p.Container().SetAttribute("tabindex", "0"); err != nil {
		return errors.WithStack(err)
	}
	if err := c.p.Container().AppendChild(c.root); err != nil {
		return errors.Wrap(err, "cannot append control bar")
	}
	return nil
}

func (c *Controls) subscribe() {
	refresh := player.Handler(func(player.Event) {
		c.render(c.p.State())
	})
	for _, name := range []player.EventName{
		player.EventPlay,
		player.EventPause,
		player.EventEnded,
		player.EventTimeUpdate,
		player.EventSeeked,
		player.EventDurationChange,
		player.EventVolumeChange,
		player.EventRateChange,
		player.EventFullscreenChange,
	} {
		c.p.On(name, refresh)
		c.subscriptions = append(c.subscriptions, subscription{name: name, listener: refresh})
	}
	show := player.Handler(func(player.Event) { c.show() })
	c.p.On(player.EventPause, show)
	c.subscriptions = append(c.subscriptions, subscription{name: player.EventPause, listener: show})
}

func (c *Controls) onClick(el dom.Element, fn func(dom.Event)) {
	c.removers = append(c.removers, el.AddEventListener(dom.EventClick, fn))
}

func (c *Controls) wire() {
	c.onClick(c.playButton, func(dom.Event) { c.actions.togglePlay() })
	c.onClick(c.progress, func(evt dom.Event) { c.actions.seekFraction(evt.Fraction) })
	c.onClick(c.volumeButton, func(dom.Event) { c.actions.toggleMute() })
	c.onClick(c.rateButton, func(dom.Event) { c.actions.nextRate() })
	c.onClick(c.fullscreenButton, func(dom.Event) { c.actions.toggleFullscreen() })
	c.removers = append(c.removers, c.volumeSlider.AddEventListener(dom.EventInput, c.volumeInput))

	// dragging the handle seeks while the pointer moves over the bar
	c.removers = append(c.removers,
		c.handle.AddEventListener(dom.EventMouseDown, func(dom.Event) { c.dragging.Store(true) }),
		c.progress.AddEventListener(dom.EventMouseMove, func(evt dom.Event) {
			if c.dragging.Load() {
				c.actions.seekFraction(min(1, max(0, evt.Fraction)))
			}
		}),
		c.p.Document().AddEventListener(dom.EventMouseUp, func(dom.Event) { c.dragging.Store(false) }),
	)

	container := c.p.Container()
	if c.keyboard {
		c.removers = append(c.removers,
			container.AddEventListener(dom.EventFocusIn, func(dom.Event) { c.focused.Store(true) }),
			container.AddEventListener(dom.EventFocusOut, func(dom.Event) { c.focused.Store(false) }),
			c.p.Document().AddEventListener(dom.EventKeyDown, c.keyDown),
		)
	}

	c.mouseMove = throttle.New(c.clock, mouseMoveRate, func(struct{}) { c.show() })
	c.removers = append(c.removers,
		container.AddEventListener(dom.EventMouseMove, func(dom.Event) { c.mouseMove.Call(struct{}{}) }),
		container.AddEventListener(dom.EventMouseLeave, func(dom.Event) {
			if c.p.State().IsPlaying {
				c.hide()
			}
		}),
	)
}

func (c *Controls) volumeInput(evt dom.Event) {
	volume, err := strconv.ParseFloat(evt.Value, 64)
	if err != nil {
		c.logger.Warn().Err(err).Str("value", evt.Value).Msg("invalid volume slider value")
		return
	}
	c.p.SetVolume(volume)
}

// keyDown only acts on the player holding the focus.
func (c *Controls) keyDown(evt dom.Event) {
	if c.destroyed.Load() || !c.focused.Load() {
		return
	}
	switch evt.Code {
	case "Space":
		c.actions.togglePlay()
	case "ArrowLeft":
		c.actions.seekBy(-seekStep)
	case "ArrowRight":
		c.actions.seekBy(seekStep)
	case "ArrowUp":
		c.actions.volumeBy(volumeStep)
	case "ArrowDown":
		c.actions.volumeBy(-volumeStep)
	case "KeyF":
		c.actions.toggleFullscreen()
	case "KeyM":
		c.actions.toggleMute()
	default:
		return
	}
	c.show()
}

// show makes the bar visible and schedules hiding it while the player plays.
func (c *Controls) show() {
	if c.destroyed.Load() {
		return
	}
	c.mu.Lock()
	if c.hideTimer != nil {
		c.hideTimer.Stop()
	}
	c.hideTimer = c.clock.AfterFunc(c.hideDelay, func() {
		if c.p.State().IsPlaying {
			c.hide()
		}
	})
	wasHidden := c.hidden
	c.hidden = false
	c.mu.Unlock()
	if wasHidden {
		c.setClass(c.root, "hidden", false)
	}
}

func (c *Controls) hide() {
	if c.destroyed.Load() {
		return
	}
	c.mu.Lock()
	wasHidden := c.hidden
	c.hidden = true
	c.mu.Unlock()
	if !wasHidden {
		c.setClass(c.root, "hidden", true)
	}
}

// Hidden reports whether the bar is currently hidden.
func (c *Controls) Hidden() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hidden
}

func (c *Controls) setClass(el dom.Element, class string, set bool) {
	var err error
	if set {
		err = el.AddClass(class)
	} else {
		err = el.RemoveClass(class)
	}
	if err != nil {
		c.logger.Error().Err(err).Str("class", class).Msg("cannot update control bar")
	}
}

func (c *Controls) setText(el dom.Element, text string) {
	if err := el.SetText(text); err != nil {
		c.logger.Error().Err(err).Msg("cannot update control bar")
	}
}

func (c *Controls) render(state player.State) {
	if c.destroyed.Load() {
		return
	}
	c.setClass(c.playButton, "playing", state.IsPlaying)
	c.setClass(c.playButton, "paused", !state.IsPlaying)
	if state.IsPlaying {
		c.setText(c.playButton, "❚❚")
	} else {
		c.setText(c.playButton, "▶")
	}

	var pct float64
	if state.Duration > 0 {
		pct = min(100, state.CurrentTime/state.Duration*100)
	}
	position := strconv.FormatFloat(pct, 'f', 2, 64) + "%"
	if err := c.filled.SetStyle("width", position); err != nil {
		c.logger.Error().Err(err).Msg("cannot update progress")
	}
	if err := c.handle.SetStyle("left", position); err != nil {
		c.logger.Error().Err(err).Msg("cannot update progress")
	}
	c.setText(c.timeDisplay, timefmt.Pair(state.CurrentTime, state.Duration))

	muted := state.IsMuted || state.Volume == 0
	c.setClass(c.volumeButton, "muted", muted)
	if muted {
		c.setText(c.volumeButton, "🔇")
	} else {
		c.setText(c.volumeButton, "🔊")
	}
	volume := state.Volume
	if state.IsMuted {
		volume = 0
	}
	c.syncSlider(strconv.FormatFloat(volume, 'f', -1, 64))
	c.setText(c.rateButton, rateLabel(state.PlaybackRate))
	c.setClass(c.fullscreenButton, "active", state.IsFullscreen)
}

// syncSlider writes the slider value when it differs from the last one written.
func (c *Controls) syncSlider(value string) {
	c.mu.Lock()
	changed := c.sliderValue != value
	c.sliderValue = value
	c.mu.Unlock()
	if !changed {
		return
	}
	if err := c.volumeSlider.SetValue(value); err != nil {
		c.logger.Error().Err(err).Msg("cannot update volume slider")
	}
}

func rateLabel(rate float64) string {
	return fmt.Sprintf("%sx", strconv.FormatFloat(rate, 'f', -1, 64))
}

// Destroy removes the control bar. It is safe to call more than once.
func (c *Controls) Destroy() {
	if !c.destroyed.CompareAndSwap(false, true) {
		return
	}
	for _, sub := range c.subscriptions {
		c.p.Off(sub.name, sub.listener)
	}
	c.subscriptions = nil
	for _, remove := range c.removers {
		remove()
	}
	c.removers = nil
	c.mouseMove.Stop()
	c.mu.Lock()
	if c.hideTimer != nil {
		c.hideTimer.Stop()
		c.hideTimer = nil
	}
	c.mu.Unlock()
	if err := c.p.Container().RemoveChild(c.root); err != nil {
		c.logger.Error().Err(err).Msg("cannot remove control bar")
	}
}
