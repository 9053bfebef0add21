// Package player wraps a native media element into a player with a typed
// event API and an explicit construct, wire and tear down lifecycle.
package player

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/google/uuid"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/work6189/PoPlayers/pkg/dom"
	"github.com/work6189/PoPlayers/pkg/eventbus"
	"github.com/work6189/PoPlayers/pkg/throttle"
)

const Version = "1.0.0"

const (
	timeUpdateInterval = 250 * time.Millisecond
	autoplayTimeout    = 10 * time.Second
)

// Surface is a user interface attached to a player, usually the control bar.
type Surface interface {
	Destroy()
}

type SurfaceFactory func(p *Player) (Surface, error)

// passthrough lists the native events which are forwarded without a value.
var passthrough = []struct {
	native string
	name   EventName
}{
	{dom.EventPlay, EventPlay},
	{dom.EventPause, EventPause},
	{dom.EventEnded, EventEnded},
	{dom.EventLoadStart, EventLoadStart},
	{dom.EventLoadedData, EventLoadedData},
	{dom.EventCanPlay, EventCanPlay},
	{dom.EventSeeking, EventSeeking},
	{dom.EventSeeked, EventSeeked},
}

type Player struct {
	id        string
	doc       dom.Document
	container dom.Element
	media     dom.MediaElement
	cfg       Config
	logger    zLogger.ZLogger
	clock     clockwork.Clock
	bus       *eventbus.Bus[EventName, Event]
	surface   Surface

	timeUpdate *throttle.Throttle[struct{}]
	bridges    []func()

	hooksMu sync.Mutex
	hooks   []func()

	// lifetime is cancelled by Destroy.
	lifetime     context.Context
	stopLifetime context.CancelFunc

	tearingDown atomic.Bool
	destroyed   atomic.Bool
}

// New builds a player inside the container referenced by ref.
func New(doc dom.Document, ref dom.Ref, opts ...Option) (*Player, error) {
	s := &settings{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Ref = ref.String()
		}
		return nil, err
	}
	container, ok := ref.Resolve(doc)
	if !ok {
		return nil, &ConfigurationError{Ref: ref.String(), Err: ErrContainerNotFound}
	}
	if s.logger == nil {
		nop := zerolog.Nop()
		s.logger = &nop
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}

	p := &Player{
		id:        s.id,
		doc:       doc,
		container: container,
		cfg:       s.cfg.clone(),
		logger:    s.logger,
		clock:     s.clock,
	}
	p.lifetime, p.stopLifetime = context.WithCancel(context.Background())
	p.bus = eventbus.New[EventName, Event](
		eventbus.WithErrorHandler[EventName](func(name EventName, err error) {
			p.logger.Error().Err(err).Str("player", p.id).Str("event", string(name)).Msg("listener failed")
		}),
	)
	p.timeUpdate = throttle.New(p.clock, timeUpdateInterval, func(struct{}) {
		props, err := p.media.Properties()
		if err != nil {
			p.logger.Error().Err(err).Str("player", p.id).Msg("cannot read current time")
			return
		}
		p.emit(Event{Name: EventTimeUpdate, CurrentTime: props.CurrentTime})
	})

	if err := p.setupContainer(); err != nil {
		p.abort()
		return nil, errors.Wrapf(err, "cannot set up container %s", ref)
	}
	if err := p.createMedia(); err != nil {
		p.abort()
		return nil, errors.Wrapf(err, "cannot create video element in %s", ref)
	}
	p.wireBridges()

	if p.cfg.Controls && s.surface != nil {
		surface, err := s.surface(p)
		if err != nil {
			p.Destroy()
			p.resetContainer()
			return nil, errors.Wrap(err, "cannot create controls")
		}
		p.surface = surface
	}

	p.logger.Debug().Str("player", p.id).Str("container", ref.String()).Msg("player ready")
	p.emit(Event{Name: EventReady})
	return p, nil
}

func (p *Player) containerClasses() []string {
	classes := []string{"poplayer", "theme-" + string(p.cfg.Theme)}
	if p.cfg.Responsive {
		classes = append(classes, "responsive")
	}
	return classes
}

var containerStyles = []string{"position", "width", "height"}

func (p *Player) setupContainer() error {
	if err := p.container.AddClass(p.containerClasses()...); err != nil {
		return errors.WithStack(err)
	}
	for _, style := range [][2]string{
		{containerStyles[0], "relative"},
		{containerStyles[1], p.cfg.Width.CSS()},
		{containerStyles[2], p.cfg.Height.CSS()},
	} {
		if err := p.container.SetStyle(style[0], style[1]); err != nil {
			return errors.Wrapf(err, "cannot set %s", style[0])
		}
	}
	return nil
}

// resetContainer removes the classes and styles set by setupContainer.
func (p *Player) resetContainer() {
	if err := p.container.RemoveClass(p.containerClasses()...); err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Msg("cannot reset container classes")
	}
	for _, property := range containerStyles {
		if err := p.container.SetStyle(property, ""); err != nil {
			p.logger.Error().Err(err).Str("player", p.id).Str("style", property).Msg("cannot reset container style")
		}
	}
}

// abort rolls back a construction which failed before the player was wired.
func (p *Player) abort() {
	p.stopLifetime()
	p.timeUpdate.Stop()
	p.resetContainer()
}

func (p *Player) createMedia() error {
	media, err := p.doc.CreateMedia("video", "video-element")
	if err != nil {
		return errors.WithStack(err)
	}
	steps := []func() error{
		func() error { return media.SetPreload(string(p.cfg.Preload)) },
		func() error { return media.SetMuted(p.cfg.Muted) },
		func() error { return media.SetLoop(p.cfg.Loop) },
		func() error { return media.SetVolume(p.cfg.Volume) },
		func() error {
			if p.cfg.Poster == "" {
				return nil
			}
			return media.SetPoster(p.cfg.Poster)
		},
		func() error { return media.SetStyle("width", "100%") },
		func() error { return media.SetStyle("height", "100%") },
		func() error { return media.SetStyle("display", "block") },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return errors.WithStack(err)
		}
	}
	if err := p.container.AppendChild(media); err != nil {
		return errors.Wrap(err, "cannot append video element")
	}
	p.media = media
	return nil
}

func (p *Player) listen(native string, fn func(dom.Event)) {
	p.bridges = append(p.bridges, p.media.AddEventListener(native, fn))
}

func (p *Player) wireBridges() {
	for _, pt := range passthrough {
		name := pt.name
		p.listen(pt.native, func(dom.Event) {
			p.emit(Event{Name: name})
		})
	}
	p.listen(dom.EventTimeUpdate, func(dom.Event) {
		p.timeUpdate.Call(struct{}{})
	})
	p.listen(dom.EventDurationChange, func(dom.Event) {
		if props, ok := p.properties(); ok {
			p.emit(Event{Name: EventDurationChange, Duration: knownDuration(props.Duration)})
		}
	})
	p.listen(dom.EventVolumeChange, func(dom.Event) {
		if props, ok := p.properties(); ok {
			p.emit(Event{Name: EventVolumeChange, Volume: props.Volume})
		}
	})
	p.listen(dom.EventRateChange, func(dom.Event) {
		if props, ok := p.properties(); ok {
			p.emit(Event{Name: EventRateChange, Rate: props.PlaybackRate})
		}
	})
	p.listen(dom.EventError, func(dom.Event) {
		props, ok := p.properties()
		if !ok || props.Error == nil {
			return
		}
		p.emit(Event{Name: EventError, Err: &MediaError{Code: props.Error.Code, Message: props.Error.Message}})
	})
	if fs := p.doc.Fullscreen(); fs != nil {
		p.bridges = append(p.bridges, fs.OnChange(func(fullscreen bool) {
			p.emit(Event{Name: EventFullscreenChange, Fullscreen: fullscreen})
		}))
	}
}

func (p *Player) properties() (dom.MediaProperties, bool) {
	props, err := p.media.Properties()
	if err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Msg("cannot read media properties")
		return dom.MediaProperties{}, false
	}
	return props, true
}

func (p *Player) emit(evt Event) {
	if evt.Name != EventTimeUpdate {
		p.logger.Debug().Str("player", p.id).Str("event", string(evt.Name)).Msg("emit")
	}
	p.bus.Emit(evt.Name, evt)
}

// closed reports whether teardown has started or finished.
func (p *Player) closed() bool {
	return p.tearingDown.Load() || p.destroyed.Load()
}

// once runs fn on the first eventType event. The registration is cancelled by
// the next Load or by Destroy.
func (p *Player) once(eventType string, fn func()) {
	var (
		mu     sync.Mutex
		done   bool
		remove func()
	)
	mu.Lock()
	remove = p.media.AddEventListener(eventType, func(dom.Event) {
		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		done = true
		mu.Unlock()
		remove()
		fn()
	})
	mu.Unlock()

	p.hooksMu.Lock()
	p.hooks = append(p.hooks, func() {
		mu.Lock()
		done = true
		mu.Unlock()
		remove()
	})
	p.hooksMu.Unlock()
}

func (p *Player) cancelHooks() {
	p.hooksMu.Lock()
	hooks := p.hooks
	p.hooks = nil
	p.hooksMu.Unlock()
	for _, cancel := range hooks {
		cancel()
	}
}

// Play starts playback and waits until the browser accepted or refused it.
// A refusal is returned as *PlaybackError and emitted as error event.
func (p *Player) Play(ctx context.Context) error {
	if p.closed() {
		return nil
	}
	if err := p.media.Play(ctx); err != nil {
		perr := &PlaybackError{Err: err}
		p.logger.Debug().Err(err).Str("player", p.id).Msg("play refused")
		p.emit(Event{Name: EventError, Err: perr})
		return perr
	}
	return nil
}

func (p *Player) Pause() {
	if p.closed() {
		return
	}
	if err := p.media.Pause(); err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Msg("cannot pause")
	}
}

// Stop pauses and rewinds to the start.
func (p *Player) Stop() {
	if p.closed() {
		return
	}
	p.Pause()
	if err := p.media.SetCurrentTime(0); err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Msg("cannot rewind")
	}
}

// Load replaces the current source and starts loading it.
func (p *Player) Load(src Source) {
	if p.closed() {
		return
	}
	p.cancelHooks()
	var err error
	if src.url != "" {
		err = p.media.SetSrc(src.url)
	} else {
		err = p.media.SetSources(src.mediaSources())
	}
	if err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Msg("cannot set source")
		return
	}
	if err := p.media.Load(); err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Msg("cannot load source")
		return
	}
	if p.cfg.StartTime > 0 {
		start := p.cfg.StartTime
		p.once(dom.EventLoadedData, func() { p.Seek(start) })
	}
	if p.cfg.Autoplay {
		p.once(dom.EventCanPlay, func() { go p.autoplay() })
	}
}

// autoplay runs off the event dispatcher. Destroy abandons a pending attempt.
func (p *Player) autoplay() {
	ctx, cancel := context.WithTimeout(p.lifetime, autoplayTimeout)
	defer cancel()
	if err := p.Play(ctx); err != nil && !p.closed() {
		p.logger.Warn().Err(err).Str("player", p.id).Msg("autoplay failed")
	}
}

// Seek jumps to seconds, clamped to the known duration.
func (p *Player) Seek(seconds float64) {
	if p.closed() {
		return
	}
	props, ok := p.properties()
	if !ok {
		return
	}
	if math.IsNaN(seconds) {
		seconds = 0
	}
	t := math.Max(0, math.Min(seconds, knownDuration(props.Duration)))
	if err := p.media.SetCurrentTime(t); err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Float64("time", t).Msg("cannot seek")
	}
}

// SetVolume sets the volume clamped to [0,1]. Zero mutes, anything else unmutes.
func (p *Player) SetVolume(volume float64) {
	if p.closed() {
		return
	}
	if math.IsNaN(volume) {
		volume = 0
	}
	v := math.Max(0, math.Min(1, volume))
	if err := p.media.SetVolume(v); err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Float64("volume", v).Msg("cannot set volume")
		return
	}
	if err := p.media.SetMuted(v == 0); err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Msg("cannot set muted")
	}
}

func (p *Player) SetPlaybackRate(rate float64) {
	if p.closed() {
		return
	}
	if err := p.media.SetPlaybackRate(rate); err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Float64("rate", rate).Msg("cannot set playback rate")
	}
}

func (p *Player) EnterFullscreen() {
	if p.closed() {
		return
	}
	fs := p.doc.Fullscreen()
	if fs == nil || !fs.Supported() {
		return
	}
	if err := fs.Request(p.container); err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Msg("cannot enter fullscreen")
	}
}

func (p *Player) ExitFullscreen() {
	if p.closed() {
		return
	}
	fs := p.doc.Fullscreen()
	if fs == nil || !fs.Supported() || !fs.IsFullscreen() {
		return
	}
	if err := fs.Exit(); err != nil {
		p.logger.Error().Err(err).Str("player", p.id).Msg("cannot exit fullscreen")
	}
}

// State reads the current state. A destroyed player reports a fixed paused state.
func (p *Player) State() State {
	if p.destroyed.Load() {
		return quiescentState
	}
	props, ok := p.properties()
	if !ok {
		return quiescentState
	}
	fullscreen := false
	if fs := p.doc.Fullscreen(); fs != nil {
		fullscreen = fs.IsFullscreen()
	}
	return stateFrom(props, fullscreen)
}

func (p *Player) On(name EventName, l Listener) {
	if p.closed() {
		return
	}
	p.bus.On(name, l)
}

func (p *Player) Off(name EventName, l Listener) {
	p.bus.Off(name, l)
}

// Destroy releases the player. It is safe to call more than once and from
// inside a listener.
func (p *Player) Destroy() {
	if !p.tearingDown.CompareAndSwap(false, true) {
		return
	}
	p.stopLifetime()
	if p.media != nil {
		if err := p.media.Pause(); err != nil {
			p.logger.Error().Err(err).Str("player", p.id).Msg("cannot pause")
		}
	}
	p.bus.RemoveAll()
	p.cancelHooks()
	for _, detach := range p.bridges {
		detach()
	}
	p.bridges = nil
	p.timeUpdate.Stop()
	if p.surface != nil {
		p.surface.Destroy()
	}
	if p.media != nil {
		if err := p.container.RemoveChild(p.media); err != nil {
			p.logger.Error().Err(err).Str("player", p.id).Msg("cannot remove video element")
		}
	}
	p.destroyed.Store(true)
	p.logger.Debug().Str("player", p.id).Msg("player destroyed")
}

func (p *Player) IsDestroyed() bool {
	return p.destroyed.Load()
}

func (p *Player) ID() string {
	return p.id
}

func (p *Player) Document() dom.Document {
	return p.doc
}

func (p *Player) Container() dom.Element {
	return p.container
}

func (p *Player) Media() dom.MediaElement {
	return p.media
}

// Config returns a copy of the configuration.
func (p *Player) Config() Config {
	return p.cfg.clone()
}

func (p *Player) Clock() clockwork.Clock {
	return p.clock
}

func (p *Player) Logger() zLogger.ZLogger {
	return p.logger
}
