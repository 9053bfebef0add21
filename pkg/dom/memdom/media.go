package memdom

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/work6189/PoPlayers/pkg/dom"
)

// Media is a scriptable media element. Property setters fire the events a
// browser would fire; tests drive the rest (loadeddata, canplay, ended,
// timeupdate, errors) through the helper methods.
type Media struct {
	*Element

	mu        sync.Mutex
	props     dom.MediaProperties
	src       string
	sources   []dom.MediaSource
	preload   string
	poster    string
	loop      bool
	loadCalls int
	playCalls int
	playFunc  func(ctx context.Context) error
}

func newMedia(el *Element) *Media {
	m := &Media{
		Element: el,
		props: dom.MediaProperties{
			Paused:       true,
			Duration:     math.NaN(),
			Volume:       1,
			PlaybackRate: 1,
		},
	}
	el.media = m
	return m
}

func (m *Media) fire(eventType string) {
	m.Dispatch(dom.Event{Type: eventType})
}

func (m *Media) Properties() (dom.MediaProperties, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	props := m.props
	props.Buffered = slices.Clone(m.props.Buffered)
	props.Seekable = slices.Clone(m.props.Seekable)
	return props, nil
}

// SetPlayFunc replaces the default play behaviour. The function runs instead
// of the state change; return nil from it and call Started to emulate a
// successful start.
func (m *Media) SetPlayFunc(fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playFunc = fn
}

func (m *Media) Play(ctx context.Context) error {
	m.mu.Lock()
	m.playCalls++
	fn := m.playFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	m.Started()
	return nil
}

// Started flips the element into the playing state and fires play.
func (m *Media) Started() {
	m.mu.Lock()
	if !m.props.Paused {
		m.mu.Unlock()
		return
	}
	m.props.Paused = false
	m.props.Ended = false
	m.mu.Unlock()
	m.fire(dom.EventPlay)
}

func (m *Media) Pause() error {
	m.mu.Lock()
	if m.props.Paused {
		m.mu.Unlock()
		return nil
	}
	m.props.Paused = true
	m.mu.Unlock()
	m.fire(dom.EventPause)
	return nil
}

func (m *Media) Load() error {
	m.mu.Lock()
	m.loadCalls++
	wasPlaying := !m.props.Paused
	m.props.Paused = true
	m.props.Ended = false
	m.props.CurrentTime = 0
	m.props.Duration = math.NaN()
	m.props.Error = nil
	m.mu.Unlock()
	if wasPlaying {
		m.fire(dom.EventPause)
	}
	m.fire(dom.EventLoadStart)
	return nil
}

func (m *Media) SetCurrentTime(seconds float64) error {
	m.mu.Lock()
	m.props.CurrentTime = seconds
	m.mu.Unlock()
	m.fire(dom.EventSeeking)
	m.fire(dom.EventSeeked)
	return nil
}

func (m *Media) SetVolume(volume float64) error {
	m.mu.Lock()
	changed := m.props.Volume != volume
	m.props.Volume = volume
	m.mu.Unlock()
	if changed {
		m.fire(dom.EventVolumeChange)
	}
	return nil
}

func (m *Media) SetMuted(muted bool) error {
	m.mu.Lock()
	changed := m.props.Muted != muted
	m.props.Muted = muted
	m.mu.Unlock()
	if changed {
		m.fire(dom.EventVolumeChange)
	}
	return nil
}

func (m *Media) SetPlaybackRate(rate float64) error {
	m.mu.Lock()
	changed := m.props.PlaybackRate != rate
	m.props.PlaybackRate = rate
	m.mu.Unlock()
	if changed {
		m.fire(dom.EventRateChange)
	}
	return nil
}

func (m *Media) SetLoop(loop bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loop = loop
	return nil
}

func (m *Media) SetPreload(preload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preload = preload
	return nil
}

func (m *Media) SetPoster(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poster = url
	return nil
}

func (m *Media) SetSrc(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.src = url
	m.sources = nil
	return nil
}

func (m *Media) SetSources(sources []dom.MediaSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.src = ""
	m.sources = slices.Clone(sources)
	return nil
}

// Src returns the src attribute.
func (m *Media) Src() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src
}

// Sources returns the installed <source> candidates.
func (m *Media) Sources() []dom.MediaSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sources)
}

func (m *Media) Preload() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preload
}

func (m *Media) Poster() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poster
}

func (m *Media) Loop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop
}

func (m *Media) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

func (m *Media) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// SetDuration sets the duration and fires durationchange.
func (m *Media) SetDuration(seconds float64) {
	m.mu.Lock()
	m.props.Duration = seconds
	m.mu.Unlock()
	m.fire(dom.EventDurationChange)
}

// SetRanges sets the buffered and seekable ranges.
func (m *Media) SetRanges(buffered, seekable dom.TimeRanges) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.props.Buffered = slices.Clone(buffered)
	m.props.Seekable = slices.Clone(seekable)
}

// Progress moves the playback position and fires timeupdate.
func (m *Media) Progress(seconds float64) {
	m.mu.Lock()
	m.props.CurrentTime = seconds
	m.mu.Unlock()
	m.fire(dom.EventTimeUpdate)
}

// LoadedData fires loadeddata.
func (m *Media) LoadedData() {
	m.fire(dom.EventLoadedData)
}

// CanPlay fires canplay.
func (m *Media) CanPlay() {
	m.fire(dom.EventCanPlay)
}

// End stops playback at the end of the media and fires ended.
func (m *Media) End() {
	m.mu.Lock()
	m.props.Paused = true
	m.props.Ended = true
	if !math.IsNaN(m.props.Duration) {
		m.props.CurrentTime = m.props.Duration
	}
	m.mu.Unlock()
	m.fire(dom.EventPause)
	m.fire(dom.EventEnded)
}

// Fail sets the media error and fires error.
func (m *Media) Fail(code int, message string) {
	m.mu.Lock()
	m.props.Error = &dom.MediaError{Code: code, Message: message}
	m.mu.Unlock()
	m.fire(dom.EventError)
}

var _ dom.MediaElement = (*Media)(nil)
