// Package dom describes the browser capabilities the player is built on.
//
// The interfaces are implemented by pkg/browser for a live page driven
// through the Chrome DevTools protocol and by pkg/dom/memdom in memory.
package dom

import "context"

// Event is a DOM event delivered to a Go listener.
type Event struct {
	Type string
	// Code is the KeyboardEvent.code of key events.
	Code string
	// Fraction is the horizontal pointer position relative to the target
	// element, in [0,1], for pointer events.
	Fraction float64
	// Value is the value of the target form control, for input events.
	Value string
}

// Element is a handle to a node of the document.
type Element interface {
	ID() string
	Tag() string
	AppendChild(child Element) error
	RemoveChild(child Element) error
	AddClass(names ...string) error
	RemoveClass(names ...string) error
	// SetStyle sets an inline style property. An empty value removes it.
	SetStyle(property, value string) error
	SetAttribute(name, value string) error
	SetText(text string) error
	// SetValue sets the value of a form control.
	SetValue(value string) error
	// AddEventListener registers fn for eventType and returns a function which
	// removes the registration.
	AddEventListener(eventType string, fn func(Event)) (remove func())
}

// Document is the page hosting the player.
type Document interface {
	ElementByID(id string) (Element, bool)
	CreateElement(tag, class string) (Element, error)
	CreateMedia(tag, class string) (MediaElement, error)
	AddEventListener(eventType string, fn func(Event)) (remove func())
	Fullscreen() Fullscreen
}

// Fullscreen is the fullscreen capability of a document, whatever vendor API backs it.
type Fullscreen interface {
	Supported() bool
	Request(el Element) error
	Exit() error
	IsFullscreen() bool
	// OnChange registers fn for fullscreen changes of the document.
	OnChange(fn func(fullscreen bool)) (remove func())
}

// TimeRange is a [Start,End] interval in seconds.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type TimeRanges []TimeRange

// MediaError mirrors the MediaError of an HTMLMediaElement.
type MediaError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MediaProperties is a single read of the observable media element state.
type MediaProperties struct {
	Paused       bool        `json:"paused"`
	Ended        bool        `json:"ended"`
	Muted        bool        `json:"muted"`
	CurrentTime  float64     `json:"currentTime"`
	Duration     float64     `json:"duration"`
	Volume       float64     `json:"volume"`
	PlaybackRate float64     `json:"playbackRate"`
	Buffered     TimeRanges  `json:"buffered"`
	Seekable     TimeRanges  `json:"seekable"`
	Error        *MediaError `json:"error"`
}

// MediaSource is one <source> candidate.
type MediaSource struct {
	URL      string
	MimeType string
}

// Native media element events.
const (
	EventLoadStart      = "loadstart"
	EventLoadedData     = "loadeddata"
	EventCanPlay        = "canplay"
	EventPlay           = "play"
	EventPause          = "pause"
	EventEnded          = "ended"
	EventTimeUpdate     = "timeupdate"
	EventDurationChange = "durationchange"
	EventVolumeChange   = "volumechange"
	EventRateChange     = "ratechange"
	EventSeeking        = "seeking"
	EventSeeked         = "seeked"
	EventError          = "error"
)

// DOM events used by the control surface.
const (
	EventClick      = "click"
	EventKeyDown    = "keydown"
	EventMouseMove  = "mousemove"
	EventMouseLeave = "mouseleave"
	EventMouseDown  = "mousedown"
	EventMouseUp    = "mouseup"
	EventInput      = "input"
	EventFocusIn    = "focusin"
	EventFocusOut   = "focusout"
)

// MediaElement is an HTMLMediaElement.
type MediaElement interface {
	Element
	Properties() (MediaProperties, error)
	// Play resolves when the browser accepted playback or rejects with the
	// reason reported by the browser.
	Play(ctx context.Context) error
	Pause() error
	Load() error
	SetCurrentTime(seconds float64) error
	SetVolume(volume float64) error
	SetMuted(muted bool) error
	SetPlaybackRate(rate float64) error
	SetLoop(loop bool) error
	SetPreload(preload string) error
	SetPoster(url string) error
	SetSrc(url string) error
	// SetSources removes the src attribute and every <source> child and
	// installs the given candidates in order.
	SetSources(sources []MediaSource) error
}
