package browser

import (
	"context"
	"encoding/json"
	"math"

	"emperror.dev/errors"
	"github.com/work6189/PoPlayers/pkg/dom"
)

type element struct {
	doc *Document
	id  string
	tag string
}

func (el *element) ID() string  { return el.id }
func (el *element) Tag() string { return el.tag }

func (el *element) AppendChild(child dom.Element) error {
	return el.doc.call(nil, "append", el.id, child.ID())
}

func (el *element) RemoveChild(child dom.Element) error {
	return el.doc.call(nil, "remove", el.id, child.ID())
}

func (el *element) AddClass(names ...string) error {
	return el.doc.call(nil, "cls", el.id, "add", names)
}

func (el *element) RemoveClass(names ...string) error {
	return el.doc.call(nil, "cls", el.id, "remove", names)
}

func (el *element) SetStyle(property, value string) error {
	return el.doc.call(nil, "style", el.id, property, value)
}

func (el *element) SetAttribute(name, value string) error {
	return el.doc.call(nil, "attr", el.id, name, value)
}

func (el *element) SetText(text string) error {
	return el.doc.call(nil, "text", el.id, text)
}

func (el *element) SetValue(value string) error {
	return el.doc.call(nil, "set", el.id, "value", value)
}

func (el *element) AddEventListener(eventType string, fn func(dom.Event)) func() {
	return el.doc.listen(el.id, eventType, fn)
}

var _ dom.Element = (*element)(nil)

type media struct {
	*element
}

type wireProperties struct {
	Paused           bool            `json:"paused"`
	Ended            bool            `json:"ended"`
	Muted            bool            `json:"muted"`
	CurrentTime      float64         `json:"currentTime"`
	Duration         *float64        `json:"duration"`
	DurationInfinite bool            `json:"durationInfinite"`
	Volume           float64         `json:"volume"`
	PlaybackRate     float64         `json:"playbackRate"`
	Buffered         dom.TimeRanges  `json:"buffered"`
	Seekable         dom.TimeRanges  `json:"seekable"`
	Error            *dom.MediaError `json:"error"`
}

func (m *media) Properties() (dom.MediaProperties, error) {
	var raw string
	if err := m.doc.call(&raw, "props", m.id); err != nil {
		return dom.MediaProperties{}, err
	}
	var w wireProperties
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return dom.MediaProperties{}, errors.Wrap(err, "cannot decode media properties")
	}
	return w.properties(), nil
}

func (w wireProperties) properties() dom.MediaProperties {
	duration := math.NaN()
	switch {
	case w.DurationInfinite:
		duration = math.Inf(1)
	case w.Duration != nil:
		duration = *w.Duration
	}
	return dom.MediaProperties{
		Paused:       w.Paused,
		Ended:        w.Ended,
		Muted:        w.Muted,
		CurrentTime:  w.CurrentTime,
		Duration:     duration,
		Volume:       w.Volume,
		PlaybackRate: w.PlaybackRate,
		Buffered:     w.Buffered,
		Seekable:     w.Seekable,
		Error:        w.Error,
	}
}

func (m *media) Play(ctx context.Context) error {
	return m.doc.awaitPromise(ctx, true, "play", m.id)
}

func (m *media) Pause() error {
	return m.doc.call(nil, "call", m.id, "pause")
}

func (m *media) Load() error {
	return m.doc.call(nil, "call", m.id, "load")
}

func (m *media) set(prop string, value any) error {
	return m.doc.call(nil, "set", m.id, prop, value)
}

func (m *media) SetCurrentTime(seconds float64) error { return m.set("currentTime", seconds) }
func (m *media) SetVolume(volume float64) error       { return m.set("volume", volume) }
func (m *media) SetMuted(muted bool) error            { return m.set("muted", muted) }
func (m *media) SetPlaybackRate(rate float64) error   { return m.set("playbackRate", rate) }
func (m *media) SetLoop(loop bool) error              { return m.set("loop", loop) }
func (m *media) SetPreload(preload string) error      { return m.set("preload", preload) }
func (m *media) SetPoster(url string) error           { return m.set("poster", url) }

func (m *media) SetSrc(url string) error {
	return m.doc.call(nil, "src", m.id, url)
}

type wireSource struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

func (m *media) SetSources(sources []dom.MediaSource) error {
	list := make([]wireSource, 0, len(sources))
	for _, s := range sources {
		list = append(list, wireSource{URL: s.URL, Type: s.MimeType})
	}
	return m.doc.call(nil, "sources", m.id, list)
}

var _ dom.MediaElement = (*media)(nil)
