package memdom

import (
	"sync"

	"emperror.dev/errors"
	"github.com/work6189/PoPlayers/pkg/dom"
)

type Fullscreen struct {
	doc       *Document
	mu        sync.Mutex
	supported bool
	element   dom.Element
	listeners listenerSet
}

func (fs *Fullscreen) SetSupported(supported bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.supported = supported
}

func (fs *Fullscreen) Supported() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.supported
}

func (fs *Fullscreen) Request(el dom.Element) error {
	fs.mu.Lock()
	if !fs.supported {
		fs.mu.Unlock()
		return errors.New("fullscreen is not supported")
	}
	fs.element = el
	fs.mu.Unlock()
	fs.listeners.fire(dom.Event{Type: "fullscreenchange"})
	return nil
}

func (fs *Fullscreen) Exit() error {
	fs.mu.Lock()
	if fs.element == nil {
		fs.mu.Unlock()
		return errors.New("document not in fullscreen mode")
	}
	fs.element = nil
	fs.mu.Unlock()
	fs.listeners.fire(dom.Event{Type: "fullscreenchange"})
	return nil
}

func (fs *Fullscreen) IsFullscreen() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.element != nil
}

// Element returns the element in fullscreen, or nil.
func (fs *Fullscreen) Element() dom.Element {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.element
}

func (fs *Fullscreen) OnChange(fn func(fullscreen bool)) func() {
	return fs.listeners.add("fullscreenchange", func(dom.Event) {
		fn(fs.IsFullscreen())
	})
}

func (fs *Fullscreen) ListenerCount() int {
	return fs.listeners.count("fullscreenchange")
}

var _ dom.Fullscreen = (*Fullscreen)(nil)
