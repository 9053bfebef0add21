// Package memdom is an in-memory implementation of pkg/dom.
//
// It keeps a small element tree and a scriptable media element so that the
// player and its control surface can run without a browser, for tests and dry
// runs. Events are dispatched synchronously on the goroutine that caused them.
package memdom

import (
	"fmt"
	"slices"
	"sync"

	"emperror.dev/errors"
	"github.com/work6189/PoPlayers/pkg/dom"
)

type listener struct {
	fn func(dom.Event)
}

type listenerSet struct {
	mu    sync.Mutex
	byEvt map[string][]*listener
}

func (s *listenerSet) add(eventType string, fn func(dom.Event)) func() {
	l := &listener{fn: fn}
	s.mu.Lock()
	if s.byEvt == nil {
		s.byEvt = make(map[string][]*listener)
	}
	s.byEvt[eventType] = append(s.byEvt[eventType], l)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byEvt[eventType] = slices.DeleteFunc(slices.Clone(s.byEvt[eventType]), func(x *listener) bool { return x == l })
	}
}

func (s *listenerSet) count(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEvt[eventType])
}

func (s *listenerSet) fire(evt dom.Event) {
	s.mu.Lock()
	snapshot := slices.Clone(s.byEvt[evt.Type])
	s.mu.Unlock()
	for _, l := range snapshot {
		l.fn(evt)
	}
}

// Document is safe for concurrent use.
type Document struct {
	mu         sync.Mutex
	body       *Element
	seq        int
	listeners  listenerSet
	fullscreen *Fullscreen
}

func New() *Document {
	doc := &Document{}
	doc.body = doc.newElement("body", "")
	doc.fullscreen = &Fullscreen{doc: doc, supported: true}
	return doc
}

func (doc *Document) newElement(tag, id string) *Element {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	doc.seq++
	if id == "" {
		id = fmt.Sprintf("memdom-%d", doc.seq)
	}
	return &Element{
		doc:   doc,
		id:    id,
		tag:   tag,
		style: make(map[string]string),
		attrs: make(map[string]string),
	}
}

func (doc *Document) Body() *Element {
	return doc.body
}

// AddContainer creates a div with the given id and attaches it to the body.
func (doc *Document) AddContainer(id string) *Element {
	el := doc.newElement("div", id)
	el.attrs["id"] = id
	_ = doc.body.AppendChild(el)
	return el
}

func (doc *Document) ElementByID(id string) (dom.Element, bool) {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	var found *Element
	var walk func(el *Element) bool
	walk = func(el *Element) bool {
		if el.id == id {
			found = el
			return true
		}
		for _, child := range el.children {
			if walk(child.(node).base()) {
				return true
			}
		}
		return false
	}
	if !walk(doc.body) || found == doc.body {
		return nil, false
	}
	if found.media != nil {
		return found.media, true
	}
	return found, true
}

func (doc *Document) CreateElement(tag, class string) (dom.Element, error) {
	if tag == "" {
		return nil, errors.New("empty tag name")
	}
	el := doc.newElement(tag, "")
	if class != "" {
		_ = el.AddClass(splitClasses(class)...)
	}
	return el, nil
}

func (doc *Document) CreateMedia(tag, class string) (dom.MediaElement, error) {
	if tag != "video" && tag != "audio" {
		return nil, errors.Errorf("%s is not a media element", tag)
	}
	el := doc.newElement(tag, "")
	if class != "" {
		_ = el.AddClass(splitClasses(class)...)
	}
	return newMedia(el), nil
}

func (doc *Document) AddEventListener(eventType string, fn func(dom.Event)) func() {
	return doc.listeners.add(eventType, fn)
}

// Dispatch fires a document level event.
func (doc *Document) Dispatch(evt dom.Event) {
	doc.listeners.fire(evt)
}

// ListenerCount returns the number of document level listeners for eventType.
func (doc *Document) ListenerCount(eventType string) int {
	return doc.listeners.count(eventType)
}

func (doc *Document) Fullscreen() dom.Fullscreen {
	return doc.fullscreen
}

// FullscreenState returns the concrete fullscreen fake.
func (doc *Document) FullscreenState() *Fullscreen {
	return doc.fullscreen
}

var _ dom.Document = (*Document)(nil)
