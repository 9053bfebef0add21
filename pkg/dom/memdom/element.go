package memdom

import (
	"slices"
	"strings"

	"emperror.dev/errors"
	"github.com/work6189/PoPlayers/pkg/dom"
)

type node interface {
	base() *Element
}

// Element fields are guarded by the document lock.
type Element struct {
	doc       *Document
	id        string
	tag       string
	classes   []string
	style     map[string]string
	attrs     map[string]string
	text      string
	value     string
	parent    *Element
	children  []dom.Element
	media     *Media
	listeners listenerSet
}

func (el *Element) base() *Element { return el }

func (el *Element) ID() string  { return el.id }
func (el *Element) Tag() string { return el.tag }

func (el *Element) AppendChild(child dom.Element) error {
	n, ok := child.(node)
	if !ok {
		return errors.Errorf("cannot append foreign element %T", child)
	}
	c := n.base()
	if c == el {
		return errors.New("cannot append an element to itself")
	}
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	if c.parent != nil {
		c.parent.children = slices.DeleteFunc(c.parent.children, func(x dom.Element) bool { return x.(node).base() == c })
	}
	c.parent = el
	el.children = append(el.children, child)
	return nil
}

func (el *Element) RemoveChild(child dom.Element) error {
	n, ok := child.(node)
	if !ok {
		return errors.Errorf("cannot remove foreign element %T", child)
	}
	c := n.base()
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	if c.parent != el {
		return errors.Errorf("%s is not a child of %s", c.id, el.id)
	}
	el.children = slices.DeleteFunc(el.children, func(x dom.Element) bool { return x.(node).base() == c })
	c.parent = nil
	return nil
}

func splitClasses(names ...string) []string {
	var result []string
	for _, name := range names {
		result = append(result, strings.Fields(name)...)
	}
	return result
}

func (el *Element) AddClass(names ...string) error {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	for _, name := range splitClasses(names...) {
		if !slices.Contains(el.classes, name) {
			el.classes = append(el.classes, name)
		}
	}
	return nil
}

func (el *Element) RemoveClass(names ...string) error {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	remove := splitClasses(names...)
	el.classes = slices.DeleteFunc(el.classes, func(c string) bool { return slices.Contains(remove, c) })
	return nil
}

func (el *Element) SetStyle(property, value string) error {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	if value == "" {
		delete(el.style, property)
		return nil
	}
	el.style[property] = value
	return nil
}

func (el *Element) SetAttribute(name, value string) error {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.attrs[name] = value
	return nil
}

func (el *Element) SetText(text string) error {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.text = text
	el.children = nil
	return nil
}

func (el *Element) SetValue(value string) error {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.value = value
	return nil
}

// Value returns the form control value.
func (el *Element) Value() string {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return el.value
}

func (el *Element) AddEventListener(eventType string, fn func(dom.Event)) func() {
	return el.listeners.add(eventType, fn)
}

// Dispatch fires evt on the element.
func (el *Element) Dispatch(evt dom.Event) {
	el.listeners.fire(evt)
}

// Click dispatches a click at the given horizontal fraction of the element.
func (el *Element) Click(fraction float64) {
	el.Dispatch(dom.Event{Type: dom.EventClick, Fraction: fraction})
}

func (el *Element) ListenerCount(eventType string) int {
	return el.listeners.count(eventType)
}

func (el *Element) Parent() dom.Element {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	if el.parent == nil {
		return nil
	}
	if el.parent.media != nil {
		return el.parent.media
	}
	return el.parent
}

func (el *Element) Children() []dom.Element {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return slices.Clone(el.children)
}

func (el *Element) HasClass(name string) bool {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return slices.Contains(el.classes, name)
}

func (el *Element) Classes() []string {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return slices.Clone(el.classes)
}

func (el *Element) Style(property string) string {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return el.style[property]
}

func (el *Element) Attribute(name string) string {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return el.attrs[name]
}

func (el *Element) Text() string {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return el.text
}

// Find returns the first descendant carrying the class.
func (el *Element) Find(class string) *Element {
	for _, child := range el.Children() {
		c := child.(node).base()
		if c.HasClass(class) {
			return c
		}
		if found := c.Find(class); found != nil {
			return found
		}
	}
	return nil
}

var _ dom.Element = (*Element)(nil)
