package dom

import "fmt"

// Ref references a container either by element id or by handle.
type Ref struct {
	id string
	el Element
}

// ID references the element with the given id attribute.
func ID(id string) Ref {
	return Ref{id: id}
}

// Handle references an element the caller already holds.
func Handle(el Element) Ref {
	return Ref{el: el}
}

// Resolve looks the reference up in doc.
func (r Ref) Resolve(doc Document) (Element, bool) {
	if r.el != nil {
		return r.el, true
	}
	if r.id == "" || doc == nil {
		return nil, false
	}
	return doc.ElementByID(r.id)
}

func (r Ref) String() string {
	if r.el != nil {
		return fmt.Sprintf("<%s id=%q>", r.el.Tag(), r.el.ID())
	}
	return fmt.Sprintf("#%s", r.id)
}
