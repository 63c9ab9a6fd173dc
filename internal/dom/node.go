package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Node is a Document element. It implements Element.
type Node struct {
	doc       *Document
	n         *html.Node
	key       int
	listeners map[string][]Listener
}

var _ Element = (*Node)(nil)

func (e *Node) TagName() string {
	return e.n.Data
}

func (e *Node) Key() int {
	return e.key
}

func (e *Node) Attribute(name string) (string, bool) {
	return getAttr(e.n, name)
}

func (e *Node) SetAttribute(name, value string) {
	if setAttr(e.n, name, value) {
		e.doc.record(Mutation{Kind: MutationSet, Node: e.key, Name: name, Value: value})
	}
}

func (e *Node) RemoveAttribute(name string) {
	if removeAttr(e.n, name) {
		e.doc.record(Mutation{Kind: MutationRemove, Node: e.key, Name: name})
	}
}

func (e *Node) Parent() Element {
	return e.doc.element(e.n.Parent)
}

func (e *Node) Children() []Element {
	var out []Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if el := e.doc.element(c); el != nil {
			out = append(out, el)
		}
	}
	return out
}

func (e *Node) FirstElementChild() Element {
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if el := e.doc.element(c); el != nil {
			return el
		}
	}
	return nil
}

func (e *Node) QuerySelector(sel string) Element {
	found := matchDescendants(e.n, sel, true)
	if len(found) == 0 {
		return nil
	}
	return e.doc.element(found[0])
}

func (e *Node) QuerySelectorAll(sel string) []Element {
	return e.doc.elements(matchDescendants(e.n, sel, false))
}

func (e *Node) Closest(sel string) Element {
	for n := e.n; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && matches(n, sel) {
			return e.doc.element(n)
		}
	}
	return nil
}

func (e *Node) TextContent() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.n)
	return b.String()
}

// Focus makes the element the document's active element. Repeated focus
// calls are all journaled; the last one determines the active element.
func (e *Node) Focus() {
	e.doc.active = e
	e.doc.record(Mutation{Kind: MutationFocus, Node: e.key})
}

func (e *Node) AddListener(typ string, l Listener) {
	if l == nil {
		return
	}
	for _, existing := range e.listeners[typ] {
		if existing == l {
			return
		}
	}
	if e.listeners == nil {
		e.listeners = make(map[string][]Listener)
	}
	e.listeners[typ] = append(e.listeners[typ], l)
}

func (e *Node) RemoveListener(typ string, l Listener) {
	list := e.listeners[typ]
	for i, existing := range list {
		if existing == l {
			e.listeners[typ] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// ListenerCount returns how many listeners are registered for typ.
func (e *Node) ListenerCount(typ string) int {
	return len(e.listeners[typ])
}

// Dispatch runs listeners on the element and, when ev.Bubbles is set, on each
// ancestor in turn. Listeners added or removed during dispatch do not affect
// the element currently being processed.
func (e *Node) Dispatch(ev *Event) Verdict {
	if ev.Target == nil {
		ev.Target = e
	}

	rejected := false
	for cur := e; cur != nil; cur = cur.doc.wrap(cur.n.Parent) {
		list := cur.listeners[ev.Type]
		if len(list) > 0 {
			snapshot := make([]Listener, len(list))
			copy(snapshot, list)
			ev.CurrentTarget = cur
			for _, l := range snapshot {
				if l.HandleEvent(ev) == Rejected {
					rejected = true
				}
			}
		}
		if !ev.Bubbles {
			break
		}
	}
	ev.CurrentTarget = nil

	if rejected && ev.Cancelable {
		return Rejected
	}
	return Allowed
}
