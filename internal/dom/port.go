// Package dom defines the Element port through which the tab widget reads and
// writes documents, together with an in-memory implementation backed by
// golang.org/x/net/html.
//
// The port mirrors the small slice of the browser DOM the widget needs:
// attributes, element traversal, CSS selector queries, focus, and
// synchronous event listeners with bubbling. Every attribute and focus change
// made through a Document is journaled so it can be replayed onto a live page.
package dom

// Event types delivered by user input.
const (
	EventClick   = "click"
	EventKeyDown = "keydown"
)

// Verdict is a listener's answer to an event. Rejected on a cancelable event
// suppresses its default outcome.
type Verdict int

const (
	Allowed Verdict = iota
	Rejected
)

// String returns the string representation of the verdict
func (v Verdict) String() string {
	if v == Rejected {
		return "rejected"
	}
	return "allowed"
}

// Event is dispatched at a target element and bubbles to its ancestors.
type Event struct {
	Type          string
	Target        Element
	CurrentTarget Element
	// Key is the key name for keydown events ("ArrowLeft", "Enter", ...).
	Key        string
	Detail     interface{}
	Cancelable bool
	Bubbles    bool
}

// Listener receives events. Implementations must be comparable (pointer
// receivers are the norm) because removal is by identity.
type Listener interface {
	HandleEvent(ev *Event) Verdict
}

// FuncListener adapts a function to Listener. Use a pointer so the listener
// can later be removed.
type FuncListener struct {
	Fn func(ev *Event) Verdict
}

// HandleEvent calls Fn.
func (f *FuncListener) HandleEvent(ev *Event) Verdict {
	if f.Fn == nil {
		return Allowed
	}
	return f.Fn(ev)
}

// Element is the port to a single document element.
type Element interface {
	TagName() string
	// Key identifies the element within its document. Keys are stable for
	// the document's lifetime.
	Key() int

	Attribute(name string) (string, bool)
	SetAttribute(name, value string)
	RemoveAttribute(name string)

	Parent() Element
	Children() []Element
	FirstElementChild() Element
	// QuerySelector returns the first descendant matching sel, or nil.
	QuerySelector(sel string) Element
	// QuerySelectorAll returns every descendant matching sel in document order.
	QuerySelectorAll(sel string) []Element
	// Closest returns the element itself or its nearest ancestor matching sel.
	Closest(sel string) Element
	TextContent() string

	Focus()

	// AddListener registers l for events of type typ. Registering the same
	// listener twice for one type has no effect.
	AddListener(typ string, l Listener)
	RemoveListener(typ string, l Listener)
	// Dispatch delivers ev at this element and returns Rejected when the
	// event is cancelable and at least one listener rejected it.
	Dispatch(ev *Event) Verdict
}

// IndexOf returns the position of el in elems, or -1.
func IndexOf(elems []Element, el Element) int {
	if el == nil {
		return -1
	}
	for i, e := range elems {
		if e == el {
			return i
		}
	}
	return -1
}
