package tabs

import "github.com/conneroisu/a11ytabs/internal/dom"

// Notification names dispatched from the widget container.
const (
	EventInit         = "a11y-tabs:init"
	EventDestroy      = "a11y-tabs:destroy"
	EventBeforeSelect = "a11y-tabs:before-select"
	EventAfterSelect  = "a11y-tabs:after-select"
)

// InitDetail is the payload of EventInit. Either field is nil when the
// initial index has no tab or panel.
type InitDetail struct {
	ActiveTab      dom.Element
	ActiveTabpanel dom.Element
}

// SelectDetail is the payload of EventBeforeSelect and EventAfterSelect. For
// after-select the Current fields hold the previously active pair; PrevTab and
// PrevTabpanel return them under that name.
type SelectDetail struct {
	CurrentTab      dom.Element
	TargetTab       dom.Element
	CurrentTabpanel dom.Element
	TargetTabpanel  dom.Element
}

// PrevTab is the tab that was active before an after-select transition.
func (d SelectDetail) PrevTab() dom.Element { return d.CurrentTab }

// PrevTabpanel is the panel that was active before an after-select transition.
func (d SelectDetail) PrevTabpanel() dom.Element { return d.CurrentTabpanel }

// notify dispatches a notification from the container. Only cancelable
// notifications can come back Rejected.
func notify(container dom.Element, name string, detail interface{}, cancelable bool) dom.Verdict {
	return container.Dispatch(&dom.Event{
		Type:       name,
		Detail:     detail,
		Cancelable: cancelable,
		Bubbles:    true,
	})
}

// Hook adapts a function to a listener for one of the notifications above.
// Returning dom.Rejected from a before-select hook vetoes the transition.
type Hook struct {
	Fn func(name string, detail interface{}) dom.Verdict
}

// HandleEvent implements dom.Listener.
func (h *Hook) HandleEvent(ev *dom.Event) dom.Verdict {
	if h.Fn == nil {
		return dom.Allowed
	}
	return h.Fn(ev.Type, ev.Detail)
}

// Observe registers h for every widget notification on container.
func Observe(container dom.Element, h dom.Listener) {
	for _, name := range []string{EventInit, EventDestroy, EventBeforeSelect, EventAfterSelect} {
		container.AddListener(name, h)
	}
}

// Unobserve removes a listener registered with Observe.
func Unobserve(container dom.Element, h dom.Listener) {
	for _, name := range []string{EventInit, EventDestroy, EventBeforeSelect, EventAfterSelect} {
		container.RemoveListener(name, h)
	}
}
