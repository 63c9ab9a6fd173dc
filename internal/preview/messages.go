package preview

import (
	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/tabs"
)

// Message types exchanged with the browser.
const (
	MessageClick   = "click"
	MessageKeyDown = "keydown"
	MessageCommand = "command"
	MessagePatch   = "patch"
)

// Command operations accepted in a command message.
const (
	OpGoto    = "goto"
	OpNext    = "next"
	OpPrev    = "prev"
	OpInit    = "init"
	OpDestroy = "destroy"
)

// Inbound is a message from the browser. Click and keydown carry the node
// key of the event target; commands address a widget by its container key.
type Inbound struct {
	Type string `json:"type"`
	Node int    `json:"node"`
	Key  string `json:"key,omitempty"`

	Container   int    `json:"container"`
	Op          string `json:"op,omitempty"`
	Index       int    `json:"index"`
	Focus       bool   `json:"focus,omitempty"`
	RemoveAttrs bool   `json:"removeAttrs,omitempty"`
}

// Notification is a widget notification forwarded to the page, where it is
// re-dispatched as a CustomEvent on the container. Detail maps detail field
// names to node keys.
type Notification struct {
	Name      string         `json:"name"`
	Container int            `json:"container"`
	Detail    map[string]int `json:"detail,omitempty"`
}

// Patch carries the journaled document changes caused by one inbound
// message. Active maps container keys to visible tab indexes.
type Patch struct {
	Type          string         `json:"type"`
	Mutations     []dom.Mutation `json:"mutations"`
	Notifications []Notification `json:"notifications"`
	Active        map[int]int    `json:"active"`
	// Outcome is set for navigation commands.
	Outcome string `json:"outcome,omitempty"`
	// DefaultPrevented is set for clicks; the page performs the default
	// action itself when it is false.
	DefaultPrevented *bool `json:"defaultPrevented,omitempty"`
}

// newNotification converts a dispatched widget notification.
func newNotification(ev *dom.Event) Notification {
	n := Notification{Name: ev.Type, Container: ev.Target.Key()}
	detail := make(map[string]int)
	put := func(name string, el dom.Element) {
		if el != nil {
			detail[name] = el.Key()
		}
	}
	switch d := ev.Detail.(type) {
	case tabs.InitDetail:
		put("activeTab", d.ActiveTab)
		put("activeTabpanel", d.ActiveTabpanel)
	case tabs.SelectDetail:
		put("currentTab", d.CurrentTab)
		put("targetTab", d.TargetTab)
		put("currentTabpanel", d.CurrentTabpanel)
		put("targetTabpanel", d.TargetTabpanel)
	}
	if len(detail) > 0 {
		n.Detail = detail
	}
	return n
}
