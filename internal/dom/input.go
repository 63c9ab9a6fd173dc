package dom

import (
	"strings"

	"golang.org/x/text/unicode/bidi"
)

// Click dispatches a bubbling, cancelable click at el and reports whether
// the default action (link navigation, form submission) would run.
func Click(el Element) bool {
	return el.Dispatch(&Event{Type: EventClick, Cancelable: true, Bubbles: true}) == Allowed
}

// KeyDown dispatches a bubbling, cancelable keydown for key at el.
func KeyDown(el Element, key string) bool {
	return el.Dispatch(&Event{Type: EventKeyDown, Key: key, Cancelable: true, Bubbles: true}) == Allowed
}

// IsRTL reports whether el is laid out right-to-left. The nearest dir
// attribute of el or an ancestor wins; without one, the first strong
// bidirectional character of el's text decides.
func IsRTL(el Element) bool {
	for cur := el; cur != nil; cur = cur.Parent() {
		dir, ok := cur.Attribute("dir")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "rtl":
			return true
		case "ltr":
			return false
		}
	}
	if el == nil {
		return false
	}
	return isRTLText(el.TextContent())
}

func isRTLText(s string) bool {
	for len(s) > 0 {
		props, size := bidi.LookupString(s)
		if size == 0 {
			return false
		}
		switch props.Class() {
		case bidi.R, bidi.AL:
			return true
		case bidi.L:
			return false
		}
		s = s[size:]
	}
	return false
}
