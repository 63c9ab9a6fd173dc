//go:build property

package tabs

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/a11ytabs/internal/dom"
)

func markup(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="tabs"><ul>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<li><a href="#panel-%d">Tab %d</a></li>`, i, i)
	}
	b.WriteString(`</ul>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<section id="panel-%d"><p>Panel %d</p></section>`, i, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func newWidget(n, active int) (*dom.Document, *Widget, error) {
	doc, err := dom.ParseString(markup(n))
	if err != nil {
		return nil, nil, err
	}
	w, err := New(doc.QuerySelector("#tabs"), Config{ActiveIndex: active})
	return doc, w, err
}

// exactlyOneSelected checks that the active tab alone is selected and its
// panel alone is visible.
func exactlyOneSelected(w *Widget) bool {
	selected, visible := 0, 0
	for i, tab := range w.Tabs() {
		if v, _ := tab.Attribute("aria-selected"); v == "true" {
			selected++
			if i != w.VisibleTab() {
				return false
			}
		}
		if _, hidden := w.Panels()[i].Attribute("aria-hidden"); !hidden {
			visible++
			if i != w.VisibleTab() {
				return false
			}
		}
	}
	return selected == 1 && visible == 1
}

// TestNavigationProperties uses property-based testing to check the
// selection invariants across random navigation sequences.
func TestNavigationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("exactly one tab is selected after any sequence", prop.ForAll(
		func(n int, steps []int) bool {
			_, w, err := newWidget(n, 0)
			if err != nil {
				return false
			}
			for _, step := range steps {
				switch step % 3 {
				case 0:
					w.Next(false)
				case 1:
					w.Prev(false)
				default:
					w.Goto(step%(n+2)-1, true)
				}
				if !exactlyOneSelected(w) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 8),
		gen.SliceOf(gen.IntRange(0, 50)),
	))

	properties.Property("out of range targets change nothing", prop.ForAll(
		func(n, active, offset int) bool {
			active = active % n
			doc, w, err := newWidget(n, active)
			if err != nil {
				return false
			}
			doc.TakeMutations()

			target := n + offset
			if offset%2 == 0 {
				target = -1 - offset
			}
			out := w.Goto(target, true)
			return out.Kind == OutOfRange &&
				len(doc.Mutations()) == 0 &&
				w.VisibleTab() == active
		},
		gen.IntRange(1, 8),
		gen.IntRange(0, 7),
		gen.IntRange(0, 20),
	))

	properties.Property("goto there and back restores the initial document", prop.ForAll(
		func(n, a, b int) bool {
			a, b = a%n, b%n
			doc, w, err := newWidget(n, a)
			if err != nil {
				return false
			}
			initial := doc.String()
			w.Goto(b, true)
			w.Goto(a, true)
			return doc.String() == initial
		},
		gen.IntRange(1, 8),
		gen.IntRange(0, 7),
		gen.IntRange(0, 7),
	))

	properties.Property("next from the last tab is refused", prop.ForAll(
		func(n int) bool {
			_, w, err := newWidget(n, n-1)
			if err != nil {
				return false
			}
			return w.Next(false).Kind == OutOfRange && w.VisibleTab() == n-1
		},
		gen.IntRange(1, 8),
	))

	properties.Property("rtl mirrors horizontal arrows", prop.ForAll(
		func(key string) bool {
			ltr := RouteKey(key, false)
			rtl := RouteKey(key, true)
			switch key {
			case KeyArrowLeft, KeyArrowRight:
				return ltr != rtl && ltr != DirectionNone && rtl != DirectionNone
			default:
				return ltr == rtl
			}
		},
		gen.OneConstOf(KeyArrowLeft, KeyArrowRight, KeyArrowUp, KeyArrowDown, "Enter", "Tab", "a"),
	))

	properties.TestingRun(t)
}
