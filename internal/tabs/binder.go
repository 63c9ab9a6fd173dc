package tabs

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/errors"
)

// Selectors locating widget parts. The tablist and tabpanel ones are defaults.
const (
	DefaultTablistSelector  = "ul"
	DefaultTabpanelSelector = "section"
	ClickableSelector       = "a, button"
)

// Attributes written by the binder and the controller.
const (
	attrRole         = "role"
	attrTabindex     = "tabindex"
	attrAriaSelected = "aria-selected"
	attrAriaControls = "aria-controls"
	attrAriaHidden   = "aria-hidden"
	attrID           = "id"
)

// IDGenerator produces ids for tabpanels that have none.
type IDGenerator func() string

// UUIDGenerator returns ids of the form tab-<uuid>.
func UUIDGenerator() string {
	return "tab-" + uuid.NewString()
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ... Two
// documents bound with fresh generators of the same prefix get the same ids.
func SequentialIDs(prefix string) IDGenerator {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

// Binding is the result of Bind: the annotated tablist and the tab and panel
// elements paired by position.
type Binding struct {
	Tablist dom.Element
	Tabs    []dom.Element
	Panels  []dom.Element

	// assignedIDs holds the panels whose id the binder wrote.
	assignedIDs map[dom.Element]bool
	// focusables maps each panel to the element made focusable in it.
	focusables map[dom.Element]dom.Element
	// authored holds the markup's own tabindex of focusable elements.
	authored map[dom.Element]string
}

// Pair returns the tab and panel at index, or nils when out of range.
func (b *Binding) Pair(index int) (dom.Element, dom.Element) {
	if b == nil || index < 0 || index >= len(b.Tabs) || index >= len(b.Panels) {
		return nil, nil
	}
	return b.Tabs[index], b.Panels[index]
}

// focusPanel gives the panel's first child element, or the panel itself
// when it has none, tabindex 0 and returns it.
func (b *Binding) focusPanel(panel dom.Element) dom.Element {
	target := panel.FirstElementChild()
	if target == nil {
		target = panel
	}
	if b.focusables == nil {
		b.focusables = make(map[dom.Element]dom.Element)
		b.authored = make(map[dom.Element]string)
	}
	if _, ok := b.focusables[panel]; !ok {
		if v, had := target.Attribute(attrTabindex); had {
			b.authored[target] = v
		}
	}
	b.focusables[panel] = target
	target.SetAttribute(attrTabindex, "0")
	return target
}

// blurPanel takes the panel's focusable element back out of the tab order,
// restoring a tabindex the markup carried.
func (b *Binding) blurPanel(panel dom.Element) {
	target, ok := b.focusables[panel]
	if !ok {
		return
	}
	delete(b.focusables, panel)
	if v, had := b.authored[target]; had {
		delete(b.authored, target)
		target.SetAttribute(attrTabindex, v)
		return
	}
	target.RemoveAttribute(attrTabindex)
}

// releaseFocus blurs every panel made focusable.
func (b *Binding) releaseFocus() {
	if b == nil {
		return
	}
	for panel := range b.focusables {
		b.blurPanel(panel)
	}
}

// Len returns the number of tabs.
func (b *Binding) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Tabs)
}

// Bind scans container for a tablist and its tabpanels, writes the ARIA
// contract with activeIndex selected, attaches onClick and onKey to the
// tablist and dispatches EventInit from container.
//
// Markup is validated before anything is written: a missing tablist, a
// tablist item without a link or button, or a tab without a panel leaves the
// document untouched.
func Bind(
	container dom.Element,
	tablistSelector, tabpanelSelector string,
	onClick, onKey dom.Listener,
	activeIndex int,
	ids IDGenerator,
) (*Binding, error) {
	if container == nil {
		return nil, errors.ErrNoContainer()
	}
	if ids == nil {
		ids = UUIDGenerator
	}
	for _, sel := range []string{tablistSelector, tabpanelSelector} {
		if err := dom.Validate(sel); err != nil {
			return nil, err
		}
	}

	tablist := container.QuerySelector(tablistSelector)
	if tablist == nil {
		return nil, errors.ErrNoTablist(tablistSelector)
	}
	panels := container.QuerySelectorAll(tabpanelSelector)
	items := tablist.Children()

	tabs := make([]dom.Element, len(items))
	for i, item := range items {
		clickable := item.QuerySelector(ClickableSelector)
		if clickable == nil {
			return nil, errors.ErrNoClickable(i)
		}
		if i >= len(panels) {
			return nil, errors.ErrNoTabpanel(i, tabpanelSelector)
		}
		tabs[i] = clickable
	}

	b := &Binding{
		Tablist:     tablist,
		Tabs:        tabs,
		Panels:      panels[:len(tabs)],
		assignedIDs: make(map[dom.Element]bool),
		focusables:  make(map[dom.Element]dom.Element),
		authored:    make(map[dom.Element]string),
	}

	tablist.SetAttribute(attrRole, "tablist")

	for i, item := range items {
		tab, panel := b.Tabs[i], b.Panels[i]
		isActive := i == activeIndex
		controls := resolveControls(tab, panel, ids)

		item.SetAttribute(attrRole, "presentation")
		tab.SetAttribute(attrRole, "tab")
		tab.SetAttribute(attrTabindex, tabindex(isActive))
		tab.SetAttribute(attrAriaControls, controls)
		if isActive {
			tab.SetAttribute(attrAriaSelected, "true")
		} else {
			tab.RemoveAttribute(attrAriaSelected)
		}

		panel.SetAttribute(attrRole, "tabpanel")
		if id, ok := panel.Attribute(attrID); !ok || id == "" {
			panel.SetAttribute(attrID, controls)
			b.assignedIDs[panel] = true
		}
		if isActive {
			panel.RemoveAttribute(attrAriaHidden)
			b.focusPanel(panel)
		} else {
			panel.SetAttribute(attrAriaHidden, "true")
		}
	}

	tablist.AddListener(dom.EventKeyDown, onKey)
	tablist.AddListener(dom.EventClick, onClick)

	activeTab, activePanel := b.Pair(activeIndex)
	notify(container, EventInit, InitDetail{ActiveTab: activeTab, ActiveTabpanel: activePanel}, false)

	return b, nil
}

// Unbind detaches onClick and onKey from the tablist they were bound to and
// dispatches EventDestroy from container. With removeAttrs set it also strips
// every attribute Bind and later transitions wrote.
func Unbind(b *Binding, container dom.Element, onClick, onKey dom.Listener, removeAttrs bool) {
	if b == nil || container == nil {
		return
	}

	b.Tablist.RemoveListener(dom.EventClick, onClick)
	b.Tablist.RemoveListener(dom.EventKeyDown, onKey)

	if removeAttrs {
		stripAttributes(b)
	}

	notify(container, EventDestroy, nil, false)
}

func stripAttributes(b *Binding) {
	b.Tablist.RemoveAttribute(attrRole)
	for _, item := range b.Tablist.Children() {
		if role, _ := item.Attribute(attrRole); role == "presentation" {
			item.RemoveAttribute(attrRole)
		}
	}
	for _, tab := range b.Tabs {
		for _, name := range []string{attrRole, attrTabindex, attrAriaSelected, attrAriaControls} {
			tab.RemoveAttribute(name)
		}
	}
	b.releaseFocus()
	for _, panel := range b.Panels {
		panel.RemoveAttribute(attrRole)
		panel.RemoveAttribute(attrAriaHidden)
		if b.assignedIDs[panel] {
			panel.RemoveAttribute(attrID)
		}
	}
}

// resolveControls picks the id a tab controls: the fragment of its href,
// else the panel's own id, else a generated one.
//
// Fragments are percent-decoded, matching how browsers resolve them against
// element ids, so "#caf%C3%A9" controls "café". An href that url.Parse
// rejects contributes its fragment text as written.
func resolveControls(tab, panel dom.Element, ids IDGenerator) string {
	if href, ok := tab.Attribute("href"); ok {
		var fragment string
		if u, err := url.Parse(href); err == nil {
			fragment = u.Fragment
		} else {
			_, fragment, _ = strings.Cut(href, "#")
		}
		if i := strings.IndexAny(fragment, "?&"); i >= 0 {
			fragment = fragment[:i]
		}
		if fragment != "" {
			return fragment
		}
	}
	if id, ok := panel.Attribute(attrID); ok && id != "" {
		return id
	}
	return ids()
}

func tabindex(active bool) string {
	if active {
		return "0"
	}
	return "-1"
}
