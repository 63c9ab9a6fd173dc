// Package tabs implements accessible tab widgets over the dom Element port.
//
// A Widget binds a container's tablist and tabpanels (Bind), routes clicks and
// arrow keys on the tablist into selection transitions (GotoTab, NextTab,
// PrevTab) and keeps the ARIA contract consistent: exactly one tab carries
// tabindex="0" and aria-selected="true", and every panel but the active one
// is aria-hidden.
//
// Hosts observe or veto transitions by listening on the container for the
// notifications declared in notify.go.
package tabs

import (
	"context"

	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/logging"
)

// Config configures a Widget.
type Config struct {
	// RTL swaps the meaning of the left and right arrow keys.
	RTL bool
	// TablistSelector locates the tablist inside the container.
	TablistSelector string
	// TabpanelSelector locates the tabpanels inside the container.
	TabpanelSelector string
	// ActiveIndex is the tab selected by Init.
	ActiveIndex int
	// IDs generates ids for panels that have none.
	IDs IDGenerator

	Logger logging.Logger
}

func (c Config) withDefaults() Config {
	if c.TablistSelector == "" {
		c.TablistSelector = DefaultTablistSelector
	}
	if c.TabpanelSelector == "" {
		c.TabpanelSelector = DefaultTabpanelSelector
	}
	if c.IDs == nil {
		c.IDs = UUIDGenerator
	}
	if c.Logger == nil {
		c.Logger = logging.NewDiscardLogger()
	}
	return c
}

// selection is the mutable state shared by a widget and its input handlers.
type selection struct {
	container   dom.Element
	rtl         bool
	logger      logging.Logger
	initialized bool
	active      int
	binding     *Binding
}

func (s *selection) apply(op string, o Outcome) Outcome {
	from := s.active
	if o.Committed() {
		s.active = o.Index
	}
	s.logger.Debug(context.Background(), "tab navigation",
		"op", op,
		"from", from,
		"outcome", o.String())
	return o
}

func (s *selection) gotoTab(target int, focus bool) Outcome {
	if !s.initialized {
		return refused(Uninitialized)
	}
	return s.apply("goto", GotoTab(s.container, s.binding, s.active, target, focus))
}

func (s *selection) next(focus bool) Outcome {
	if !s.initialized {
		return refused(Uninitialized)
	}
	return s.apply("next", NextTab(s.container, s.binding, s.active, focus))
}

func (s *selection) prev(focus bool) Outcome {
	if !s.initialized {
		return refused(Uninitialized)
	}
	return s.apply("prev", PrevTab(s.container, s.binding, s.active, focus))
}

// clickHandler selects the clicked tab and always suppresses the click's
// default action.
type clickHandler struct {
	sel *selection
}

func (h *clickHandler) HandleEvent(ev *dom.Event) dom.Verdict {
	var clicked dom.Element
	if ev.Target != nil {
		clicked = ev.Target.Closest(ClickableSelector)
	}
	var tabs []dom.Element
	if h.sel.binding != nil {
		tabs = h.sel.binding.Tabs
	}
	h.sel.gotoTab(dom.IndexOf(tabs, clicked), true)
	return dom.Rejected
}

// keyHandler moves the selection with the arrow keys.
type keyHandler struct {
	sel *selection
}

func (h *keyHandler) HandleEvent(ev *dom.Event) dom.Verdict {
	switch RouteKey(ev.Key, h.sel.rtl) {
	case DirectionBack:
		h.sel.prev(false)
	case DirectionForward:
		h.sel.next(false)
	}
	return dom.Allowed
}

// Widget is one tab interface bound to a container.
type Widget struct {
	cfg     Config
	sel     *selection
	onClick *clickHandler
	onKey   *keyHandler
}

// New creates a widget over container and initializes it at
// cfg.ActiveIndex.
func New(container dom.Element, cfg Config) (*Widget, error) {
	if container == nil {
		return nil, errors.ErrNoContainer()
	}
	cfg = cfg.withDefaults()

	sel := &selection{
		container: container,
		rtl:       cfg.RTL,
		logger:    cfg.Logger.WithComponent("tabs").With("container", container.Key()),
		active:    cfg.ActiveIndex,
	}
	w := &Widget{
		cfg:     cfg,
		sel:     sel,
		onClick: &clickHandler{sel: sel},
		onKey:   &keyHandler{sel: sel},
	}

	if err := w.Init(); err != nil {
		return nil, err
	}
	return w, nil
}

// Init (re)initializes the widget at the configured active index.
func (w *Widget) Init() error {
	return w.InitAt(w.cfg.ActiveIndex)
}

// InitAt (re)initializes the widget with index selected. An initialized
// widget is destroyed first, so listeners are never registered twice.
func (w *Widget) InitAt(index int) error {
	if w.sel.initialized {
		w.Destroy(false)
	}
	// The next binding makes its own active panel focusable.
	w.sel.binding.releaseFocus()

	b, err := Bind(
		w.sel.container,
		w.cfg.TablistSelector,
		w.cfg.TabpanelSelector,
		w.onClick,
		w.onKey,
		index,
		w.cfg.IDs,
	)
	if err != nil {
		w.sel.logger.Warn(context.Background(), err, "tab widget bind failed")
		return err
	}

	w.sel.binding = b
	w.sel.initialized = true
	w.sel.active = index
	w.sel.logger.Debug(context.Background(), "tab widget initialized",
		"tabs", b.Len(),
		"active", index)
	return nil
}

// Destroy detaches the widget's input handlers. With removeAttrs set the
// ARIA attributes written by the widget are removed as well. Destroying an
// uninitialized widget does nothing.
func (w *Widget) Destroy(removeAttrs bool) {
	if !w.sel.initialized {
		return
	}
	Unbind(w.sel.binding, w.sel.container, w.onClick, w.onKey, removeAttrs)
	w.sel.initialized = false
	w.sel.logger.Debug(context.Background(), "tab widget destroyed", "remove_attrs", removeAttrs)
}

// Goto selects the tab at index.
func (w *Widget) Goto(index int, focus bool) Outcome {
	return w.sel.gotoTab(index, focus)
}

// Next selects the following tab. There is no wraparound.
func (w *Widget) Next(focus bool) Outcome {
	return w.sel.next(focus)
}

// Prev selects the preceding tab. There is no wraparound.
func (w *Widget) Prev(focus bool) Outcome {
	return w.sel.prev(focus)
}

// IsInitialized reports whether the widget is bound.
func (w *Widget) IsInitialized() bool {
	return w.sel.initialized
}

// VisibleTab returns the active index.
func (w *Widget) VisibleTab() int {
	return w.sel.active
}

// Container returns the element the widget was created over.
func (w *Widget) Container() dom.Element {
	return w.sel.container
}

// RTL reports whether arrow keys run right-to-left.
func (w *Widget) RTL() bool {
	return w.sel.rtl
}

// Tabs returns the bound tabs, or nil before the first successful Init.
func (w *Widget) Tabs() []dom.Element {
	if w.sel.binding == nil {
		return nil
	}
	return w.sel.binding.Tabs
}

// Panels returns the bound tabpanels.
func (w *Widget) Panels() []dom.Element {
	if w.sel.binding == nil {
		return nil
	}
	return w.sel.binding.Panels
}
