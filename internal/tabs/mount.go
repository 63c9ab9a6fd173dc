package tabs

import (
	"fmt"
	"strings"

	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/errors"
)

// DefaultContainerSelector marks tab containers in a document.
const DefaultContainerSelector = "[data-a11y-tabs]"

// RTLMode chooses how a mounted widget's direction is decided.
type RTLMode string

const (
	RTLAuto RTLMode = "auto"
	RTLOn   RTLMode = "true"
	RTLOff  RTLMode = "false"
)

// ParseRTLMode accepts auto, true/rtl and false/ltr.
func ParseRTLMode(s string) (RTLMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return RTLAuto, nil
	case "true", "rtl", "yes", "on":
		return RTLOn, nil
	case "false", "ltr", "no", "off":
		return RTLOff, nil
	default:
		return RTLAuto, fmt.Errorf("invalid rtl mode %q (want auto, true or false)", s)
	}
}

// Resolve returns the direction for container under this mode.
func (m RTLMode) Resolve(container dom.Element) bool {
	switch m {
	case RTLOn:
		return true
	case RTLOff:
		return false
	default:
		return dom.IsRTL(container)
	}
}

// Querier finds elements. Both *dom.Document and dom.Element satisfy it.
type Querier interface {
	QuerySelectorAll(sel string) []dom.Element
}

// MountOptions configures Mount.
type MountOptions struct {
	ContainerSelector string
	// RTL decides each widget's direction. When empty, Config.RTL applies
	// to every container unchanged.
	RTL    RTLMode
	Config Config
}

// Mount creates a widget for every container under root matching
// opts.ContainerSelector. Containers whose markup cannot be bound are
// reported together; the widgets that did bind are still returned.
func Mount(root Querier, opts MountOptions) ([]*Widget, error) {
	sel := opts.ContainerSelector
	if sel == "" {
		sel = DefaultContainerSelector
	}
	if err := dom.Validate(sel); err != nil {
		return nil, err
	}

	containers := root.QuerySelectorAll(sel)
	if len(containers) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeNoContainers, "no tab containers match "+sel).
			WithContext("selector", sel)
	}

	var (
		widgets []*Widget
		failed  []string
		first   error
	)
	for i, container := range containers {
		cfg := opts.Config
		if opts.RTL != "" {
			cfg.RTL = opts.RTL.Resolve(container)
		}

		w, err := New(container, cfg)
		if err != nil {
			failed = append(failed, fmt.Sprintf("container %d: %v", i, err))
			if first == nil {
				first = err
			}
			continue
		}
		widgets = append(widgets, w)
	}

	if first != nil {
		msg := fmt.Sprintf("%d of %d tab containers failed to bind", len(failed), len(containers))
		return widgets, errors.Wrap(first, errors.ErrorTypeValidation, errors.ErrCodeValidationFailed, msg).
			WithContext("failures", failed)
	}
	return widgets, nil
}
