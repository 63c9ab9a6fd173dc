package tabs

import "fmt"

// OutcomeKind tags the result of a navigation request.
type OutcomeKind int

const (
	// Committed means the target became the active tab.
	Committed OutcomeKind = iota
	// Rejected means a before-select listener vetoed the transition.
	Rejected
	// OutOfRange means the target index has no tab or no panel.
	OutOfRange
	// Uninitialized means the widget is not bound.
	Uninitialized
)

// String returns the string representation of the outcome kind
func (k OutcomeKind) String() string {
	switch k {
	case Committed:
		return "committed"
	case Rejected:
		return "rejected"
	case OutOfRange:
		return "out-of-range"
	case Uninitialized:
		return "uninitialized"
	default:
		return "unknown"
	}
}

// Outcome is the result of GotoTab and the widget navigation methods. Index
// is the new active index and is only meaningful when Kind is Committed.
type Outcome struct {
	Kind  OutcomeKind
	Index int
}

// Committed reports whether the transition was applied.
func (o Outcome) Committed() bool {
	return o.Kind == Committed
}

func (o Outcome) String() string {
	if o.Kind == Committed {
		return fmt.Sprintf("committed(%d)", o.Index)
	}
	return o.Kind.String()
}

func committed(index int) Outcome { return Outcome{Kind: Committed, Index: index} }

func refused(kind OutcomeKind) Outcome { return Outcome{Kind: kind, Index: -1} }
