package tabs

// Key names as reported by KeyboardEvent.key.
const (
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowUp    = "ArrowUp"
	KeyArrowRight = "ArrowRight"
	KeyArrowDown  = "ArrowDown"
)

// Direction is where a key moves the selection.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionBack
	DirectionForward
)

// RouteKey maps a key to a direction. Up and down are fixed; left and right
// swap meaning when rtl is set. Legacy IE names ("Left", "Up", ...) are
// accepted as well.
func RouteKey(key string, rtl bool) Direction {
	switch key {
	case KeyArrowUp, "Up":
		return DirectionBack
	case KeyArrowDown, "Down":
		return DirectionForward
	case KeyArrowLeft, "Left":
		if rtl {
			return DirectionForward
		}
		return DirectionBack
	case KeyArrowRight, "Right":
		if rtl {
			return DirectionBack
		}
		return DirectionForward
	default:
		return DirectionNone
	}
}
