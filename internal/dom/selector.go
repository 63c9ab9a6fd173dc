package dom

import (
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/conneroisu/a11ytabs/internal/errors"
)

var selectorCache = struct {
	sync.RWMutex
	compiled map[string]cascadia.Selector
	invalid  map[string]error
}{
	compiled: make(map[string]cascadia.Selector),
	invalid:  make(map[string]error),
}

// Compile parses a CSS selector group. Results, including failures, are
// cached per selector string.
func Compile(sel string) (cascadia.Selector, error) {
	selectorCache.RLock()
	if s, ok := selectorCache.compiled[sel]; ok {
		selectorCache.RUnlock()
		return s, nil
	}
	if err, ok := selectorCache.invalid[sel]; ok {
		selectorCache.RUnlock()
		return nil, err
	}
	selectorCache.RUnlock()

	s, err := cascadia.Compile(sel)

	selectorCache.Lock()
	defer selectorCache.Unlock()
	if err != nil {
		wrapped := errors.ErrInvalidSelector(sel, err)
		selectorCache.invalid[sel] = wrapped
		return nil, wrapped
	}
	selectorCache.compiled[sel] = s
	return s, nil
}

// Validate reports whether sel compiles.
func Validate(sel string) error {
	_, err := Compile(sel)
	return err
}

// matchDescendants walks the subtree below root in document order and
// collects elements matching sel. With first set it stops at the first hit.
func matchDescendants(root *html.Node, sel string, first bool) []*html.Node {
	s, err := Compile(sel)
	if err != nil {
		return nil
	}

	var out []*html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if s.Match(c) {
				out = append(out, c)
				if first {
					return true
				}
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return out
}

func matches(n *html.Node, sel string) bool {
	s, err := Compile(sel)
	if err != nil {
		return false
	}
	return s.Match(n)
}
