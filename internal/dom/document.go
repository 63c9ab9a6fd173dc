package dom

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/conneroisu/a11ytabs/internal/errors"
)

// KeyAttribute carries node keys when a document is rendered with
// RenderOptions.StampKeys, so a browser can address elements by key.
const KeyAttribute = "data-a11ytabs-node"

// MutationKind classifies journal entries.
type MutationKind string

const (
	MutationSet    MutationKind = "set"
	MutationRemove MutationKind = "remove"
	MutationFocus  MutationKind = "focus"
)

// Mutation is one recorded change to a document.
type Mutation struct {
	Kind  MutationKind `json:"kind" yaml:"kind"`
	Node  int          `json:"node" yaml:"node"`
	Name  string       `json:"name,omitempty" yaml:"name,omitempty"`
	Value string       `json:"value,omitempty" yaml:"value,omitempty"`
}

// Document is an in-memory HTML document implementing the Element port for
// each of its elements. A Document is not safe for concurrent use.
type Document struct {
	root      *html.Node
	nodes     map[*html.Node]*Node
	byKey     []*Node
	active    *Node
	mutations []Mutation
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeParseFailed, "failed to parse HTML", err)
	}

	doc := &Document{
		root:  root,
		nodes: make(map[*html.Node]*Node),
	}
	doc.index(root)
	return doc, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// index assigns keys to every element in document order.
func (d *Document) index(n *html.Node) {
	if n.Type == html.ElementNode {
		node := &Node{doc: d, n: n, key: len(d.byKey)}
		d.nodes[n] = node
		d.byKey = append(d.byKey, node)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.index(c)
	}
}

// wrap returns the Node for an element, or nil for anything else.
func (d *Document) wrap(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	return d.nodes[n]
}

// element converts to the Element interface without leaking typed nils.
func (d *Document) element(n *html.Node) Element {
	if node := d.wrap(n); node != nil {
		return node
	}
	return nil
}

// Root returns the document element (<html>).
func (d *Document) Root() Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.element(c)
		}
	}
	return nil
}

// Body returns the <body> element.
func (d *Document) Body() Element {
	return d.QuerySelector("body")
}

// QuerySelector returns the first element in the document matching sel.
func (d *Document) QuerySelector(sel string) Element {
	found := matchDescendants(d.root, sel, true)
	if len(found) == 0 {
		return nil
	}
	return d.element(found[0])
}

// QuerySelectorAll returns every element in the document matching sel.
func (d *Document) QuerySelectorAll(sel string) []Element {
	return d.elements(matchDescendants(d.root, sel, false))
}

func (d *Document) elements(nodes []*html.Node) []Element {
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		if el := d.element(n); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// NodeByKey looks up an element by its key.
func (d *Document) NodeByKey(key int) (Element, bool) {
	if key < 0 || key >= len(d.byKey) {
		return nil, false
	}
	return d.byKey[key], true
}

// ActiveElement returns the element that last received focus, or nil.
func (d *Document) ActiveElement() Element {
	if d.active == nil {
		return nil
	}
	return d.active
}

// Mutations returns a copy of the journal without draining it.
func (d *Document) Mutations() []Mutation {
	out := make([]Mutation, len(d.mutations))
	copy(out, d.mutations)
	return out
}

// TakeMutations drains the journal.
func (d *Document) TakeMutations() []Mutation {
	out := d.mutations
	d.mutations = nil
	return out
}

func (d *Document) record(m Mutation) {
	d.mutations = append(d.mutations, m)
}

// RenderOptions controls Render.
type RenderOptions struct {
	// StampKeys writes each element's key into KeyAttribute.
	StampKeys bool
}

// Render serializes the document.
func (d *Document) Render(w io.Writer, opts RenderOptions) error {
	if opts.StampKeys {
		for _, node := range d.byKey {
			setAttr(node.n, KeyAttribute, strconv.Itoa(node.key))
		}
		defer func() {
			for _, node := range d.byKey {
				removeAttr(node.n, KeyAttribute)
			}
		}()
	}
	return html.Render(w, d.root)
}

// String renders the document without node keys.
func (d *Document) String() string {
	var b strings.Builder
	_ = d.Render(&b, RenderOptions{})
	return b.String()
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// setAttr reports whether the attribute changed.
func setAttr(n *html.Node, name, value string) bool {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			if a.Val == value {
				return false
			}
			n.Attr[i].Val = value
			return true
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
	return true
}

// removeAttr reports whether the attribute was present.
func removeAttr(n *html.Node, name string) bool {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return true
		}
	}
	return false
}
