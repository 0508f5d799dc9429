package html

import (
	"sort"
	"strings"
)

// NodeType distinguishes element nodes from text nodes. The bridge only
// ever hands script a reference to an element; text nodes have no element
// identity and are never assigned handles.
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

// Node is a node in the document tree. Element nodes carry a tag name and
// an attribute map; text nodes carry only Text.
type Node struct {
	Type       NodeType
	TagName    string
	Attributes map[string]string
	Text       string
	Children   []*Node
	Parent     *Node
}

// Document is one parsed page. Scripts holds the body of every <script>
// element in document order; they are executed once, at load time, and a
// later re-render never re-runs them.
type Document struct {
	Root    *Node
	Scripts []string
}

// NewDocument returns a document with an empty synthetic root element.
func NewDocument() *Document {
	return &Document{
		Root: &Node{
			Type:     ElementNode,
			TagName:  "document",
			Children: make([]*Node, 0),
		},
	}
}

// GetAttribute returns the named attribute and whether it is present.
func (n *Node) GetAttribute(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	v, ok := n.Attributes[name]
	return v, ok
}

// SetAttribute sets the named attribute, allocating the map if needed.
func (n *Node) SetAttribute(name, value string) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]string)
	}
	n.Attributes[name] = value
}

// AddChild appends child and fixes its parent pointer.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// AppendText adds a text node child. Empty text is dropped.
func (n *Node) AppendText(text string) {
	if text == "" {
		return
	}
	n.Children = append(n.Children, &Node{Type: TextNode, Text: text, Parent: n})
}

// RemoveChild removes child from n, clears its parent pointer, and returns
// it. Returns nil if child is not a child of n.
func (n *Node) RemoveChild(child *Node) *Node {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return child
		}
	}
	return nil
}

// ReplaceChildren discards n's current children and adopts the given nodes,
// setting each one's parent pointer to n. The old children keep whatever
// references still point at them but are no longer reachable from the root.
func (n *Node) ReplaceChildren(children []*Node) {
	n.Children = n.Children[:0]
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, c)
	}
}

// Preorder returns the element nodes of the subtree rooted at n in document
// (pre-)order, excluding the synthetic document root itself.
func Preorder(n *Node) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur.Type == ElementNode && cur.TagName != "document" {
			out = append(out, cur)
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// TextContent concatenates the text of n and all its descendants.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Text
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// Serialize returns the HTML of n's children (its innerHTML).
func (n *Node) Serialize() string {
	var sb strings.Builder
	for _, c := range n.Children {
		serializeNode(&sb, c)
	}
	return sb.String()
}

// SerializeOuter returns the HTML of n itself plus all descendants.
func (n *Node) SerializeOuter() string {
	var sb strings.Builder
	serializeNode(&sb, n)
	return sb.String()
}

func serializeNode(sb *strings.Builder, n *Node) {
	if n.Type == TextNode {
		sb.WriteString(escapeHTML(n.Text))
		return
	}

	sb.WriteByte('<')
	sb.WriteString(n.TagName)

	// Sorted attributes keep serialization deterministic.
	if len(n.Attributes) > 0 {
		keys := make([]string, 0, len(n.Attributes))
		for k := range n.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteByte(' ')
			sb.WriteString(k)
			sb.WriteString(`="`)
			sb.WriteString(escapeAttr(n.Attributes[k]))
			sb.WriteByte('"')
		}
	}
	sb.WriteByte('>')

	if isVoidElement(n.TagName) {
		return
	}
	for _, c := range n.Children {
		serializeNode(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(n.TagName)
	sb.WriteByte('>')
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func isVoidElement(tag string) bool {
	switch tag {
	case "br", "hr", "img", "input", "meta", "link", "area", "base",
		"col", "embed", "param", "source", "track", "wbr":
		return true
	}
	return false
}
