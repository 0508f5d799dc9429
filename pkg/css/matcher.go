package css

import (
	"strings"

	"marlin/pkg/html"
)

// Matches reports whether the node satisfies the complex selector. Matching
// starts from the rightmost compound (the subject) and walks the tree
// according to each combinator, like every selector engine does.
func Matches(node *html.Node, sel Selector) bool {
	if node == nil || node.Type != html.ElementNode || node.TagName == "document" {
		return false
	}
	if len(sel.Parts) == 0 {
		return false
	}
	return matchesFrom(node, sel, len(sel.Parts)-1)
}

// MatchesAny reports whether the node matches any selector in the group.
func MatchesAny(node *html.Node, sels []Selector) bool {
	for _, sel := range sels {
		if Matches(node, sel) {
			return true
		}
	}
	return false
}

func matchesFrom(node *html.Node, sel Selector, idx int) bool {
	if !matchesCompound(node, sel.Parts[idx]) {
		return false
	}
	if idx == 0 {
		return true
	}

	switch sel.Combinators[idx-1] {
	case Descendant:
		for anc := node.Parent; anc != nil; anc = anc.Parent {
			if isElement(anc) && matchesFrom(anc, sel, idx-1) {
				return true
			}
		}
		return false
	case Child:
		if node.Parent != nil && isElement(node.Parent) {
			return matchesFrom(node.Parent, sel, idx-1)
		}
		return false
	case NextSibling:
		if prev := previousElementSibling(node); prev != nil {
			return matchesFrom(prev, sel, idx-1)
		}
		return false
	case SubsequentSibling:
		for prev := previousElementSibling(node); prev != nil; prev = previousElementSibling(prev) {
			if matchesFrom(prev, sel, idx-1) {
				return true
			}
		}
		return false
	}
	return false
}

func matchesCompound(node *html.Node, comp Compound) bool {
	if comp.Tag != "" && node.TagName != comp.Tag {
		return false
	}
	if comp.ID != "" {
		if id, ok := node.GetAttribute("id"); !ok || id != comp.ID {
			return false
		}
	}
	if len(comp.Classes) > 0 {
		classAttr, ok := node.GetAttribute("class")
		if !ok {
			return false
		}
		have := strings.Fields(classAttr)
		for _, want := range comp.Classes {
			if !containsWord(have, want) {
				return false
			}
		}
	}
	for _, attr := range comp.Attrs {
		if !matchesAttr(node, attr) {
			return false
		}
	}
	return true
}

func matchesAttr(node *html.Node, attr AttrMatch) bool {
	value, ok := node.GetAttribute(attr.Name)
	if !ok {
		return false
	}
	switch attr.Op {
	case "":
		return true
	case "=":
		return value == attr.Value
	case "^=":
		return attr.Value != "" && strings.HasPrefix(value, attr.Value)
	case "$=":
		return attr.Value != "" && strings.HasSuffix(value, attr.Value)
	case "*=":
		return attr.Value != "" && strings.Contains(value, attr.Value)
	case "~=":
		return containsWord(strings.Fields(value), attr.Value)
	case "|=":
		return value == attr.Value || strings.HasPrefix(value, attr.Value+"-")
	}
	return false
}

func containsWord(words []string, want string) bool {
	for _, w := range words {
		if w == want {
			return true
		}
	}
	return false
}

func isElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.TagName != "document"
}

// previousElementSibling returns the nearest preceding element sibling.
func previousElementSibling(node *html.Node) *html.Node {
	if node.Parent == nil {
		return nil
	}
	var prev *html.Node
	for _, sib := range node.Parent.Children {
		if sib == node {
			return prev
		}
		if sib.Type == html.ElementNode {
			prev = sib
		}
	}
	return nil
}
