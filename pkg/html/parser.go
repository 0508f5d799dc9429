package html

import (
	"fmt"
)

// parser builds a Document from a token stream using an open-element stack.
// It is intentionally lenient: stray end tags are ignored and unclosed
// elements are closed implicitly at EOF.
type parser struct {
	tok   *tokenizer
	doc   *Document
	stack []*Node
}

// Parse parses a full page. <script> bodies are extracted onto
// Document.Scripts in document order and do not appear in the tree.
func Parse(input string) (*Document, error) {
	p := &parser{tok: newTokenizer(input), doc: NewDocument()}
	p.stack = []*Node{p.doc.Root}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// ParseFragment parses input as a standalone fragment and returns the
// top-level nodes with their parent pointers cleared. The input is wrapped
// in a throwaway body element first, because the page parser expects a full
// document shape (and the wrapper keeps auto-closing rules from leaking
// fragment content into the synthetic root).
func ParseFragment(input string) ([]*Node, error) {
	doc, err := Parse("<body>" + input + "</body>")
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	wrapper := findFirst(doc.Root, "body")
	if wrapper == nil {
		return nil, nil
	}
	children := wrapper.Children
	for _, c := range children {
		c.Parent = nil
	}
	return children, nil
}

func (p *parser) run() error {
	for {
		tk, err := p.tok.next()
		if err != nil {
			return fmt.Errorf("tokenize: %w", err)
		}
		switch tk.kind {
		case tokenEOF:
			return nil

		case tokenStartTag:
			if tk.tagName == "script" {
				p.doc.Scripts = append(p.doc.Scripts, p.tok.readRawUntil("script"))
				continue
			}
			node := &Node{
				Type:       ElementNode,
				TagName:    tk.tagName,
				Attributes: tk.attributes,
				Children:   make([]*Node, 0),
			}
			if tk.tagName == "style" {
				// Style text is load-time input to the styling pass; keep it
				// in the tree as raw text so it is not lost, but never re-read
				// it during a scripted re-render.
				node.AppendText(p.tok.readRawUntil("style"))
				p.top().AddChild(node)
				continue
			}
			p.top().AddChild(node)
			if !isVoidElement(tk.tagName) && !tk.selfClosing {
				p.stack = append(p.stack, node)
			}

		case tokenText:
			p.top().AppendText(tk.text)

		case tokenEndTag:
			p.closeTag(tk.tagName)
		}
	}
}

// top returns the current open element.
func (p *parser) top() *Node {
	return p.stack[len(p.stack)-1]
}

// closeTag pops open elements until the named one is closed. Stray end tags
// with no matching open element are ignored, as real pages contain them.
func (p *parser) closeTag(name string) {
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.stack[i].TagName == name {
			p.stack = p.stack[:i]
			return
		}
	}
}

// findFirst returns the first element with the given tag in preorder.
func findFirst(root *Node, tag string) *Node {
	if root.Type == ElementNode && root.TagName == tag {
		return root
	}
	for _, c := range root.Children {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}
