// Package css implements the selector engine consumed by the scripting
// bridge: parsing selector text into a matchable form, and matching parsed
// selectors against document nodes.
package css

import (
	"fmt"
	"strings"
	"unicode"
)

// Combinator relates two adjacent compound selectors.
type Combinator byte

const (
	Descendant        Combinator = ' '
	Child             Combinator = '>'
	NextSibling       Combinator = '+'
	SubsequentSibling Combinator = '~'
)

// AttrMatch is one [name], [name=value], [name^=value] etc. condition.
// Op is empty for bare existence checks.
type AttrMatch struct {
	Name  string
	Op    string
	Value string
}

// Compound is one compound selector: an optional tag plus any number of
// id/class/attribute conditions, e.g. `input.wide[type=text]`.
type Compound struct {
	Tag       string // lowercase; empty means any (also for "*")
	ID        string
	Classes   []string
	Attrs     []AttrMatch
	Universal bool // explicit "*"
}

// Selector is a parsed complex selector: compounds joined by combinators.
// Combinators[i] sits between Parts[i] and Parts[i+1].
type Selector struct {
	Raw         string
	Parts       []Compound
	Combinators []Combinator
}

// ParseError reports unparsable selector text. The bridge converts it into
// a script-visible exception rather than letting it take down the host.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid selector %q: %s", e.Input, e.Reason)
}

// SplitGroup splits a selector group on top-level commas, trimming each
// part. Commas inside attribute brackets do not split.
func SplitGroup(text string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range text {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(text[start:]))
	return parts
}

// ParseSelectorList parses a comma-separated selector group. Any invalid
// member invalidates the whole group, matching how querySelectorAll treats
// selector lists.
func ParseSelectorList(text string) ([]Selector, error) {
	parts := SplitGroup(text)
	out := make([]Selector, 0, len(parts))
	for _, part := range parts {
		sel, err := ParseSelector(part)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

// ParseSelector parses a single complex selector.
func ParseSelector(text string) (Selector, error) {
	p := &selParser{input: text}
	sel, err := p.parse()
	if err != nil {
		return Selector{}, err
	}
	sel.Raw = text
	return sel, nil
}

type selParser struct {
	input string
	pos   int
}

func (p *selParser) fail(reason string) error {
	return &ParseError{Input: p.input, Reason: reason}
}

func (p *selParser) parse() (Selector, error) {
	var sel Selector

	p.skipSpace()
	if p.pos >= len(p.input) {
		return sel, p.fail("empty selector")
	}

	for {
		comp, err := p.parseCompound()
		if err != nil {
			return Selector{}, err
		}
		sel.Parts = append(sel.Parts, comp)

		comb, more, err := p.parseCombinator()
		if err != nil {
			return Selector{}, err
		}
		if !more {
			return sel, nil
		}
		sel.Combinators = append(sel.Combinators, comb)
	}
}

// parseCombinator consumes whitespace and an optional explicit combinator.
// Returns more=false at end of input.
func (p *selParser) parseCombinator() (Combinator, bool, error) {
	sawSpace := p.skipSpace()
	if p.pos >= len(p.input) {
		return 0, false, nil
	}
	switch p.input[p.pos] {
	case '>', '+', '~':
		comb := Combinator(p.input[p.pos])
		p.pos++
		p.skipSpace()
		if p.pos >= len(p.input) {
			return 0, false, p.fail(fmt.Sprintf("dangling %q combinator", string(comb)))
		}
		return comb, true, nil
	}
	if !sawSpace {
		return 0, false, p.fail(fmt.Sprintf("unexpected %q", string(p.input[p.pos])))
	}
	return Descendant, true, nil
}

func (p *selParser) parseCompound() (Compound, error) {
	var comp Compound
	gotAny := false

	if p.pos < len(p.input) && p.input[p.pos] == '*' {
		comp.Universal = true
		gotAny = true
		p.pos++
	} else if name := p.readIdent(); name != "" {
		comp.Tag = strings.ToLower(name)
		gotAny = true
	}

	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '#':
			p.pos++
			id := p.readIdent()
			if id == "" {
				return comp, p.fail("'#' must be followed by an id")
			}
			comp.ID = id
			gotAny = true
		case '.':
			p.pos++
			cls := p.readIdent()
			if cls == "" {
				return comp, p.fail("'.' must be followed by a class name")
			}
			comp.Classes = append(comp.Classes, cls)
			gotAny = true
		case '[':
			attr, err := p.parseAttr()
			if err != nil {
				return comp, err
			}
			comp.Attrs = append(comp.Attrs, attr)
			gotAny = true
		case ':':
			// Pseudo-classes are dynamic state; a static bridge has none, so
			// reject them rather than silently never-matching.
			return comp, p.fail("pseudo-classes are not supported")
		default:
			if !gotAny {
				return comp, p.fail(fmt.Sprintf("unexpected %q", string(p.input[p.pos])))
			}
			return comp, nil
		}
	}
	if !gotAny {
		return comp, p.fail("empty compound selector")
	}
	return comp, nil
}

func (p *selParser) parseAttr() (AttrMatch, error) {
	p.pos++ // consume '['
	p.skipSpace()
	name := p.readIdent()
	if name == "" {
		return AttrMatch{}, p.fail("expected attribute name after '['")
	}
	attr := AttrMatch{Name: strings.ToLower(name)}

	p.skipSpace()
	if p.pos >= len(p.input) {
		return AttrMatch{}, p.fail("unterminated attribute selector")
	}
	if p.input[p.pos] == ']' {
		p.pos++
		return attr, nil
	}

	for _, op := range []string{"^=", "$=", "*=", "~=", "|=", "="} {
		if strings.HasPrefix(p.input[p.pos:], op) {
			attr.Op = op
			p.pos += len(op)
			break
		}
	}
	if attr.Op == "" {
		return AttrMatch{}, p.fail("expected ']' or an attribute operator")
	}

	p.skipSpace()
	val, err := p.readAttrValue()
	if err != nil {
		return AttrMatch{}, err
	}
	attr.Value = val

	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != ']' {
		return AttrMatch{}, p.fail("unterminated attribute selector")
	}
	p.pos++
	return attr, nil
}

func (p *selParser) readAttrValue() (string, error) {
	if p.pos < len(p.input) && (p.input[p.pos] == '"' || p.input[p.pos] == '\'') {
		quote := p.input[p.pos]
		p.pos++
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] != quote {
			p.pos++
		}
		if p.pos >= len(p.input) {
			return "", p.fail("unterminated quoted attribute value")
		}
		val := p.input[start:p.pos]
		p.pos++
		return val, nil
	}
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ']' && !unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return "", p.fail("expected attribute value")
	}
	return p.input[start:p.pos], nil
}

// readIdent consumes a CSS identifier (letters, digits, '-', '_').
func (p *selParser) readIdent() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

// skipSpace reports whether any whitespace was consumed.
func (p *selParser) skipSpace() bool {
	start := p.pos
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
	return p.pos > start
}
