package html

import (
	"fmt"
	gohtml "html"
	"strings"
	"unicode"
)

type tokenType int

const (
	tokenStartTag tokenType = iota
	tokenEndTag
	tokenText
	tokenEOF
)

type token struct {
	kind        tokenType
	tagName     string
	attributes  map[string]string
	text        string
	selfClosing bool
}

// tokenizer is a forgiving HTML lexer. Malformed markup is skipped or
// recovered from wherever possible; only truncated tags produce errors.
type tokenizer struct {
	input string
	pos   int
}

func newTokenizer(input string) *tokenizer {
	return &tokenizer{input: input}
}

func (t *tokenizer) next() (token, error) {
	if t.pos >= len(t.input) {
		return token{kind: tokenEOF}, nil
	}
	if t.input[t.pos] == '<' {
		return t.readTag()
	}
	return t.readText()
}

func (t *tokenizer) readTag() (token, error) {
	t.pos++ // consume '<'

	// <!-- comment -->
	if strings.HasPrefix(t.input[t.pos:], "!--") {
		t.pos += 3
		if end := strings.Index(t.input[t.pos:], "-->"); end >= 0 {
			t.pos += end + 3
		} else {
			t.pos = len(t.input)
		}
		return t.next()
	}

	// <!DOCTYPE ...> and <?processing instructions?>
	if t.pos < len(t.input) && (t.input[t.pos] == '!' || t.input[t.pos] == '?') {
		if err := t.skipTo('>'); err != nil {
			return token{}, err
		}
		t.pos++
		return t.next()
	}

	isEnd := false
	if t.pos < len(t.input) && t.input[t.pos] == '/' {
		isEnd = true
		t.pos++
	}

	name := t.readName(isTagNameChar)
	if name == "" {
		return token{}, fmt.Errorf("expected tag name at offset %d", t.pos)
	}
	name = strings.ToLower(name)

	if isEnd {
		if err := t.skipTo('>'); err != nil {
			return token{}, err
		}
		t.pos++
		return token{kind: tokenEndTag, tagName: name}, nil
	}

	attrs := make(map[string]string)
	for {
		t.skipSpace()
		if t.pos >= len(t.input) {
			return token{}, fmt.Errorf("unterminated <%s> tag", name)
		}
		if t.input[t.pos] == '>' {
			t.pos++
			return token{kind: tokenStartTag, tagName: name, attributes: attrs}, nil
		}
		if t.input[t.pos] == '/' {
			t.pos++
			t.skipSpace()
			if t.pos < len(t.input) && t.input[t.pos] == '>' {
				t.pos++
				return token{kind: tokenStartTag, tagName: name, attributes: attrs, selfClosing: true}, nil
			}
			continue
		}
		aname, aval, err := t.readAttribute()
		if err != nil {
			return token{}, err
		}
		attrs[aname] = aval
	}
}

func (t *tokenizer) readAttribute() (string, string, error) {
	name := t.readName(isAttrNameChar)
	if name == "" {
		return "", "", fmt.Errorf("expected attribute name at offset %d", t.pos)
	}
	name = strings.ToLower(name)
	t.skipSpace()
	if t.pos >= len(t.input) || t.input[t.pos] != '=' {
		return name, "", nil // bare attribute
	}
	t.pos++
	t.skipSpace()
	if t.pos >= len(t.input) {
		return "", "", fmt.Errorf("expected value for attribute %q", name)
	}
	if q := t.input[t.pos]; q == '"' || q == '\'' {
		t.pos++
		start := t.pos
		for t.pos < len(t.input) && t.input[t.pos] != q {
			t.pos++
		}
		if t.pos >= len(t.input) {
			return "", "", fmt.Errorf("unterminated value for attribute %q", name)
		}
		val := t.input[start:t.pos]
		t.pos++
		return name, gohtml.UnescapeString(val), nil
	}
	start := t.pos
	for t.pos < len(t.input) && !unicode.IsSpace(rune(t.input[t.pos])) && t.input[t.pos] != '>' {
		t.pos++
	}
	return name, t.input[start:t.pos], nil
}

func (t *tokenizer) readText() (token, error) {
	start := t.pos
	for t.pos < len(t.input) && t.input[t.pos] != '<' {
		t.pos++
	}
	raw := t.input[start:t.pos]
	if strings.TrimSpace(raw) == "" {
		// Inter-tag whitespace. Layout is out of scope here, so runs of
		// whitespace between elements are not significant.
		if t.pos < len(t.input) {
			return t.next()
		}
		return token{kind: tokenEOF}, nil
	}
	return token{kind: tokenText, text: gohtml.UnescapeString(collapseSpace(raw))}, nil
}

// readRawUntil consumes everything up to (and including) the closing end tag
// for raw-text elements like <script>, where '<' does not open a tag.
func (t *tokenizer) readRawUntil(endTag string) string {
	needle := "</" + endTag + ">"
	start := t.pos
	for t.pos+len(needle) <= len(t.input) {
		if strings.EqualFold(t.input[t.pos:t.pos+len(needle)], needle) {
			content := t.input[start:t.pos]
			t.pos += len(needle)
			return content
		}
		t.pos++
	}
	content := t.input[start:]
	t.pos = len(t.input)
	return content
}

// collapseSpace folds runs of whitespace into single spaces, keeping one
// leading/trailing space so word boundaries around inline elements survive.
func collapseSpace(s string) string {
	leading := unicode.IsSpace(rune(s[0]))
	trailing := unicode.IsSpace(rune(s[len(s)-1]))
	out := strings.Join(strings.Fields(s), " ")
	if leading {
		out = " " + out
	}
	if trailing {
		out = out + " "
	}
	return out
}

func (t *tokenizer) readName(valid func(byte) bool) string {
	start := t.pos
	for t.pos < len(t.input) && valid(t.input[t.pos]) {
		t.pos++
	}
	return t.input[start:t.pos]
}

func (t *tokenizer) skipSpace() {
	for t.pos < len(t.input) && unicode.IsSpace(rune(t.input[t.pos])) {
		t.pos++
	}
}

func (t *tokenizer) skipTo(target byte) error {
	for t.pos < len(t.input) && t.input[t.pos] != target {
		t.pos++
	}
	if t.pos >= len(t.input) {
		return fmt.Errorf("expected %q before end of input", string(target))
	}
	return nil
}

func isTagNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

func isAttrNameChar(c byte) bool {
	return isTagNameChar(c) || c == ':' || c == '.'
}
