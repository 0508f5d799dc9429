package css

import (
	"errors"
	"testing"
)

func TestParseSelectorSimple(t *testing.T) {
	tests := []struct {
		input string
		check func(t *testing.T, sel Selector)
	}{
		{"div", func(t *testing.T, sel Selector) {
			if len(sel.Parts) != 1 || sel.Parts[0].Tag != "div" {
				t.Errorf("parts = %+v", sel.Parts)
			}
		}},
		{"#main", func(t *testing.T, sel Selector) {
			if sel.Parts[0].ID != "main" {
				t.Errorf("id = %q", sel.Parts[0].ID)
			}
		}},
		{".a.b", func(t *testing.T, sel Selector) {
			if len(sel.Parts[0].Classes) != 2 {
				t.Errorf("classes = %v", sel.Parts[0].Classes)
			}
		}},
		{"input.wide#go", func(t *testing.T, sel Selector) {
			p := sel.Parts[0]
			if p.Tag != "input" || p.ID != "go" || len(p.Classes) != 1 {
				t.Errorf("part = %+v", p)
			}
		}},
		{"*", func(t *testing.T, sel Selector) {
			if !sel.Parts[0].Universal {
				t.Error("expected universal")
			}
		}},
		{"[href]", func(t *testing.T, sel Selector) {
			a := sel.Parts[0].Attrs[0]
			if a.Name != "href" || a.Op != "" {
				t.Errorf("attr = %+v", a)
			}
		}},
		{`[type="text"]`, func(t *testing.T, sel Selector) {
			a := sel.Parts[0].Attrs[0]
			if a.Op != "=" || a.Value != "text" {
				t.Errorf("attr = %+v", a)
			}
		}},
		{"[lang|=en]", func(t *testing.T, sel Selector) {
			a := sel.Parts[0].Attrs[0]
			if a.Op != "|=" || a.Value != "en" {
				t.Errorf("attr = %+v", a)
			}
		}},
	}
	for _, tt := range tests {
		sel, err := ParseSelector(tt.input)
		if err != nil {
			t.Errorf("ParseSelector(%q): %v", tt.input, err)
			continue
		}
		tt.check(t, sel)
	}
}

func TestParseSelectorCombinators(t *testing.T) {
	sel, err := ParseSelector("div > p em + b")
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Parts) != 4 {
		t.Fatalf("parts = %d, want 4", len(sel.Parts))
	}
	want := []Combinator{Child, Descendant, NextSibling}
	for i, c := range sel.Combinators {
		if c != want[i] {
			t.Errorf("combinator %d = %q, want %q", i, string(c), string(want[i]))
		}
	}
}

func TestParseSelectorInvalid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"[",
		"[href",
		"[=x]",
		"#",
		".",
		"div >",
		"> p",
		"a:hover",
		"..b",
	}
	for _, input := range inputs {
		_, err := ParseSelector(input)
		if err == nil {
			t.Errorf("ParseSelector(%q) succeeded, want error", input)
			continue
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("ParseSelector(%q) error type %T, want *ParseError", input, err)
		}
	}
}

func TestParseSelectorList(t *testing.T) {
	sels, err := ParseSelectorList("div, .box, #x")
	if err != nil {
		t.Fatal(err)
	}
	if len(sels) != 3 {
		t.Fatalf("selectors = %d, want 3", len(sels))
	}

	// One bad member invalidates the group.
	if _, err := ParseSelectorList("div, ["); err == nil {
		t.Error("expected error for group with invalid member")
	}
}

func TestSplitGroupBracketComma(t *testing.T) {
	parts := SplitGroup(`a[data-x="1,2"], b`)
	if len(parts) != 2 {
		t.Fatalf("parts = %v", parts)
	}
	if parts[0] != `a[data-x="1,2"]` || parts[1] != "b" {
		t.Errorf("parts = %v", parts)
	}
}
