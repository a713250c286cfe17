package lexer

import (
	"testing"

	"github.com/orizon-lang/quasi/internal/position"
)

func TestSplitTemplateString(t *testing.T) {
	src := `"a\n$b${c + "}"}\u0041"`
	parts, err := SplitTemplate(src, position.Span{Start: 1, End: len(src) - 1}, TemplateString)
	if err != nil {
		t.Fatalf("SplitTemplate() error = %v", err)
	}

	want := []struct {
		kind PartKind
		text string
	}{
		{PartText, "a"},
		{PartEscape, `\n`},
		{PartShortRef, "b"},
		{PartLongRef, `c + "}"`},
		{PartUnicodeEscape, "0041"},
	}
	if len(parts) != len(want) {
		t.Fatalf("got %d parts, want %d: %+v", len(parts), len(want), parts)
	}
	for i, w := range want {
		if parts[i].Kind != w.kind || parts[i].Text != w.text {
			t.Errorf("part %d = %+v, want %v %q", i, parts[i], w.kind, w.text)
		}
	}
	if parts[1].Value != '\n' || parts[4].Value != 'A' {
		t.Errorf("escape values wrong: %q %q", parts[1].Value, parts[4].Value)
	}
	if got := src[parts[3].Inner.Start:parts[3].Inner.End]; got != `c + "}"` {
		t.Errorf("inner = %q", got)
	}
}

func TestSplitTemplateQuotation(t *testing.T) {
	src := `print("x\n") + \$y + $z`
	parts, err := SplitTemplate(src, position.Span{Start: 0, End: len(src)}, TemplateQuotation)
	if err != nil {
		t.Fatalf("SplitTemplate() error = %v", err)
	}
	if len(parts) != 4 {
		t.Fatalf("got %d parts: %+v", len(parts), parts)
	}
	if parts[0].Kind != PartText || parts[0].Text != `print("x\n") + ` {
		t.Errorf("text part = %+v", parts[0])
	}
	if parts[1].Kind != PartEscape || parts[1].Value != '$' {
		t.Errorf("escape part = %+v", parts[1])
	}
	if parts[3].Kind != PartShortRef || parts[3].Text != "z" {
		t.Errorf("ref part = %+v", parts[3])
	}
}

func TestUnquoteChar(t *testing.T) {
	tests := map[string]rune{`'a'`: 'a', `'\n'`: '\n', `'\u0041'`: 'A', `'\''`: '\''}
	for lit, want := range tests {
		got, err := UnquoteChar(lit)
		if err != nil || got != want {
			t.Errorf("UnquoteChar(%s) = %q, %v", lit, got, err)
		}
	}
	if _, err := UnquoteChar(`'ab'`); err == nil {
		t.Error("expected error for two-character literal")
	}
}
