package position

import (
	"testing"
)

func TestPositionString(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		pos      Position
		isValid  bool
	}{
		{
			name:     "with filename",
			pos:      Position{Filename: "dir/test.kt", Line: 10, Column: 5, Offset: 100},
			isValid:  true,
			expected: "test.kt:10:5",
		},
		{
			name:     "without filename",
			pos:      Position{Line: 1, Column: 1},
			isValid:  true,
			expected: "1:1",
		},
		{
			name: "zero line",
			pos:  Position{Line: 0, Column: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.IsValid(); got != tt.isValid {
				t.Errorf("IsValid() = %v, want %v", got, tt.isValid)
			}
			if tt.isValid {
				if got := tt.pos.String(); got != tt.expected {
					t.Errorf("String() = %q, want %q", got, tt.expected)
				}
			}
		})
	}
}

func TestSourceFilePosition(t *testing.T) {
	sf := NewSourceFile("a.kt", "fun a()\n  = 1\n\nval b = 2")

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{4, 1, 5},
		{8, 2, 1},
		{12, 2, 5},
		{15, 4, 1},
		{19, 4, 5},
	}
	for _, tt := range tests {
		pos := sf.Position(tt.offset)
		if pos.Line != tt.line || pos.Column != tt.column {
			t.Errorf("Position(%d) = %d:%d, want %d:%d", tt.offset, pos.Line, pos.Column, tt.line, tt.column)
		}
	}

	if sf.LineCount() != 4 {
		t.Fatalf("LineCount() = %d, want 4", sf.LineCount())
	}
	if got := sf.Text(sf.LineSpan(2)); got != "  = 1" {
		t.Errorf("LineSpan(2) text = %q", got)
	}
	if got := sf.Text(Span{Start: 0, End: 3}); got != "fun" {
		t.Errorf("Text() = %q, want fun", got)
	}
}

func TestSpanAdjust(t *testing.T) {
	edit := Span{Start: 10, End: 20}

	tests := []struct {
		name string
		span Span
		want Span
		ok   bool
	}{
		{"before", Span{0, 10}, Span{0, 10}, true},
		{"after", Span{25, 30}, Span{30, 35}, true},
		{"enclosing", Span{5, 22}, Span{5, 27}, true},
		{"exact", Span{10, 20}, Span{10, 25}, true},
		{"partial", Span{15, 25}, Span{15, 25}, false},
		{"synthetic", NoSpan, NoSpan, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.span.Adjust(edit, 15)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Adjust() = %v,%v want %v,%v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSpanUnion(t *testing.T) {
	a := Span{Start: 3, End: 5}
	b := Span{Start: 1, End: 4}
	if got := a.Union(b); got != (Span{Start: 1, End: 5}) {
		t.Errorf("Union() = %v", got)
	}
	if got := NoSpan.Union(a); got != a {
		t.Errorf("Union with NoSpan = %v", got)
	}
	if !a.Contains(4) || a.Contains(5) {
		t.Errorf("Contains is not half-open")
	}
}
