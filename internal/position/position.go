// Package position provides source position tracking for the quasi engine.
// Spans are byte-offset ranges; line and column information is derived from
// the owning SourceFile on demand so that spans survive text splicing.
package position

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Position represents a single point in source code
type Position struct {
	Filename string // Source file name
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Offset   int    // 0-based byte offset in source
}

// IsValid returns true if the position is valid
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0 && p.Offset >= 0
}

// String returns a string representation of the position
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open byte range [Start, End) in a source text.
type Span struct {
	Start int
	End   int
}

// NoSpan marks synthesized nodes that have no source text.
var NoSpan = Span{Start: -1, End: -1}

// IsValid returns true if the span refers to real source text
func (s Span) IsValid() bool {
	return s.Start >= 0 && s.Start <= s.End
}

// Len returns the length of the span in bytes
func (s Span) Len() int {
	if !s.IsValid() {
		return 0
	}
	return s.End - s.Start
}

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return s.IsValid() && s.Start <= offset && offset < s.End
}

// Covers reports whether other lies entirely inside s.
func (s Span) Covers(other Span) bool {
	return s.IsValid() && other.IsValid() && s.Start <= other.Start && other.End <= s.End
}

// Union returns the smallest span containing both spans
func (s Span) Union(other Span) Span {
	if !s.IsValid() {
		return other
	}
	if !other.IsValid() {
		return s
	}
	return Span{Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// Shift moves the span by delta bytes.
func (s Span) Shift(delta int) Span {
	if !s.IsValid() {
		return s
	}
	return Span{Start: s.Start + delta, End: s.End + delta}
}

// Adjust returns the span as it reads after the bytes in edit were replaced
// by newLen bytes. Spans entirely after the edit move, spans entirely before
// stay, and spans enclosing the edit grow or shrink. The second result is
// false when the span overlaps the edit only partially or sits inside it.
func (s Span) Adjust(edit Span, newLen int) (Span, bool) {
	if !s.IsValid() {
		return s, true
	}
	delta := newLen - edit.Len()
	switch {
	case s.End <= edit.Start:
		return s, true
	case s.Start >= edit.End:
		return s.Shift(delta), true
	case s.Start <= edit.Start && s.End >= edit.End:
		return Span{Start: s.Start, End: s.End + delta}, true
	default:
		return s, false
	}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// SourceFile holds source text together with a line table.
type SourceFile struct {
	Filename string
	Content  string
	lines    []int // offsets of line starts
}

// NewSourceFile creates a new source file from content
func NewSourceFile(filename, content string) *SourceFile {
	lines := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &SourceFile{Filename: filename, Content: content, lines: lines}
}

// LineCount returns the number of lines in the file.
func (sf *SourceFile) LineCount() int { return len(sf.lines) }

// Text returns the source text covered by the span.
func (sf *SourceFile) Text(span Span) string {
	if !span.IsValid() || span.End > len(sf.Content) {
		return ""
	}
	return sf.Content[span.Start:span.End]
}

// Position converts a byte offset to a Position
func (sf *SourceFile) Position(offset int) Position {
	if offset < 0 || offset > len(sf.Content) {
		return Position{}
	}
	line := sort.Search(len(sf.lines), func(i int) bool { return sf.lines[i] > offset }) - 1
	return Position{
		Filename: sf.Filename,
		Line:     line + 1,
		Column:   offset - sf.lines[line] + 1,
		Offset:   offset,
	}
}

// LineSpan returns the span of the given 1-based line without its newline.
func (sf *SourceFile) LineSpan(line int) Span {
	if line < 1 || line > len(sf.lines) {
		return NoSpan
	}
	start := sf.lines[line-1]
	end := len(sf.Content)
	if line < len(sf.lines) {
		end = sf.lines[line] - 1
	}
	return Span{Start: start, End: end}
}

// Describe renders a span as file:line:col-line:col.
func (sf *SourceFile) Describe(span Span) string {
	if !span.IsValid() {
		return sf.Filename
	}
	start, end := sf.Position(span.Start), sf.Position(span.End)
	if start.Line == end.Line {
		return fmt.Sprintf("%s-%d", start, end.Column)
	}
	return fmt.Sprintf("%s-%d:%d", start, end.Line, end.Column)
}
