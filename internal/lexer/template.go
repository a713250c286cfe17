package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/orizon-lang/quasi/internal/position"
)

// TemplateMode selects the escape rules used by SplitTemplate.
type TemplateMode int

const (
	// TemplateString is a "..." literal with the standard escapes.
	TemplateString TemplateMode = iota
	// TemplateRaw is a """...""" literal without escapes.
	TemplateRaw
	// TemplateQuotation is quotation content. Only \$, \` and \\ escape;
	// every other backslash is part of the quoted code.
	TemplateQuotation
)

// PartKind identifies a template part.
type PartKind int

const (
	PartText PartKind = iota
	PartEscape
	PartUnicodeEscape
	PartShortRef
	PartLongRef
)

// Part is one piece of a string template or quotation body.
type Part struct {
	Kind PartKind
	// Text holds the literal text, the raw escape, the unicode digits or
	// the referenced name, depending on Kind.
	Text string
	// Value is the unescaped character of escape parts.
	Value rune
	// Span covers the part in the source.
	Span position.Span
	// Inner covers the expression text of a PartLongRef.
	Inner position.Span
}

var stringEscapes = map[byte]rune{
	't':  '\t',
	'b':  '\b',
	'n':  '\n',
	'r':  '\r',
	'\'': '\'',
	'"':  '"',
	'\\': '\\',
	'$':  '$',
}

// SplitTemplate splits src[content] into literal text, escapes and
// interpolations.
func SplitTemplate(src string, content position.Span, mode TemplateMode) ([]Part, error) {
	var parts []Part
	textStart := content.Start

	flush := func(end int) {
		if end > textStart {
			parts = append(parts, Part{
				Kind: PartText,
				Text: src[textStart:end],
				Span: position.Span{Start: textStart, End: end},
			})
		}
	}

	pos := content.Start
	for pos < content.End {
		c := src[pos]
		switch {
		case c == '\\' && mode != TemplateRaw:
			if pos+1 >= content.End {
				return nil, &Error{Offset: pos, Message: "dangling escape"}
			}
			next := src[pos+1]
			if mode == TemplateQuotation {
				if next != '$' && next != '`' && next != '\\' {
					pos++
					continue
				}
				flush(pos)
				parts = append(parts, Part{
					Kind:  PartEscape,
					Text:  src[pos : pos+2],
					Value: rune(next),
					Span:  position.Span{Start: pos, End: pos + 2},
				})
				pos += 2
				textStart = pos
				continue
			}
			if next == 'u' {
				if pos+6 > content.End {
					return nil, &Error{Offset: pos, Message: "truncated unicode escape"}
				}
				digits := src[pos+2 : pos+6]
				v, err := strconv.ParseUint(digits, 16, 32)
				if err != nil {
					return nil, &Error{Offset: pos, Message: "invalid unicode escape " + strconv.Quote(digits)}
				}
				flush(pos)
				parts = append(parts, Part{
					Kind:  PartUnicodeEscape,
					Text:  digits,
					Value: rune(v),
					Span:  position.Span{Start: pos, End: pos + 6},
				})
				pos += 6
				textStart = pos
				continue
			}
			v, ok := stringEscapes[next]
			if !ok {
				return nil, &Error{Offset: pos, Message: "illegal escape " + strconv.Quote(src[pos:pos+2])}
			}
			flush(pos)
			parts = append(parts, Part{
				Kind:  PartEscape,
				Text:  src[pos : pos+2],
				Value: v,
				Span:  position.Span{Start: pos, End: pos + 2},
			})
			pos += 2
			textStart = pos
		case c == '$' && pos+1 < content.End && src[pos+1] == '{':
			end, err := skipBraces(src, pos+1, content.End)
			if err != nil {
				return nil, err
			}
			flush(pos)
			parts = append(parts, Part{
				Kind:  PartLongRef,
				Text:  src[pos+2 : end-1],
				Span:  position.Span{Start: pos, End: end},
				Inner: position.Span{Start: pos + 2, End: end - 1},
			})
			pos = end
			textStart = pos
		case c == '$' && pos+1 < content.End && startsIdent(src[pos+1:content.End]):
			end := pos + 1
			for end < content.End {
				r, size := utf8.DecodeRuneInString(src[end:content.End])
				if !isIdentPart(r) {
					break
				}
				end += size
			}
			flush(pos)
			parts = append(parts, Part{
				Kind: PartShortRef,
				Text: src[pos+1 : end],
				Span: position.Span{Start: pos, End: end},
			})
			pos = end
			textStart = pos
		default:
			pos++
		}
	}
	flush(content.End)
	return parts, nil
}

func startsIdent(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return isIdentStart(r)
}

// StringContent returns the span of a string token's body without quotes.
func StringContent(tok Token) position.Span {
	q := 1
	if tok.Type == TokenRawString {
		q = 3
	}
	return position.Span{Start: tok.Span.Start + q, End: tok.Span.End - q}
}

// UnquoteChar decodes a character literal such as 'a' or '\n'.
func UnquoteChar(lit string) (rune, error) {
	if len(lit) < 3 || lit[0] != '\'' || lit[len(lit)-1] != '\'' {
		return 0, &Error{Message: "malformed character literal " + lit}
	}
	body := lit[1 : len(lit)-1]
	if !strings.HasPrefix(body, `\`) {
		r, size := utf8.DecodeRuneInString(body)
		if size != len(body) {
			return 0, &Error{Message: "malformed character literal " + lit}
		}
		return r, nil
	}
	if len(body) == 6 && body[1] == 'u' {
		v, err := strconv.ParseUint(body[2:], 16, 32)
		if err != nil {
			return 0, &Error{Message: "malformed character literal " + lit}
		}
		return rune(v), nil
	}
	if len(body) == 2 {
		if v, ok := stringEscapes[body[1]]; ok {
			return v, nil
		}
	}
	return 0, &Error{Message: "malformed character literal " + lit}
}
