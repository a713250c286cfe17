// Package lexer implements the lexical analyzer for the host language:
// a Kotlin-style syntax extended with backquoted code quotations.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/orizon-lang/quasi/internal/position"
)

// Error is a lexical error at a byte offset.
type Error struct {
	Offset  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lexical error at offset %d: %s", e.Offset, e.Message)
}

// Lexer scans a range of a source text into tokens. Spans are absolute
// offsets into the full source, which lets callers lex an embedded
// fragment without rebasing positions afterwards.
type Lexer struct {
	src      string
	pos      int
	end      int
	newline  bool
	tokens   []Token
	comments []Comment
}

// New creates a lexer over the whole input.
func New(input string) *Lexer {
	return NewRange(input, 0, len(input))
}

// NewRange creates a lexer over input[start:end].
func NewRange(input string, start, end int) *Lexer {
	return &Lexer{src: input, pos: start, end: end}
}

// Comments returns the comments seen by Tokenize.
func (l *Lexer) Comments() []Comment {
	return l.comments
}

// Tokenize scans the whole range. The returned slice always ends with a
// TokenEOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			return l.tokens, nil
		}
	}
}

func (l *Lexer) peekByte(n int) byte {
	if l.pos+n < l.end {
		return l.src[l.pos+n]
	}
	return 0
}

func (l *Lexer) hasPrefix(s string) bool {
	return l.pos+len(s) <= l.end && l.src[l.pos:l.pos+len(s)] == s
}

func (l *Lexer) errorf(offset int, format string, args ...interface{}) error {
	return &Error{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func (l *Lexer) token(typ TokenType, start int) Token {
	tok := Token{
		Type:          typ,
		Literal:       l.src[start:l.pos],
		Span:          position.Span{Start: start, End: l.pos},
		NewlineBefore: l.newline,
	}
	l.newline = false
	return tok
}

func (l *Lexer) next() (Token, error) {
	if err := l.skipTrivia(); err != nil {
		return Token{}, err
	}
	start := l.pos
	if l.pos >= l.end {
		return l.token(TokenEOF, start), nil
	}

	ch, size := utf8.DecodeRuneInString(l.src[l.pos:l.end])
	switch {
	case isIdentStart(ch):
		return l.scanIdentifier()
	case isDigit(ch):
		return l.scanNumber()
	case ch == '"':
		return l.scanString()
	case ch == '\'':
		return l.scanChar()
	case ch == '`':
		return l.scanQuotation(start, "")
	case ch == '@':
		return l.scanAt()
	case ch == '!':
		for _, word := range []struct {
			text string
			typ  TokenType
		}{{"!is", TokenNotIs}, {"!in", TokenNotIn}} {
			if l.hasPrefix(word.text) && !l.identContinuesAt(l.pos+len(word.text)) {
				l.pos += len(word.text)
				return l.token(word.typ, start), nil
			}
		}
	case l.hasPrefix("?::"):
		// T?::class
		l.pos++
		return l.token(TokenQuestion, start), nil
	}

	for _, op := range operators {
		if l.hasPrefix(op.text) {
			l.pos += len(op.text)
			return l.token(op.typ, start), nil
		}
	}

	l.pos += size
	return Token{}, l.errorf(start, "unexpected character %q", ch)
}

func (l *Lexer) identContinuesAt(offset int) bool {
	if offset >= l.end {
		return false
	}
	r, _ := utf8.DecodeRuneInString(l.src[offset:l.end])
	return isIdentPart(r)
}

func (l *Lexer) skipTrivia() error {
	for l.pos < l.end {
		switch c := l.src[l.pos]; {
		case c == '\n':
			l.newline = true
			l.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			l.pos++
		case l.hasPrefix("//"):
			start := l.pos
			for l.pos < l.end && l.src[l.pos] != '\n' {
				l.pos++
			}
			l.addComment(start)
		case l.hasPrefix("/*"):
			start := l.pos
			depth := 0
			for {
				if l.pos >= l.end {
					return l.errorf(start, "unterminated comment")
				}
				if l.hasPrefix("/*") {
					depth++
					l.pos += 2
					continue
				}
				if l.hasPrefix("*/") {
					depth--
					l.pos += 2
					if depth == 0 {
						break
					}
					continue
				}
				l.pos++
			}
			l.addComment(start)
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) addComment(start int) {
	lineStart := strings.LastIndexByte(l.src[:start], '\n') + 1
	rest := l.src[l.pos:l.end]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	l.comments = append(l.comments, Comment{
		Text:       l.src[start:l.pos],
		Span:       position.Span{Start: start, End: l.pos},
		StartsLine: strings.TrimSpace(l.src[lineStart:start]) == "",
		EndsLine:   strings.TrimSpace(rest) == "",
	})
}

func (l *Lexer) scanIdentifier() (Token, error) {
	start := l.pos
	for l.pos < l.end {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:l.end])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	word := l.src[start:l.pos]

	if quotationTags[word] && l.peekByte(0) == '`' {
		return l.scanQuotation(start, word)
	}
	if l.peekByte(0) == '@' && !l.identContinuesAt(l.pos+1) {
		l.pos++
		tok := l.token(TokenLabel, start)
		tok.Literal = word
		return tok, nil
	}
	if typ, ok := keywords[word]; ok {
		if typ == TokenAs && l.peekByte(0) == '?' && l.peekByte(1) != '.' && l.peekByte(1) != ':' {
			l.pos++
			return l.token(TokenAsSafe, start), nil
		}
		return l.token(typ, start), nil
	}
	return l.token(TokenIdentifier, start), nil
}

func (l *Lexer) scanAt() (Token, error) {
	start := l.pos
	if n := len(l.tokens); n > 0 && l.tokens[n-1].Span.End == start && l.identContinuesAt(start+1) {
		switch l.tokens[n-1].Type {
		case TokenReturn, TokenBreak, TokenContinue, TokenThis, TokenSuper:
			l.pos++
			nameStart := l.pos
			for l.identContinuesAt(l.pos) {
				_, size := utf8.DecodeRuneInString(l.src[l.pos:l.end])
				l.pos += size
			}
			tok := l.token(TokenAtLabel, start)
			tok.Literal = l.src[nameStart:l.pos]
			return tok, nil
		}
	}
	l.pos++
	return l.token(TokenAt, start), nil
}

func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	typ := TokenInteger

	if l.hasPrefix("0x") || l.hasPrefix("0X") || l.hasPrefix("0b") || l.hasPrefix("0B") {
		l.pos += 2
		for l.pos < l.end && (isHexDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.pos++
		}
	} else {
		l.digits()
		if l.peekByte(0) == '.' && isDigitByte(l.peekByte(1)) {
			typ = TokenFloat
			l.pos++
			l.digits()
		}
		if c := l.peekByte(0); c == 'e' || c == 'E' {
			typ = TokenFloat
			l.pos++
			if c := l.peekByte(0); c == '+' || c == '-' {
				l.pos++
			}
			if !isDigitByte(l.peekByte(0)) {
				return Token{}, l.errorf(start, "malformed exponent")
			}
			l.digits()
		}
	}

	switch c := l.peekByte(0); {
	case c == 'f' || c == 'F':
		typ = TokenFloat
		l.pos++
	case c == 'L':
		l.pos++
	case c == 'u' || c == 'U':
		l.pos++
		if l.peekByte(0) == 'L' {
			l.pos++
		}
	}
	if l.identContinuesAt(l.pos) {
		return Token{}, l.errorf(start, "malformed number literal")
	}
	return l.token(typ, start), nil
}

func (l *Lexer) digits() {
	for l.pos < l.end && (isDigitByte(l.src[l.pos]) || l.src[l.pos] == '_') {
		l.pos++
	}
}

func (l *Lexer) scanChar() (Token, error) {
	start := l.pos
	l.pos++
	for {
		if l.pos >= l.end || l.src[l.pos] == '\n' {
			return Token{}, l.errorf(start, "unterminated character literal")
		}
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
		case '\'':
			l.pos++
			return l.token(TokenChar, start), nil
		default:
			l.pos++
		}
	}
}

func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	end, raw, err := skipString(l.src, l.pos, l.end)
	if err != nil {
		return Token{}, err
	}
	l.pos = end
	if raw {
		return l.token(TokenRawString, start), nil
	}
	return l.token(TokenString, start), nil
}

func (l *Lexer) scanQuotation(start int, tag string) (Token, error) {
	q := &Quote{Tag: tag}
	delim := "`"
	if l.hasPrefix("```") {
		delim = "```"
		q.Preserve = true
	}
	l.pos += len(delim)
	contentStart := l.pos
	for {
		if l.pos >= l.end {
			return Token{}, l.errorf(start, "unterminated quotation")
		}
		switch {
		case l.src[l.pos] == '\\':
			l.pos += 2
			continue
		case l.hasPrefix("${"):
			end, err := skipBraces(l.src, l.pos+1, l.end)
			if err != nil {
				return Token{}, err
			}
			l.pos = end
			continue
		case l.hasPrefix(delim):
		default:
			l.pos++
			continue
		}
		break
	}
	content := position.Span{Start: contentStart, End: l.pos}
	l.pos += len(delim)
	if !q.Preserve {
		content = trimSpan(l.src, content)
	}
	q.Content = content

	tok := l.token(TokenQuotation, start)
	tok.Quote = q
	return tok, nil
}

// trimSpan drops the whitespace around s. Indentation inside it is kept.
func trimSpan(src string, s position.Span) position.Span {
	for s.Start < s.End && isSpace(src[s.Start]) {
		s.Start++
	}
	for s.End > s.Start && isSpace(src[s.End-1]) {
		s.End--
	}
	return s
}

// skipString returns the offset just past the string literal starting at
// start, and whether it was a raw (triple-quoted) string.
func skipString(src string, start, limit int) (int, bool, error) {
	if strings.HasPrefix(src[start:limit], `"""`) {
		pos := start + 3
		for pos < limit {
			switch {
			case strings.HasPrefix(src[pos:limit], `"""`):
				pos += 3
				for pos < limit && src[pos] == '"' {
					pos++
				}
				return pos, true, nil
			case strings.HasPrefix(src[pos:limit], "${"):
				end, err := skipBraces(src, pos+1, limit)
				if err != nil {
					return 0, true, err
				}
				pos = end
			default:
				pos++
			}
		}
		return 0, true, &Error{Offset: start, Message: "unterminated raw string"}
	}

	pos := start + 1
	for pos < limit {
		switch {
		case src[pos] == '\n':
			return 0, false, &Error{Offset: start, Message: "unterminated string"}
		case src[pos] == '\\':
			pos += 2
		case src[pos] == '"':
			return pos + 1, false, nil
		case strings.HasPrefix(src[pos:limit], "${"):
			end, err := skipBraces(src, pos+1, limit)
			if err != nil {
				return 0, false, err
			}
			pos = end
		default:
			pos++
		}
	}
	return 0, false, &Error{Offset: start, Message: "unterminated string"}
}

// skipBraces returns the offset just past the '}' matching the '{' at open.
func skipBraces(src string, open, limit int) (int, error) {
	depth := 0
	pos := open
	for pos < limit {
		switch c := src[pos]; {
		case c == '{':
			depth++
			pos++
		case c == '}':
			depth--
			pos++
			if depth == 0 {
				return pos, nil
			}
		case c == '"':
			end, _, err := skipString(src, pos, limit)
			if err != nil {
				return 0, err
			}
			pos = end
		case c == '\'' && pos+2 < limit:
			if src[pos+1] == '\\' {
				pos += 2
			}
			pos += 2
			if pos < limit && src[pos] == '\'' {
				pos++
			}
		default:
			pos++
		}
	}
	return 0, &Error{Offset: open, Message: "unterminated template expression"}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigitByte(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
