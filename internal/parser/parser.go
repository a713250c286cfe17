package parser

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/quasi/internal/lexer"
	"github.com/orizon-lang/quasi/internal/position"
)

// ParseError represents a parsing error with context
type ParseError struct {
	Position position.Position
	Offset   int
	Message  string
}

func (e *ParseError) Error() string {
	if e.Position.IsValid() {
		return fmt.Sprintf("parse error at %s: %s", e.Position, e.Message)
	}
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

// Category is the syntactic category a fragment is parsed as.
type Category int

const (
	CategoryExpression Category = iota
	CategoryDeclaration
	CategoryFile
	CategoryType
)

func (c Category) String() string {
	switch c {
	case CategoryExpression:
		return "expression"
	case CategoryDeclaration:
		return "declaration"
	case CategoryFile:
		return "file"
	case CategoryType:
		return "type"
	default:
		return "unknown"
	}
}

// CategoryFromTag maps a quotation tag to its category.
func CategoryFromTag(tag string) (Category, bool) {
	switch tag {
	case "expr":
		return CategoryExpression, true
	case "decl":
		return CategoryDeclaration, true
	case "file":
		return CategoryFile, true
	case "type":
		return CategoryType, true
	}
	return 0, false
}

// Option configures a parse.
type Option func(*Parser)

// WithFilename sets the file name used in positions and errors.
func WithFilename(name string) Option {
	return func(p *Parser) { p.filename = name }
}

// WithSplices makes every identifier expression named by a key of m parse
// as the mapped expression instead. The mapped nodes are returned as is, so
// they keep their identity and spans.
func WithSplices(m map[string]Expr) Option {
	return func(p *Parser) { p.splices = m }
}

// Parser is a recursive descent parser over a token slice. Errors abort the
// parse through a panic that the entry points recover.
type Parser struct {
	src      string
	source   *position.SourceFile
	filename string
	tokens   []lexer.Token
	comments []lexer.Comment
	pos      int
	splices  map[string]Expr
	// noInfix is an identifier that ends an expression instead of being
	// read as an infix call.
	noInfix string
}

type bailout struct {
	err *ParseError
}

func newParser(src string, span position.Span, opts []Option) (*Parser, error) {
	p := &Parser{src: src}
	for _, opt := range opts {
		opt(p)
	}
	p.source = position.NewSourceFile(p.filename, src)
	lx := lexer.NewRange(src, span.Start, span.End)
	tokens, err := lx.Tokenize()
	if err != nil {
		return nil, p.wrapLexError(err)
	}
	p.tokens = tokens
	p.comments = lx.Comments()
	return p, nil
}

func (p *Parser) wrapLexError(err error) error {
	if le, ok := err.(*lexer.Error); ok {
		return &ParseError{Position: p.source.Position(le.Offset), Offset: le.Offset, Message: le.Message}
	}
	return err
}

func (p *Parser) run(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = b.err
		}
	}()
	f()
	return nil
}

// ParseFile parses a whole source file. Files ending in .kts are parsed as
// scripts.
func ParseFile(filename, src string, opts ...Option) (*File, error) {
	p, err := newParser(src, position.Span{Start: 0, End: len(src)}, append(opts, WithFilename(filename)))
	if err != nil {
		return nil, err
	}
	var f *File
	err = p.run(func() {
		f = p.parseFile(strings.HasSuffix(filename, ".kts"))
	})
	if err != nil {
		return nil, err
	}
	f.Name = filename
	f.Source = p.source
	f.Comments = p.comments
	return f, nil
}

// ParseExpression parses src as a single expression.
func ParseExpression(src string, opts ...Option) (Expr, error) {
	p, err := newParser(src, position.Span{Start: 0, End: len(src)}, opts)
	if err != nil {
		return nil, err
	}
	var e Expr
	err = p.run(func() {
		e = p.parseExpression()
		p.skipSemis()
		p.expect(lexer.TokenEOF)
	})
	return e, err
}

// ParseDeclaration parses src as a single declaration.
func ParseDeclaration(src string, opts ...Option) (Decl, error) {
	p, err := newParser(src, position.Span{Start: 0, End: len(src)}, opts)
	if err != nil {
		return nil, err
	}
	var d Decl
	err = p.run(func() {
		p.skipSemis()
		d = p.parseDeclaration(true)
		p.skipSemis()
		p.expect(lexer.TokenEOF)
	})
	return d, err
}

// ParseType parses src as a type reference.
func ParseType(src string, opts ...Option) (*Type, error) {
	p, err := newParser(src, position.Span{Start: 0, End: len(src)}, opts)
	if err != nil {
		return nil, err
	}
	var t *Type
	err = p.run(func() {
		t = p.parseType()
		p.expect(lexer.TokenEOF)
	})
	return t, err
}

// ParseAs parses src in the given category.
func ParseAs(c Category, src string, opts ...Option) (Node, error) {
	switch c {
	case CategoryExpression:
		return ParseExpression(src, opts...)
	case CategoryDeclaration:
		return ParseDeclaration(src, opts...)
	case CategoryFile:
		return ParseFile("", src, opts...)
	case CategoryType:
		return ParseType(src, opts...)
	}
	return nil, fmt.Errorf("unknown category %d", int(c))
}

// DetectCategory parses an untagged fragment, trying a file when it starts
// with a header, then an expression, a declaration, a file of several
// declarations and finally a type. The first error is returned when no
// category fits.
func DetectCategory(src string, opts ...Option) (Category, Node, error) {
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(trimmed, "package ") || strings.HasPrefix(trimmed, "import ") {
		f, err := ParseFile("", src, opts...)
		return CategoryFile, f, err
	}
	var first error
	for _, c := range []Category{CategoryExpression, CategoryDeclaration, CategoryFile, CategoryType} {
		n, err := ParseAs(c, src, opts...)
		if err == nil {
			return c, n, nil
		}
		if first == nil {
			first = err
		}
	}
	return 0, nil, first
}

// ====== Token helpers ======

func (p *Parser) cur() lexer.Token { return p.tokens[p.pos] }

func (p *Parser) peek(n int) lexer.Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) at(t lexer.TokenType) bool { return p.tokens[p.pos].Type == t }

func (p *Parser) atIdent(name string) bool {
	tok := p.tokens[p.pos]
	return tok.Type == lexer.TokenIdentifier && tok.Literal == name
}

// adjacent reports whether the current token starts where the previous one
// ended.
func (p *Parser) adjacent() bool {
	return p.pos > 0 && p.tokens[p.pos-1].Span.End == p.tokens[p.pos].Span.Start
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Type != lexer.TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	if !p.at(t) {
		p.failf("expected %s, found %s", t, describe(p.cur()))
	}
	return p.advance()
}

func (p *Parser) expectIdent() string {
	if !p.at(lexer.TokenIdentifier) {
		p.failf("expected identifier, found %s", describe(p.cur()))
	}
	return p.advance().Literal
}

func (p *Parser) skipSemis() {
	for p.at(lexer.TokenSemicolon) {
		p.advance()
	}
}

func (p *Parser) start() int { return p.cur().Span.Start }

func (p *Parser) lastEnd() int {
	if p.pos == 0 {
		return p.cur().Span.Start
	}
	return p.tokens[p.pos-1].Span.End
}

func finish[T Node](p *Parser, n T, start int) T {
	n.setSpan(position.Span{Start: start, End: p.lastEnd()})
	return n
}

func (p *Parser) failf(format string, args ...interface{}) {
	offset := p.cur().Span.Start
	panic(bailout{err: &ParseError{
		Position: p.source.Position(offset),
		Offset:   offset,
		Message:  fmt.Sprintf(format, args...),
	}})
}

// try runs f speculatively. On failure the token position is restored and
// false is returned.
func (p *Parser) try(f func()) (ok bool) {
	saved := p.pos
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bailout); !isBail {
				panic(r)
			}
			p.pos = saved
			ok = false
		}
	}()
	f()
	return true
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Literal)
}

// sub parses an embedded expression such as a template entry.
func (p *Parser) sub(span position.Span) Expr {
	lx := lexer.NewRange(p.src, span.Start, span.End)
	tokens, err := lx.Tokenize()
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			panic(bailout{err: &ParseError{Position: p.source.Position(le.Offset), Offset: le.Offset, Message: le.Message}})
		}
		p.failf("%v", err)
	}
	child := &Parser{src: p.src, source: p.source, filename: p.filename, tokens: tokens, splices: p.splices}
	e := child.parseExpression()
	child.expect(lexer.TokenEOF)
	return e
}

// ====== Files ======

func (p *Parser) parseFile(script bool) *File {
	f := &File{Script: script}
	for p.at(lexer.TokenAt) && p.peek(1).Literal == "file" && p.peek(2).Type == lexer.TokenColon {
		f.Annotations = append(f.Annotations, p.parseAnnotationSet())
	}
	p.skipSemis()

	if p.at(lexer.TokenPackage) || (p.at(lexer.TokenAt) && p.packageAfterModifiers()) {
		start := p.start()
		mods := p.parseModifiers()
		p.expect(lexer.TokenPackage)
		f.Package = finish(p, &PackageDirective{Mods: mods, Names: p.parseDottedName()}, start)
		p.skipSemis()
	}
	for p.at(lexer.TokenImport) {
		f.Imports = append(f.Imports, p.parseImport())
		p.skipSemis()
	}

	for !p.at(lexer.TokenEOF) {
		if script {
			f.Stmts = append(f.Stmts, p.parseStatement())
		} else {
			f.Decls = append(f.Decls, p.parseDeclaration(true))
		}
		p.endStatement()
	}
	f.Span = position.Span{Start: 0, End: len(p.src)}
	return f
}

func (p *Parser) packageAfterModifiers() bool {
	found := false
	p.try(func() {
		p.parseModifiers()
		found = p.at(lexer.TokenPackage)
		p.failf("lookahead")
	})
	return found
}

func (p *Parser) parseDottedName() []string {
	names := []string{p.expectIdent()}
	for p.at(lexer.TokenDot) && p.peek(1).Type == lexer.TokenIdentifier {
		p.advance()
		names = append(names, p.advance().Literal)
	}
	return names
}

func (p *Parser) parseImport() *ImportDirective {
	start := p.start()
	p.expect(lexer.TokenImport)
	imp := &ImportDirective{Names: []string{p.expectIdent()}}
	for p.at(lexer.TokenDot) {
		p.advance()
		if p.at(lexer.TokenMul) {
			p.advance()
			imp.Wildcard = true
			break
		}
		imp.Names = append(imp.Names, p.expectIdent())
	}
	if p.at(lexer.TokenAs) {
		p.advance()
		imp.Alias = p.expectIdent()
	}
	return finish(p, imp, start)
}

// endStatement requires a separator after a statement or declaration.
func (p *Parser) endStatement() {
	if p.at(lexer.TokenSemicolon) {
		p.skipSemis()
		return
	}
	if p.at(lexer.TokenEOF) || p.at(lexer.TokenRBrace) || p.cur().NewlineBefore {
		return
	}
	p.failf("expected newline or ';', found %s", describe(p.cur()))
}

// ====== Modifiers ======

var modifierKeywords = map[string]bool{
	"abstract": true, "final": true, "open": true, "annotation": true, "sealed": true,
	"data": true, "override": true, "lateinit": true, "inner": true,
	"private": true, "protected": true, "public": true, "internal": true,
	"out": true, "noinline": true, "crossinline": true, "vararg": true, "reified": true,
	"tailrec": true, "operator": true, "infix": true, "inline": true, "external": true,
	"suspend": true, "const": true, "actual": true, "expect": true,
	"enum": true, "companion": true,
}

// annotationTargets are the use-site targets accepted before a colon.
var annotationTargets = map[string]bool{
	"field": true, "file": true, "property": true, "get": true, "set": true,
	"receiver": true, "param": true, "setparam": true, "delegate": true, "macro": true,
}

func (p *Parser) modifierFollows() bool {
	next := p.peek(1)
	switch next.Type {
	case lexer.TokenClass, lexer.TokenInterface, lexer.TokenFun, lexer.TokenObject,
		lexer.TokenVal, lexer.TokenVar, lexer.TokenTypeAlias, lexer.TokenAt, lexer.TokenPackage:
		return true
	case lexer.TokenIdentifier:
		return !next.NewlineBefore || modifierKeywords[next.Literal] || next.Literal == "constructor"
	}
	return false
}

func (p *Parser) parseModifiers() []Modifier {
	var mods []Modifier
	for {
		switch {
		case p.at(lexer.TokenAt):
			mods = append(mods, p.parseAnnotationSet())
		case p.at(lexer.TokenIdentifier) && modifierKeywords[p.cur().Literal] && p.modifierFollows():
			start := p.start()
			mods = append(mods, finish(p, &KeywordModifier{Keyword: p.advance().Literal}, start))
		default:
			return mods
		}
	}
}

func (p *Parser) parseAnnotationSet() *AnnotationSet {
	start := p.start()
	p.expect(lexer.TokenAt)
	set := &AnnotationSet{}
	if annotationTargets[p.cur().Literal] && p.peek(1).Type == lexer.TokenColon {
		set.Target = p.advance().Literal
		p.advance()
	}
	if p.at(lexer.TokenLBracket) {
		p.advance()
		set.Bracketed = true
		for !p.at(lexer.TokenRBracket) {
			set.Annotations = append(set.Annotations, p.parseAnnotation())
		}
		p.advance()
	} else {
		set.Annotations = []*Annotation{p.parseAnnotation()}
	}
	return finish(p, set, start)
}

func (p *Parser) parseAnnotation() *Annotation {
	start := p.start()
	ann := &Annotation{Names: []string{p.expectIdent()}}
	for p.at(lexer.TokenDot) && p.adjacent() && p.peek(1).Type == lexer.TokenIdentifier {
		p.advance()
		ann.Names = append(ann.Names, p.advance().Literal)
	}
	if p.at(lexer.TokenLt) && p.adjacent() {
		ann.TypeArgs = p.parseTypeArgs()
	}
	if p.at(lexer.TokenLParen) && p.adjacent() {
		ann.HasArgs = true
		ann.Args = p.parseValueArgs()
	}
	return finish(p, ann, start)
}
