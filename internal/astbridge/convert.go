// Package astbridge converts between the native parse tree and the generic
// ast model.
//
// Converter mirrors a native tree into ast nodes. Names sitting at a
// placeholder offset recorded by the quotation extractor become
// ast.ExternalName nodes. Reader goes the other way round for serialized
// text: it parses constructor-literal text with the native parser and
// rebuilds the ast tree it describes.
package astbridge

import (
	"fmt"
	"sort"

	"github.com/orizon-lang/quasi/internal/ast"
	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/lexer"
	p "github.com/orizon-lang/quasi/internal/parser"
	"github.com/orizon-lang/quasi/internal/position"
)

// Option configures a Converter.
type Option func(*Converter)

// WithOffsets marks the name expressions starting at the keys of m as
// external. The ExternalName carries the mapped text and is tagged with its
// offset.
func WithOffsets(m map[int]string) Option {
	return func(c *Converter) { c.offsets = m }
}

// WithComments attaches the given comments to the converted declarations
// and statements that follow them.
func WithComments(comments []lexer.Comment) Option {
	return func(c *Converter) {
		c.comments = append([]lexer.Comment(nil), comments...)
		sort.Slice(c.comments, func(i, j int) bool { return c.comments[i].Span.Start < c.comments[j].Span.Start })
	}
}

// Converter mirrors native trees into ast trees. A Converter is used for
// one fragment; the first failure sticks and is reported by the entry point.
type Converter struct {
	offsets  map[int]string
	comments []lexer.Comment
	next     int
	extras   *ast.Extras
	err      error
}

// NewConverter creates a converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{extras: ast.NewExtras()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extras returns the comments attached during conversion.
func (c *Converter) Extras() *ast.Extras { return c.extras }

// ConvertFile converts a file or script. The file's own comments are used
// unless comments were given explicitly.
func (c *Converter) ConvertFile(f *p.File) (ast.Entry, error) {
	if c.comments == nil {
		WithComments(f.Comments)(c)
	}
	e := c.file(f)
	return e, c.result()
}

// ConvertDecl converts a declaration.
func (c *Converter) ConvertDecl(d p.Decl) (ast.Decl, error) {
	out := c.decl(d)
	return out, c.result()
}

// ConvertExpr converts an expression.
func (c *Converter) ConvertExpr(e p.Expr) (ast.Expr, error) {
	out := c.expr(e)
	return out, c.result()
}

// ConvertType converts a type.
func (c *Converter) ConvertType(t *p.Type) (*ast.Type, error) {
	out := c.typ(t)
	return out, c.result()
}

// Convert converts any root produced by parser.ParseAs.
func (c *Converter) Convert(n p.Node) (ast.Node, error) {
	switch n := n.(type) {
	case *p.File:
		return c.ConvertFile(n)
	case p.Decl:
		return c.ConvertDecl(n)
	case p.Expr:
		return c.ConvertExpr(n)
	case *p.Type:
		return c.ConvertType(n)
	}
	return nil, qerrors.ConversionFailure(fmt.Sprintf("%T", n), "not a fragment root")
}

func (c *Converter) result() error { return c.err }

// fail records the first conversion failure.
func (c *Converter) fail(n p.Node, reason string) {
	if c.err != nil {
		return
	}
	e := qerrors.ConversionFailure(fmt.Sprintf("%T", n), reason)
	if n != nil {
		e.Context["span"] = n.GetSpan()
	}
	c.err = e
}

// attach hands the comments preceding span to n.
func (c *Converter) attach(n ast.Node, span position.Span) {
	if extras := c.take(span); len(extras) > 0 {
		c.extras.AddBefore(n, extras...)
	}
}

// take consumes the comments preceding span.
func (c *Converter) take(span position.Span) []ast.Extra {
	if !span.IsValid() {
		return nil
	}
	var out []ast.Extra
	for c.next < len(c.comments) && c.comments[c.next].Span.Start < span.Start {
		cm := c.comments[c.next]
		out = append(out, &ast.Comment{Text: cm.Text, StartsLine: cm.StartsLine, EndsLine: cm.EndsLine})
		c.next++
	}
	return out
}

// flush hands the remaining comments to n as trailing extras.
func (c *Converter) flush(n ast.Node) {
	for ; c.next < len(c.comments); c.next++ {
		cm := c.comments[c.next]
		c.extras.AddWithin(n, &ast.Comment{Text: cm.Text, StartsLine: cm.StartsLine, EndsLine: cm.EndsLine})
	}
}

// FromFile converts a parsed file with its comments.
func FromFile(f *p.File) (ast.Entry, *ast.Extras, error) {
	c := NewConverter()
	e, err := c.ConvertFile(f)
	return e, c.Extras(), err
}

// FromDecl converts a declaration without offsets.
func FromDecl(d p.Decl) (ast.Decl, error) {
	return NewConverter().ConvertDecl(d)
}

// FromExpr converts an expression without offsets.
func FromExpr(e p.Expr) (ast.Expr, error) {
	return NewConverter().ConvertExpr(e)
}
