// Package quotation turns backquoted code into generic trees.
//
// Extract synthesizes the quotation's content: literal text is copied,
// escapes contribute their single unescaped character and every
// interpolation is replaced by Placeholder. The offsets of the placeholders
// in the synthesized content key the interpolation map, which the converter
// consumes to emit ast.ExternalName nodes at those positions.
package quotation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/astbridge"
	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/parser"
)

// Placeholder stands in for every interpolation in synthesized content. It
// is an ordinary identifier so the content parses as host source.
const Placeholder = "__interpolation__"

// Interpolation is one interpolated sub-expression of a quotation.
type Interpolation struct {
	// Offset is the byte offset of the placeholder in the content.
	Offset int
	// Text is the source text of the interpolated expression.
	Text string
	// Expr is the live interpolated expression of the enclosing file.
	Expr parser.Expr
}

// Extraction is the synthesized content of a quotation.
type Extraction struct {
	Quotation *parser.QuotationExpr
	Content   string
	// Interpolations is keyed by placeholder offset in Content.
	Interpolations map[int]*Interpolation
}

// Extract synthesizes the content of q. src is the text of the file q was
// parsed from.
func Extract(q *parser.QuotationExpr, src string) *Extraction {
	var b strings.Builder
	x := &Extraction{Quotation: q, Interpolations: make(map[int]*Interpolation)}
	for _, entry := range q.Entries {
		switch entry.Kind {
		case parser.EntryLiteral:
			b.WriteString(entry.Text)
		case parser.EntryEscape:
			b.WriteRune(entry.Value)
		case parser.EntryShortInterpolation, parser.EntryLongInterpolation:
			span := entry.Expr.GetSpan()
			x.Interpolations[b.Len()] = &Interpolation{
				Offset: b.Len(),
				Text:   src[span.Start:span.End],
				Expr:   entry.Expr,
			}
			b.WriteString(Placeholder)
		}
	}
	x.Content = b.String()
	return x
}

// Offsets returns the placeholder offsets in increasing order.
func (x *Extraction) Offsets() []int {
	out := make([]int, 0, len(x.Interpolations))
	for off := range x.Interpolations {
		out = append(out, off)
	}
	sort.Ints(out)
	return out
}

// Texts maps placeholder offsets to interpolated source text.
func (x *Extraction) Texts() map[int]string {
	out := make(map[int]string, len(x.Interpolations))
	for off, in := range x.Interpolations {
		out[off] = in.Text
	}
	return out
}

// Reconstruct substitutes the interpolated texts back into the content.
func (x *Extraction) Reconstruct() string {
	var b strings.Builder
	last := 0
	for _, off := range x.Offsets() {
		b.WriteString(x.Content[last:off])
		b.WriteString(x.Interpolations[off].Text)
		last = off + len(Placeholder)
	}
	b.WriteString(x.Content[last:])
	return b.String()
}

// Category returns the syntactic category of the quotation: its tag when
// present, otherwise the first category the content parses as.
func (x *Extraction) Category() (parser.Category, error) {
	if c, ok := parser.CategoryFromTag(x.Quotation.Tag); ok {
		return c, nil
	}
	c, _, err := parser.DetectCategory(x.Content)
	return c, err
}

// Convert parses the content in its category and converts it to a generic
// tree. Placeholders become ast.ExternalName nodes holding the interpolated
// text and tagged with their offset. Every failure is a ConversionFailure.
func (x *Extraction) Convert() (ast.Node, *ast.Extras, error) {
	cat, err := x.Category()
	if err != nil {
		return nil, nil, qerrors.Wrap(qerrors.KindConversionFailure, err,
			"quotation content does not parse", map[string]interface{}{"content": x.Content})
	}
	native, err := parser.ParseAs(cat, x.Content)
	if err != nil {
		return nil, nil, qerrors.Wrap(qerrors.KindConversionFailure, err,
			fmt.Sprintf("quotation content does not parse as %s", cat), map[string]interface{}{"content": x.Content})
	}
	c := astbridge.NewConverter(astbridge.WithOffsets(x.Texts()))
	n, err := c.Convert(native)
	if err != nil {
		return nil, nil, err
	}
	if missing := x.unbound(n); len(missing) > 0 {
		return nil, nil, qerrors.ConversionFailure("quotation",
			fmt.Sprintf("interpolation at offset %v is not in an expression position", missing))
	}
	return n, c.Extras(), nil
}

// unbound returns the offsets that produced no ExternalName.
func (x *Extraction) unbound(n ast.Node) []int {
	seen := make(map[int]bool, len(x.Interpolations))
	ast.Inspect(n, func(n ast.Node) bool {
		if ext, ok := n.(*ast.ExternalName); ok {
			if off, ok := ext.Tag().(int); ok {
				seen[off] = true
			}
		}
		return true
	})
	var out []int
	for _, off := range x.Offsets() {
		if !seen[off] {
			out = append(out, off)
		}
	}
	return out
}

// Lookup returns the interpolation an ExternalName produced by Convert
// stands for.
func (x *Extraction) Lookup(ext *ast.ExternalName) (*Interpolation, bool) {
	off, ok := ext.Tag().(int)
	if !ok {
		return nil, false
	}
	in, ok := x.Interpolations[off]
	return in, ok
}
