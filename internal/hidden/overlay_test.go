package hidden

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/astbridge"
	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/parser"
	"github.com/orizon-lang/quasi/internal/quotation"
	"github.com/orizon-lang/quasi/internal/store"
)

func parseFile(t *testing.T, src string) *parser.File {
	t.Helper()
	f, err := parser.ParseFile("a.kt", src)
	require.NoError(t, err)
	return f
}

func TestBuildQuotationRelinksInterpolations(t *testing.T) {
	src := "val y = 1\nval x = expr`$y + 1`\n"
	f := parseFile(t, src)
	qs := parser.Collect[*parser.QuotationExpr](f)
	require.Len(t, qs, 1)
	q := qs[0]

	o := New(f)
	c := o.Register(KindQuotation, q, q.GetSpan())
	assert.Same(t, c, o.Register(KindQuotation, q, q.GetSpan()))
	assert.Equal(t, Uninitialized, c.State())

	x := quotation.Extract(q, src)
	require.NoError(t, o.BuildQuotation(c, x))
	assert.Equal(t, HiddenBuilt, c.State())
	assert.Contains(t, c.Text, splicePrefix+"0__")
	assert.NotContains(t, c.Text, quotation.Placeholder)

	root, ok := o.HiddenOf(q)
	require.True(t, ok)
	assert.True(t, o.IsRoot(root))
	orig, ok := o.OriginalOf(root)
	require.True(t, ok)
	assert.Equal(t, parser.Node(q), orig)
	require.Len(t, o.Synthetic().Stmts, 1)
	assert.Same(t, o.Synthetic().Context, f)

	live := x.Interpolations[x.Offsets()[0]].Expr
	found := false
	descendants := 0
	parser.Inspect(root, func(n parser.Node) bool {
		if n == parser.Node(live) {
			found = true
			return false
		}
		if n != root {
			descendants++
			assert.Equal(t, RoleHiddenDescendant, o.RoleOf(n).Kind)
			assert.Equal(t, parser.Node(q), o.SourceOf(n))
		}
		return true
	})
	assert.True(t, found, "interpolated expression is not spliced into the hidden element")
	assert.Positive(t, descendants)
	assert.False(t, o.IsHidden(live))
	assert.Equal(t, parser.Node(live), o.SourceOf(live))
	assert.Equal(t, 2, o.Position(root).Line)

	assert.False(t, c.Expandable())
	_, _, err := o.Expand(context.Background(), c, src)
	assert.True(t, errors.Is(err, ErrNotExpandable))
}

func TestBuildQuotationFailure(t *testing.T) {
	src := "val x = expr`1 +`\n"
	f := parseFile(t, src)
	q := parser.Collect[*parser.QuotationExpr](f)[0]
	o := New(f)
	c := o.Register(KindQuotation, q, q.GetSpan())

	err := o.BuildQuotation(c, quotation.Extract(q, src))
	require.Error(t, err)
	assert.True(t, errors.Is(err, qerrors.ErrConversionFailure))
	assert.Equal(t, Uninitialized, c.State())
	assert.Equal(t, err, c.Err)
	_, ok := o.HiddenOf(q)
	assert.False(t, ok)
}

func TestSerializeWithSplicesAvoidsExistingText(t *testing.T) {
	n := &ast.Call{
		Expr: ast.QuoteName("__splice_0__"),
		Args: []*ast.ValueArg{{Expr: &ast.ExternalName{Name: "y"}}},
	}
	live := &parser.NameExpr{Name: "y"}
	text, splices, err := serializeWithSplices(n, func(*ast.ExternalName) (parser.Expr, bool) { return live, true })
	require.NoError(t, err)
	require.Len(t, splices, 1)
	for name, e := range splices {
		assert.True(t, strings.HasPrefix(name, "__splice__"), name)
		assert.Contains(t, text, name)
		assert.Same(t, live, e)
	}

	_, _, err = serializeWithSplices(n, func(*ast.ExternalName) (parser.Expr, bool) { return nil, false })
	assert.True(t, errors.Is(err, qerrors.ErrConversionFailure))
}

// macroConstruct registers the i-th declaration of f as a macro construct
// and builds it from the declaration itself.
func macroConstruct(t *testing.T, o *Overlay, i int) *Construct {
	t.Helper()
	d := o.File().Decls[i]
	c := o.Register(KindMacro, d, d.GetSpan())
	c.Class = "lib.Same"
	generic, err := astbridge.FromDecl(d)
	require.NoError(t, err)
	fn := *generic.(*ast.Func)
	fn.Mods = nil
	require.NoError(t, o.BuildMacro(c, &fn))
	return c
}

func TestExpandThenUndoRestoresText(t *testing.T) {
	ctx := context.Background()
	src := "package p\n\n@Same\nfun f() = 1 + 2\n\n@Same\nfun g() {\n    h()\n}\n"
	o := New(parseFile(t, src))
	cf := macroConstruct(t, o, 0)
	cg := macroConstruct(t, o, 1)
	assert.True(t, cf.Expandable())

	text, recF, err := o.Expand(ctx, cf, src)
	require.NoError(t, err)
	assert.Equal(t, Expanded, cf.State())
	assert.Equal(t, recF.Key, cf.Key())
	assert.Contains(t, text, "\nfun f() = 1 + 2\n")
	assert.NotContains(t, text, "@Same\nfun f")

	_, _, err = o.Expand(ctx, cf, text)
	assert.True(t, errors.Is(err, ErrNotExpandable))

	text, recG, err := o.Expand(ctx, cg, text)
	require.NoError(t, err)
	assert.NotContains(t, text, "@Same")

	before, _ := o.HiddenOf(cf.Node)
	text, err = o.Undo(ctx, text, recF.Key)
	require.NoError(t, err)
	assert.Equal(t, Collapsed, cf.State())
	after, ok := o.HiddenOf(cf.Node)
	require.True(t, ok)
	assert.NotSame(t, before, after, "undo must build a fresh hidden element")
	assert.Len(t, o.Synthetic().Decls, 2)

	text, err = o.Undo(ctx, text, recG.Key)
	require.NoError(t, err)
	assert.Equal(t, src, text)

	records, err := o.Store().List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExpandRejectsConstructInsideExpandedOne(t *testing.T) {
	ctx := context.Background()
	src := "@Same\nclass A {\n    @Same\n    fun f() = 1\n}\n"
	o := New(parseFile(t, src))

	cls := o.File().Decls[0].(*parser.ClassDecl)
	outer := o.Register(KindMacro, cls, cls.GetSpan())
	generic, err := astbridge.FromDecl(cls)
	require.NoError(t, err)
	st := *generic.(*ast.Structured)
	st.Mods = nil
	require.NoError(t, o.BuildMacro(outer, &st))

	fn := cls.Members[0]
	inner := o.Register(KindMacro, fn, fn.GetSpan())
	generic, err = astbridge.FromDecl(fn)
	require.NoError(t, err)
	f := *generic.(*ast.Func)
	f.Mods = nil
	require.NoError(t, o.BuildMacro(inner, &f))

	text, rec, err := o.Expand(ctx, outer, src)
	require.NoError(t, err)
	found, ok := o.ExpandedAround(inner)
	require.True(t, ok)
	assert.Same(t, outer, found)

	_, _, err = o.Expand(ctx, inner, text)
	assert.True(t, errors.Is(err, ErrOverlap), "%v", err)
	records, err := o.Store().List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	text, err = o.Undo(ctx, text, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, src, text)

	_, ok = o.ExpandedAround(inner)
	assert.False(t, ok)
	_, _, err = o.Expand(ctx, inner, text)
	assert.NoError(t, err)
}

func TestUndoDetectsStaleText(t *testing.T) {
	ctx := context.Background()
	src := "@Same\nfun f() = 1\n"
	s := store.NewMemory()
	o := New(parseFile(t, src), WithStore(s))
	c := macroConstruct(t, o, 0)

	text, rec, err := o.Expand(ctx, c, src)
	require.NoError(t, err)

	_, _, err = Undo(ctx, s, "x"+text, rec.Key)
	assert.True(t, errors.Is(err, ErrStale))

	out, _, err := Undo(ctx, s, text, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	_, _, err = Undo(ctx, s, text, rec.Key)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestBuildMacroRejectsNonDeclarations(t *testing.T) {
	src := "@Same\nfun f() = 1\n"
	o := New(parseFile(t, src))
	d := o.File().Decls[0]
	c := o.Register(KindMacro, d, d.GetSpan())

	err := o.BuildMacro(c, ast.QuoteInt(1))
	assert.True(t, errors.Is(err, qerrors.ErrConversionFailure))
	assert.Equal(t, Uninitialized, c.State())
	assert.False(t, c.Expandable())
}
