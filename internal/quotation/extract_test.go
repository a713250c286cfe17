package quotation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/quasi/internal/ast"
	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/format"
	"github.com/orizon-lang/quasi/internal/parser"
)

func quotationOf(t *testing.T, src string) *parser.QuotationExpr {
	t.Helper()
	e, err := parser.ParseExpression(src)
	require.NoError(t, err)
	q, ok := e.(*parser.QuotationExpr)
	require.True(t, ok, "%T is not a quotation", e)
	return q
}

func TestExtractInterpolations(t *testing.T) {
	src := "expr`foo($x, ${y + 1})`"
	x := Extract(quotationOf(t, src), src)

	assert.Equal(t, "foo("+Placeholder+", "+Placeholder+")", x.Content)
	assert.Equal(t, []int{4, 6 + len(Placeholder)}, x.Offsets())
	assert.Equal(t, map[int]string{4: "x", 6 + len(Placeholder): "y + 1"}, x.Texts())
	assert.Equal(t, "foo(x, y + 1)", x.Reconstruct())

	in := x.Interpolations[4]
	name, ok := in.Expr.(*parser.NameExpr)
	require.True(t, ok)
	assert.Equal(t, "x", name.Name)
}

func TestExtractEscapeAdvancesOneCharacter(t *testing.T) {
	src := "`\\$ + $x`"
	x := Extract(quotationOf(t, src), src)

	assert.Equal(t, "$ + "+Placeholder, x.Content)
	assert.Equal(t, []int{4}, x.Offsets())
	assert.Equal(t, "$ + x", x.Reconstruct())
}

func TestExtractTrimsUnlessPreserved(t *testing.T) {
	src := "`  a + $b  `"
	assert.Equal(t, "a + "+Placeholder, Extract(quotationOf(t, src), src).Content)

	src = "```  a + $b  ```"
	x := Extract(quotationOf(t, src), src)
	assert.Equal(t, "  a + "+Placeholder+"  ", x.Content)
	assert.Equal(t, []int{6}, x.Offsets())
	assert.Equal(t, "  a + b  ", x.Reconstruct())
}

func TestConvertDeclaration(t *testing.T) {
	src := "`fun f() = x + 1`"
	x := Extract(quotationOf(t, src), src)
	n, _, err := x.Convert()
	require.NoError(t, err)

	fn, ok := n.(*ast.Func)
	require.True(t, ok, "%T is not a function", n)
	assert.Equal(t, "x + 1", format.Source(fn.Body.(*ast.ExprBody).Expr))
}

func TestConvertExternalNames(t *testing.T) {
	src := "expr`$a + ${b.c}`"
	x := Extract(quotationOf(t, src), src)
	n, _, err := x.Convert()
	require.NoError(t, err)

	bin, ok := n.(*ast.BinaryOp)
	require.True(t, ok)
	lhs, ok := bin.Lhs.(*ast.ExternalName)
	require.True(t, ok)
	assert.Equal(t, "a", lhs.Name)
	rhs, ok := bin.Rhs.(*ast.ExternalName)
	require.True(t, ok)
	assert.Equal(t, "b.c", rhs.Name)

	in, ok := x.Lookup(rhs)
	require.True(t, ok)
	assert.Same(t, x.Interpolations[in.Offset].Expr, in.Expr)
	assert.Equal(t, "meta.Node.Expr.BinaryOp(lhs=a, oper=meta.Node.Expr.BinaryOp.Oper.Token(token=meta.Node.Expr.BinaryOp.Token.ADD), rhs=b.c)",
		ast.Serialize(n))
}

func TestConvertFailures(t *testing.T) {
	for _, src := range []string{
		"decl`fun $n() = 1`",
		"expr`1 +`",
		"type`fun`",
	} {
		x := Extract(quotationOf(t, src), src)
		_, _, err := x.Convert()
		require.Error(t, err, src)
		assert.True(t, errors.Is(err, qerrors.ErrConversionFailure), "%s: %v", src, err)
	}
}
