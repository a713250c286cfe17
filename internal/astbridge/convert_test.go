package astbridge

import (
	"errors"
	"testing"

	"github.com/orizon-lang/quasi/internal/ast"
	qerrors "github.com/orizon-lang/quasi/internal/errors"
	p "github.com/orizon-lang/quasi/internal/parser"
)

func mustDecl(t *testing.T, src string) ast.Decl {
	t.Helper()
	d, err := p.ParseDeclaration(src)
	if err != nil {
		t.Fatalf("ParseDeclaration(%q): %v", src, err)
	}
	out, err := FromDecl(d)
	if err != nil {
		t.Fatalf("FromDecl(%q): %v", src, err)
	}
	return out
}

func TestConvertFunction(t *testing.T) {
	fn, ok := mustDecl(t, "fun f() = x + 1").(*ast.Func)
	if !ok {
		t.Fatalf("expected *ast.Func")
	}
	if fn.Name != "f" || len(fn.Params) != 0 {
		t.Errorf("name = %q, params = %d", fn.Name, len(fn.Params))
	}
	body, ok := fn.Body.(*ast.ExprBody)
	if !ok {
		t.Fatalf("body = %T", fn.Body)
	}
	want := &ast.BinaryOp{
		Lhs:  &ast.Name{Name: "x"},
		Oper: &ast.TokenOper{Token: ast.TokenAdd},
		Rhs:  &ast.Const{Value: "1", Form: ast.FormInt},
	}
	if !ast.Equal(body.Expr, want) {
		t.Errorf("body = %s", ast.Serialize(body.Expr))
	}
}

func TestConvertClass(t *testing.T) {
	s, ok := mustDecl(t, "@Double(2) data class A(val n: Int) : B(n), C {\n  fun g() {}\n}").(*ast.Structured)
	if !ok {
		t.Fatalf("expected *ast.Structured")
	}
	if s.Form != ast.FormClass || s.Name != "A" {
		t.Errorf("form = %s, name = %s", s.Form, s.Name)
	}
	sets := ast.Annotations(s.Mods)
	if len(sets) != 1 || sets[0].Anns[0].Names[0] != "Double" || len(sets[0].Anns[0].Args) != 1 {
		t.Errorf("annotations = %#v", sets)
	}
	if !ast.HasKeyword(s.Mods, ast.KeywordData) {
		t.Error("data modifier lost")
	}
	prm := s.PrimaryConstructor.Params[0]
	if prm.ReadOnly == nil || !*prm.ReadOnly || prm.Name != "n" {
		t.Errorf("primary parameter = %#v", prm)
	}
	if len(s.Parents) != 2 {
		t.Fatalf("parents = %d", len(s.Parents))
	}
	if _, ok := s.Parents[0].(*ast.CallConstructorParent); !ok {
		t.Errorf("first parent = %T", s.Parents[0])
	}
	if _, ok := s.Parents[1].(*ast.TypeParent); !ok {
		t.Errorf("second parent = %T", s.Parents[1])
	}
	if len(s.Members) != 1 {
		t.Errorf("members = %d", len(s.Members))
	}
}

func TestConvertForms(t *testing.T) {
	cases := []struct {
		src  string
		form ast.StructuredForm
	}{
		{"interface I", ast.FormInterface},
		{"object O", ast.FormObject},
		{"enum class E { X, Y }", ast.FormEnumClass},
	}
	for _, tc := range cases {
		s, ok := mustDecl(t, tc.src).(*ast.Structured)
		if !ok || s.Form != tc.form {
			t.Errorf("%q: form = %v", tc.src, s)
		}
	}

	e := mustDecl(t, "enum class E { X, Y }").(*ast.Structured)
	if len(e.Members) != 2 {
		t.Fatalf("enum members = %d", len(e.Members))
	}
	if entry, ok := e.Members[1].(*ast.EnumEntry); !ok || entry.Name != "Y" {
		t.Errorf("second entry = %#v", e.Members[1])
	}
}

func TestConvertControlBodies(t *testing.T) {
	e, err := p.ParseExpression("if (a) { b } else c")
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	out, err := FromExpr(e)
	if err != nil {
		t.Fatalf("FromExpr: %v", err)
	}
	ifx := out.(*ast.If)
	brace, ok := ifx.Body.(*ast.Brace)
	if !ok || len(brace.Params) != 0 || len(brace.Block.Stmts) != 1 {
		t.Errorf("then branch = %s", ast.Serialize(ifx.Body))
	}
	if _, ok := ifx.ElseBody.(*ast.Name); !ok {
		t.Errorf("else branch = %T", ifx.ElseBody)
	}
}

func TestConvertDotAndSafeAccess(t *testing.T) {
	e, err := p.ParseExpression("a?.b.c()")
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	out, err := FromExpr(e)
	if err != nil {
		t.Fatalf("FromExpr: %v", err)
	}
	outer := out.(*ast.BinaryOp)
	if outer.Oper.(*ast.TokenOper).Token != ast.TokenDot {
		t.Errorf("outer operator = %s", ast.Serialize(outer.Oper))
	}
	if _, ok := outer.Rhs.(*ast.Call); !ok {
		t.Errorf("selector = %T", outer.Rhs)
	}
	inner := outer.Lhs.(*ast.BinaryOp)
	if inner.Oper.(*ast.TokenOper).Token != ast.TokenDotSafe {
		t.Errorf("inner operator = %s", ast.Serialize(inner.Oper))
	}
}

func TestConvertOffsets(t *testing.T) {
	src := "foo(__x__, __x__ + 1)"
	e, err := p.ParseExpression(src)
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	c := NewConverter(WithOffsets(map[int]string{4: "a.b", 11: "c"}))
	out, err := c.ConvertExpr(e)
	if err != nil {
		t.Fatalf("ConvertExpr: %v", err)
	}
	call := out.(*ast.Call)
	ext, ok := call.Args[0].Expr.(*ast.ExternalName)
	if !ok || ext.Name != "a.b" {
		t.Fatalf("first argument = %s", ast.Serialize(call.Args[0].Expr))
	}
	if ext.Tag() != 4 {
		t.Errorf("tag = %v, want 4", ext.Tag())
	}
	sum := call.Args[1].Expr.(*ast.BinaryOp)
	if ext, ok := sum.Lhs.(*ast.ExternalName); !ok || ext.Name != "c" {
		t.Errorf("second argument = %s", ast.Serialize(sum))
	}
	if got := ast.Serialize(call); got != `meta.Node.Expr.Call(expr=meta.Node.Expr.Name(name="foo"), typeArgs=listOf(), `+
		`args=listOf(meta.Node.ValueArg(name=null, asterisk=false, expr=a.b), `+
		`meta.Node.ValueArg(name=null, asterisk=false, expr=meta.Node.Expr.BinaryOp(lhs=c, `+
		`oper=meta.Node.Expr.BinaryOp.Oper.Token(token=meta.Node.Expr.BinaryOp.Token.ADD), `+
		`rhs=meta.Node.Expr.Const(value="1", form=meta.Node.Expr.Const.Form.INT)))), lambda=null)` {
		t.Errorf("serialized = %s", got)
	}
}

func TestConvertComments(t *testing.T) {
	src := "// lead\nfun f() {}\n\n/** Doc. */\nfun g() {}\n// tail\n"
	f, err := p.ParseFile("c.kt", src)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	entry, extras, err := FromFile(f)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	file := entry.(*ast.File)
	if len(file.Decls) != 2 {
		t.Fatalf("decls = %d", len(file.Decls))
	}
	if doc := ast.DocComment(extras, file.Decls[0]); doc != nil {
		t.Errorf("plain comment taken as doc: %q", doc.Text)
	}
	if got := extras.ExtrasBefore(file.Decls[0]); len(got) != 1 {
		t.Errorf("extras before f = %d", len(got))
	}
	doc := ast.DocComment(extras, file.Decls[1])
	if doc == nil || doc.Text != "/** Doc. */" {
		t.Errorf("doc comment = %#v", doc)
	}
	if got := extras.ExtrasWithin(file); len(got) != 1 || got[0].(*ast.Comment).Text != "// tail" {
		t.Errorf("trailing extras = %#v", got)
	}
}

func TestConvertScript(t *testing.T) {
	f, err := p.ParseFile("s.kts", "val x = 1\nprintln(x)\n")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	entry, _, err := FromFile(f)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	s, ok := entry.(*ast.Script)
	if !ok || len(s.Exprs) != 2 {
		t.Fatalf("script = %#v", entry)
	}
	if _, ok := s.Exprs[0].(*ast.PropertyExpr); !ok {
		t.Errorf("first expression = %T", s.Exprs[0])
	}
}

func TestConversionFailure(t *testing.T) {
	e, err := p.ParseExpression("f(expr`x`)")
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	out, err := FromExpr(e)
	if err == nil {
		t.Fatalf("expected failure, got %s", ast.Serialize(out))
	}
	if !errors.Is(err, qerrors.ErrConversionFailure) {
		t.Errorf("error %v is not a conversion failure", err)
	}
}

func TestInvalidUTF8StringRejected(t *testing.T) {
	e, err := p.ParseExpression("\"bad\xffutf\"")
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	out, err := FromExpr(e)
	if err == nil {
		t.Fatalf("expected failure, got %s", ast.Serialize(out))
	}
	if !errors.Is(err, qerrors.ErrConversionFailure) {
		t.Errorf("error %v is not a conversion failure", err)
	}
}
