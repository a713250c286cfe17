package parser

import (
	"testing"

	"github.com/orizon-lang/quasi/internal/lexer"
)

func mustExpr(t *testing.T, src string) Expr {
	t.Helper()
	e, err := ParseExpression(src)
	if err != nil {
		t.Fatalf("ParseExpression(%q): %v", src, err)
	}
	return e
}

func TestParseFileHeader(t *testing.T) {
	src := "package a.b\n\nimport x.y.Z\nimport x.y.* \nimport q.R as S\n\nfun f() = 1\n"
	f, err := ParseFile("test.kt", src)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if got := f.PackageName(); got != "a.b" {
		t.Errorf("package = %q, want a.b", got)
	}
	if len(f.Imports) != 3 {
		t.Fatalf("imports = %d, want 3", len(f.Imports))
	}
	if !f.Imports[1].Wildcard {
		t.Errorf("second import should be a wildcard")
	}
	if f.Imports[2].Alias != "S" {
		t.Errorf("alias = %q, want S", f.Imports[2].Alias)
	}
	if len(f.Decls) != 1 {
		t.Fatalf("decls = %d, want 1", len(f.Decls))
	}
	fn, ok := f.Decls[0].(*FunDecl)
	if !ok || fn.Name != "f" || fn.ExprBody == nil {
		t.Errorf("unexpected declaration %#v", f.Decls[0])
	}
	if f.Text(fn) != "fun f() = 1" {
		t.Errorf("text = %q", f.Text(fn))
	}
}

func TestParseScript(t *testing.T) {
	f, err := ParseFile("build.kts", "val x = 1\nprintln(x)\n")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if !f.Script || len(f.Stmts) != 2 {
		t.Fatalf("script = %v, stmts = %d", f.Script, len(f.Stmts))
	}
	if _, ok := f.Stmts[0].(*PropertyDecl); !ok {
		t.Errorf("first statement is %T", f.Stmts[0])
	}
	if _, ok := f.Stmts[1].(*CallExpr); !ok {
		t.Errorf("second statement is %T", f.Stmts[1])
	}
}

func TestBinaryPrecedence(t *testing.T) {
	e := mustExpr(t, "a + b * c == d && e")
	and, ok := e.(*BinaryExpr)
	if !ok || and.Op != lexer.TokenAnd {
		t.Fatalf("root = %#v", e)
	}
	eq, ok := and.Left.(*BinaryExpr)
	if !ok || eq.Op != lexer.TokenEq {
		t.Fatalf("left = %#v", and.Left)
	}
	plus, ok := eq.Left.(*BinaryExpr)
	if !ok || plus.Op != lexer.TokenPlus {
		t.Fatalf("sum = %#v", eq.Left)
	}
	if mul, ok := plus.Right.(*BinaryExpr); !ok || mul.Op != lexer.TokenMul {
		t.Errorf("product = %#v", plus.Right)
	}
}

func TestInfixAndTypeOps(t *testing.T) {
	e := mustExpr(t, "a to b")
	bin, ok := e.(*BinaryExpr)
	if !ok || bin.Infix != "to" {
		t.Fatalf("infix = %#v", e)
	}

	e = mustExpr(t, "x as? List<String>")
	op, ok := e.(*TypeOpExpr)
	if !ok || op.Op != lexer.TokenAsSafe {
		t.Fatalf("type op = %#v", e)
	}
	st, ok := op.Type.Ref.(*SimpleType)
	if !ok || st.Pieces[0].Name != "List" || len(st.Pieces[0].Args) != 1 {
		t.Errorf("type = %#v", op.Type.Ref)
	}
}

func TestDotAbsorbsCall(t *testing.T) {
	e := mustExpr(t, "a.b(c).d")
	outer, ok := e.(*DotExpr)
	if !ok {
		t.Fatalf("root = %T", e)
	}
	if n, ok := outer.Selector.(*NameExpr); !ok || n.Name != "d" {
		t.Errorf("outer selector = %#v", outer.Selector)
	}
	inner, ok := outer.Receiver.(*DotExpr)
	if !ok {
		t.Fatalf("receiver = %T", outer.Receiver)
	}
	call, ok := inner.Selector.(*CallExpr)
	if !ok || len(call.Args) != 1 {
		t.Fatalf("inner selector = %#v", inner.Selector)
	}
	if n, ok := call.Callee.(*NameExpr); !ok || n.Name != "b" {
		t.Errorf("callee = %#v", call.Callee)
	}
}

func TestCallsAndLambdas(t *testing.T) {
	e := mustExpr(t, "listOf<Int>(1, 2).map { x -> x * 2 }")
	dot := e.(*DotExpr)
	call, ok := dot.Receiver.(*CallExpr)
	if !ok || len(call.TypeArgs) != 1 || len(call.Args) != 2 {
		t.Fatalf("receiver = %#v", dot.Receiver)
	}
	mapCall, ok := dot.Selector.(*CallExpr)
	if !ok || mapCall.Lambda == nil {
		t.Fatalf("selector = %#v", dot.Selector)
	}
	lam := mapCall.Lambda.Func
	if !lam.HasArrow || len(lam.Params) != 1 || lam.Params[0].Vars[0].Name != "x" {
		t.Errorf("lambda params = %#v", lam.Params)
	}
	if len(lam.Body.Stmts) != 1 {
		t.Errorf("lambda body = %d statements", len(lam.Body.Stmts))
	}

	e = mustExpr(t, "run { it }")
	call = e.(*CallExpr)
	if call.Lambda == nil || call.Lambda.Func.HasArrow {
		t.Errorf("run lambda = %#v", call.Lambda)
	}

	e = mustExpr(t, "f(name = 1, *rest)")
	call = e.(*CallExpr)
	if call.Args[0].Name != "name" || !call.Args[1].Spread {
		t.Errorf("args = %#v %#v", call.Args[0], call.Args[1])
	}
}

func TestComparisonIsNotGeneric(t *testing.T) {
	e := mustExpr(t, "i<n")
	bin, ok := e.(*BinaryExpr)
	if !ok || bin.Op != lexer.TokenLt {
		t.Fatalf("root = %#v", e)
	}
}

func TestNewlineEndsExpression(t *testing.T) {
	b := mustExpr(t, "{\n  a\n  -b\n  c\n    .d()\n}").(*LambdaExpr)
	if len(b.Body.Stmts) != 3 {
		t.Fatalf("statements = %d, want 3", len(b.Body.Stmts))
	}
	if u, ok := b.Body.Stmts[1].(*UnaryExpr); !ok || !u.Prefix {
		t.Errorf("second statement = %#v", b.Body.Stmts[1])
	}
	if _, ok := b.Body.Stmts[2].(*DotExpr); !ok {
		t.Errorf("third statement = %T", b.Body.Stmts[2])
	}
}

func TestControlFlow(t *testing.T) {
	e := mustExpr(t, "if (a) { b } else c")
	ifx := e.(*IfExpr)
	if _, ok := ifx.Then.(*Block); !ok {
		t.Errorf("then = %T", ifx.Then)
	}
	if _, ok := ifx.Else.(*NameExpr); !ok {
		t.Errorf("else = %T", ifx.Else)
	}

	e = mustExpr(t, "when (x) {\n  1, 2 -> a\n  in r -> b\n  !is String -> c\n  else -> d\n}")
	w := e.(*WhenExpr)
	if len(w.Entries) != 4 {
		t.Fatalf("entries = %d", len(w.Entries))
	}
	if len(w.Entries[0].Conds) != 2 {
		t.Errorf("first entry conds = %d", len(w.Entries[0].Conds))
	}
	if w.Entries[1].Conds[0].Kind != CondIn {
		t.Errorf("second entry kind = %v", w.Entries[1].Conds[0].Kind)
	}
	if c := w.Entries[2].Conds[0]; c.Kind != CondIs || !c.Not {
		t.Errorf("third entry = %#v", c)
	}
	if len(w.Entries[3].Conds) != 0 {
		t.Errorf("else entry has conditions")
	}

	e = mustExpr(t, "try { f() } catch (e: Exception) { g() } finally { h() }")
	tx := e.(*TryExpr)
	if len(tx.Catches) != 1 || tx.Catches[0].Name != "e" || tx.Finally == nil {
		t.Errorf("try = %#v", tx)
	}

	e = mustExpr(t, "for ((k, _) in m) println(k)")
	fx := e.(*ForExpr)
	if !fx.Destructured || len(fx.Vars) != 2 || fx.Vars[1] != nil {
		t.Errorf("for vars = %#v", fx.Vars)
	}

	e = mustExpr(t, "loop@ while (true) { break@loop }")
	lx := e.(*LabeledExpr)
	if lx.Label != "loop" {
		t.Errorf("label = %q", lx.Label)
	}
	wx := lx.Body.(*WhileExpr)
	br := wx.Body.(*Block).Stmts[0].(*BreakExpr)
	if br.Label != "loop" {
		t.Errorf("break label = %q", br.Label)
	}
}

func TestCallableReferences(t *testing.T) {
	ref := mustExpr(t, "String::length").(*CallableRefExpr)
	if ref.Name != "length" || ref.Receiver.Expr == nil {
		t.Errorf("ref = %#v", ref)
	}

	ref = mustExpr(t, "List<String>::class").(*CallableRefExpr)
	if !ref.Class || ref.Receiver.Type == nil {
		t.Errorf("class ref = %#v", ref)
	}

	ref = mustExpr(t, "String?::class").(*CallableRefExpr)
	if ref.Receiver.QuestionMarks != 1 {
		t.Errorf("question marks = %d", ref.Receiver.QuestionMarks)
	}

	ref = mustExpr(t, "::main").(*CallableRefExpr)
	if ref.Receiver != nil || ref.Name != "main" {
		t.Errorf("bare ref = %#v", ref)
	}
}

func TestStringTemplate(t *testing.T) {
	tmpl := mustExpr(t, `"a $b ${c + 1}"`).(*StringTemplateExpr)
	if len(tmpl.Entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(tmpl.Entries))
	}
	if tmpl.Entries[1].Kind != lexer.PartShortRef || tmpl.Entries[1].Expr.(*NameExpr).Name != "b" {
		t.Errorf("short ref = %#v", tmpl.Entries[1])
	}
	if _, ok := tmpl.Entries[3].Expr.(*BinaryExpr); !ok {
		t.Errorf("long ref = %#v", tmpl.Entries[3].Expr)
	}
}

func TestQuotation(t *testing.T) {
	src := "expr`foo($x, ${y + 1})`"
	q := mustExpr(t, src).(*QuotationExpr)
	if q.Tag != "expr" || q.Preserve {
		t.Errorf("tag = %q, preserve = %v", q.Tag, q.Preserve)
	}
	var kinds []QuotationEntryKind
	for _, e := range q.Entries {
		kinds = append(kinds, e.Kind)
	}
	want := []QuotationEntryKind{EntryLiteral, EntryShortInterpolation, EntryLiteral, EntryLongInterpolation, EntryLiteral}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("entry %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}
	x := q.Entries[1].Expr.(*NameExpr)
	if got := src[x.Span.Start:x.Span.End]; got != "x" {
		t.Errorf("short interpolation span text = %q", got)
	}
	long := q.Entries[3].Expr
	if got := src[long.GetSpan().Start:long.GetSpan().End]; got != "y + 1" {
		t.Errorf("long interpolation span text = %q", got)
	}
}

func TestDeclarations(t *testing.T) {
	src := `@Target(AnnotationTarget.CLASS)
annotation class Double(val factor: Int = 2) {
    fun invoke(decl: Any): Any = decl
}`
	d, err := ParseDeclaration(src)
	if err != nil {
		t.Fatalf("ParseDeclaration: %v", err)
	}
	c := d.(*ClassDecl)
	if c.Name != "Double" || !c.IsMacroDefinition() {
		t.Errorf("class = %s, macro = %v", c.Name, c.IsMacroDefinition())
	}
	if c.Primary == nil || len(c.Primary.Params) != 1 || c.Primary.Params[0].ReadOnly == nil {
		t.Errorf("primary = %#v", c.Primary)
	}
	if len(Annotations(c.Mods)) != 1 {
		t.Errorf("annotations = %d", len(Annotations(c.Mods)))
	}

	d, err = ParseDeclaration("enum class Color(val rgb: Int) { RED(1), GREEN(2); fun hex() = rgb }")
	if err != nil {
		t.Fatalf("ParseDeclaration enum: %v", err)
	}
	e := d.(*ClassDecl)
	if e.Kind != KindEnumClass || len(e.Members) != 3 {
		t.Errorf("enum kind = %v, members = %d", e.Kind, len(e.Members))
	}

	d, err = ParseDeclaration("var count: Int = 0\n    private set")
	if err != nil {
		t.Fatalf("ParseDeclaration property: %v", err)
	}
	prop := d.(*PropertyDecl)
	if prop.ReadOnly || len(prop.Accessors) != 1 || prop.Accessors[0].Getter {
		t.Errorf("property = %#v", prop)
	}

	d, err = ParseDeclaration("fun <T : Comparable<T>> List<T>.top(n: Int): List<T> = sorted().take(n)")
	if err != nil {
		t.Fatalf("ParseDeclaration extension: %v", err)
	}
	fn := d.(*FunDecl)
	if fn.Name != "top" || fn.Receiver == nil || len(fn.TypeParams) != 1 {
		t.Errorf("fun = %#v", fn)
	}
}

func TestDelegateStopsAtWhere(t *testing.T) {
	d, err := ParseDeclaration("class A<T> : C by d where T : Comparable<T>")
	if err != nil {
		t.Fatalf("ParseDeclaration: %v", err)
	}
	c := d.(*ClassDecl)
	if len(c.Supers) != 1 || len(c.Constraints) != 1 {
		t.Fatalf("supers = %d, constraints = %d", len(c.Supers), len(c.Constraints))
	}
	if n, ok := c.Supers[0].Delegate.(*NameExpr); !ok || n.Name != "d" {
		t.Errorf("delegate = %#v", c.Supers[0].Delegate)
	}

	// where is an ordinary infix call elsewhere.
	e, err := ParseExpression("a where b")
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	if b, ok := e.(*BinaryExpr); !ok || b.Infix != "where" {
		t.Errorf("expr = %#v", e)
	}
}

func TestFunctionTypes(t *testing.T) {
	typ, err := ParseType("suspend String.(Int, name: Char) -> Unit?")
	if err != nil {
		t.Fatalf("ParseType: %v", err)
	}
	if !HasModifier(typ.Mods, "suspend") {
		t.Errorf("missing suspend modifier")
	}
	ft, ok := typ.Ref.(*FunctionType)
	if !ok || ft.Receiver == nil || len(ft.Params) != 2 || ft.Params[1].Name != "name" {
		t.Fatalf("function type = %#v", typ.Ref)
	}
	if _, ok := ft.Result.Ref.(*NullableType); !ok {
		t.Errorf("result = %T", ft.Result.Ref)
	}
}

func TestDetectCategory(t *testing.T) {
	cases := []struct {
		src  string
		want Category
	}{
		{"1 + 2", CategoryExpression},
		{"fun f() {}", CategoryDeclaration},
		{"package p\nval x = 1", CategoryFile},
		{"val a = 1\nval b = 2", CategoryFile},
	}
	for _, tc := range cases {
		got, _, err := DetectCategory(tc.src)
		if err != nil {
			t.Errorf("DetectCategory(%q): %v", tc.src, err)
			continue
		}
		if got != tc.want {
			t.Errorf("DetectCategory(%q) = %s, want %s", tc.src, got, tc.want)
		}
	}
}

func TestSplices(t *testing.T) {
	live := &NameExpr{Name: "original"}
	e, err := ParseExpression("f(__splice_0__)", WithSplices(map[string]Expr{"__splice_0__": live}))
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	call := e.(*CallExpr)
	if call.Args[0].Expr != live {
		t.Errorf("splice was not substituted")
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"a +", "f(", "if (x", "1 2"} {
		if _, err := ParseExpression(src); err == nil {
			t.Errorf("ParseExpression(%q) should fail", src)
		}
	}
	_, err := ParseFile("bad.kt", "fun f( {")
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error = %T", err)
	}
	if perr.Position.Line != 1 {
		t.Errorf("line = %d", perr.Position.Line)
	}
}

func TestCollect(t *testing.T) {
	e := mustExpr(t, "f(a, g(b))")
	names := Collect[*NameExpr](e)
	if len(names) != 4 {
		t.Errorf("names = %d, want 4", len(names))
	}
}
