package ast

import (
	"strconv"
	"strings"
	"testing"
)

func add(l, r Expr) *BinaryOp {
	return &BinaryOp{Lhs: l, Oper: &TokenOper{Token: TokenAdd}, Rhs: r}
}

func TestSerializeExpression(t *testing.T) {
	got := Serialize(add(QuoteName("x"), QuoteInt(1)))
	want := `meta.Node.Expr.BinaryOp(lhs=meta.Node.Expr.Name(name="x"), ` +
		`oper=meta.Node.Expr.BinaryOp.Oper.Token(token=meta.Node.Expr.BinaryOp.Token.ADD), ` +
		`rhs=meta.Node.Expr.Const(value="1", form=meta.Node.Expr.Const.Form.INT))`
	if got != want {
		t.Errorf("Serialize:\n got %s\nwant %s", got, want)
	}
}

func TestSerializeNullsListsAndExternalNames(t *testing.T) {
	call := &Call{
		Expr: QuoteName("f"),
		Args: []*ValueArg{{Expr: &ExternalName{Name: "a + b"}}},
	}
	got := Serialize(call)
	want := `meta.Node.Expr.Call(expr=meta.Node.Expr.Name(name="f"), typeArgs=listOf(), ` +
		`args=listOf(meta.Node.ValueArg(name=null, asterisk=false, expr=a + b)), lambda=null)`
	if got != want {
		t.Errorf("Serialize:\n got %s\nwant %s", got, want)
	}
}

func TestSerializeStringsAndChars(t *testing.T) {
	tmpl := &StringTmpl{Elems: []TmplElem{
		&RegularElem{Str: "cost: \"$\"\n"},
		&RegularEscElem{Char: '\''},
	}}
	got := Serialize(tmpl)
	if !strings.Contains(got, `str="cost: \"\$\"\n"`) {
		t.Errorf("string not escaped: %s", got)
	}
	if !strings.Contains(got, `char='\''`) {
		t.Errorf("char not escaped: %s", got)
	}

	imp := &Import{Names: []string{"a", "b"}, Wildcard: true}
	if got := Serialize(imp); got != `meta.Node.Import(names=listOf("a", "b"), wildcard=true, alias=null)` {
		t.Errorf("import = %s", got)
	}

	set := &AnnotationSet{Target: TargetMacro, Anns: []*Annotation{{Names: []string{"Double"}}}}
	if got := Serialize(set); !strings.HasPrefix(got, "meta.Node.Modifier.AnnotationSet(target=meta.Node.Modifier.AnnotationSet.Target.MACRO, ") {
		t.Errorf("annotation set = %s", got)
	}
	set.Target = TargetNone
	if got := Serialize(set); !strings.HasPrefix(got, "meta.Node.Modifier.AnnotationSet(target=null, ") {
		t.Errorf("annotation set without target = %s", got)
	}
}

func TestEqualIgnoresTagsAndNilLists(t *testing.T) {
	a := &Call{Expr: QuoteName("f"), TypeArgs: nil, Args: []*ValueArg{}}
	b := &Call{Expr: QuoteName("f"), TypeArgs: []*Type{}, Args: nil}
	a.SetTag("origin")
	if !Equal(a, b) {
		t.Error("calls should be equal")
	}
	b.Args = []*ValueArg{{Expr: QuoteInt(1)}}
	if Equal(a, b) {
		t.Error("calls with different arguments should differ")
	}
	if Equal(QuoteName("x"), &ExternalName{Name: "x"}) {
		t.Error("a name and an external name should differ")
	}
	if !Equal(nil, nil) {
		t.Error("nil trees should be equal")
	}
}

func TestChildrenAndInspect(t *testing.T) {
	tree := add(QuoteName("x"), &Paren{Expr: QuoteInt(2)})
	children := Children(tree)
	if len(children) != 3 {
		t.Fatalf("children = %d, want 3", len(children))
	}

	var consts int
	Inspect(tree, func(n Node) bool {
		if _, ok := n.(*Const); ok {
			consts++
		}
		return true
	})
	if consts != 1 {
		t.Errorf("consts = %d, want 1", consts)
	}
}

func TestRewriteCopies(t *testing.T) {
	orig := add(QuoteInt(2), QuoteName("y"))
	out, err := Rewrite(orig, func(n Node) (Node, error) {
		if c, ok := n.(*Const); ok {
			return QuoteInt(mustInt(t, c.Value) * 2), nil
		}
		return n, nil
	})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if orig.Lhs.(*Const).Value != "2" {
		t.Error("input tree was modified")
	}
	if got := out.(*BinaryOp).Lhs.(*Const).Value; got != "4" {
		t.Errorf("rewritten constant = %s, want 4", got)
	}
}

func TestRewriteRejectsMisplacedNodes(t *testing.T) {
	_, err := Rewrite(add(QuoteName("x"), QuoteInt(1)), func(n Node) (Node, error) {
		if _, ok := n.(*Name); ok {
			return &Block{}, nil
		}
		return n, nil
	})
	if err == nil {
		t.Error("replacing an expression by a block should fail")
	}
}

func TestQuote(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{"x", `meta.Node.Expr.Name(name="x")`},
		{42, `meta.Node.Expr.Const(value="42", form=meta.Node.Expr.Const.Form.INT)`},
		{2.5, `meta.Node.Expr.Const(value="2.5", form=meta.Node.Expr.Const.Form.FLOAT)`},
		{3.0, `meta.Node.Expr.Const(value="3.0", form=meta.Node.Expr.Const.Form.FLOAT)`},
		{true, `meta.Node.Expr.Const(value="true", form=meta.Node.Expr.Const.Form.BOOLEAN)`},
	}
	for _, tc := range cases {
		e, err := Quote(tc.in)
		if err != nil {
			t.Fatalf("Quote(%v): %v", tc.in, err)
		}
		if got := Serialize(e); got != tc.want {
			t.Errorf("Quote(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if QuoteChar('a').Value != "'a'" {
		t.Errorf("char = %s", QuoteChar('a').Value)
	}
	if _, err := Quote([]int{1}); err == nil {
		t.Error("quoting a slice should fail")
	}
}

func TestDocComment(t *testing.T) {
	fn := &Func{Name: "f"}
	extras := NewExtras()
	extras.AddBefore(fn, &Comment{Text: "// plain", StartsLine: true, EndsLine: true})
	extras.AddBefore(fn, &Comment{Text: "/** Doc. */", StartsLine: true, EndsLine: true})
	doc := DocComment(extras, fn)
	if doc == nil || doc.Text != "/** Doc. */" {
		t.Errorf("doc comment = %#v", doc)
	}
	if DocComment(extras, &Func{Name: "g"}) != nil {
		t.Error("unrelated node should have no doc comment")
	}
}

func TestVariantRegistry(t *testing.T) {
	v, ok := VariantByPath("Decl.Func")
	if !ok {
		t.Fatal("Decl.Func is not registered")
	}
	names := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		names = append(names, f.Name)
	}
	want := "mods typeParams receiverType name paramTypeParams params type typeConstraints body"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("fields = %s, want %s", got, want)
	}
	if _, ok := VariantByPath("Expr.ExternalName"); ok {
		t.Error("ExternalName must not be readable by path")
	}
	if _, ok := v.New().(*Func); !ok {
		t.Error("New should allocate a *Func")
	}
}

func mustInt(t *testing.T, s string) int64 {
	t.Helper()
	v, err := ParseInt(s)
	if err != nil {
		t.Fatalf("ParseInt(%q): %v", s, err)
	}
	return v
}

func TestSerializerExternalHook(t *testing.T) {
	n := add(&ExternalName{Name: "a.b"}, &ExternalName{Name: "c"})
	i := 0
	s := Serializer{External: func(e *ExternalName) string {
		i++
		return "__splice_" + strconv.Itoa(i) + "__"
	}}
	got := s.Serialize(n)
	if !strings.Contains(got, "lhs=__splice_1__") || !strings.Contains(got, "rhs=__splice_2__") {
		t.Errorf("Serialize = %s", got)
	}
	if plain := Serialize(n); !strings.Contains(plain, "lhs=a.b") {
		t.Errorf("Serialize = %s", plain)
	}
}
