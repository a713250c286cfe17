package format

import (
	"strings"

	"github.com/orizon-lang/quasi/internal/ast"
)

// WriterOptions controls how trees are written back as source.
type WriterOptions struct {
	// IndentSize specifies the number of spaces for indentation
	IndentSize int
	// PreferTabs uses tabs instead of spaces for indentation
	PreferTabs bool
	// EmptyLineBetweenDeclarations adds empty lines between top-level declarations
	EmptyLineBetweenDeclarations bool
}

// DefaultWriterOptions returns default writer options
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		IndentSize:                   4,
		PreferTabs:                   false,
		EmptyLineBetweenDeclarations: true,
	}
}

// Writer renders generic trees as host language source. Trees are written
// as they are: grouping must be explicit through Paren nodes, which is what
// the converter produces.
type Writer struct {
	options WriterOptions
	extras  ast.ExtrasMap
	indent  int
	buffer  strings.Builder
}

// NewWriter creates a writer with the given options
func NewWriter(options WriterOptions) *Writer {
	return &Writer{options: options}
}

// WithExtras makes the writer emit the comments and blank lines recorded in
// m before declarations and statements.
func (w *Writer) WithExtras(m ast.ExtrasMap) *Writer {
	w.extras = m
	return w
}

// Write renders n. A nil node renders as the empty string.
func (w *Writer) Write(n ast.Node) string {
	w.buffer.Reset()
	w.indent = 0
	if n != nil {
		w.node(n)
	}
	return w.buffer.String()
}

// Source renders n with the default options.
func Source(n ast.Node) string {
	return NewWriter(DefaultWriterOptions()).Write(n)
}

func (w *Writer) writeString(s string) {
	w.buffer.WriteString(s)
}

func (w *Writer) writeNewline() {
	w.buffer.WriteString("\n")
	if w.options.PreferTabs {
		w.buffer.WriteString(strings.Repeat("\t", w.indent))
	} else {
		w.buffer.WriteString(strings.Repeat(" ", w.indent*w.options.IndentSize))
	}
}

func (w *Writer) before(n ast.Node) {
	if w.extras == nil {
		return
	}
	for _, e := range w.extras.ExtrasBefore(n) {
		w.extra(e)
	}
}

func (w *Writer) within(n ast.Node) {
	if w.extras == nil {
		return
	}
	for _, e := range w.extras.ExtrasWithin(n) {
		w.writeNewline()
		w.extra(e)
	}
}

func (w *Writer) extra(e ast.Extra) {
	switch e := e.(type) {
	case *ast.Comment:
		w.writeString(e.Text)
		if e.EndsLine || strings.HasPrefix(e.Text, "//") {
			w.writeNewline()
		} else {
			w.writeString(" ")
		}
	case *ast.BlankLines:
		for i := 0; i < e.Count; i++ {
			w.writeNewline()
		}
	}
}

func (w *Writer) node(n ast.Node) {
	switch n := n.(type) {
	case ast.Entry:
		w.entry(n)
	case ast.Decl:
		w.decl(n)
	case ast.Expr:
		w.expr(n)
	case ast.Stmt:
		w.stmt(n)
	case *ast.Type:
		w.typ(n)
	case ast.TypeRef:
		w.typeRef(n)
	case ast.Modifier:
		w.mods([]ast.Modifier{n})
	case *ast.Block:
		w.block(n)
	case *ast.ValueArg:
		w.valueArg(n)
	case *ast.FuncParam:
		w.param(n)
	case *ast.TypeParam:
		w.typeParam(n)
	case *ast.Import:
		w.importDecl(n)
	case *ast.Package:
		w.pkg(n)
	default:
		w.writeString(ast.Serialize(n))
	}
}

// ===== Files =====

func (w *Writer) entry(n ast.Entry) {
	switch n := n.(type) {
	case *ast.File:
		w.header(n.Anns, n.Pkg, n.Imports)
		for i, d := range n.Decls {
			if i > 0 || w.buffer.Len() > 0 {
				w.writeNewline()
				if w.options.EmptyLineBetweenDeclarations {
					w.writeNewline()
				}
			}
			w.before(d)
			w.decl(d)
		}
		w.within(n)
		w.writeNewline()
	case *ast.Script:
		w.header(n.Anns, n.Pkg, n.Imports)
		for i, e := range n.Exprs {
			if i > 0 || w.buffer.Len() > 0 {
				w.writeNewline()
			}
			w.before(e)
			w.expr(e)
		}
		w.within(n)
		w.writeNewline()
	}
}

func (w *Writer) header(anns []*ast.AnnotationSet, pkg *ast.Package, imports []*ast.Import) {
	for _, set := range anns {
		w.annotationSet(set)
		w.writeNewline()
	}
	if pkg != nil {
		w.before(pkg)
		w.pkg(pkg)
		w.writeNewline()
	}
	for i, imp := range imports {
		if i == 0 && pkg != nil {
			w.writeNewline()
		}
		w.before(imp)
		w.importDecl(imp)
		w.writeNewline()
	}
	if w.buffer.Len() > 0 {
		// drop the newline; entries add their own separators
		s := strings.TrimRight(w.buffer.String(), " \t\n")
		w.buffer.Reset()
		w.buffer.WriteString(s)
	}
}

func (w *Writer) pkg(n *ast.Package) {
	w.mods(n.Mods)
	w.writeString("package " + strings.Join(n.Names, "."))
}

func (w *Writer) importDecl(n *ast.Import) {
	w.writeString("import " + strings.Join(n.Names, "."))
	if n.Wildcard {
		w.writeString(".*")
	}
	if n.Alias != "" {
		w.writeString(" as " + n.Alias)
	}
}

// ===== Modifiers =====

func (w *Writer) mods(mods []ast.Modifier) {
	for _, m := range mods {
		switch m := m.(type) {
		case *ast.AnnotationSet:
			w.annotationSet(m)
		case *ast.Lit:
			w.writeString(strings.ToLower(m.Keyword.String()))
		}
		w.writeString(" ")
	}
}

func (w *Writer) annotationSets(sets []*ast.AnnotationSet) {
	for _, set := range sets {
		w.annotationSet(set)
		w.writeString(" ")
	}
}

func (w *Writer) annotationSet(n *ast.AnnotationSet) {
	w.writeString("@")
	if n.Target != ast.TargetNone {
		w.writeString(strings.ToLower(n.Target.String()) + ":")
	}
	if len(n.Anns) == 1 {
		w.annotation(n.Anns[0])
		return
	}
	w.writeString("[")
	for i, a := range n.Anns {
		if i > 0 {
			w.writeString(" ")
		}
		w.annotation(a)
	}
	w.writeString("]")
}

func (w *Writer) annotation(n *ast.Annotation) {
	w.writeString(strings.Join(n.Names, "."))
	w.typeArgs(n.TypeArgs)
	if len(n.Args) > 0 {
		w.valueArgs(n.Args)
	}
}

// ===== Declarations =====

var formKeywords = map[ast.StructuredForm]string{
	ast.FormClass:           "class",
	ast.FormEnumClass:       "enum class",
	ast.FormInterface:       "interface",
	ast.FormObject:          "object",
	ast.FormCompanionObject: "companion object",
}

func (w *Writer) decl(n ast.Decl) {
	switch n := n.(type) {
	case *ast.Structured:
		w.structured(n)
	case *ast.Init:
		w.writeString("init ")
		w.block(n.Block)
	case *ast.Func:
		w.fn(n)
	case *ast.Property:
		w.property(n)
	case *ast.TypeAlias:
		w.mods(n.Mods)
		w.writeString("typealias " + n.Name)
		w.typeParams(n.TypeParams)
		w.writeString(" = ")
		w.typ(n.Type)
	case *ast.Constructor:
		w.mods(n.Mods)
		w.writeString("constructor")
		w.params(n.Params)
		if d := n.DelegationCall; d != nil {
			if d.Target == ast.DelegateSuper {
				w.writeString(" : super")
			} else {
				w.writeString(" : this")
			}
			w.valueArgs(d.Args)
		}
		if n.Block != nil {
			w.writeString(" ")
			w.block(n.Block)
		}
	case *ast.EnumEntry:
		w.mods(n.Mods)
		w.writeString(n.Name)
		if len(n.Args) > 0 {
			w.valueArgs(n.Args)
		}
		if len(n.Members) > 0 {
			w.writeString(" ")
			w.members(n.Members)
		}
	}
}

func (w *Writer) structured(n *ast.Structured) {
	w.mods(n.Mods)
	w.writeString(formKeywords[n.Form])
	if n.Name != "" {
		w.writeString(" " + n.Name)
	}
	w.typeParams(n.TypeParams)
	if pc := n.PrimaryConstructor; pc != nil {
		if len(pc.Mods) > 0 {
			w.writeString(" ")
			w.mods(pc.Mods)
			w.writeString("constructor")
		}
		w.params(pc.Params)
	}
	if len(n.Parents) > 0 {
		w.writeString(" : ")
		w.annotationSets(n.ParentAnns)
		w.parents(n.Parents)
	}
	w.typeConstraints(n.TypeConstraints)
	if len(n.Members) > 0 {
		w.writeString(" ")
		if n.Form == ast.FormEnumClass {
			w.enumBody(n)
		} else {
			w.members(n.Members)
		}
	}
}

func (w *Writer) parents(parents []ast.Parent) {
	for i, p := range parents {
		if i > 0 {
			w.writeString(", ")
		}
		switch p := p.(type) {
		case *ast.CallConstructorParent:
			w.simpleType(p.Type)
			w.typeArgs(p.TypeArgs)
			w.valueArgs(p.Args)
			if p.Lambda != nil {
				w.writeString(" ")
				w.trailLambda(p.Lambda)
			}
		case *ast.TypeParent:
			w.simpleType(p.Type)
			if p.By != nil {
				w.writeString(" by ")
				w.expr(p.By)
			}
		}
	}
}

func (w *Writer) members(members []ast.Decl) {
	w.writeString("{")
	w.indent++
	for _, m := range members {
		w.writeNewline()
		w.before(m)
		w.decl(m)
	}
	w.indent--
	w.writeNewline()
	w.writeString("}")
}

func (w *Writer) enumBody(n *ast.Structured) {
	var entries []*ast.EnumEntry
	var rest []ast.Decl
	for _, m := range n.Members {
		if e, ok := m.(*ast.EnumEntry); ok {
			entries = append(entries, e)
			continue
		}
		rest = append(rest, m)
	}
	w.writeString("{")
	w.indent++
	w.writeNewline()
	for i, e := range entries {
		if i > 0 {
			w.writeString(", ")
		}
		w.before(e)
		w.decl(e)
	}
	if len(rest) > 0 {
		w.writeString(";")
		for _, m := range rest {
			w.writeNewline()
			w.before(m)
			w.decl(m)
		}
	}
	w.indent--
	w.writeNewline()
	w.writeString("}")
}

func (w *Writer) fn(n *ast.Func) {
	w.mods(n.Mods)
	w.writeString("fun")
	if len(n.TypeParams) > 0 {
		w.writeString(" ")
		w.typeParams(n.TypeParams)
	}
	if n.ReceiverType != nil || n.Name != "" {
		w.writeString(" ")
	}
	if n.ReceiverType != nil {
		w.typ(n.ReceiverType)
		w.writeString(".")
	}
	w.writeString(n.Name)
	w.params(n.Params)
	if n.Type != nil {
		w.writeString(": ")
		w.typ(n.Type)
	}
	w.typeConstraints(n.TypeConstraints)
	w.body(n.Body)
}

func (w *Writer) body(b ast.Body) {
	switch b := b.(type) {
	case *ast.BlockBody:
		w.writeString(" ")
		w.block(b.Block)
	case *ast.ExprBody:
		w.writeString(" = ")
		w.expr(b.Expr)
	}
}

func (w *Writer) params(params []*ast.FuncParam) {
	w.writeString("(")
	for i, p := range params {
		if i > 0 {
			w.writeString(", ")
		}
		w.param(p)
	}
	w.writeString(")")
}

func (w *Writer) param(p *ast.FuncParam) {
	w.mods(p.Mods)
	if p.ReadOnly != nil {
		if *p.ReadOnly {
			w.writeString("val ")
		} else {
			w.writeString("var ")
		}
	}
	w.writeString(p.Name)
	if p.Type != nil {
		w.writeString(": ")
		w.typ(p.Type)
	}
	if p.Default != nil {
		w.writeString(" = ")
		w.expr(p.Default)
	}
}

func (w *Writer) property(n *ast.Property) {
	w.mods(n.Mods)
	if n.ReadOnly {
		w.writeString("val ")
	} else {
		w.writeString("var ")
	}
	if len(n.TypeParams) > 0 {
		w.typeParams(n.TypeParams)
		w.writeString(" ")
	}
	if n.ReceiverType != nil {
		w.typ(n.ReceiverType)
		w.writeString(".")
	}
	w.vars(n.Vars)
	w.typeConstraints(n.TypeConstraints)
	if n.Expr != nil {
		if n.Delegated {
			w.writeString(" by ")
		} else {
			w.writeString(" = ")
		}
		w.expr(n.Expr)
	}
	if a := n.Accessors; a != nil {
		w.indent++
		w.writeNewline()
		w.accessor(a.First)
		if a.Second != nil {
			w.writeNewline()
			w.accessor(a.Second)
		}
		w.indent--
	}
}

func (w *Writer) vars(vars []*ast.PropertyVar) {
	if len(vars) == 1 && vars[0] != nil {
		w.propertyVar(vars[0])
		return
	}
	w.writeString("(")
	for i, v := range vars {
		if i > 0 {
			w.writeString(", ")
		}
		if v == nil {
			w.writeString("_")
			continue
		}
		w.propertyVar(v)
	}
	w.writeString(")")
}

func (w *Writer) propertyVar(v *ast.PropertyVar) {
	w.writeString(v.Name)
	if v.Type != nil {
		w.writeString(": ")
		w.typ(v.Type)
	}
}

func (w *Writer) accessor(a ast.Accessor) {
	switch a := a.(type) {
	case *ast.GetAccessor:
		w.mods(a.Mods)
		w.writeString("get")
		if a.Body != nil {
			w.writeString("()")
			if a.Type != nil {
				w.writeString(": ")
				w.typ(a.Type)
			}
			w.body(a.Body)
		}
	case *ast.SetAccessor:
		w.mods(a.Mods)
		w.writeString("set")
		if a.Body != nil {
			w.writeString("(")
			w.mods(a.ParamMods)
			w.writeString(a.ParamName)
			if a.ParamType != nil {
				w.writeString(": ")
				w.typ(a.ParamType)
			}
			w.writeString(")")
			w.body(a.Body)
		}
	}
}

func (w *Writer) typeParams(params []*ast.TypeParam) {
	if len(params) == 0 {
		return
	}
	w.writeString("<")
	for i, p := range params {
		if i > 0 {
			w.writeString(", ")
		}
		w.typeParam(p)
	}
	w.writeString(">")
}

func (w *Writer) typeParam(p *ast.TypeParam) {
	w.mods(p.Mods)
	w.writeString(p.Name)
	if p.Type != nil {
		w.writeString(" : ")
		w.typeRef(p.Type)
	}
}

func (w *Writer) typeConstraints(cs []*ast.TypeConstraint) {
	if len(cs) == 0 {
		return
	}
	w.writeString(" where ")
	for i, c := range cs {
		if i > 0 {
			w.writeString(", ")
		}
		w.annotationSets(c.Anns)
		w.writeString(c.Name + " : ")
		w.typ(c.Type)
	}
}

// ===== Types =====

func (w *Writer) typ(t *ast.Type) {
	if t == nil {
		// star projection
		w.writeString("*")
		return
	}
	w.mods(t.Mods)
	w.typeRef(t.Ref)
}

func (w *Writer) typeArgs(ts []*ast.Type) {
	if len(ts) == 0 {
		return
	}
	w.writeString("<")
	for i, t := range ts {
		if i > 0 {
			w.writeString(", ")
		}
		w.typ(t)
	}
	w.writeString(">")
}

func (w *Writer) typeRef(r ast.TypeRef) {
	switch r := r.(type) {
	case *ast.ParenType:
		w.writeString("(")
		w.mods(r.Mods)
		w.typeRef(r.Type)
		w.writeString(")")
	case *ast.FuncType:
		if r.ReceiverType != nil {
			w.typ(r.ReceiverType)
			w.writeString(".")
		}
		w.writeString("(")
		for i, p := range r.Params {
			if i > 0 {
				w.writeString(", ")
			}
			if p.Name != "" {
				w.writeString(p.Name + ": ")
			}
			w.typ(p.Type)
		}
		w.writeString(") -> ")
		w.typ(r.Type)
	case *ast.SimpleType:
		w.simpleType(r)
	case *ast.NullableType:
		w.typeRef(r.Type)
		w.writeString("?")
	case *ast.DynamicType:
		w.writeString("dynamic")
	}
}

func (w *Writer) simpleType(t *ast.SimpleType) {
	for i, piece := range t.Pieces {
		if i > 0 {
			w.writeString(".")
		}
		w.writeString(piece.Name)
		w.typeArgs(piece.TypeParams)
	}
}

// ===== Statements =====

func (w *Writer) block(b *ast.Block) {
	if b == nil {
		w.writeString("{}")
		return
	}
	w.writeString("{")
	if len(b.Stmts) == 0 {
		w.writeString("}")
		return
	}
	w.indent++
	for _, s := range b.Stmts {
		w.writeNewline()
		w.before(s)
		w.stmt(s)
	}
	w.indent--
	w.writeNewline()
	w.writeString("}")
}

func (w *Writer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.DeclStmt:
		w.decl(s.Decl)
	case *ast.ExprStmt:
		w.expr(s.Expr)
	}
}

// ===== Expressions =====

func (w *Writer) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.If:
		w.writeString("if (")
		w.expr(e.Expr)
		w.writeString(") ")
		w.expr(e.Body)
		if e.ElseBody != nil {
			w.writeString(" else ")
			w.expr(e.ElseBody)
		}
	case *ast.Try:
		w.writeString("try ")
		w.block(e.Block)
		for _, c := range e.Catches {
			w.writeString(" catch (")
			w.annotationSets(c.Anns)
			w.writeString(c.VarName + ": ")
			w.simpleType(c.VarType)
			w.writeString(") ")
			w.block(c.Block)
		}
		if e.FinallyBlock != nil {
			w.writeString(" finally ")
			w.block(e.FinallyBlock)
		}
	case *ast.For:
		w.writeString("for (")
		w.annotationSets(e.Anns)
		w.vars(e.Vars)
		w.writeString(" in ")
		w.expr(e.InExpr)
		w.writeString(") ")
		w.expr(e.Body)
	case *ast.While:
		if e.DoWhile {
			w.writeString("do ")
			w.expr(e.Body)
			w.writeString(" while (")
			w.expr(e.Expr)
			w.writeString(")")
			return
		}
		w.writeString("while (")
		w.expr(e.Expr)
		w.writeString(") ")
		w.expr(e.Body)
	case *ast.BinaryOp:
		w.binary(e)
	case *ast.UnaryOp:
		if e.Prefix {
			w.writeString(e.Oper.Token.Str())
			w.expr(e.Expr)
			return
		}
		w.expr(e.Expr)
		w.writeString(e.Oper.Token.Str())
	case *ast.TypeOp:
		w.expr(e.Lhs)
		if e.Oper.Token == ast.TokenCol {
			w.writeString(": ")
		} else {
			w.writeString(" " + e.Oper.Token.Str() + " ")
		}
		w.typ(e.Rhs)
	case *ast.CallableRef:
		w.recv(e.Recv)
		w.writeString("::" + e.Name)
	case *ast.ClassRef:
		w.recv(e.Recv)
		w.writeString("::class")
	case *ast.Paren:
		w.writeString("(")
		w.expr(e.Expr)
		w.writeString(")")
	case *ast.StringTmpl:
		w.template(e)
	case *ast.Const:
		w.writeString(e.Value)
	case *ast.Brace:
		w.brace(e)
	case *ast.This:
		w.writeString("this")
		if e.Label != "" {
			w.writeString("@" + e.Label)
		}
	case *ast.Super:
		w.writeString("super")
		if e.TypeArg != nil {
			w.writeString("<")
			w.typ(e.TypeArg)
			w.writeString(">")
		}
		if e.Label != "" {
			w.writeString("@" + e.Label)
		}
	case *ast.When:
		w.when(e)
	case *ast.Object:
		w.writeString("object")
		if len(e.Parents) > 0 {
			w.writeString(" : ")
			w.parents(e.Parents)
		}
		w.writeString(" ")
		if len(e.Members) == 0 {
			w.writeString("{}")
			return
		}
		w.members(e.Members)
	case *ast.Throw:
		w.writeString("throw ")
		w.expr(e.Expr)
	case *ast.Return:
		w.writeString("return")
		if e.Label != "" {
			w.writeString("@" + e.Label)
		}
		if e.Expr != nil {
			w.writeString(" ")
			w.expr(e.Expr)
		}
	case *ast.Continue:
		w.writeString("continue")
		if e.Label != "" {
			w.writeString("@" + e.Label)
		}
	case *ast.Break:
		w.writeString("break")
		if e.Label != "" {
			w.writeString("@" + e.Label)
		}
	case *ast.CollLit:
		w.writeString("[")
		w.exprs(e.Exprs)
		w.writeString("]")
	case *ast.Name:
		w.writeString(e.Name)
	case *ast.ExternalName:
		w.writeString(e.Name)
	case *ast.Labeled:
		w.writeString(e.Label + "@ ")
		w.expr(e.Expr)
	case *ast.Annotated:
		w.annotationSets(e.Anns)
		w.expr(e.Expr)
	case *ast.Call:
		w.expr(e.Expr)
		w.typeArgs(e.TypeArgs)
		if len(e.Args) > 0 || e.Lambda == nil {
			w.valueArgs(e.Args)
		}
		if e.Lambda != nil {
			w.writeString(" ")
			w.trailLambda(e.Lambda)
		}
	case *ast.ArrayAccess:
		w.expr(e.Expr)
		w.writeString("[")
		w.exprs(e.Indices)
		w.writeString("]")
	case *ast.AnonFunc:
		w.fn(e.Func)
	case *ast.PropertyExpr:
		w.property(e.Decl)
	}
}

func (w *Writer) exprs(es []ast.Expr) {
	for i, e := range es {
		if i > 0 {
			w.writeString(", ")
		}
		w.expr(e)
	}
}

func (w *Writer) binary(e *ast.BinaryOp) {
	w.expr(e.Lhs)
	switch op := e.Oper.(type) {
	case *ast.InfixOper:
		w.writeString(" " + op.Str + " ")
	case *ast.TokenOper:
		switch op.Token {
		case ast.TokenDot, ast.TokenDotSafe, ast.TokenRange, ast.TokenSafe:
			w.writeString(op.Token.Str())
		default:
			w.writeString(" " + op.Token.Str() + " ")
		}
	}
	w.expr(e.Rhs)
}

func (w *Writer) recv(r ast.Recv) {
	switch r := r.(type) {
	case *ast.ExprRecv:
		w.expr(r.Expr)
	case *ast.TypeRecv:
		w.simpleType(r.Type)
		w.writeString(strings.Repeat("?", r.QuestionMarks))
	}
}

func (w *Writer) valueArgs(args []*ast.ValueArg) {
	w.writeString("(")
	for i, a := range args {
		if i > 0 {
			w.writeString(", ")
		}
		w.valueArg(a)
	}
	w.writeString(")")
}

func (w *Writer) valueArg(a *ast.ValueArg) {
	if a.Name != "" {
		w.writeString(a.Name + " = ")
	}
	if a.Asterisk {
		w.writeString("*")
	}
	w.expr(a.Expr)
}

var escapes = map[rune]string{
	'\t': `\t`, '\b': `\b`, '\n': `\n`, '\r': `\r`,
	'\'': `\'`, '"': `\"`, '\\': `\\`, '$': `\$`,
}

func (w *Writer) template(e *ast.StringTmpl) {
	quote := `"`
	if e.Raw {
		quote = `"""`
	}
	w.writeString(quote)
	for _, el := range e.Elems {
		switch el := el.(type) {
		case *ast.RegularElem:
			w.writeString(el.Str)
		case *ast.ShortTmplElem:
			w.writeString("$" + el.Str)
		case *ast.UnicodeEscElem:
			w.writeString(`\u` + el.Digits)
		case *ast.RegularEscElem:
			if s, ok := escapes[el.Char]; ok {
				w.writeString(s)
			} else {
				w.writeString(string(el.Char))
			}
		case *ast.LongTmplElem:
			w.writeString("${")
			w.expr(el.Expr)
			w.writeString("}")
		}
	}
	w.writeString(quote)
}

func (w *Writer) brace(e *ast.Brace) {
	if len(e.Params) == 0 {
		w.block(e.Block)
		return
	}
	w.writeString("{ ")
	for i, p := range e.Params {
		if i > 0 {
			w.writeString(", ")
		}
		w.vars(p.Vars)
		if p.DestructType != nil {
			w.writeString(": ")
			w.typ(p.DestructType)
		}
	}
	w.writeString(" ->")
	if e.Block == nil || len(e.Block.Stmts) == 0 {
		w.writeString(" }")
		return
	}
	w.indent++
	for _, s := range e.Block.Stmts {
		w.writeNewline()
		w.before(s)
		w.stmt(s)
	}
	w.indent--
	w.writeNewline()
	w.writeString("}")
}

func (w *Writer) trailLambda(l *ast.TrailLambda) {
	w.annotationSets(l.Anns)
	if l.Label != "" {
		w.writeString(l.Label + "@ ")
	}
	w.brace(l.Func)
}

func (w *Writer) when(e *ast.When) {
	w.writeString("when ")
	if e.Expr != nil {
		w.writeString("(")
		w.expr(e.Expr)
		w.writeString(") ")
	}
	w.writeString("{")
	w.indent++
	for _, entry := range e.Entries {
		w.writeNewline()
		if len(entry.Conds) == 0 {
			w.writeString("else")
		}
		for i, c := range entry.Conds {
			if i > 0 {
				w.writeString(", ")
			}
			switch c := c.(type) {
			case *ast.ExprCond:
				w.expr(c.Expr)
			case *ast.InCond:
				if c.Not {
					w.writeString("!")
				}
				w.writeString("in ")
				w.expr(c.Expr)
			case *ast.IsCond:
				if c.Not {
					w.writeString("!")
				}
				w.writeString("is ")
				w.typ(c.Type)
			}
		}
		w.writeString(" -> ")
		w.expr(entry.Body)
	}
	w.indent--
	w.writeNewline()
	w.writeString("}")
}
