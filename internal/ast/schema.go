package ast

import (
	"fmt"
	"reflect"
	"strings"
)

// Prefix qualifies every variant and enum name in serialized text.
const Prefix = "meta.Node."

// Field describes one serialized field of a variant.
type Field struct {
	Name  string
	Index int
	Type  reflect.Type
	// Opt marks a nullable field. Empty strings and zero-valued optional
	// enums serialize as null.
	Opt bool
	// Char marks a rune written as a character literal.
	Char bool
}

// Variant describes a node type.
type Variant struct {
	// Path is the qualified variant name, such as Decl.Func.
	Path   string
	Type   reflect.Type
	Fields []Field
}

// New allocates a zero node of the variant.
func (v *Variant) New() Node {
	return reflect.New(v.Type).Interface().(Node)
}

// Field returns the field named name.
func (v *Variant) Field(name string) (Field, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

var (
	nodeType       = reflect.TypeOf((*Node)(nil)).Elem()
	variantsByPath = map[string]*Variant{}
	variantsByType = map[reflect.Type]*Variant{}
)

func register(path string, n Node) {
	t := reflect.TypeOf(n).Elem()
	v := &Variant{Path: path, Type: t}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("meta")
		if !ok {
			continue
		}
		parts := strings.Split(tag, ",")
		f := Field{Name: parts[0], Index: i, Type: sf.Type}
		for _, opt := range parts[1:] {
			switch opt {
			case "opt":
				f.Opt = true
			case "char":
				f.Char = true
			default:
				panic(fmt.Sprintf("ast: unknown meta option %q on %s.%s", opt, t.Name(), sf.Name))
			}
		}
		v.Fields = append(v.Fields, f)
	}
	if _, dup := variantsByPath[path]; dup {
		panic("ast: duplicate variant " + path)
	}
	variantsByType[t] = v
	if t != reflect.TypeOf(ExternalName{}) {
		variantsByPath[path] = v
	}
}

// VariantByPath returns the variant with the given qualified name, without
// the Prefix. ExternalName has no path, since it serializes to raw text.
func VariantByPath(path string) (*Variant, bool) {
	v, ok := variantsByPath[path]
	return v, ok
}

// VariantOf returns the variant of n.
func VariantOf(n Node) (*Variant, bool) {
	t := reflect.TypeOf(n)
	if t == nil || t.Kind() != reflect.Ptr {
		return nil, false
	}
	v, ok := variantsByType[t.Elem()]
	return v, ok
}

// IsNodeType reports whether t is a node interface or a pointer to a node.
func IsNodeType(t reflect.Type) bool {
	return t.Implements(nodeType)
}

func init() {
	register("File", (*File)(nil))
	register("Script", (*Script)(nil))
	register("Package", (*Package)(nil))
	register("Import", (*Import)(nil))

	register("Decl.Structured", (*Structured)(nil))
	register("Decl.Structured.Parent.CallConstructor", (*CallConstructorParent)(nil))
	register("Decl.Structured.Parent.Type", (*TypeParent)(nil))
	register("Decl.Structured.PrimaryConstructor", (*PrimaryConstructor)(nil))
	register("Decl.Init", (*Init)(nil))
	register("Decl.Func", (*Func)(nil))
	register("Decl.Func.Param", (*FuncParam)(nil))
	register("Decl.Func.Body.Block", (*BlockBody)(nil))
	register("Decl.Func.Body.Expr", (*ExprBody)(nil))
	register("Decl.Property", (*Property)(nil))
	register("Decl.Property.Var", (*PropertyVar)(nil))
	register("Decl.Property.Accessors", (*Accessors)(nil))
	register("Decl.Property.Accessor.Get", (*GetAccessor)(nil))
	register("Decl.Property.Accessor.Set", (*SetAccessor)(nil))
	register("Decl.TypeAlias", (*TypeAlias)(nil))
	register("Decl.Constructor", (*Constructor)(nil))
	register("Decl.Constructor.DelegationCall", (*DelegationCall)(nil))
	register("Decl.EnumEntry", (*EnumEntry)(nil))

	register("TypeParam", (*TypeParam)(nil))
	register("TypeConstraint", (*TypeConstraint)(nil))
	register("TypeRef.Paren", (*ParenType)(nil))
	register("TypeRef.Func", (*FuncType)(nil))
	register("TypeRef.Func.Param", (*FuncTypeParam)(nil))
	register("TypeRef.Simple", (*SimpleType)(nil))
	register("TypeRef.Simple.Piece", (*SimpleTypePiece)(nil))
	register("TypeRef.Nullable", (*NullableType)(nil))
	register("TypeRef.Dynamic", (*DynamicType)(nil))
	register("Type", (*Type)(nil))
	register("ValueArg", (*ValueArg)(nil))

	register("Expr.If", (*If)(nil))
	register("Expr.Try", (*Try)(nil))
	register("Expr.Try.Catch", (*Catch)(nil))
	register("Expr.For", (*For)(nil))
	register("Expr.While", (*While)(nil))
	register("Expr.BinaryOp", (*BinaryOp)(nil))
	register("Expr.BinaryOp.Oper.Infix", (*InfixOper)(nil))
	register("Expr.BinaryOp.Oper.Token", (*TokenOper)(nil))
	register("Expr.UnaryOp", (*UnaryOp)(nil))
	register("Expr.UnaryOp.Oper", (*UnaryOper)(nil))
	register("Expr.TypeOp", (*TypeOp)(nil))
	register("Expr.TypeOp.Oper", (*TypeOper)(nil))
	register("Expr.DoubleColonRef.Callable", (*CallableRef)(nil))
	register("Expr.DoubleColonRef.Class", (*ClassRef)(nil))
	register("Expr.DoubleColonRef.Recv.Expr", (*ExprRecv)(nil))
	register("Expr.DoubleColonRef.Recv.Type", (*TypeRecv)(nil))
	register("Expr.Paren", (*Paren)(nil))
	register("Expr.StringTmpl", (*StringTmpl)(nil))
	register("Expr.StringTmpl.Elem.Regular", (*RegularElem)(nil))
	register("Expr.StringTmpl.Elem.ShortTmpl", (*ShortTmplElem)(nil))
	register("Expr.StringTmpl.Elem.UnicodeEsc", (*UnicodeEscElem)(nil))
	register("Expr.StringTmpl.Elem.RegularEsc", (*RegularEscElem)(nil))
	register("Expr.StringTmpl.Elem.LongTmpl", (*LongTmplElem)(nil))
	register("Expr.Const", (*Const)(nil))
	register("Expr.Brace", (*Brace)(nil))
	register("Expr.Brace.Param", (*BraceParam)(nil))
	register("Expr.This", (*This)(nil))
	register("Expr.Super", (*Super)(nil))
	register("Expr.When", (*When)(nil))
	register("Expr.When.Entry", (*WhenEntry)(nil))
	register("Expr.When.Cond.Expr", (*ExprCond)(nil))
	register("Expr.When.Cond.In", (*InCond)(nil))
	register("Expr.When.Cond.Is", (*IsCond)(nil))
	register("Expr.Object", (*Object)(nil))
	register("Expr.Throw", (*Throw)(nil))
	register("Expr.Return", (*Return)(nil))
	register("Expr.Continue", (*Continue)(nil))
	register("Expr.Break", (*Break)(nil))
	register("Expr.CollLit", (*CollLit)(nil))
	register("Expr.Name", (*Name)(nil))
	register("Expr.ExternalName", (*ExternalName)(nil))
	register("Expr.Labeled", (*Labeled)(nil))
	register("Expr.Annotated", (*Annotated)(nil))
	register("Expr.Call", (*Call)(nil))
	register("Expr.Call.TrailLambda", (*TrailLambda)(nil))
	register("Expr.ArrayAccess", (*ArrayAccess)(nil))
	register("Expr.AnonFunc", (*AnonFunc)(nil))
	register("Expr.Property", (*PropertyExpr)(nil))

	register("Block", (*Block)(nil))
	register("Stmt.Decl", (*DeclStmt)(nil))
	register("Stmt.Expr", (*ExprStmt)(nil))

	register("Modifier.AnnotationSet", (*AnnotationSet)(nil))
	register("Modifier.AnnotationSet.Annotation", (*Annotation)(nil))
	register("Modifier.Lit", (*Lit)(nil))

	register("Extra.BlankLines", (*BlankLines)(nil))
	register("Extra.Comment", (*Comment)(nil))
}
