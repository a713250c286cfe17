// Package parser implements the native syntax tree of the host language and
// a recursive descent parser that produces it.
package parser

import (
	"strings"

	"github.com/orizon-lang/quasi/internal/lexer"
	"github.com/orizon-lang/quasi/internal/position"
)

// Node represents the base interface for all native tree nodes
type Node interface {
	// GetSpan returns the source span for this node
	GetSpan() position.Span
	setSpan(position.Span)
}

// Expr represents all expression nodes
type Expr interface {
	Node
	exprNode()
}

// Decl represents all declaration nodes
type Decl interface {
	Node
	declNode()
}

// TypeRef represents the shapes a type reference can take
type TypeRef interface {
	Node
	typeRefNode()
}

// Modifier is either an annotation set or a modifier keyword.
type Modifier interface {
	Node
	modifierNode()
}

// Spanned carries the source span of a node.
type Spanned struct {
	Span position.Span
}

func (s *Spanned) GetSpan() position.Span   { return s.Span }
func (s *Spanned) setSpan(sp position.Span) { s.Span = sp }

type exprMarker struct{}

func (exprMarker) exprNode() {}

type declMarker struct{}

func (declMarker) declNode() {}

// ====== Files ======

// File is the root of a parsed source file or script.
type File struct {
	Spanned
	Name        string
	Source      *position.SourceFile `walk:"-"`
	Script      bool
	Annotations []*AnnotationSet
	Package     *PackageDirective
	Imports     []*ImportDirective
	Decls       []Decl
	// Stmts holds the top-level statements of a script.
	Stmts    []Node
	Comments []lexer.Comment
	// Context is the file a synthetic file is analyzed in place of.
	Context *File `walk:"-"`
}

// PackageName returns the dotted package name, or "" for the default package.
func (f *File) PackageName() string {
	if f.Package == nil {
		return ""
	}
	return joinNames(f.Package.Names)
}

// Text returns the source text of n.
func (f *File) Text(n Node) string {
	if f.Source == nil || n == nil {
		return ""
	}
	return f.Source.Text(n.GetSpan())
}

// PackageDirective is the package header of a file.
type PackageDirective struct {
	Spanned
	Mods  []Modifier
	Names []string
}

// ImportDirective is a single import.
type ImportDirective struct {
	Spanned
	Names    []string
	Wildcard bool
	Alias    string
}

// ====== Modifiers ======

// AnnotationSet is @Ann, @target:Ann or @[A B].
type AnnotationSet struct {
	Spanned
	Target      string
	Annotations []*Annotation
	Bracketed   bool
}

func (*AnnotationSet) modifierNode() {}

// Annotation is one annotation entry.
type Annotation struct {
	Spanned
	Names    []string
	TypeArgs []*Type
	Args     []*ValueArg
	HasArgs  bool
}

// Name returns the dotted annotation name.
func (a *Annotation) Name() string { return joinNames(a.Names) }

// KeywordModifier is a modifier keyword such as private or data.
type KeywordModifier struct {
	Spanned
	Keyword string
}

func (*KeywordModifier) modifierNode() {}

// ====== Declarations ======

// ClassKind distinguishes the structured declaration forms.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindEnumClass
	KindInterface
	KindObject
	KindCompanionObject
)

// ClassDecl covers classes, interfaces, objects and enum classes.
type ClassDecl struct {
	Spanned
	declMarker
	Mods        []Modifier
	Kind        ClassKind
	Name        string
	TypeParams  []*TypeParam
	Primary     *PrimaryConstructor
	Supers      []*SuperType
	Constraints []*TypeConstraint
	Members     []Decl
}

// IsMacroDefinition reports whether the class is an annotation class that
// declares an invoke function, which makes it a macro rather than a plain
// annotation.
func (c *ClassDecl) IsMacroDefinition() bool {
	if !HasModifier(c.Mods, "annotation") {
		return false
	}
	for _, m := range c.Members {
		if fn, ok := m.(*FunDecl); ok && fn.Name == "invoke" {
			return true
		}
	}
	return false
}

// SuperType is one entry of a supertype list.
type SuperType struct {
	Spanned
	Type     *SimpleType
	Call     bool
	Args     []*ValueArg
	Delegate Expr
}

// PrimaryConstructor is the parameter list after a class name.
type PrimaryConstructor struct {
	Spanned
	Mods   []Modifier
	Params []*Parameter
}

// InitBlock is an init { } member.
type InitBlock struct {
	Spanned
	declMarker
	Block *Block
}

// FunDecl is a named or anonymous function.
type FunDecl struct {
	Spanned
	declMarker
	Mods        []Modifier
	TypeParams  []*TypeParam
	Receiver    *Type
	Name        string
	Params      []*Parameter
	ReturnType  *Type
	Constraints []*TypeConstraint
	Block       *Block
	ExprBody    Expr
}

// Parameter is a function or constructor parameter.
type Parameter struct {
	Spanned
	Mods []Modifier
	// ReadOnly is nil for plain parameters, true for val and false for var.
	ReadOnly *bool
	Name     string
	Type     *Type
	Default  Expr
}

// PropertyDecl is a val or var declaration.
type PropertyDecl struct {
	Spanned
	declMarker
	Mods         []Modifier
	ReadOnly     bool
	TypeParams   []*TypeParam
	Receiver     *Type
	Vars         []*PropertyVar
	Destructured bool
	Constraints  []*TypeConstraint
	Delegated    bool
	Init         Expr
	Accessors    []*Accessor
}

// PropertyVar is a declared variable name. A nil entry in a destructuring
// list stands for an underscore.
type PropertyVar struct {
	Spanned
	Name string
	Type *Type
}

// Accessor is a property getter or setter.
type Accessor struct {
	Spanned
	Mods      []Modifier
	Getter    bool
	Type      *Type
	ParamMods []Modifier
	ParamName string
	ParamType *Type
	HasParams bool
	Block     *Block
	ExprBody  Expr
}

// TypeAliasDecl is a typealias.
type TypeAliasDecl struct {
	Spanned
	declMarker
	Mods       []Modifier
	Name       string
	TypeParams []*TypeParam
	Type       *Type
}

// SecondaryConstructor is a constructor member.
type SecondaryConstructor struct {
	Spanned
	declMarker
	Mods       []Modifier
	Params     []*Parameter
	Delegation *DelegationCall
	Block      *Block
}

// DelegationCall is the this(...) or super(...) after a constructor.
type DelegationCall struct {
	Spanned
	Super bool
	Args  []*ValueArg
}

// EnumEntry is a constant of an enum class.
type EnumEntry struct {
	Spanned
	declMarker
	Mods    []Modifier
	Name    string
	Args    []*ValueArg
	HasArgs bool
	Members []Decl
}

// TypeParam is a type parameter declaration.
type TypeParam struct {
	Spanned
	Mods  []Modifier
	Name  string
	Bound *Type
}

// TypeConstraint is an entry of a where clause.
type TypeConstraint struct {
	Spanned
	Annotations []*AnnotationSet
	Name        string
	Type        *Type
}

// ====== Types ======

// Type is a possibly modified type reference.
type Type struct {
	Spanned
	Mods []Modifier
	Ref  TypeRef
}

// ParenType is a parenthesized type.
type ParenType struct {
	Spanned
	Mods  []Modifier
	Inner TypeRef
}

func (*ParenType) typeRefNode() {}

// FunctionType is (A, B) -> C with an optional receiver.
type FunctionType struct {
	Spanned
	Receiver *Type
	Params   []*FunctionTypeParam
	Result   *Type
}

func (*FunctionType) typeRefNode() {}

// FunctionTypeParam is a parameter of a function type.
type FunctionTypeParam struct {
	Spanned
	Name string
	Type *Type
}

// SimpleType is a dotted user type such as a.b.C<D>.
type SimpleType struct {
	Spanned
	Pieces []*TypePiece
}

func (*SimpleType) typeRefNode() {}

// TypePiece is one dotted segment. A nil argument stands for a star projection.
type TypePiece struct {
	Spanned
	Name string
	Args []*Type
}

// NullableType is T?.
type NullableType struct {
	Spanned
	Inner TypeRef
}

func (*NullableType) typeRefNode() {}

// DynamicType is the dynamic type.
type DynamicType struct {
	Spanned
}

func (*DynamicType) typeRefNode() {}

// ValueArg is a call or annotation argument.
type ValueArg struct {
	Spanned
	Name   string
	Spread bool
	Expr   Expr
}

// ====== Expressions ======

type IfExpr struct {
	Spanned
	exprMarker
	Cond Expr
	Then Expr
	Else Expr
}

type TryExpr struct {
	Spanned
	exprMarker
	Block   *Block
	Catches []*CatchClause
	Finally *Block
}

type CatchClause struct {
	Spanned
	Annotations []*AnnotationSet
	Name        string
	Type        *SimpleType
	Block       *Block
}

type ForExpr struct {
	Spanned
	exprMarker
	Annotations  []*AnnotationSet
	Vars         []*PropertyVar
	Destructured bool
	Iterable     Expr
	Body         Expr
}

type WhileExpr struct {
	Spanned
	exprMarker
	Cond    Expr
	Body    Expr
	DoWhile bool
}

// BinaryExpr is an operator application. Infix is set for named infix
// calls such as a to b, in which case Op is TokenIdentifier.
type BinaryExpr struct {
	Spanned
	exprMarker
	Left  Expr
	Op    lexer.TokenType
	Infix string
	Right Expr
}

// DotExpr is a.b or a?.b.
type DotExpr struct {
	Spanned
	exprMarker
	Receiver Expr
	Selector Expr
	Safe     bool
}

type UnaryExpr struct {
	Spanned
	exprMarker
	Op      lexer.TokenType
	Operand Expr
	Prefix  bool
}

// TypeOpExpr is as, as?, is or !is.
type TypeOpExpr struct {
	Spanned
	exprMarker
	Left Expr
	Op   lexer.TokenType
	Type *Type
}

// RefReceiver is the left side of a :: reference.
type RefReceiver struct {
	Spanned
	Expr          Expr
	Type          *SimpleType
	QuestionMarks int
}

// CallableRefExpr is recv::name or recv::class.
type CallableRefExpr struct {
	Spanned
	exprMarker
	Receiver *RefReceiver
	Name     string
	Class    bool
}

type ParenExpr struct {
	Spanned
	exprMarker
	Inner Expr
}

// TemplateEntry is one element of a string template.
type TemplateEntry struct {
	Spanned
	Kind  lexer.PartKind
	Text  string
	Value rune
	Expr  Expr
}

type StringTemplateExpr struct {
	Spanned
	exprMarker
	Raw     bool
	Entries []*TemplateEntry
}

// ConstKind classifies literal constants.
type ConstKind int

const (
	ConstBoolean ConstKind = iota
	ConstChar
	ConstInt
	ConstFloat
	ConstNull
)

// ConstExpr is a literal. Value holds its source text.
type ConstExpr struct {
	Spanned
	exprMarker
	Value string
	Kind  ConstKind
}

// LambdaParam is a lambda parameter or a destructuring group.
type LambdaParam struct {
	Spanned
	Vars         []*PropertyVar
	Destructured bool
	DestructType *Type
}

type LambdaExpr struct {
	Spanned
	exprMarker
	Params   []*LambdaParam
	HasArrow bool
	Body     *Block
}

type ThisExpr struct {
	Spanned
	exprMarker
	Label string
}

type SuperExpr struct {
	Spanned
	exprMarker
	TypeArg *Type
	Label   string
}

// WhenCondKind classifies when conditions.
type WhenCondKind int

const (
	CondExpr WhenCondKind = iota
	CondIn
	CondIs
)

type WhenCond struct {
	Spanned
	Kind WhenCondKind
	Not  bool
	Expr Expr
	Type *Type
}

// WhenEntry is a branch; an else branch has no conditions.
type WhenEntry struct {
	Spanned
	Conds []*WhenCond
	Body  Expr
}

type WhenExpr struct {
	Spanned
	exprMarker
	Subject     Expr
	SubjectDecl *PropertyDecl
	Entries     []*WhenEntry
}

type ObjectLiteralExpr struct {
	Spanned
	exprMarker
	Supers  []*SuperType
	Members []Decl
}

type ThrowExpr struct {
	Spanned
	exprMarker
	Value Expr
}

type ReturnExpr struct {
	Spanned
	exprMarker
	Label string
	Value Expr
}

type ContinueExpr struct {
	Spanned
	exprMarker
	Label string
}

type BreakExpr struct {
	Spanned
	exprMarker
	Label string
}

type CollectionLiteralExpr struct {
	Spanned
	exprMarker
	Elements []Expr
}

type NameExpr struct {
	Spanned
	exprMarker
	Name string
}

type LabeledExpr struct {
	Spanned
	exprMarker
	Label string
	Body  Expr
}

type AnnotatedExpr struct {
	Spanned
	exprMarker
	Annotations []*AnnotationSet
	Body        Expr
}

// TrailingLambda is a lambda passed after the call parentheses.
type TrailingLambda struct {
	Spanned
	Annotations []*AnnotationSet
	Label       string
	Func        *LambdaExpr
}

type CallExpr struct {
	Spanned
	exprMarker
	Callee   Expr
	TypeArgs []*Type
	Args     []*ValueArg
	Lambda   *TrailingLambda
}

type IndexExpr struct {
	Spanned
	exprMarker
	Receiver Expr
	Indices  []Expr
}

type AnonFuncExpr struct {
	Spanned
	exprMarker
	Func *FunDecl
}

// PropertyExpr is a declaration in expression position, such as a when
// subject.
type PropertyExpr struct {
	Spanned
	exprMarker
	Decl *PropertyDecl
}

// QuotationEntryKind classifies quotation body entries.
type QuotationEntryKind int

const (
	EntryLiteral QuotationEntryKind = iota
	EntryEscape
	EntryShortInterpolation
	EntryLongInterpolation
)

// QuotationEntry is one piece of a quotation body.
type QuotationEntry struct {
	Spanned
	Kind  QuotationEntryKind
	Text  string
	Value rune
	Expr  Expr
}

// QuotationExpr is a backquoted code quotation.
type QuotationExpr struct {
	Spanned
	exprMarker
	Tag      string
	Preserve bool
	Content  position.Span
	Entries  []*QuotationEntry
}

// Block is a brace-delimited statement list. As an expression it is the
// body of a control-flow construct.
type Block struct {
	Spanned
	exprMarker
	Stmts []Node
}

// HasModifier reports whether mods contains the keyword modifier kw.
func HasModifier(mods []Modifier, kw string) bool {
	for _, m := range mods {
		if k, ok := m.(*KeywordModifier); ok && k.Keyword == kw {
			return true
		}
	}
	return false
}

// Annotations returns the annotation sets among mods.
func Annotations(mods []Modifier) []*AnnotationSet {
	var sets []*AnnotationSet
	for _, m := range mods {
		if a, ok := m.(*AnnotationSet); ok {
			sets = append(sets, a)
		}
	}
	return sets
}

func joinNames(names []string) string {
	return strings.Join(names, ".")
}
