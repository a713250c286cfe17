// Package ast defines the generic syntax tree handed to macros and produced
// by quotations.
//
// The tree is a closed set of variants mirroring the host language's
// surface syntax. It is independent of the native parse tree: nodes carry no
// positions, only semantic children, and every tree has a deterministic
// constructor-literal serialization (see Serialize). The out-of-band tag
// that any node may carry is excluded from both equality and serialization.
//
// Field tags of the form `meta:"name[,opt][,char]"` drive serialization,
// reading, equality and traversal. opt marks a nullable field, char a rune
// that serializes as a character literal.
package ast

// Node is the base interface for all generic tree nodes
type Node interface {
	// Tag returns the out-of-band tag of the node.
	Tag() interface{}
	// SetTag attaches an out-of-band value to the node.
	SetTag(tag interface{})
	metaNode()
}

// Decl represents all declaration nodes
type Decl interface {
	Node
	declNode()
}

// Expr represents all expression nodes
type Expr interface {
	Node
	exprNode()
}

// TypeRef represents the shapes a type reference can take
type TypeRef interface {
	Node
	typeRefNode()
}

// Stmt is a block statement.
type Stmt interface {
	Node
	stmtNode()
}

// Modifier is an annotation set or a modifier keyword.
type Modifier interface {
	Node
	modifierNode()
}

// Extra is a comment or blank-line run attached to a node through an
// ExtrasMap.
type Extra interface {
	Node
	extraNode()
}

// Entry is the root of a file or script.
type Entry interface {
	Node
	entryNode()
}

// Parent is an entry of a supertype list.
type Parent interface {
	Node
	parentNode()
}

// Body is the body of a function or accessor.
type Body interface {
	Node
	bodyNode()
}

// Accessor is a property getter or setter.
type Accessor interface {
	Node
	accessorNode()
}

// BinaryOper is the operator of a BinaryOp.
type BinaryOper interface {
	Node
	binaryOperNode()
}

// Recv is the receiver of a :: reference.
type Recv interface {
	Node
	recvNode()
}

// TmplElem is an element of a string template.
type TmplElem interface {
	Node
	tmplElemNode()
}

// WhenCond is a condition of a when entry.
type WhenCond interface {
	Node
	whenCondNode()
}

type base struct {
	tag interface{}
}

func (b *base) Tag() interface{}       { return b.tag }
func (b *base) SetTag(tag interface{}) { b.tag = tag }
func (*base) metaNode()                {}

// ===== Roots =====

// File is a source file.
type File struct {
	base
	Anns    []*AnnotationSet `meta:"anns"`
	Pkg     *Package         `meta:"pkg,opt"`
	Imports []*Import        `meta:"imports"`
	Decls   []Decl           `meta:"decls"`
}

// Script is a script file, whose body is a list of expressions.
type Script struct {
	base
	Anns    []*AnnotationSet `meta:"anns"`
	Pkg     *Package         `meta:"pkg,opt"`
	Imports []*Import        `meta:"imports"`
	Exprs   []Expr           `meta:"exprs"`
}

type Package struct {
	base
	Mods  []Modifier `meta:"mods"`
	Names []string   `meta:"names"`
}

type Import struct {
	base
	Names    []string `meta:"names"`
	Wildcard bool     `meta:"wildcard"`
	Alias    string   `meta:"alias,opt"`
}

// ===== Declarations =====

// Structured is a class, interface, object or enum class.
type Structured struct {
	base
	Mods               []Modifier          `meta:"mods"`
	Form               StructuredForm      `meta:"form"`
	Name               string              `meta:"name"`
	TypeParams         []*TypeParam        `meta:"typeParams"`
	PrimaryConstructor *PrimaryConstructor `meta:"primaryConstructor,opt"`
	ParentAnns         []*AnnotationSet    `meta:"parentAnns"`
	Parents            []Parent            `meta:"parents"`
	TypeConstraints    []*TypeConstraint   `meta:"typeConstraints"`
	Members            []Decl              `meta:"members"`
}

// CallConstructorParent is a supertype entry invoking a constructor.
type CallConstructorParent struct {
	base
	Type     *SimpleType  `meta:"type"`
	TypeArgs []*Type      `meta:"typeArgs"`
	Args     []*ValueArg  `meta:"args"`
	Lambda   *TrailLambda `meta:"lambda,opt"`
}

// TypeParent is a supertype entry without a constructor call, optionally
// delegated with by.
type TypeParent struct {
	base
	Type *SimpleType `meta:"type"`
	By   Expr        `meta:"by,opt"`
}

type PrimaryConstructor struct {
	base
	Mods   []Modifier   `meta:"mods"`
	Params []*FuncParam `meta:"params"`
}

type Init struct {
	base
	Block *Block `meta:"block"`
}

// Func is a function declaration. Name is empty for anonymous functions.
type Func struct {
	base
	Mods            []Modifier        `meta:"mods"`
	TypeParams      []*TypeParam      `meta:"typeParams"`
	ReceiverType    *Type             `meta:"receiverType,opt"`
	Name            string            `meta:"name,opt"`
	ParamTypeParams []*TypeParam      `meta:"paramTypeParams"`
	Params          []*FuncParam      `meta:"params"`
	Type            *Type             `meta:"type,opt"`
	TypeConstraints []*TypeConstraint `meta:"typeConstraints"`
	Body            Body              `meta:"body,opt"`
}

// FuncParam is a function or constructor parameter. ReadOnly is nil for
// plain parameters and set for val/var constructor properties.
type FuncParam struct {
	base
	Mods     []Modifier `meta:"mods"`
	ReadOnly *bool      `meta:"readOnly,opt"`
	Name     string     `meta:"name"`
	Type     *Type      `meta:"type,opt"`
	Default  Expr       `meta:"default,opt"`
}

type BlockBody struct {
	base
	Block *Block `meta:"block"`
}

type ExprBody struct {
	base
	Expr Expr `meta:"expr"`
}

// Property is a val or var. A nil entry of Vars stands for an underscore
// in a destructuring declaration.
type Property struct {
	base
	Mods            []Modifier        `meta:"mods"`
	ReadOnly        bool              `meta:"readOnly"`
	TypeParams      []*TypeParam      `meta:"typeParams"`
	ReceiverType    *Type             `meta:"receiverType,opt"`
	Vars            []*PropertyVar    `meta:"vars"`
	TypeConstraints []*TypeConstraint `meta:"typeConstraints"`
	Delegated       bool              `meta:"delegated"`
	Expr            Expr              `meta:"expr,opt"`
	Accessors       *Accessors        `meta:"accessors,opt"`
}

type PropertyVar struct {
	base
	Name string `meta:"name"`
	Type *Type  `meta:"type,opt"`
}

type Accessors struct {
	base
	First  Accessor `meta:"first"`
	Second Accessor `meta:"second,opt"`
}

type GetAccessor struct {
	base
	Mods []Modifier `meta:"mods"`
	Type *Type      `meta:"type,opt"`
	Body Body       `meta:"body,opt"`
}

type SetAccessor struct {
	base
	Mods      []Modifier `meta:"mods"`
	ParamMods []Modifier `meta:"paramMods"`
	ParamName string     `meta:"paramName,opt"`
	ParamType *Type      `meta:"paramType,opt"`
	Body      Body       `meta:"body,opt"`
}

type TypeAlias struct {
	base
	Mods       []Modifier   `meta:"mods"`
	Name       string       `meta:"name"`
	TypeParams []*TypeParam `meta:"typeParams"`
	Type       *Type        `meta:"type"`
}

// Constructor is a secondary constructor.
type Constructor struct {
	base
	Mods           []Modifier      `meta:"mods"`
	Params         []*FuncParam    `meta:"params"`
	DelegationCall *DelegationCall `meta:"delegationCall,opt"`
	Block          *Block          `meta:"block,opt"`
}

type DelegationCall struct {
	base
	Target DelegationTarget `meta:"target"`
	Args   []*ValueArg      `meta:"args"`
}

type EnumEntry struct {
	base
	Mods    []Modifier  `meta:"mods"`
	Name    string      `meta:"name"`
	Args    []*ValueArg `meta:"args"`
	Members []Decl      `meta:"members"`
}

type TypeParam struct {
	base
	Mods []Modifier `meta:"mods"`
	Name string     `meta:"name"`
	Type TypeRef    `meta:"type,opt"`
}

type TypeConstraint struct {
	base
	Anns []*AnnotationSet `meta:"anns"`
	Name string           `meta:"name"`
	Type *Type            `meta:"type"`
}

// ===== Types =====

type ParenType struct {
	base
	Mods []Modifier `meta:"mods"`
	Type TypeRef    `meta:"type"`
}

// FuncType is a function type such as R.(A) -> B.
type FuncType struct {
	base
	ReceiverType *Type            `meta:"receiverType,opt"`
	Params       []*FuncTypeParam `meta:"params"`
	Type         *Type            `meta:"type"`
}

type FuncTypeParam struct {
	base
	Name string `meta:"name,opt"`
	Type *Type  `meta:"type"`
}

type SimpleType struct {
	base
	Pieces []*SimpleTypePiece `meta:"pieces"`
}

// SimpleTypePiece is one dotted segment of a simple type. A nil type
// parameter is a star projection.
type SimpleTypePiece struct {
	base
	Name       string  `meta:"name"`
	TypeParams []*Type `meta:"typeParams"`
}

type NullableType struct {
	base
	Type TypeRef `meta:"type"`
}

type DynamicType struct {
	base
	Unused bool `meta:"_unused_"`
}

// Type is a type reference with its modifiers.
type Type struct {
	base
	Mods []Modifier `meta:"mods"`
	Ref  TypeRef    `meta:"ref"`
}

type ValueArg struct {
	base
	Name     string `meta:"name,opt"`
	Asterisk bool   `meta:"asterisk"`
	Expr     Expr   `meta:"expr"`
}

// ===== Expressions =====

type If struct {
	base
	Expr     Expr `meta:"expr"`
	Body     Expr `meta:"body"`
	ElseBody Expr `meta:"elseBody,opt"`
}

type Try struct {
	base
	Block        *Block   `meta:"block"`
	Catches      []*Catch `meta:"catches"`
	FinallyBlock *Block   `meta:"finallyBlock,opt"`
}

type Catch struct {
	base
	Anns    []*AnnotationSet `meta:"anns"`
	VarName string           `meta:"varName"`
	VarType *SimpleType      `meta:"varType"`
	Block   *Block           `meta:"block"`
}

type For struct {
	base
	Anns   []*AnnotationSet `meta:"anns"`
	Vars   []*PropertyVar   `meta:"vars"`
	InExpr Expr             `meta:"inExpr"`
	Body   Expr             `meta:"body"`
}

type While struct {
	base
	Expr    Expr `meta:"expr"`
	Body    Expr `meta:"body"`
	DoWhile bool `meta:"doWhile"`
}

type BinaryOp struct {
	base
	Lhs  Expr       `meta:"lhs"`
	Oper BinaryOper `meta:"oper"`
	Rhs  Expr       `meta:"rhs"`
}

// InfixOper is a named infix function such as to.
type InfixOper struct {
	base
	Str string `meta:"str"`
}

type TokenOper struct {
	base
	Token BinaryToken `meta:"token"`
}

type UnaryOp struct {
	base
	Expr   Expr       `meta:"expr"`
	Oper   *UnaryOper `meta:"oper"`
	Prefix bool       `meta:"prefix"`
}

type UnaryOper struct {
	base
	Token UnaryToken `meta:"token"`
}

type TypeOp struct {
	base
	Lhs  Expr      `meta:"lhs"`
	Oper *TypeOper `meta:"oper"`
	Rhs  *Type     `meta:"rhs"`
}

type TypeOper struct {
	base
	Token TypeToken `meta:"token"`
}

// CallableRef is recv::name.
type CallableRef struct {
	base
	Recv Recv   `meta:"recv,opt"`
	Name string `meta:"name"`
}

// ClassRef is recv::class.
type ClassRef struct {
	base
	Recv Recv `meta:"recv,opt"`
}

type ExprRecv struct {
	base
	Expr Expr `meta:"expr"`
}

type TypeRecv struct {
	base
	Type          *SimpleType `meta:"type"`
	QuestionMarks int         `meta:"questionMarks"`
}

type Paren struct {
	base
	Expr Expr `meta:"expr"`
}

type StringTmpl struct {
	base
	Elems []TmplElem `meta:"elems"`
	Raw   bool       `meta:"raw"`
}

type RegularElem struct {
	base
	Str string `meta:"str"`
}

type ShortTmplElem struct {
	base
	Str string `meta:"str"`
}

type UnicodeEscElem struct {
	base
	Digits string `meta:"digits"`
}

type RegularEscElem struct {
	base
	Char rune `meta:"char,char"`
}

type LongTmplElem struct {
	base
	Expr Expr `meta:"expr"`
}

// Const is a literal. Value holds the literal's source text.
type Const struct {
	base
	Value string    `meta:"value"`
	Form  ConstForm `meta:"form"`
}

// Brace is a lambda literal. Block is nil only for lambdas built by hand.
type Brace struct {
	base
	Params []*BraceParam `meta:"params"`
	Block  *Block        `meta:"block,opt"`
}

// BraceParam is a lambda parameter. Several vars mean destructuring; a nil
// var is an underscore.
type BraceParam struct {
	base
	Vars         []*PropertyVar `meta:"vars"`
	DestructType *Type          `meta:"destructType,opt"`
}

type This struct {
	base
	Label string `meta:"label,opt"`
}

type Super struct {
	base
	TypeArg *Type  `meta:"typeArg,opt"`
	Label   string `meta:"label,opt"`
}

type When struct {
	base
	Expr    Expr         `meta:"expr,opt"`
	Entries []*WhenEntry `meta:"entries"`
}

// WhenEntry is a branch of a when; else branches have no conditions.
type WhenEntry struct {
	base
	Conds []WhenCond `meta:"conds"`
	Body  Expr       `meta:"body"`
}

type ExprCond struct {
	base
	Expr Expr `meta:"expr"`
}

type InCond struct {
	base
	Expr Expr `meta:"expr"`
	Not  bool `meta:"not"`
}

type IsCond struct {
	base
	Type *Type `meta:"type"`
	Not  bool  `meta:"not"`
}

// Object is an object literal.
type Object struct {
	base
	Parents []Parent `meta:"parents"`
	Members []Decl   `meta:"members"`
}

type Throw struct {
	base
	Expr Expr `meta:"expr"`
}

type Return struct {
	base
	Label string `meta:"label,opt"`
	Expr  Expr   `meta:"expr,opt"`
}

type Continue struct {
	base
	Label string `meta:"label,opt"`
}

type Break struct {
	base
	Label string `meta:"label,opt"`
}

type CollLit struct {
	base
	Exprs []Expr `meta:"exprs"`
}

type Name struct {
	base
	Name string `meta:"name"`
}

// ExternalName is a reference to code outside the tree, such as a spliced
// interpolation. It serializes to its raw text.
type ExternalName struct {
	base
	Name string `meta:"name"`
}

type Labeled struct {
	base
	Label string `meta:"label"`
	Expr  Expr   `meta:"expr"`
}

type Annotated struct {
	base
	Anns []*AnnotationSet `meta:"anns"`
	Expr Expr             `meta:"expr"`
}

type Call struct {
	base
	Expr     Expr         `meta:"expr"`
	TypeArgs []*Type      `meta:"typeArgs"`
	Args     []*ValueArg  `meta:"args"`
	Lambda   *TrailLambda `meta:"lambda,opt"`
}

type TrailLambda struct {
	base
	Anns  []*AnnotationSet `meta:"anns"`
	Label string           `meta:"label,opt"`
	Func  *Brace           `meta:"func"`
}

type ArrayAccess struct {
	base
	Expr    Expr   `meta:"expr"`
	Indices []Expr `meta:"indices"`
}

type AnonFunc struct {
	base
	Func *Func `meta:"func"`
}

// PropertyExpr is a property declaration in expression position, such as a
// when subject.
type PropertyExpr struct {
	base
	Decl *Property `meta:"decl"`
}

// ===== Statements =====

type Block struct {
	base
	Stmts []Stmt `meta:"stmts"`
}

type DeclStmt struct {
	base
	Decl Decl `meta:"decl"`
}

type ExprStmt struct {
	base
	Expr Expr `meta:"expr"`
}

// ===== Modifiers =====

// AnnotationSet is a group of annotations sharing a use-site target.
type AnnotationSet struct {
	base
	Target AnnotationTarget `meta:"target,opt"`
	Anns   []*Annotation    `meta:"anns"`
}

type Annotation struct {
	base
	Names    []string    `meta:"names"`
	TypeArgs []*Type     `meta:"typeArgs"`
	Args     []*ValueArg `meta:"args"`
}

// Lit is a keyword modifier.
type Lit struct {
	base
	Keyword Keyword `meta:"keyword"`
}

// ===== Extras =====

type BlankLines struct {
	base
	Count int `meta:"count"`
}

type Comment struct {
	base
	Text       string `meta:"text"`
	StartsLine bool   `meta:"startsLine"`
	EndsLine   bool   `meta:"endsLine"`
}

// ===== Interface membership =====

func (*File) entryNode()   {}
func (*Script) entryNode() {}

func (*Structured) declNode()  {}
func (*Init) declNode()        {}
func (*Func) declNode()        {}
func (*Property) declNode()    {}
func (*TypeAlias) declNode()   {}
func (*Constructor) declNode() {}
func (*EnumEntry) declNode()   {}

func (*CallConstructorParent) parentNode() {}
func (*TypeParent) parentNode()            {}

func (*BlockBody) bodyNode() {}
func (*ExprBody) bodyNode()  {}

func (*GetAccessor) accessorNode() {}
func (*SetAccessor) accessorNode() {}

func (*ParenType) typeRefNode()    {}
func (*FuncType) typeRefNode()     {}
func (*SimpleType) typeRefNode()   {}
func (*NullableType) typeRefNode() {}
func (*DynamicType) typeRefNode()  {}

func (*If) exprNode()           {}
func (*Try) exprNode()          {}
func (*For) exprNode()          {}
func (*While) exprNode()        {}
func (*BinaryOp) exprNode()     {}
func (*UnaryOp) exprNode()      {}
func (*TypeOp) exprNode()       {}
func (*CallableRef) exprNode()  {}
func (*ClassRef) exprNode()     {}
func (*Paren) exprNode()        {}
func (*StringTmpl) exprNode()   {}
func (*Const) exprNode()        {}
func (*Brace) exprNode()        {}
func (*This) exprNode()         {}
func (*Super) exprNode()        {}
func (*When) exprNode()         {}
func (*Object) exprNode()       {}
func (*Throw) exprNode()        {}
func (*Return) exprNode()       {}
func (*Continue) exprNode()     {}
func (*Break) exprNode()        {}
func (*CollLit) exprNode()      {}
func (*Name) exprNode()         {}
func (*ExternalName) exprNode() {}
func (*Labeled) exprNode()      {}
func (*Annotated) exprNode()    {}
func (*Call) exprNode()         {}
func (*ArrayAccess) exprNode()  {}
func (*AnonFunc) exprNode()     {}
func (*PropertyExpr) exprNode() {}

func (*InfixOper) binaryOperNode() {}
func (*TokenOper) binaryOperNode() {}

func (*ExprRecv) recvNode() {}
func (*TypeRecv) recvNode() {}

func (*RegularElem) tmplElemNode()    {}
func (*ShortTmplElem) tmplElemNode()  {}
func (*UnicodeEscElem) tmplElemNode() {}
func (*RegularEscElem) tmplElemNode() {}
func (*LongTmplElem) tmplElemNode()   {}

func (*ExprCond) whenCondNode() {}
func (*InCond) whenCondNode()   {}
func (*IsCond) whenCondNode()   {}

func (*DeclStmt) stmtNode() {}
func (*ExprStmt) stmtNode() {}

func (*AnnotationSet) modifierNode() {}
func (*Lit) modifierNode()           {}

func (*BlankLines) extraNode() {}
func (*Comment) extraNode()    {}

// Annotations returns the annotation sets among mods.
func Annotations(mods []Modifier) []*AnnotationSet {
	var sets []*AnnotationSet
	for _, m := range mods {
		if set, ok := m.(*AnnotationSet); ok {
			sets = append(sets, set)
		}
	}
	return sets
}

// HasKeyword reports whether mods contains the keyword modifier kw.
func HasKeyword(mods []Modifier, kw Keyword) bool {
	for _, m := range mods {
		if lit, ok := m.(*Lit); ok && lit.Keyword == kw {
			return true
		}
	}
	return false
}
