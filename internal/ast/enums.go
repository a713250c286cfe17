package ast

import (
	"fmt"
	"reflect"
)

// Enum is implemented by the enumerated field types of the tree.
type Enum interface {
	// EnumPath is the qualified enum name, such as Expr.Const.Form.
	EnumPath() string
	// String returns the value name. The zero value of a nullable enum
	// returns "".
	String() string
}

type enumInfo struct {
	path  string
	names []string
}

var enumsByType = map[reflect.Type]*enumInfo{}

func registerEnum(e Enum, names []string) {
	enumsByType[reflect.TypeOf(e)] = &enumInfo{path: e.EnumPath(), names: names}
}

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("?%d", v)
	}
	return names[v]
}

// ParseEnum returns the value of the enum type t named name.
func ParseEnum(t reflect.Type, name string) (reflect.Value, error) {
	info, ok := enumsByType[t]
	if !ok {
		return reflect.Value{}, fmt.Errorf("%s is not an enum type", t)
	}
	for i, n := range info.names {
		if n != "" && n == name {
			v := reflect.New(t).Elem()
			v.SetInt(int64(i))
			return v, nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%s has no value %s", info.path, name)
}

// EnumPathOf returns the qualified name of the enum type t.
func EnumPathOf(t reflect.Type) (string, bool) {
	info, ok := enumsByType[t]
	if !ok {
		return "", false
	}
	return info.path, true
}

// StructuredForm is the kind of a Structured declaration.
type StructuredForm int

const (
	FormClass StructuredForm = iota
	FormEnumClass
	FormInterface
	FormObject
	FormCompanionObject
)

var structuredFormNames = []string{"CLASS", "ENUM_CLASS", "INTERFACE", "OBJECT", "COMPANION_OBJECT"}

func (f StructuredForm) String() string { return enumName(structuredFormNames, int(f)) }
func (StructuredForm) EnumPath() string { return "Decl.Structured.Form" }

// DelegationTarget selects this(...) or super(...).
type DelegationTarget int

const (
	DelegateThis DelegationTarget = iota
	DelegateSuper
)

var delegationTargetNames = []string{"THIS", "SUPER"}

func (t DelegationTarget) String() string { return enumName(delegationTargetNames, int(t)) }
func (DelegationTarget) EnumPath() string { return "Decl.Constructor.DelegationTarget" }

// BinaryToken is a binary operator token.
type BinaryToken int

const (
	TokenMul BinaryToken = iota
	TokenDiv
	TokenMod
	TokenAdd
	TokenSub
	TokenIn
	TokenNotIn
	TokenGt
	TokenGte
	TokenLt
	TokenLte
	TokenEq
	TokenNeq
	TokenAssn
	TokenMulAssn
	TokenDivAssn
	TokenModAssn
	TokenAddAssn
	TokenSubAssn
	TokenOr
	TokenAnd
	TokenElvis
	TokenRange
	TokenDot
	TokenDotSafe
	TokenSafe
	TokenIdentEq
	TokenIdentNeq
)

var binaryTokenNames = []string{
	"MUL", "DIV", "MOD", "ADD", "SUB", "IN", "NOT_IN", "GT", "GTE", "LT", "LTE", "EQ", "NEQ",
	"ASSN", "MUL_ASSN", "DIV_ASSN", "MOD_ASSN", "ADD_ASSN", "SUB_ASSN",
	"OR", "AND", "ELVIS", "RANGE", "DOT", "DOT_SAFE", "SAFE", "IDENT_EQ", "IDENT_NEQ",
}

var binaryTokenStrs = []string{
	"*", "/", "%", "+", "-", "in", "!in", ">", ">=", "<", "<=", "==", "!=",
	"=", "*=", "/=", "%=", "+=", "-=",
	"||", "&&", "?:", "..", ".", "?.", "?", "===", "!==",
}

func (t BinaryToken) String() string { return enumName(binaryTokenNames, int(t)) }
func (BinaryToken) EnumPath() string { return "Expr.BinaryOp.Token" }

// Str returns the operator's source text.
func (t BinaryToken) Str() string { return enumName(binaryTokenStrs, int(t)) }

// UnaryToken is a prefix or postfix operator token.
type UnaryToken int

const (
	TokenNeg UnaryToken = iota
	TokenPos
	TokenInc
	TokenDec
	TokenNot
	TokenNullDeref
)

var unaryTokenNames = []string{"NEG", "POS", "INC", "DEC", "NOT", "NULL_DEREF"}
var unaryTokenStrs = []string{"-", "+", "++", "--", "!", "!!"}

func (t UnaryToken) String() string { return enumName(unaryTokenNames, int(t)) }
func (UnaryToken) EnumPath() string { return "Expr.UnaryOp.Token" }

// Str returns the operator's source text.
func (t UnaryToken) Str() string { return enumName(unaryTokenStrs, int(t)) }

// TypeToken is a type operator token.
type TypeToken int

const (
	TokenAs TypeToken = iota
	TokenAsSafe
	TokenCol
	TokenIs
	TokenNotIs
)

var typeTokenNames = []string{"AS", "AS_SAFE", "COL", "IS", "NOT_IS"}
var typeTokenStrs = []string{"as", "as?", ":", "is", "!is"}

func (t TypeToken) String() string { return enumName(typeTokenNames, int(t)) }
func (TypeToken) EnumPath() string { return "Expr.TypeOp.Token" }

// Str returns the operator's source text.
func (t TypeToken) Str() string { return enumName(typeTokenStrs, int(t)) }

// ConstForm classifies a Const.
type ConstForm int

const (
	FormBoolean ConstForm = iota
	FormChar
	FormInt
	FormFloat
	FormNull
)

var constFormNames = []string{"BOOLEAN", "CHAR", "INT", "FLOAT", "NULL"}

func (f ConstForm) String() string { return enumName(constFormNames, int(f)) }
func (ConstForm) EnumPath() string { return "Expr.Const.Form" }

// AnnotationTarget is the use-site target of an annotation set. TargetNone
// is the absent target.
type AnnotationTarget int

const (
	TargetNone AnnotationTarget = iota
	TargetField
	TargetFile
	TargetProperty
	TargetGet
	TargetSet
	TargetReceiver
	TargetParam
	TargetSetParam
	TargetDelegate
	TargetMacro
)

var annotationTargetNames = []string{
	"", "FIELD", "FILE", "PROPERTY", "GET", "SET", "RECEIVER", "PARAM", "SETPARAM", "DELEGATE", "MACRO",
}

func (t AnnotationTarget) String() string { return enumName(annotationTargetNames, int(t)) }
func (AnnotationTarget) EnumPath() string { return "Modifier.AnnotationSet.Target" }

// Keyword is a modifier keyword.
type Keyword int

const (
	KeywordAbstract Keyword = iota
	KeywordFinal
	KeywordOpen
	KeywordAnnotation
	KeywordSealed
	KeywordData
	KeywordOverride
	KeywordLateinit
	KeywordInner
	KeywordPrivate
	KeywordProtected
	KeywordPublic
	KeywordInternal
	KeywordIn
	KeywordOut
	KeywordNoinline
	KeywordCrossinline
	KeywordVararg
	KeywordReified
	KeywordTailrec
	KeywordOperator
	KeywordInfix
	KeywordInline
	KeywordExternal
	KeywordSuspend
	KeywordConst
	KeywordActual
	KeywordExpect
)

var keywordNames = []string{
	"ABSTRACT", "FINAL", "OPEN", "ANNOTATION", "SEALED", "DATA", "OVERRIDE", "LATEINIT", "INNER",
	"PRIVATE", "PROTECTED", "PUBLIC", "INTERNAL",
	"IN", "OUT", "NOINLINE", "CROSSINLINE", "VARARG", "REIFIED",
	"TAILREC", "OPERATOR", "INFIX", "INLINE", "EXTERNAL", "SUSPEND", "CONST",
	"ACTUAL", "EXPECT",
}

func (k Keyword) String() string { return enumName(keywordNames, int(k)) }
func (Keyword) EnumPath() string { return "Modifier.Keyword" }

func init() {
	registerEnum(StructuredForm(0), structuredFormNames)
	registerEnum(DelegationTarget(0), delegationTargetNames)
	registerEnum(BinaryToken(0), binaryTokenNames)
	registerEnum(UnaryToken(0), unaryTokenNames)
	registerEnum(TypeToken(0), typeTokenNames)
	registerEnum(ConstForm(0), constFormNames)
	registerEnum(AnnotationTarget(0), annotationTargetNames)
	registerEnum(Keyword(0), keywordNames)
}
