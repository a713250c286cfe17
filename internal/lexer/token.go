package lexer

import (
	"fmt"

	"github.com/orizon-lang/quasi/internal/position"
)

// TokenType represents the type of a token
type TokenType int

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

const (
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenIdentifier
	TokenInteger
	TokenFloat
	TokenChar
	TokenString    // "..." with template entries
	TokenRawString // """...""" with template entries
	TokenQuotation // `...` or ```...```
	TokenLabel     // name@
	TokenAtLabel   // @name directly after return, break, continue, this or super

	// Keywords
	TokenPackage
	TokenImport
	TokenClass
	TokenInterface
	TokenFun
	TokenObject
	TokenVal
	TokenVar
	TokenTypeAlias
	TokenThis
	TokenSuper
	TokenIf
	TokenElse
	TokenWhen
	TokenTry
	TokenCatch
	TokenFinally
	TokenFor
	TokenWhile
	TokenDo
	TokenReturn
	TokenBreak
	TokenContinue
	TokenThrow
	TokenIs
	TokenIn
	TokenAs
	TokenNull
	TokenTrue
	TokenFalse

	// Operators
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenMod
	TokenAssign
	TokenPlusAssign
	TokenMinusAssign
	TokenMulAssign
	TokenDivAssign
	TokenModAssign
	TokenIncrement
	TokenDecrement
	TokenAnd
	TokenOr
	TokenNot
	TokenNotNull // !!
	TokenEq
	TokenNe
	TokenIdentEq
	TokenIdentNe
	TokenLt
	TokenGt
	TokenLe
	TokenGe
	TokenElvis
	TokenSafeDot
	TokenQuestion
	TokenColonColon
	TokenColon
	TokenDot
	TokenRange
	TokenArrow
	TokenComma
	TokenSemicolon
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenLBrace
	TokenRBrace
	TokenAt
	TokenNotIs // !is
	TokenNotIn // !in
	TokenAsSafe
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenError:      "ERROR",
	TokenIdentifier: "IDENTIFIER",
	TokenInteger:    "INTEGER",
	TokenFloat:      "FLOAT",
	TokenChar:       "CHAR",
	TokenString:     "STRING",
	TokenRawString:  "RAW_STRING",
	TokenQuotation:  "QUOTATION",
	TokenLabel:      "LABEL",
	TokenAtLabel:    "AT_LABEL",

	TokenPackage:   "package",
	TokenImport:    "import",
	TokenClass:     "class",
	TokenInterface: "interface",
	TokenFun:       "fun",
	TokenObject:    "object",
	TokenVal:       "val",
	TokenVar:       "var",
	TokenTypeAlias: "typealias",
	TokenThis:      "this",
	TokenSuper:     "super",
	TokenIf:        "if",
	TokenElse:      "else",
	TokenWhen:      "when",
	TokenTry:       "try",
	TokenCatch:     "catch",
	TokenFinally:   "finally",
	TokenFor:       "for",
	TokenWhile:     "while",
	TokenDo:        "do",
	TokenReturn:    "return",
	TokenBreak:     "break",
	TokenContinue:  "continue",
	TokenThrow:     "throw",
	TokenIs:        "is",
	TokenIn:        "in",
	TokenAs:        "as",
	TokenNull:      "null",
	TokenTrue:      "true",
	TokenFalse:     "false",

	TokenPlus:        "+",
	TokenMinus:       "-",
	TokenMul:         "*",
	TokenDiv:         "/",
	TokenMod:         "%",
	TokenAssign:      "=",
	TokenPlusAssign:  "+=",
	TokenMinusAssign: "-=",
	TokenMulAssign:   "*=",
	TokenDivAssign:   "/=",
	TokenModAssign:   "%=",
	TokenIncrement:   "++",
	TokenDecrement:   "--",
	TokenAnd:         "&&",
	TokenOr:          "||",
	TokenNot:         "!",
	TokenNotNull:     "!!",
	TokenEq:          "==",
	TokenNe:          "!=",
	TokenIdentEq:     "===",
	TokenIdentNe:     "!==",
	TokenLt:          "<",
	TokenGt:          ">",
	TokenLe:          "<=",
	TokenGe:          ">=",
	TokenElvis:       "?:",
	TokenSafeDot:     "?.",
	TokenQuestion:    "?",
	TokenColonColon:  "::",
	TokenColon:       ":",
	TokenDot:         ".",
	TokenRange:       "..",
	TokenArrow:       "->",
	TokenComma:       ",",
	TokenSemicolon:   ";",
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenLBracket:    "[",
	TokenRBracket:    "]",
	TokenLBrace:      "{",
	TokenRBrace:      "}",
	TokenAt:          "@",
	TokenNotIs:       "!is",
	TokenNotIn:       "!in",
	TokenAsSafe:      "as?",
}

var keywords = map[string]TokenType{
	"package":   TokenPackage,
	"import":    TokenImport,
	"class":     TokenClass,
	"interface": TokenInterface,
	"fun":       TokenFun,
	"object":    TokenObject,
	"val":       TokenVal,
	"var":       TokenVar,
	"typealias": TokenTypeAlias,
	"this":      TokenThis,
	"super":     TokenSuper,
	"if":        TokenIf,
	"else":      TokenElse,
	"when":      TokenWhen,
	"try":       TokenTry,
	"catch":     TokenCatch,
	"finally":   TokenFinally,
	"for":       TokenFor,
	"while":     TokenWhile,
	"do":        TokenDo,
	"return":    TokenReturn,
	"break":     TokenBreak,
	"continue":  TokenContinue,
	"throw":     TokenThrow,
	"is":        TokenIs,
	"in":        TokenIn,
	"as":        TokenAs,
	"null":      TokenNull,
	"true":      TokenTrue,
	"false":     TokenFalse,
}

// operators is ordered longest first so the scanner can take the first match.
var operators = []struct {
	text string
	typ  TokenType
}{
	{"===", TokenIdentEq},
	{"!==", TokenIdentNe},
	{"+=", TokenPlusAssign},
	{"-=", TokenMinusAssign},
	{"*=", TokenMulAssign},
	{"/=", TokenDivAssign},
	{"%=", TokenModAssign},
	{"++", TokenIncrement},
	{"--", TokenDecrement},
	{"&&", TokenAnd},
	{"||", TokenOr},
	{"!!", TokenNotNull},
	{"==", TokenEq},
	{"!=", TokenNe},
	{"<=", TokenLe},
	{">=", TokenGe},
	{"?:", TokenElvis},
	{"?.", TokenSafeDot},
	{"::", TokenColonColon},
	{"..", TokenRange},
	{"->", TokenArrow},
	{"+", TokenPlus},
	{"-", TokenMinus},
	{"*", TokenMul},
	{"/", TokenDiv},
	{"%", TokenMod},
	{"=", TokenAssign},
	{"!", TokenNot},
	{"<", TokenLt},
	{">", TokenGt},
	{"?", TokenQuestion},
	{":", TokenColon},
	{".", TokenDot},
	{",", TokenComma},
	{";", TokenSemicolon},
	{"(", TokenLParen},
	{")", TokenRParen},
	{"[", TokenLBracket},
	{"]", TokenRBracket},
	{"{", TokenLBrace},
	{"}", TokenRBrace},
}

// IsKeyword reports whether name is a hard keyword.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

// Token is a single lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Span    position.Span
	// NewlineBefore is set when a line break separates this token from the
	// previous one.
	NewlineBefore bool
	// Quote is set for TokenQuotation.
	Quote *Quote
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Span: %s}", t.Type, t.Literal, t.Span)
}

// Quote describes the layout of a quotation token.
type Quote struct {
	// Tag is the optional category prefix: expr, decl, file or type.
	Tag string
	// Preserve is set for triple-backquote quotations, whose content keeps
	// its surrounding whitespace.
	Preserve bool
	// Content is the span of the quoted content in the source.
	Content position.Span
}

// quotationTags are the identifiers that may prefix a quotation.
var quotationTags = map[string]bool{
	"expr": true,
	"decl": true,
	"file": true,
	"type": true,
}

// Comment is a comment collected while scanning.
type Comment struct {
	Text       string
	Span       position.Span
	StartsLine bool
	EndsLine   bool
}
