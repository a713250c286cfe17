// Package consteval evaluates constant expressions of the native tree.
//
// Values are int64 for integers, float64 for floating point numbers, rune
// for characters, string, bool and nil for null.
package consteval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/lexer"
	"github.com/orizon-lang/quasi/internal/parser"
	"github.com/orizon-lang/quasi/internal/position"
)

// Hint is the type expected of an evaluated value.
type Hint int

// NoConstraint accepts a value of any type.
const NoConstraint Hint = 0

// Evaluator evaluates an expression to a constant.
type Evaluator interface {
	Evaluate(e parser.Expr, hint Hint) (interface{}, error)
}

// Error reports an expression that is not constant.
type Error struct {
	Span    position.Span
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("not a constant at %s: %s", e.Span, e.Message)
}

// Folder evaluates literals and operators applied to constants. Names
// resolve through Constants when set.
type Folder struct {
	Constants map[string]interface{}
}

// Evaluate evaluates e with a zero Folder.
func Evaluate(e parser.Expr) (interface{}, error) {
	return Folder{}.Evaluate(e, NoConstraint)
}

// Evaluate implements Evaluator.
func (f Folder) Evaluate(e parser.Expr, _ Hint) (interface{}, error) {
	return f.eval(e)
}

func fail(e parser.Expr, format string, args ...interface{}) error {
	return &Error{Span: e.GetSpan(), Message: fmt.Sprintf(format, args...)}
}

func (f Folder) eval(e parser.Expr) (interface{}, error) {
	switch e := e.(type) {
	case *parser.ConstExpr:
		return literal(e)
	case *parser.ParenExpr:
		return f.eval(e.Inner)
	case *parser.StringTemplateExpr:
		return f.template(e)
	case *parser.NameExpr:
		if v, ok := f.Constants[e.Name]; ok {
			return v, nil
		}
		return nil, fail(e, "unknown name %s", e.Name)
	case *parser.UnaryExpr:
		if !e.Prefix {
			return nil, fail(e, "postfix operator")
		}
		v, err := f.eval(e.Operand)
		if err != nil {
			return nil, err
		}
		return unary(e, v)
	case *parser.BinaryExpr:
		return f.binary(e)
	}
	return nil, fail(e, "%T is not constant", e)
}

func literal(c *parser.ConstExpr) (interface{}, error) {
	switch c.Kind {
	case parser.ConstInt:
		v, err := ast.ParseInt(c.Value)
		if err != nil {
			return nil, fail(c, "%v", err)
		}
		return v, nil
	case parser.ConstFloat:
		s := strings.TrimRight(strings.ReplaceAll(c.Value, "_", ""), "fF")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fail(c, "%v", err)
		}
		return v, nil
	case parser.ConstChar:
		r, err := lexer.UnquoteChar(c.Value)
		if err != nil {
			return nil, fail(c, "%v", err)
		}
		return r, nil
	case parser.ConstBoolean:
		return c.Value == "true", nil
	case parser.ConstNull:
		return nil, nil
	}
	return nil, fail(c, "unknown literal")
}

func (f Folder) template(t *parser.StringTemplateExpr) (interface{}, error) {
	var b strings.Builder
	for _, entry := range t.Entries {
		switch entry.Kind {
		case lexer.PartText:
			b.WriteString(entry.Text)
		case lexer.PartEscape, lexer.PartUnicodeEscape:
			b.WriteRune(entry.Value)
		default:
			v, err := f.eval(entry.Expr)
			if err != nil {
				return nil, err
			}
			b.WriteString(Format(v))
		}
	}
	return b.String(), nil
}

// Format renders a constant the way string templates do.
func Format(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case rune:
		return string(v)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	}
	return fmt.Sprint(v)
}

func unary(e *parser.UnaryExpr, v interface{}) (interface{}, error) {
	switch e.Op {
	case lexer.TokenMinus:
		switch v := v.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
	case lexer.TokenPlus:
		switch v.(type) {
		case int64, float64:
			return v, nil
		}
	case lexer.TokenNot:
		if b, ok := v.(bool); ok {
			return !b, nil
		}
	}
	return nil, fail(e, "operator %s does not apply to %T", e.Op, v)
}

func (f Folder) binary(e *parser.BinaryExpr) (interface{}, error) {
	l, err := f.eval(e.Left)
	if err != nil {
		return nil, err
	}
	// && and || short-circuit
	if lb, ok := l.(bool); ok && (e.Op == lexer.TokenAnd || e.Op == lexer.TokenOr) {
		if (e.Op == lexer.TokenAnd) != lb {
			return lb, nil
		}
		r, err := f.eval(e.Right)
		if err != nil {
			return nil, err
		}
		if rb, ok := r.(bool); ok {
			return rb, nil
		}
		return nil, fail(e.Right, "%T is not a boolean", r)
	}
	r, err := f.eval(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case lexer.TokenEq:
		return l == r, nil
	case lexer.TokenNe:
		return l != r, nil
	}
	if ls, ok := l.(string); ok && e.Op == lexer.TokenPlus {
		return ls + Format(r), nil
	}

	li, lInt := l.(int64)
	ri, rInt := r.(int64)
	if lInt && rInt {
		return intOp(e, li, ri)
	}
	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if lok && rok {
		return floatOp(e, lf, rf)
	}
	return nil, fail(e, "operator %s does not apply to %T and %T", e.Op, l, r)
}

func toFloat(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func intOp(e *parser.BinaryExpr, l, r int64) (interface{}, error) {
	switch e.Op {
	case lexer.TokenPlus:
		return l + r, nil
	case lexer.TokenMinus:
		return l - r, nil
	case lexer.TokenMul:
		return l * r, nil
	case lexer.TokenDiv:
		if r == 0 {
			return nil, fail(e, "division by zero")
		}
		return l / r, nil
	case lexer.TokenMod:
		if r == 0 {
			return nil, fail(e, "modulo by zero")
		}
		return l % r, nil
	case lexer.TokenLt:
		return l < r, nil
	case lexer.TokenLe:
		return l <= r, nil
	case lexer.TokenGt:
		return l > r, nil
	case lexer.TokenGe:
		return l >= r, nil
	}
	return nil, fail(e, "operator %s does not apply to integers", e.Op)
}

func floatOp(e *parser.BinaryExpr, l, r float64) (interface{}, error) {
	switch e.Op {
	case lexer.TokenPlus:
		return l + r, nil
	case lexer.TokenMinus:
		return l - r, nil
	case lexer.TokenMul:
		return l * r, nil
	case lexer.TokenDiv:
		return l / r, nil
	case lexer.TokenLt:
		return l < r, nil
	case lexer.TokenLe:
		return l <= r, nil
	case lexer.TokenGt:
		return l > r, nil
	case lexer.TokenGe:
		return l >= r, nil
	}
	return nil, fail(e, "operator %s does not apply to numbers", e.Op)
}
