package ast

import (
	"fmt"
	"strconv"
)

// QuoteName lifts s into a name reference.
func QuoteName(s string) *Name {
	return &Name{Name: s}
}

// QuoteInt lifts an integer into an INT constant.
func QuoteInt(v int64) *Const {
	return &Const{Value: strconv.FormatInt(v, 10), Form: FormInt}
}

// QuoteFloat lifts a float into a FLOAT constant.
func QuoteFloat(v float64) *Const {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		s += ".0"
	}
	return &Const{Value: s, Form: FormFloat}
}

// QuoteChar lifts a character into a CHAR constant.
func QuoteChar(r rune) *Const {
	return &Const{Value: CharLiteral(r), Form: FormChar}
}

// QuoteBool lifts a boolean into a BOOLEAN constant.
func QuoteBool(v bool) *Const {
	return &Const{Value: strconv.FormatBool(v), Form: FormBoolean}
}

// Quote lifts a Go value into an expression: strings become names, numbers
// INT or FLOAT constants and booleans BOOLEAN constants.
func Quote(v interface{}) (Expr, error) {
	switch v := v.(type) {
	case string:
		return QuoteName(v), nil
	case bool:
		return QuoteBool(v), nil
	case int:
		return QuoteInt(int64(v)), nil
	case int8:
		return QuoteInt(int64(v)), nil
	case int16:
		return QuoteInt(int64(v)), nil
	case int32:
		return QuoteInt(int64(v)), nil
	case int64:
		return QuoteInt(v), nil
	case uint8:
		return QuoteInt(int64(v)), nil
	case uint16:
		return QuoteInt(int64(v)), nil
	case uint32:
		return QuoteInt(int64(v)), nil
	case float32:
		return QuoteFloat(float64(v)), nil
	case float64:
		return QuoteFloat(v), nil
	}
	return nil, fmt.Errorf("cannot quote value of type %T", v)
}
