package ast

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// Serialize renders n as constructor-literal text:
//
//	meta.Node.Expr.BinaryOp(lhs=..., oper=..., rhs=...)
//
// Lists are written as listOf(...), absent values as null, enums as their
// qualified value name and ExternalName nodes as their raw text. The text is
// itself an expression of the host language.
func Serialize(n Node) string {
	return Serializer{}.Serialize(n)
}

// Serializer controls how ExternalName nodes are written. With a nil
// External hook they are written as their raw text.
type Serializer struct {
	External func(*ExternalName) string
}

// Serialize renders n like the package level Serialize.
func (s Serializer) Serialize(n Node) string {
	var b strings.Builder
	s.writeNode(&b, n)
	return b.String()
}

func (s Serializer) writeNode(b *strings.Builder, n Node) {
	if isNil(reflect.ValueOf(n)) {
		b.WriteString("null")
		return
	}
	if ext, ok := n.(*ExternalName); ok {
		if s.External != nil {
			b.WriteString(s.External(ext))
			return
		}
		b.WriteString(ext.Name)
		return
	}
	v, ok := VariantOf(n)
	if !ok {
		panic(fmt.Sprintf("ast: unregistered node type %T", n))
	}
	rv := reflect.ValueOf(n).Elem()
	b.WriteString(Prefix)
	b.WriteString(v.Path)
	b.WriteByte('(')
	for i, f := range v.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		s.writeValue(b, f, rv.Field(f.Index))
	}
	b.WriteByte(')')
}

func (s Serializer) writeValue(b *strings.Builder, f Field, fv reflect.Value) {
	if e, ok := fv.Interface().(Enum); ok {
		name := e.String()
		if name == "" {
			b.WriteString("null")
			return
		}
		b.WriteString(Prefix + e.EnumPath() + "." + name)
		return
	}
	switch fv.Kind() {
	case reflect.Interface, reflect.Ptr:
		if fv.Type().Implements(nodeType) {
			if isNil(fv) {
				b.WriteString("null")
				return
			}
			s.writeNode(b, fv.Interface().(Node))
			return
		}
		// *bool
		if fv.IsNil() {
			b.WriteString("null")
			return
		}
		b.WriteString(strconv.FormatBool(fv.Elem().Bool()))
	case reflect.Slice:
		b.WriteString("listOf(")
		for i := 0; i < fv.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			el := fv.Index(i)
			if el.Kind() == reflect.String {
				b.WriteString(StringLiteral(el.String()))
				continue
			}
			if isNil(el) {
				b.WriteString("null")
				continue
			}
			s.writeNode(b, el.Interface().(Node))
		}
		b.WriteByte(')')
	case reflect.String:
		if f.Opt && fv.String() == "" {
			b.WriteString("null")
			return
		}
		b.WriteString(StringLiteral(fv.String()))
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(fv.Bool()))
	case reflect.Int, reflect.Int32:
		if f.Char {
			b.WriteString(CharLiteral(rune(fv.Int())))
			return
		}
		b.WriteString(strconv.FormatInt(fv.Int(), 10))
	default:
		panic(fmt.Sprintf("ast: cannot serialize field %s of kind %s", f.Name, fv.Kind()))
	}
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}

// StringLiteral quotes s as a host language string literal.
func StringLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '$':
			b.WriteString(`\$`)
		default:
			writeEscaped(&b, r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// CharLiteral quotes r as a host language character literal.
func CharLiteral(r rune) string {
	var b strings.Builder
	b.WriteByte('\'')
	if r == '\'' {
		b.WriteString(`\'`)
	} else {
		writeEscaped(&b, r)
	}
	b.WriteByte('\'')
	return b.String()
}

func writeEscaped(b *strings.Builder, r rune) {
	switch r {
	case '\\':
		b.WriteString(`\\`)
	case '\n':
		b.WriteString(`\n`)
	case '\t':
		b.WriteString(`\t`)
	case '\r':
		b.WriteString(`\r`)
	case '\b':
		b.WriteString(`\b`)
	default:
		if r < 0x10000 && !unicode.IsPrint(r) {
			fmt.Fprintf(b, `\u%04x`, r)
			return
		}
		b.WriteRune(r)
	}
}
