package astbridge

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/lexer"
	p "github.com/orizon-lang/quasi/internal/parser"
)

// ReadError reports serialized text that does not describe a tree.
type ReadError struct {
	Offset  int
	Message string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read error at offset %d: %s", e.Offset, e.Message)
}

var (
	nodeType = reflect.TypeOf((*ast.Node)(nil)).Elem()
	boolPtr  = reflect.TypeOf((*bool)(nil))
)

// Reader rebuilds trees from their serialized form. Serialized text is an
// expression of the host language, so it is parsed with the native parser
// and the constructor calls are then mapped back to variants. Expressions
// that are not constructor calls in node positions are read as
// ExternalName nodes holding their source text.
type Reader struct {
	src string
}

// Read parses text produced by ast.Serialize.
func Read(text string) (ast.Node, error) {
	e, err := p.ParseExpression(text)
	if err != nil {
		return nil, err
	}
	r := &Reader{src: text}
	v, err := r.value(e, nodeType, false)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() || v.IsNil() {
		return nil, nil
	}
	return v.Interface().(ast.Node), nil
}

func (r *Reader) errorf(e p.Node, format string, args ...interface{}) error {
	return &ReadError{Offset: e.GetSpan().Start, Message: fmt.Sprintf(format, args...)}
}

// qualified splits meta.Node.A.B or meta.Node.A.B(args) into its path
// below the prefix and the trailing call, if any.
func qualified(e p.Expr) ([]string, *p.CallExpr, bool) {
	var names []string
	var call *p.CallExpr
	cur := e
	for {
		dot, ok := cur.(*p.DotExpr)
		if !ok || dot.Safe {
			break
		}
		switch sel := dot.Selector.(type) {
		case *p.NameExpr:
			names = append(names, sel.Name)
		case *p.CallExpr:
			name, ok := sel.Callee.(*p.NameExpr)
			if !ok || call != nil || len(names) > 0 || sel.Lambda != nil {
				return nil, nil, false
			}
			call = sel
			names = append(names, name.Name)
		default:
			return nil, nil, false
		}
		cur = dot.Receiver
	}
	root, ok := cur.(*p.NameExpr)
	if !ok {
		return nil, nil, false
	}
	names = append(names, root.Name)
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	prefix := strings.Split(strings.TrimSuffix(ast.Prefix, "."), ".")
	if len(names) <= len(prefix) {
		return nil, nil, false
	}
	for i, part := range prefix {
		if names[i] != part {
			return nil, nil, false
		}
	}
	return names[len(prefix):], call, true
}

func isNull(e p.Expr) bool {
	c, ok := e.(*p.ConstExpr)
	return ok && c.Kind == p.ConstNull
}

// value reads e as a value of type t.
func (r *Reader) value(e p.Expr, t reflect.Type, opt bool) (reflect.Value, error) {
	if path, ok := ast.EnumPathOf(t); ok {
		return r.enum(e, t, path, opt)
	}
	switch t.Kind() {
	case reflect.Interface, reflect.Ptr:
		if isNull(e) {
			return reflect.Zero(t), nil
		}
		if t == boolPtr {
			b, err := r.boolean(e)
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t.Elem())
			v.Elem().SetBool(b)
			return v, nil
		}
		n, err := r.node(e)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.ValueOf(n)
		if !v.Type().AssignableTo(t) {
			return reflect.Value{}, r.errorf(e, "%T cannot be used as %s", n, t)
		}
		out := reflect.New(t).Elem()
		out.Set(v)
		return out, nil
	case reflect.Slice:
		return r.list(e, t)
	case reflect.String:
		if isNull(e) {
			if opt {
				return reflect.ValueOf(""), nil
			}
			return reflect.Value{}, r.errorf(e, "null for a required string")
		}
		s, err := r.str(e)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s), nil
	case reflect.Bool:
		b, err := r.boolean(e)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil
	case reflect.Int, reflect.Int32:
		n, err := r.integer(e, t)
		if err != nil {
			return reflect.Value{}, err
		}
		return n, nil
	}
	return reflect.Value{}, r.errorf(e, "unsupported field type %s", t)
}

func (r *Reader) node(e p.Expr) (ast.Node, error) {
	path, call, ok := qualified(e)
	if !ok || call == nil {
		// raw reference text
		return &ast.ExternalName{Name: r.src[e.GetSpan().Start:e.GetSpan().End]}, nil
	}
	name := strings.Join(path, ".")
	v, ok := ast.VariantByPath(name)
	if !ok {
		return nil, r.errorf(e, "unknown variant %s", name)
	}
	n := v.New()
	rv := reflect.ValueOf(n).Elem()
	seen := make(map[string]bool, len(v.Fields))
	for i, arg := range call.Args {
		if arg.Spread {
			return nil, r.errorf(arg, "spread argument in %s", name)
		}
		var f ast.Field
		if arg.Name == "" {
			if i >= len(v.Fields) {
				return nil, r.errorf(arg, "%s takes %d arguments", name, len(v.Fields))
			}
			f = v.Fields[i]
		} else if f, ok = v.Field(arg.Name); !ok {
			return nil, r.errorf(arg, "%s has no field %s", name, arg.Name)
		}
		if seen[f.Name] {
			return nil, r.errorf(arg, "field %s given twice", f.Name)
		}
		seen[f.Name] = true
		fv, err := r.fieldValue(arg.Expr, f)
		if err != nil {
			return nil, err
		}
		rv.Field(f.Index).Set(fv)
	}
	for _, f := range v.Fields {
		if !seen[f.Name] {
			return nil, r.errorf(call, "%s is missing field %s", name, f.Name)
		}
	}
	return n, nil
}

func (r *Reader) fieldValue(e p.Expr, f ast.Field) (reflect.Value, error) {
	if f.Char {
		c, ok := e.(*p.ConstExpr)
		if !ok || c.Kind != p.ConstChar {
			return reflect.Value{}, r.errorf(e, "%s must be a character", f.Name)
		}
		ch, err := lexer.UnquoteChar(c.Value)
		if err != nil {
			return reflect.Value{}, r.errorf(e, "%v", err)
		}
		return reflect.ValueOf(ch).Convert(f.Type), nil
	}
	v, err := r.value(e, f.Type, f.Opt)
	if err != nil {
		return reflect.Value{}, err
	}
	return v.Convert(f.Type), nil
}

func (r *Reader) enum(e p.Expr, t reflect.Type, path string, opt bool) (reflect.Value, error) {
	if isNull(e) {
		if opt {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, r.errorf(e, "null for required %s", path)
	}
	names, call, ok := qualified(e)
	if !ok || call != nil || len(names) < 2 {
		return reflect.Value{}, r.errorf(e, "expected a %s value", path)
	}
	if got := strings.Join(names[:len(names)-1], "."); got != path {
		return reflect.Value{}, r.errorf(e, "expected a %s value, found %s", path, got)
	}
	v, err := ast.ParseEnum(t, names[len(names)-1])
	if err != nil {
		return reflect.Value{}, r.errorf(e, "%v", err)
	}
	return v, nil
}

func (r *Reader) list(e p.Expr, t reflect.Type) (reflect.Value, error) {
	call, ok := e.(*p.CallExpr)
	if !ok || call.Lambda != nil {
		return reflect.Value{}, r.errorf(e, "expected listOf(...)")
	}
	if name, ok := call.Callee.(*p.NameExpr); !ok || name.Name != "listOf" {
		return reflect.Value{}, r.errorf(e, "expected listOf(...)")
	}
	out := reflect.MakeSlice(t, 0, len(call.Args))
	for _, arg := range call.Args {
		if arg.Name != "" || arg.Spread {
			return reflect.Value{}, r.errorf(arg, "unexpected list element form")
		}
		v, err := r.value(arg.Expr, t.Elem(), false)
		if err != nil {
			return reflect.Value{}, err
		}
		out = reflect.Append(out, v)
	}
	return out, nil
}

func (r *Reader) str(e p.Expr) (string, error) {
	tmpl, ok := e.(*p.StringTemplateExpr)
	if !ok || tmpl.Raw {
		return "", r.errorf(e, "expected a string literal")
	}
	var b strings.Builder
	for _, entry := range tmpl.Entries {
		switch entry.Kind {
		case lexer.PartText:
			b.WriteString(entry.Text)
		case lexer.PartEscape, lexer.PartUnicodeEscape:
			b.WriteRune(entry.Value)
		default:
			return "", r.errorf(entry, "interpolation in a string literal")
		}
	}
	return b.String(), nil
}

func (r *Reader) boolean(e p.Expr) (bool, error) {
	c, ok := e.(*p.ConstExpr)
	if !ok || c.Kind != p.ConstBoolean {
		return false, r.errorf(e, "expected true or false")
	}
	return c.Value == "true", nil
}

func (r *Reader) integer(e p.Expr, t reflect.Type) (reflect.Value, error) {
	neg := false
	if u, ok := e.(*p.UnaryExpr); ok && u.Prefix && u.Op == lexer.TokenMinus {
		neg = true
		e = u.Operand
	}
	c, ok := e.(*p.ConstExpr)
	if !ok || c.Kind != p.ConstInt {
		return reflect.Value{}, r.errorf(e, "expected an integer")
	}
	n, err := ast.ParseInt(c.Value)
	if err != nil {
		return reflect.Value{}, r.errorf(e, "%v", err)
	}
	if neg {
		n = -n
	}
	v := reflect.New(t).Elem()
	v.SetInt(n)
	return v, nil
}
