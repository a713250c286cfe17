// Package builtin registers the macro providers bundled with quasi.
//
// A classpath manifest binds them to class names:
//
//	api: ">= 1.0"
//	classes:
//	  - name: quasi.Double
//	    provider: double
//	  - name: quasi.Trace
//	    provider: trace
//
// double is written in the constructor probing style and needs
// macro.constructor_probing; the others implement macro.Expander.
package builtin

import (
	"strings"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/macro"
)

// Provider keys.
const (
	Double = "double"
	Scale  = "scale"
	Data   = "data"
	Trace  = "trace"
)

func init() {
	Register(macro.Providers())
}

// Register adds the bundled providers to r.
func Register(r *macro.Registry) {
	r.Register(Double, doubleProvider())
	r.Register(Scale, &macro.Provider{Expander: macro.ExpanderFunc(scale)})
	r.Register(Data, &macro.Provider{Expander: macro.ExpanderFunc(data)})
	r.Register(Trace, &macro.Provider{Expander: macro.ExpanderFunc(trace)})
}

// stringLit builds a string template holding s, escaping what the writer
// would otherwise read as template syntax.
func stringLit(s string) *ast.StringTmpl {
	t := &ast.StringTmpl{}
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			t.Elems = append(t.Elems, &ast.RegularElem{Str: run.String()})
			run.Reset()
		}
	}
	for _, r := range s {
		switch r {
		case '"', '\\', '$', '\n', '\t', '\r':
			flush()
			t.Elems = append(t.Elems, &ast.RegularEscElem{Char: r})
		default:
			run.WriteRune(r)
		}
	}
	flush()
	return t
}

// printStmt builds a println(msg) statement.
func printStmt(msg string) ast.Stmt {
	return &ast.ExprStmt{Expr: &ast.Call{
		Expr: ast.QuoteName("println"),
		Args: []*ast.ValueArg{{Expr: stringLit(msg)}},
	}}
}
