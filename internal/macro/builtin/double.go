package builtin

import (
	"fmt"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/macro"
)

// doubler doubles integer literals, or only those equal to *only.
type doubler struct {
	only *int64
}

func doubleProvider() *macro.Provider {
	return &macro.Provider{Constructors: []macro.Constructor{
		{Arity: 0, New: func([]interface{}) (interface{}, error) { return doubler{}, nil }},
		{Arity: 1, New: func(args []interface{}) (interface{}, error) {
			n, ok := args[0].(int64)
			if !ok {
				return nil, fmt.Errorf("Double(n) takes an integer, got %T", args[0])
			}
			return doubler{only: &n}, nil
		}},
	}}
}

func (d doubler) Invoke(node ast.Node) (ast.Node, error) {
	return ast.Rewrite(node, func(n ast.Node) (ast.Node, error) {
		c, ok := n.(*ast.Const)
		if !ok || c.Form != ast.FormInt {
			return n, nil
		}
		v, err := ast.ParseInt(c.Value)
		if err != nil {
			return nil, err
		}
		if d.only != nil && v != *d.only {
			return n, nil
		}
		return ast.QuoteInt(v * 2), nil
	})
}
