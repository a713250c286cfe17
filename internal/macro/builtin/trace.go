package builtin

import (
	"fmt"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/macro"
)

// trace prints a message on entry to a function. The optional string
// argument replaces the default "enter <name>" message.
func trace(node ast.Node, args macro.Args) (ast.Node, error) {
	fn, ok := node.(*ast.Func)
	if !ok {
		return nil, fmt.Errorf("Trace applies to functions, not %T", node)
	}
	msg := "enter " + fn.Name
	if args.Len() > 0 {
		s, err := args.String(0)
		if err != nil {
			return nil, err
		}
		msg = s
	}

	out := *fn
	switch body := fn.Body.(type) {
	case *ast.BlockBody:
		stmts := append([]ast.Stmt{printStmt(msg)}, body.Block.Stmts...)
		out.Body = &ast.BlockBody{Block: &ast.Block{Stmts: stmts}}
	case *ast.ExprBody:
		run := &ast.Call{
			Expr: ast.QuoteName("run"),
			Lambda: &ast.TrailLambda{Func: &ast.Brace{Block: &ast.Block{Stmts: []ast.Stmt{
				printStmt(msg),
				&ast.ExprStmt{Expr: body.Expr},
			}}}},
		}
		out.Body = &ast.ExprBody{Expr: run}
	default:
		return nil, fmt.Errorf("Trace needs a function body")
	}
	return &out, nil
}
