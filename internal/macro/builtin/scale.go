package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/macro"
)

// scale multiplies numeric literals by its argument, folds the constant
// operations this leaves and drops the branches they decide. An integer
// factor keeps integer literals integral.
func scale(node ast.Node, args macro.Args) (ast.Node, error) {
	if args.Len() != 1 {
		return nil, fmt.Errorf("Scale takes one factor, got %d arguments", args.Len())
	}
	intFactor, isInt := args.Values[0].(int64)
	factor, err := args.Float(0)
	if err != nil {
		return nil, err
	}

	multiply := ast.EachNode(func(n ast.Node) (ast.Node, error) {
		c, ok := n.(*ast.Const)
		if !ok {
			return n, nil
		}
		switch c.Form {
		case ast.FormInt:
			v, err := ast.ParseInt(c.Value)
			if err != nil {
				return nil, err
			}
			if isInt {
				return ast.QuoteInt(v * intFactor), nil
			}
			return ast.QuoteFloat(float64(v) * factor), nil
		case ast.FormFloat:
			v, err := strconv.ParseFloat(strings.TrimRight(strings.ReplaceAll(c.Value, "_", ""), "fF"), 64)
			if err != nil {
				return nil, err
			}
			return ast.QuoteFloat(v * factor), nil
		}
		return n, nil
	})
	return ast.NewTransformationPipeline(
		multiply,
		&ast.ConstantFoldingTransformer{},
		&ast.DeadCodeEliminationTransformer{},
	).Transform(node)
}
