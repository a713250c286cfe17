package builtin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/astbridge"
	"github.com/orizon-lang/quasi/internal/format"
	"github.com/orizon-lang/quasi/internal/macro"
	"github.com/orizon-lang/quasi/internal/parser"
)

// data adds toString and copy members built from the val and var
// parameters of a class's primary constructor.
func data(node ast.Node, _ macro.Args) (ast.Node, error) {
	cls, ok := node.(*ast.Structured)
	if !ok || cls.Form != ast.FormClass {
		return nil, fmt.Errorf("Data applies to classes, not %T", node)
	}
	if cls.PrimaryConstructor == nil {
		return nil, errors.New("Data needs a primary constructor")
	}

	var names, fields, params []string
	for _, p := range cls.PrimaryConstructor.Params {
		if p.ReadOnly == nil || p.Type == nil {
			continue
		}
		names = append(names, p.Name)
		fields = append(fields, fmt.Sprintf("%s=$%s", p.Name, p.Name))
		params = append(params, fmt.Sprintf("%s: %s = this.%s", p.Name, format.Source(p.Type), p.Name))
	}

	members := []string{
		fmt.Sprintf(`override fun toString(): String = "%s(%s)"`, cls.Name, strings.Join(fields, ", ")),
		fmt.Sprintf("fun copy(%s) = %s(%s)", strings.Join(params, ", "), cls.Name, strings.Join(names, ", ")),
	}

	out := *cls
	out.Members = append([]ast.Decl(nil), cls.Members...)
	for _, src := range members {
		d, err := parser.ParseDeclaration(src)
		if err != nil {
			return nil, fmt.Errorf("generated member %q: %w", src, err)
		}
		m, err := astbridge.FromDecl(d)
		if err != nil {
			return nil, err
		}
		out.Members = append(out.Members, m)
	}
	return &out, nil
}
