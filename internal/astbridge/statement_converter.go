package astbridge

import (
	"github.com/orizon-lang/quasi/internal/ast"
	p "github.com/orizon-lang/quasi/internal/parser"
)

func (c *Converter) file(f *p.File) ast.Entry {
	if f == nil || c.err != nil {
		return nil
	}
	anns := c.annotationSets(f.Annotations)
	var pkg *ast.Package
	if f.Package != nil {
		pkg = &ast.Package{Mods: c.mods(f.Package.Mods), Names: append([]string(nil), f.Package.Names...)}
		c.attach(pkg, f.Package.Span)
	}
	imports := make([]*ast.Import, 0, len(f.Imports))
	for _, imp := range f.Imports {
		out := &ast.Import{Names: append([]string(nil), imp.Names...), Wildcard: imp.Wildcard, Alias: imp.Alias}
		c.attach(out, imp.Span)
		imports = append(imports, out)
	}

	if f.Script {
		s := &ast.Script{Anns: anns, Pkg: pkg, Imports: imports, Exprs: make([]ast.Expr, 0, len(f.Stmts))}
		for _, st := range f.Stmts {
			s.Exprs = append(s.Exprs, c.scriptExpr(st))
		}
		c.flush(s)
		return s
	}
	out := &ast.File{Anns: anns, Pkg: pkg, Imports: imports, Decls: c.decls(f.Decls)}
	c.flush(out)
	return out
}

// scriptExpr converts a top-level script statement. Properties and
// functions become their expression forms.
func (c *Converter) scriptExpr(n p.Node) ast.Expr {
	switch n := n.(type) {
	case *p.PropertyDecl:
		prop := &ast.PropertyExpr{}
		c.attach(prop, n.Span)
		prop.Decl = c.property(n)
		return prop
	case *p.FunDecl:
		fn := &ast.Func{}
		c.attach(fn, n.Span)
		c.fillFunc(fn, n)
		return &ast.AnonFunc{Func: fn}
	case p.Expr:
		extras := c.take(n.GetSpan())
		e := c.expr(n)
		if e != nil && len(extras) > 0 {
			c.extras.AddBefore(e, extras...)
		}
		return e
	}
	c.fail(n, "unsupported script statement")
	return nil
}

func (c *Converter) block(b *p.Block) *ast.Block {
	if b == nil || c.err != nil {
		return nil
	}
	out := &ast.Block{Stmts: make([]ast.Stmt, 0, len(b.Stmts))}
	for _, st := range b.Stmts {
		if c.err != nil {
			return out
		}
		switch st := st.(type) {
		case p.Decl:
			out.Stmts = append(out.Stmts, &ast.DeclStmt{Decl: c.decl(st)})
		case p.Expr:
			stmt := &ast.ExprStmt{}
			c.attach(stmt, st.GetSpan())
			stmt.Expr = c.expr(st)
			out.Stmts = append(out.Stmts, stmt)
		default:
			c.fail(st, "unsupported statement")
		}
	}
	return out
}
