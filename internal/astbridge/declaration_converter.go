package astbridge

import (
	"github.com/orizon-lang/quasi/internal/ast"
	p "github.com/orizon-lang/quasi/internal/parser"
)

var forms = map[p.ClassKind]ast.StructuredForm{
	p.KindClass:           ast.FormClass,
	p.KindEnumClass:       ast.FormEnumClass,
	p.KindInterface:       ast.FormInterface,
	p.KindObject:          ast.FormObject,
	p.KindCompanionObject: ast.FormCompanionObject,
}

func (c *Converter) decls(ds []p.Decl) []ast.Decl {
	out := make([]ast.Decl, 0, len(ds))
	for _, d := range ds {
		out = append(out, c.decl(d))
	}
	return out
}

func (c *Converter) decl(d p.Decl) ast.Decl {
	if d == nil || c.err != nil {
		return nil
	}
	switch d := d.(type) {
	case *p.ClassDecl:
		s := &ast.Structured{Form: forms[d.Kind], Name: d.Name}
		c.attach(s, d.Span)
		s.Mods = c.mods(d.Mods)
		s.TypeParams = c.typeParams(d.TypeParams)
		if d.Primary != nil {
			s.PrimaryConstructor = &ast.PrimaryConstructor{Mods: c.mods(d.Primary.Mods), Params: c.params(d.Primary.Params)}
		}
		s.ParentAnns = []*ast.AnnotationSet{}
		s.Parents = c.parents(d.Supers)
		s.TypeConstraints = c.constraints(d.Constraints)
		s.Members = c.decls(d.Members)
		return s
	case *p.InitBlock:
		initDecl := &ast.Init{}
		c.attach(initDecl, d.Span)
		initDecl.Block = c.block(d.Block)
		return initDecl
	case *p.FunDecl:
		fn := &ast.Func{}
		c.attach(fn, d.Span)
		c.fillFunc(fn, d)
		return fn
	case *p.PropertyDecl:
		prop := &ast.Property{}
		c.attach(prop, d.Span)
		c.fillProperty(prop, d)
		return prop
	case *p.TypeAliasDecl:
		ta := &ast.TypeAlias{Name: d.Name}
		c.attach(ta, d.Span)
		ta.Mods = c.mods(d.Mods)
		ta.TypeParams = c.typeParams(d.TypeParams)
		ta.Type = c.typ(d.Type)
		return ta
	case *p.SecondaryConstructor:
		ctor := &ast.Constructor{}
		c.attach(ctor, d.Span)
		ctor.Mods = c.mods(d.Mods)
		ctor.Params = c.params(d.Params)
		if d.Delegation != nil {
			target := ast.DelegateThis
			if d.Delegation.Super {
				target = ast.DelegateSuper
			}
			ctor.DelegationCall = &ast.DelegationCall{Target: target, Args: c.valueArgs(d.Delegation.Args)}
		}
		if d.Block != nil {
			ctor.Block = c.block(d.Block)
		}
		return ctor
	case *p.EnumEntry:
		entry := &ast.EnumEntry{Name: d.Name}
		c.attach(entry, d.Span)
		entry.Mods = c.mods(d.Mods)
		entry.Args = c.valueArgs(d.Args)
		entry.Members = c.decls(d.Members)
		return entry
	}
	c.fail(d, "unsupported declaration")
	return nil
}

func (c *Converter) parents(supers []*p.SuperType) []ast.Parent {
	out := make([]ast.Parent, 0, len(supers))
	for _, st := range supers {
		if st.Call {
			out = append(out, &ast.CallConstructorParent{
				Type:     c.simpleType(st.Type),
				TypeArgs: []*ast.Type{},
				Args:     c.valueArgs(st.Args),
			})
			continue
		}
		out = append(out, &ast.TypeParent{Type: c.simpleType(st.Type), By: c.expr(st.Delegate)})
	}
	return out
}

func (c *Converter) fillFunc(fn *ast.Func, d *p.FunDecl) {
	fn.Mods = c.mods(d.Mods)
	fn.TypeParams = c.typeParams(d.TypeParams)
	fn.ReceiverType = c.typ(d.Receiver)
	fn.Name = d.Name
	fn.ParamTypeParams = []*ast.TypeParam{}
	fn.Params = c.params(d.Params)
	fn.Type = c.typ(d.ReturnType)
	fn.TypeConstraints = c.constraints(d.Constraints)
	fn.Body = c.body(d.Block, d.ExprBody)
}

func (c *Converter) body(block *p.Block, expr p.Expr) ast.Body {
	switch {
	case block != nil:
		return &ast.BlockBody{Block: c.block(block)}
	case expr != nil:
		return &ast.ExprBody{Expr: c.expr(expr)}
	}
	return nil
}

func (c *Converter) params(ps []*p.Parameter) []*ast.FuncParam {
	out := make([]*ast.FuncParam, 0, len(ps))
	for _, prm := range ps {
		fp := &ast.FuncParam{Mods: c.mods(prm.Mods), Name: prm.Name, Type: c.typ(prm.Type), Default: c.expr(prm.Default)}
		if prm.ReadOnly != nil {
			ro := *prm.ReadOnly
			fp.ReadOnly = &ro
		}
		out = append(out, fp)
	}
	return out
}

func (c *Converter) propertyVars(vars []*p.PropertyVar) []*ast.PropertyVar {
	out := make([]*ast.PropertyVar, 0, len(vars))
	for _, v := range vars {
		if v == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, &ast.PropertyVar{Name: v.Name, Type: c.typ(v.Type)})
	}
	return out
}

func (c *Converter) fillProperty(prop *ast.Property, d *p.PropertyDecl) {
	prop.Mods = c.mods(d.Mods)
	prop.ReadOnly = d.ReadOnly
	prop.TypeParams = c.typeParams(d.TypeParams)
	prop.ReceiverType = c.typ(d.Receiver)
	prop.Vars = c.propertyVars(d.Vars)
	prop.TypeConstraints = c.constraints(d.Constraints)
	prop.Delegated = d.Delegated
	prop.Expr = c.expr(d.Init)
	if len(d.Accessors) == 0 {
		return
	}
	if len(d.Accessors) > 2 {
		c.fail(d, "more than two accessors")
		return
	}
	acc := &ast.Accessors{First: c.accessor(d.Accessors[0])}
	if len(d.Accessors) == 2 {
		acc.Second = c.accessor(d.Accessors[1])
	}
	prop.Accessors = acc
}

func (c *Converter) accessor(a *p.Accessor) ast.Accessor {
	if a.Getter {
		return &ast.GetAccessor{Mods: c.mods(a.Mods), Type: c.typ(a.Type), Body: c.body(a.Block, a.ExprBody)}
	}
	return &ast.SetAccessor{
		Mods:      c.mods(a.Mods),
		ParamMods: c.mods(a.ParamMods),
		ParamName: a.ParamName,
		ParamType: c.typ(a.ParamType),
		Body:      c.body(a.Block, a.ExprBody),
	}
}

func (c *Converter) property(d *p.PropertyDecl) *ast.Property {
	if d == nil {
		return nil
	}
	prop := &ast.Property{}
	c.fillProperty(prop, d)
	return prop
}
