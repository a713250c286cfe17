package astbridge

import (
	"strings"

	"github.com/orizon-lang/quasi/internal/ast"
	p "github.com/orizon-lang/quasi/internal/parser"
)

// ===== Types =====

func (c *Converter) typ(t *p.Type) *ast.Type {
	if t == nil || c.err != nil {
		return nil
	}
	return &ast.Type{Mods: c.mods(t.Mods), Ref: c.typeRef(t.Ref)}
}

func (c *Converter) types(ts []*p.Type) []*ast.Type {
	out := make([]*ast.Type, 0, len(ts))
	for _, t := range ts {
		// nil is a star projection
		out = append(out, c.typ(t))
	}
	return out
}

func (c *Converter) typeRef(r p.TypeRef) ast.TypeRef {
	if r == nil || c.err != nil {
		return nil
	}
	switch r := r.(type) {
	case *p.ParenType:
		return &ast.ParenType{Mods: c.mods(r.Mods), Type: c.typeRef(r.Inner)}
	case *p.FunctionType:
		params := make([]*ast.FuncTypeParam, 0, len(r.Params))
		for _, prm := range r.Params {
			params = append(params, &ast.FuncTypeParam{Name: prm.Name, Type: c.typ(prm.Type)})
		}
		return &ast.FuncType{ReceiverType: c.typ(r.Receiver), Params: params, Type: c.typ(r.Result)}
	case *p.SimpleType:
		return c.simpleType(r)
	case *p.NullableType:
		return &ast.NullableType{Type: c.typeRef(r.Inner)}
	case *p.DynamicType:
		return &ast.DynamicType{}
	}
	c.fail(r, "unsupported type reference")
	return nil
}

func (c *Converter) simpleType(t *p.SimpleType) *ast.SimpleType {
	if t == nil || c.err != nil {
		return nil
	}
	pieces := make([]*ast.SimpleTypePiece, 0, len(t.Pieces))
	for _, piece := range t.Pieces {
		pieces = append(pieces, &ast.SimpleTypePiece{Name: piece.Name, TypeParams: c.types(piece.Args)})
	}
	return &ast.SimpleType{Pieces: pieces}
}

func (c *Converter) typeParams(tps []*p.TypeParam) []*ast.TypeParam {
	out := make([]*ast.TypeParam, 0, len(tps))
	for _, tp := range tps {
		param := &ast.TypeParam{Mods: c.mods(tp.Mods), Name: tp.Name}
		if tp.Bound != nil {
			param.Type = c.typeRef(tp.Bound.Ref)
		}
		out = append(out, param)
	}
	return out
}

func (c *Converter) constraints(cs []*p.TypeConstraint) []*ast.TypeConstraint {
	out := make([]*ast.TypeConstraint, 0, len(cs))
	for _, tc := range cs {
		out = append(out, &ast.TypeConstraint{
			Anns: c.annotationSets(tc.Annotations),
			Name: tc.Name,
			Type: c.typ(tc.Type),
		})
	}
	return out
}

// ===== Modifiers =====

var keywords = map[string]ast.Keyword{
	"abstract": ast.KeywordAbstract, "final": ast.KeywordFinal, "open": ast.KeywordOpen,
	"annotation": ast.KeywordAnnotation, "sealed": ast.KeywordSealed, "data": ast.KeywordData,
	"override": ast.KeywordOverride, "lateinit": ast.KeywordLateinit, "inner": ast.KeywordInner,
	"private": ast.KeywordPrivate, "protected": ast.KeywordProtected, "public": ast.KeywordPublic,
	"internal": ast.KeywordInternal, "in": ast.KeywordIn, "out": ast.KeywordOut,
	"noinline": ast.KeywordNoinline, "crossinline": ast.KeywordCrossinline, "vararg": ast.KeywordVararg,
	"reified": ast.KeywordReified, "tailrec": ast.KeywordTailrec, "operator": ast.KeywordOperator,
	"infix": ast.KeywordInfix, "inline": ast.KeywordInline, "external": ast.KeywordExternal,
	"suspend": ast.KeywordSuspend, "const": ast.KeywordConst, "actual": ast.KeywordActual,
	"expect": ast.KeywordExpect,
}

// KeywordText returns the source spelling of k.
func KeywordText(k ast.Keyword) string {
	return strings.ToLower(k.String())
}

var targets = map[string]ast.AnnotationTarget{
	"field": ast.TargetField, "file": ast.TargetFile, "property": ast.TargetProperty,
	"get": ast.TargetGet, "set": ast.TargetSet, "receiver": ast.TargetReceiver,
	"param": ast.TargetParam, "setparam": ast.TargetSetParam, "delegate": ast.TargetDelegate,
	"macro": ast.TargetMacro,
}

func (c *Converter) mods(mods []p.Modifier) []ast.Modifier {
	out := make([]ast.Modifier, 0, len(mods))
	for _, m := range mods {
		switch m := m.(type) {
		case *p.AnnotationSet:
			out = append(out, c.annotationSet(m))
		case *p.KeywordModifier:
			kw, ok := keywords[m.Keyword]
			if !ok {
				c.fail(m, "unknown modifier "+m.Keyword)
				return out
			}
			out = append(out, &ast.Lit{Keyword: kw})
		}
	}
	return out
}

func (c *Converter) annotationSets(sets []*p.AnnotationSet) []*ast.AnnotationSet {
	out := make([]*ast.AnnotationSet, 0, len(sets))
	for _, set := range sets {
		out = append(out, c.annotationSet(set))
	}
	return out
}

func (c *Converter) annotationSet(set *p.AnnotationSet) *ast.AnnotationSet {
	out := &ast.AnnotationSet{Anns: make([]*ast.Annotation, 0, len(set.Annotations))}
	if set.Target != "" {
		target, ok := targets[set.Target]
		if !ok {
			c.fail(set, "unknown annotation target "+set.Target)
			return out
		}
		out.Target = target
	}
	for _, ann := range set.Annotations {
		out.Anns = append(out.Anns, &ast.Annotation{
			Names:    append([]string(nil), ann.Names...),
			TypeArgs: c.types(ann.TypeArgs),
			Args:     c.valueArgs(ann.Args),
		})
	}
	return out
}
