package parser

import (
	"github.com/orizon-lang/quasi/internal/lexer"
)

// parseDeclaration parses a declaration with its modifiers. Members allows
// property accessors, constructors and init blocks.
func (p *Parser) parseDeclaration(member bool) Decl {
	start := p.start()
	mods := p.parseModifiers()
	return p.parseDeclarationAfter(mods, start, member)
}

func (p *Parser) parseDeclarationAfter(mods []Modifier, start int, member bool) Decl {
	switch {
	case p.at(lexer.TokenClass) || p.at(lexer.TokenInterface):
		return p.parseClass(mods, start)
	case p.at(lexer.TokenObject):
		return p.parseObject(mods, start)
	case p.at(lexer.TokenFun):
		return p.parseFun(mods, start, false)
	case p.at(lexer.TokenVal) || p.at(lexer.TokenVar):
		return p.parseProperty(mods, start, member)
	case p.at(lexer.TokenTypeAlias):
		return p.parseTypeAlias(mods, start)
	case member && p.atIdent("constructor"):
		return p.parseSecondaryConstructor(mods, start)
	case member && p.atIdent("init") && p.peek(1).Type == lexer.TokenLBrace:
		p.advance()
		return finish(p, &InitBlock{Block: p.parseBlock()}, start)
	}
	p.failf("expected declaration, found %s", describe(p.cur()))
	return nil
}

func withoutKeyword(mods []Modifier, kw string) ([]Modifier, bool) {
	out := mods[:0:0]
	found := false
	for _, m := range mods {
		if k, ok := m.(*KeywordModifier); ok && k.Keyword == kw {
			found = true
			continue
		}
		out = append(out, m)
	}
	return out, found
}

func (p *Parser) parseClass(mods []Modifier, start int) *ClassDecl {
	c := &ClassDecl{Kind: KindClass}
	if p.at(lexer.TokenInterface) {
		c.Kind = KindInterface
	}
	p.advance()
	var isEnum bool
	c.Mods, isEnum = withoutKeyword(mods, "enum")
	if isEnum {
		c.Kind = KindEnumClass
	}
	c.Name = p.expectIdent()
	if p.at(lexer.TokenLt) {
		c.TypeParams = p.parseTypeParams()
	}
	p.parsePrimaryConstructor(c)
	if p.at(lexer.TokenColon) {
		p.advance()
		c.Supers = p.parseSupers()
	}
	if p.atIdent("where") {
		c.Constraints = p.parseConstraints()
	}
	if p.at(lexer.TokenLBrace) {
		c.Members = p.parseClassBody(c.Kind == KindEnumClass)
	}
	return finish(p, c, start)
}

func (p *Parser) parsePrimaryConstructor(c *ClassDecl) {
	saved := p.pos
	start := p.start()
	if p.at(lexer.TokenLParen) && !p.cur().NewlineBefore {
		c.Primary = finish(p, &PrimaryConstructor{Params: p.parseParams()}, start)
		return
	}
	mods := p.parseModifiers()
	if p.atIdent("constructor") {
		p.advance()
		c.Primary = finish(p, &PrimaryConstructor{Mods: mods, Params: p.parseParams()}, start)
		return
	}
	p.pos = saved
}

func (p *Parser) parseObject(mods []Modifier, start int) *ClassDecl {
	p.expect(lexer.TokenObject)
	c := &ClassDecl{Kind: KindObject}
	var companion bool
	c.Mods, companion = withoutKeyword(mods, "companion")
	if companion {
		c.Kind = KindCompanionObject
	}
	if p.at(lexer.TokenIdentifier) {
		c.Name = p.advance().Literal
	} else if !companion {
		p.failf("expected object name, found %s", describe(p.cur()))
	}
	if p.at(lexer.TokenColon) {
		p.advance()
		c.Supers = p.parseSupers()
	}
	if p.at(lexer.TokenLBrace) {
		c.Members = p.parseClassBody(false)
	}
	return finish(p, c, start)
}

func (p *Parser) parseSupers() []*SuperType {
	var supers []*SuperType
	for {
		start := p.start()
		st := &SuperType{Type: p.parseSimpleType()}
		if p.at(lexer.TokenLParen) && !p.cur().NewlineBefore {
			st.Call = true
			st.Args = p.parseValueArgs()
		} else if p.atIdent("by") {
			p.advance()
			saved := p.noInfix
			p.noInfix = "where"
			st.Delegate = p.parseExpression()
			p.noInfix = saved
		}
		supers = append(supers, finish(p, st, start))
		if !p.at(lexer.TokenComma) {
			return supers
		}
		p.advance()
	}
}

func (p *Parser) parseClassBody(enum bool) []Decl {
	p.expect(lexer.TokenLBrace)
	var members []Decl
	if enum {
		for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenSemicolon) {
			members = append(members, p.parseEnumEntry())
			if !p.at(lexer.TokenComma) {
				break
			}
			p.advance()
		}
		p.skipSemis()
	}
	for !p.at(lexer.TokenRBrace) {
		members = append(members, p.parseDeclaration(true))
		p.endStatement()
	}
	p.expect(lexer.TokenRBrace)
	return members
}

func (p *Parser) parseEnumEntry() *EnumEntry {
	start := p.start()
	e := &EnumEntry{Mods: p.parseModifiers()}
	e.Name = p.expectIdent()
	if p.at(lexer.TokenLParen) {
		e.HasArgs = true
		e.Args = p.parseValueArgs()
	}
	if p.at(lexer.TokenLBrace) {
		e.Members = p.parseClassBody(false)
	}
	return finish(p, e, start)
}

func (p *Parser) parseParams() []*Parameter {
	p.expect(lexer.TokenLParen)
	var params []*Parameter
	for !p.at(lexer.TokenRParen) {
		start := p.start()
		param := &Parameter{Mods: p.parseModifiers()}
		if p.at(lexer.TokenVal) || p.at(lexer.TokenVar) {
			ro := p.at(lexer.TokenVal)
			param.ReadOnly = &ro
			p.advance()
		}
		param.Name = p.expectIdent()
		if p.at(lexer.TokenColon) {
			p.advance()
			param.Type = p.parseType()
		}
		if p.at(lexer.TokenAssign) {
			p.advance()
			param.Default = p.parseExpression()
		}
		params = append(params, finish(p, param, start))
		if !p.at(lexer.TokenComma) {
			break
		}
		p.advance()
	}
	p.expect(lexer.TokenRParen)
	return params
}

// parseReceiverAndName handles the optional receiver type before a
// function or property name, as in fun String.size() or val T.x.
func (p *Parser) parseReceiverAndName() (*Type, string) {
	if p.at(lexer.TokenIdentifier) {
		next := p.peek(1).Type
		if next != lexer.TokenDot && next != lexer.TokenLt && next != lexer.TokenQuestion {
			return nil, p.advance().Literal
		}
	}
	recv := p.parseType()
	if simple, ok := recv.Ref.(*SimpleType); ok && len(recv.Mods) == 0 && len(simple.Pieces) > 1 && !p.at(lexer.TokenDot) {
		last := simple.Pieces[len(simple.Pieces)-1]
		if len(last.Args) == 0 {
			simple.Pieces = simple.Pieces[:len(simple.Pieces)-1]
			simple.Span.End = simple.Pieces[len(simple.Pieces)-1].Span.End
			recv.Span.End = simple.Span.End
			return recv, last.Name
		}
	}
	p.expect(lexer.TokenDot)
	return recv, p.expectIdent()
}

func (p *Parser) parseFun(mods []Modifier, start int, anonymous bool) *FunDecl {
	p.expect(lexer.TokenFun)
	fn := &FunDecl{Mods: mods}
	if p.at(lexer.TokenLt) {
		fn.TypeParams = p.parseTypeParams()
	}
	switch {
	case anonymous && p.at(lexer.TokenLParen):
	case anonymous:
		fn.Receiver = p.parseType()
		p.expect(lexer.TokenDot)
	default:
		fn.Receiver, fn.Name = p.parseReceiverAndName()
	}
	fn.Params = p.parseParams()
	if p.at(lexer.TokenColon) {
		p.advance()
		fn.ReturnType = p.parseType()
	}
	if p.atIdent("where") {
		fn.Constraints = p.parseConstraints()
	}
	switch {
	case p.at(lexer.TokenAssign):
		p.advance()
		fn.ExprBody = p.parseExpression()
	case p.at(lexer.TokenLBrace):
		fn.Block = p.parseBlock()
	}
	return finish(p, fn, start)
}

func (p *Parser) parsePropertyVar() *PropertyVar {
	start := p.start()
	name := p.expectIdent()
	v := &PropertyVar{Name: name}
	if p.at(lexer.TokenColon) {
		p.advance()
		v.Type = p.parseType()
	}
	if name == "_" && v.Type == nil {
		return nil
	}
	return finish(p, v, start)
}

func (p *Parser) parseDestructuring() []*PropertyVar {
	p.expect(lexer.TokenLParen)
	var vars []*PropertyVar
	for !p.at(lexer.TokenRParen) {
		vars = append(vars, p.parsePropertyVar())
		if !p.at(lexer.TokenComma) {
			break
		}
		p.advance()
	}
	p.expect(lexer.TokenRParen)
	return vars
}

func (p *Parser) parseProperty(mods []Modifier, start int, member bool) *PropertyDecl {
	prop := &PropertyDecl{Mods: mods, ReadOnly: p.at(lexer.TokenVal)}
	p.advance()
	if p.at(lexer.TokenLt) {
		prop.TypeParams = p.parseTypeParams()
	}
	if p.at(lexer.TokenLParen) {
		prop.Destructured = true
		prop.Vars = p.parseDestructuring()
	} else {
		vstart := p.start()
		recv, name := p.parseReceiverAndName()
		prop.Receiver = recv
		v := &PropertyVar{Name: name}
		if p.at(lexer.TokenColon) {
			p.advance()
			v.Type = p.parseType()
		}
		prop.Vars = []*PropertyVar{finish(p, v, vstart)}
	}
	if p.atIdent("where") {
		prop.Constraints = p.parseConstraints()
	}
	switch {
	case p.at(lexer.TokenAssign):
		p.advance()
		prop.Init = p.parseExpression()
	case p.atIdent("by"):
		p.advance()
		prop.Delegated = true
		prop.Init = p.parseExpression()
	}
	if member {
		for len(prop.Accessors) < 2 {
			acc := p.tryAccessor()
			if acc == nil {
				break
			}
			prop.Accessors = append(prop.Accessors, acc)
		}
	}
	return finish(p, prop, start)
}

func (p *Parser) tryAccessor() *Accessor {
	saved := p.pos
	p.skipSemis()
	start := p.start()
	mods := p.parseModifiers()
	if !p.atIdent("get") && !p.atIdent("set") {
		p.pos = saved
		return nil
	}
	acc := &Accessor{Mods: mods, Getter: p.advance().Literal == "get"}
	if p.at(lexer.TokenLParen) {
		acc.HasParams = true
		p.advance()
		if !acc.Getter && !p.at(lexer.TokenRParen) {
			acc.ParamMods = p.parseModifiers()
			acc.ParamName = p.expectIdent()
			if p.at(lexer.TokenColon) {
				p.advance()
				acc.ParamType = p.parseType()
			}
		}
		p.expect(lexer.TokenRParen)
		if acc.Getter && p.at(lexer.TokenColon) {
			p.advance()
			acc.Type = p.parseType()
		}
		switch {
		case p.at(lexer.TokenAssign):
			p.advance()
			acc.ExprBody = p.parseExpression()
		case p.at(lexer.TokenLBrace):
			acc.Block = p.parseBlock()
		}
	}
	return finish(p, acc, start)
}

func (p *Parser) parseTypeAlias(mods []Modifier, start int) *TypeAliasDecl {
	p.expect(lexer.TokenTypeAlias)
	ta := &TypeAliasDecl{Mods: mods, Name: p.expectIdent()}
	if p.at(lexer.TokenLt) {
		ta.TypeParams = p.parseTypeParams()
	}
	p.expect(lexer.TokenAssign)
	ta.Type = p.parseType()
	return finish(p, ta, start)
}

func (p *Parser) parseSecondaryConstructor(mods []Modifier, start int) *SecondaryConstructor {
	p.advance()
	ctor := &SecondaryConstructor{Mods: mods, Params: p.parseParams()}
	if p.at(lexer.TokenColon) {
		p.advance()
		dstart := p.start()
		call := &DelegationCall{}
		switch {
		case p.at(lexer.TokenThis):
		case p.at(lexer.TokenSuper):
			call.Super = true
		default:
			p.failf("expected this or super, found %s", describe(p.cur()))
		}
		p.advance()
		call.Args = p.parseValueArgs()
		ctor.Delegation = finish(p, call, dstart)
	}
	if p.at(lexer.TokenLBrace) {
		ctor.Block = p.parseBlock()
	}
	return finish(p, ctor, start)
}

func (p *Parser) parseTypeParams() []*TypeParam {
	p.expect(lexer.TokenLt)
	var params []*TypeParam
	for !p.at(lexer.TokenGt) {
		start := p.start()
		tp := &TypeParam{}
		for {
			if p.at(lexer.TokenIn) {
				mstart := p.start()
				p.advance()
				tp.Mods = append(tp.Mods, finish(p, &KeywordModifier{Keyword: "in"}, mstart))
				continue
			}
			if p.at(lexer.TokenAt) || (p.at(lexer.TokenIdentifier) && modifierKeywords[p.cur().Literal] && p.peek(1).Type == lexer.TokenIdentifier) {
				tp.Mods = append(tp.Mods, p.parseModifiers()...)
				continue
			}
			break
		}
		tp.Name = p.expectIdent()
		if p.at(lexer.TokenColon) {
			p.advance()
			tp.Bound = p.parseType()
		}
		params = append(params, finish(p, tp, start))
		if !p.at(lexer.TokenComma) {
			break
		}
		p.advance()
	}
	p.expect(lexer.TokenGt)
	return params
}

func (p *Parser) parseConstraints() []*TypeConstraint {
	p.advance()
	var cs []*TypeConstraint
	for {
		start := p.start()
		tc := &TypeConstraint{}
		for p.at(lexer.TokenAt) {
			tc.Annotations = append(tc.Annotations, p.parseAnnotationSet())
		}
		tc.Name = p.expectIdent()
		p.expect(lexer.TokenColon)
		tc.Type = p.parseType()
		cs = append(cs, finish(p, tc, start))
		if !p.at(lexer.TokenComma) {
			return cs
		}
		p.advance()
	}
}
