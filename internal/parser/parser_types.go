package parser

import (
	"github.com/orizon-lang/quasi/internal/lexer"
)

func (p *Parser) parseTypeModifiers(variance bool) []Modifier {
	var mods []Modifier
	for {
		switch {
		case p.at(lexer.TokenAt):
			mods = append(mods, p.parseAnnotationSet())
		case variance && p.at(lexer.TokenIn):
			start := p.start()
			p.advance()
			mods = append(mods, finish(p, &KeywordModifier{Keyword: "in"}, start))
		case p.at(lexer.TokenIdentifier) && (p.cur().Literal == "suspend" || (variance && p.cur().Literal == "out")) &&
			p.peek(1).Type != lexer.TokenDot && p.peek(1).Type != lexer.TokenGt && p.peek(1).Type != lexer.TokenComma:
			start := p.start()
			mods = append(mods, finish(p, &KeywordModifier{Keyword: p.advance().Literal}, start))
		default:
			return mods
		}
	}
}

func (p *Parser) parseType() *Type {
	return p.parseTypeWith(false)
}

func (p *Parser) parseTypeWith(variance bool) *Type {
	start := p.start()
	t := &Type{Mods: p.parseTypeModifiers(variance)}
	t.Ref = p.parseTypeRef()
	return finish(p, t, start)
}

func (p *Parser) parseTypeRef() TypeRef {
	start := p.start()
	var ref TypeRef

	switch {
	case p.at(lexer.TokenLParen):
		if ft := p.tryFunctionType(nil, start); ft != nil {
			return ft
		}
		p.advance()
		paren := &ParenType{Mods: p.parseTypeModifiers(false)}
		paren.Inner = p.parseTypeRef()
		p.expect(lexer.TokenRParen)
		ref = finish(p, paren, start)
	case p.atIdent("dynamic") && p.peek(1).Type != lexer.TokenDot:
		p.advance()
		ref = finish(p, &DynamicType{}, start)
	default:
		ref = p.parseSimpleType()
	}

	for p.at(lexer.TokenQuestion) && p.adjacent() {
		p.advance()
		ref = finish(p, &NullableType{Inner: ref}, start)
	}

	if p.at(lexer.TokenDot) && p.peek(1).Type == lexer.TokenLParen {
		recv := &Type{Ref: ref}
		recv.Span = ref.GetSpan()
		p.advance()
		if ft := p.tryFunctionType(recv, start); ft != nil {
			return ft
		}
		p.failf("expected function type after receiver")
	}
	return ref
}

func (p *Parser) tryFunctionType(recv *Type, start int) *FunctionType {
	var ft *FunctionType
	p.try(func() {
		p.expect(lexer.TokenLParen)
		f := &FunctionType{Receiver: recv}
		for !p.at(lexer.TokenRParen) {
			pstart := p.start()
			param := &FunctionTypeParam{}
			if p.at(lexer.TokenIdentifier) && p.peek(1).Type == lexer.TokenColon {
				param.Name = p.advance().Literal
				p.advance()
			}
			param.Type = p.parseType()
			f.Params = append(f.Params, finish(p, param, pstart))
			if !p.at(lexer.TokenComma) {
				break
			}
			p.advance()
		}
		p.expect(lexer.TokenRParen)
		p.expect(lexer.TokenArrow)
		f.Result = p.parseType()
		ft = finish(p, f, start)
	})
	return ft
}

func (p *Parser) parseSimpleType() *SimpleType {
	start := p.start()
	st := &SimpleType{}
	for {
		pstart := p.start()
		piece := &TypePiece{Name: p.expectIdent()}
		if p.at(lexer.TokenLt) && p.adjacent() {
			piece.Args = p.parseTypeArgs()
		}
		st.Pieces = append(st.Pieces, finish(p, piece, pstart))
		if !p.at(lexer.TokenDot) || p.peek(1).Type != lexer.TokenIdentifier {
			break
		}
		p.advance()
	}
	return finish(p, st, start)
}

// parseTypeArgs parses <A, *, out B>. Star projections are nil entries.
func (p *Parser) parseTypeArgs() []*Type {
	p.expect(lexer.TokenLt)
	args := []*Type{}
	for {
		if p.at(lexer.TokenMul) {
			p.advance()
			args = append(args, nil)
		} else {
			args = append(args, p.parseTypeWith(true))
		}
		if !p.at(lexer.TokenComma) {
			break
		}
		p.advance()
	}
	p.expect(lexer.TokenGt)
	return args
}
