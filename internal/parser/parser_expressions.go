package parser

import (
	"github.com/orizon-lang/quasi/internal/lexer"
	"github.com/orizon-lang/quasi/internal/position"
)

// Binary operator precedence, lowest first.
const (
	precNone = iota
	precDisjunction
	precConjunction
	precEquality
	precComparison
	precNamedCheck
	precElvis
	precInfix
	precRange
	precAdditive
	precMultiplicative
	precTypeRHS
)

var binaryPrecedence = map[lexer.TokenType]int{
	lexer.TokenOr:       precDisjunction,
	lexer.TokenAnd:      precConjunction,
	lexer.TokenEq:       precEquality,
	lexer.TokenNe:       precEquality,
	lexer.TokenIdentEq:  precEquality,
	lexer.TokenIdentNe:  precEquality,
	lexer.TokenLt:       precComparison,
	lexer.TokenGt:       precComparison,
	lexer.TokenLe:       precComparison,
	lexer.TokenGe:       precComparison,
	lexer.TokenIn:       precNamedCheck,
	lexer.TokenNotIn:    precNamedCheck,
	lexer.TokenIs:       precNamedCheck,
	lexer.TokenNotIs:    precNamedCheck,
	lexer.TokenElvis:    precElvis,
	lexer.TokenRange:    precRange,
	lexer.TokenPlus:     precAdditive,
	lexer.TokenMinus:    precAdditive,
	lexer.TokenMul:      precMultiplicative,
	lexer.TokenDiv:      precMultiplicative,
	lexer.TokenMod:      precMultiplicative,
	lexer.TokenAs:       precTypeRHS,
	lexer.TokenAsSafe:   precTypeRHS,
}

var assignmentOps = map[lexer.TokenType]bool{
	lexer.TokenAssign:      true,
	lexer.TokenPlusAssign:  true,
	lexer.TokenMinusAssign: true,
	lexer.TokenMulAssign:   true,
	lexer.TokenDivAssign:   true,
	lexer.TokenModAssign:   true,
}

// continuesAfterNewline lists the operators that may start a line and
// still continue the previous expression.
var continuesAfterNewline = map[lexer.TokenType]bool{
	lexer.TokenAnd:     true,
	lexer.TokenOr:      true,
	lexer.TokenElvis:   true,
	lexer.TokenAs:      true,
	lexer.TokenAsSafe:  true,
	lexer.TokenDot:     true,
	lexer.TokenSafeDot: true,
}

func (p *Parser) parseExpression() Expr {
	start := p.start()
	left := p.parseBinary(precDisjunction)
	if tok := p.cur(); assignmentOps[tok.Type] && !tok.NewlineBefore {
		p.advance()
		right := p.parseExpression()
		return finish(p, &BinaryExpr{Left: left, Op: tok.Type, Right: right}, start)
	}
	return left
}

func (p *Parser) binaryPrec(tok lexer.Token) (int, bool) {
	if tok.Type == lexer.TokenIdentifier {
		if p.noInfix != "" && tok.Literal == p.noInfix {
			return 0, false
		}
		return precInfix, true
	}
	prec, ok := binaryPrecedence[tok.Type]
	return prec, ok
}

func (p *Parser) parseBinary(minPrec int) Expr {
	start := p.start()
	left := p.parsePrefix()
	for {
		tok := p.cur()
		prec, ok := p.binaryPrec(tok)
		if !ok || prec < minPrec {
			return left
		}
		if tok.NewlineBefore && !continuesAfterNewline[tok.Type] {
			return left
		}
		p.advance()
		switch tok.Type {
		case lexer.TokenIs, lexer.TokenNotIs, lexer.TokenAs, lexer.TokenAsSafe:
			left = finish(p, &TypeOpExpr{Left: left, Op: tok.Type, Type: p.parseType()}, start)
		case lexer.TokenIdentifier:
			right := p.parseBinary(prec + 1)
			left = finish(p, &BinaryExpr{Left: left, Op: tok.Type, Infix: tok.Literal, Right: right}, start)
		default:
			right := p.parseBinary(prec + 1)
			left = finish(p, &BinaryExpr{Left: left, Op: tok.Type, Right: right}, start)
		}
	}
}

func (p *Parser) parsePrefix() Expr {
	start := p.start()
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenMinus, lexer.TokenPlus, lexer.TokenNot, lexer.TokenIncrement, lexer.TokenDecrement:
		p.advance()
		operand := p.parsePrefix()
		return finish(p, &UnaryExpr{Op: tok.Type, Operand: operand, Prefix: true}, start)
	case lexer.TokenLabel:
		p.advance()
		body := p.parsePrefix()
		return finish(p, &LabeledExpr{Label: tok.Literal, Body: body}, start)
	case lexer.TokenAt:
		var sets []*AnnotationSet
		for p.at(lexer.TokenAt) {
			sets = append(sets, p.parseAnnotationSet())
		}
		body := p.parsePrefix()
		return finish(p, &AnnotatedExpr{Annotations: sets, Body: body}, start)
	}
	return p.parsePostfix(p.parsePrimary(), start)
}

func (p *Parser) parsePostfix(left Expr, start int) Expr {
	for {
		tok := p.cur()
		switch {
		case tok.NewlineBefore && tok.Type != lexer.TokenDot && tok.Type != lexer.TokenSafeDot:
			return left
		case tok.Type == lexer.TokenIncrement || tok.Type == lexer.TokenDecrement || tok.Type == lexer.TokenNotNull:
			p.advance()
			left = finish(p, &UnaryExpr{Op: tok.Type, Operand: left}, start)
		case tok.Type == lexer.TokenLParen, tok.Type == lexer.TokenLt && p.adjacent():
			call, ok := p.parseCallSuffix(left, start)
			if !ok {
				return left
			}
			left = call
		case tok.Type == lexer.TokenLBracket:
			p.advance()
			idx := &IndexExpr{Receiver: left}
			for !p.at(lexer.TokenRBracket) {
				idx.Indices = append(idx.Indices, p.parseExpression())
				if !p.at(lexer.TokenComma) {
					break
				}
				p.advance()
			}
			p.expect(lexer.TokenRBracket)
			left = finish(p, idx, start)
		case tok.Type == lexer.TokenDot || tok.Type == lexer.TokenSafeDot:
			p.advance()
			sel := p.parseSelector()
			left = finish(p, &DotExpr{Receiver: left, Selector: sel, Safe: tok.Type == lexer.TokenSafeDot}, start)
		case tok.Type == lexer.TokenColonColon:
			p.advance()
			recv := &RefReceiver{Expr: left}
			recv.Span = left.GetSpan()
			left = p.finishCallableRef(recv, start)
		case p.atTrailingLambda() && isCallee(left):
			call, ok := left.(*CallExpr)
			if !ok || call.Lambda != nil {
				call = &CallExpr{Callee: left}
			}
			call.Lambda = p.parseTrailingLambda()
			left = finish(p, call, start)
		default:
			return left
		}
	}
}

// isCallee reports whether a trailing lambda may attach to e.
func isCallee(e Expr) bool {
	switch e := e.(type) {
	case *NameExpr:
		return true
	case *CallExpr:
		return e.Lambda == nil
	}
	return false
}

func (p *Parser) atTrailingLambda() bool {
	if p.cur().NewlineBefore {
		return false
	}
	return p.at(lexer.TokenLBrace) || (p.at(lexer.TokenLabel) && p.peek(1).Type == lexer.TokenLBrace)
}

func (p *Parser) parseTrailingLambda() *TrailingLambda {
	start := p.start()
	tl := &TrailingLambda{}
	if p.at(lexer.TokenLabel) {
		tl.Label = p.advance().Literal
	}
	tl.Func = p.parseLambda()
	return finish(p, tl, start)
}

// parseSelector parses the right side of a dot: a name with any call
// suffixes attached to it.
func (p *Parser) parseSelector() Expr {
	start := p.start()
	var sel Expr
	if p.at(lexer.TokenClass) {
		p.advance()
		sel = finish(p, &NameExpr{Name: "class"}, start)
	} else {
		sel = finish(p, &NameExpr{Name: p.expectIdent()}, start)
	}
	for !p.cur().NewlineBefore {
		switch {
		case p.at(lexer.TokenLParen), p.at(lexer.TokenLt) && p.adjacent():
			call, ok := p.parseCallSuffix(sel, start)
			if !ok {
				return sel
			}
			sel = call
		case p.atTrailingLambda() && isCallee(sel):
			call, ok := sel.(*CallExpr)
			if !ok {
				call = &CallExpr{Callee: sel}
			}
			call.Lambda = p.parseTrailingLambda()
			sel = finish(p, call, start)
		default:
			return sel
		}
	}
	return sel
}

// parseCallSuffix parses optional type arguments, value arguments and a
// trailing lambda. It reports false, consuming nothing, when a '<' does
// not begin type arguments.
func (p *Parser) parseCallSuffix(callee Expr, start int) (*CallExpr, bool) {
	call := &CallExpr{Callee: callee}
	if p.at(lexer.TokenLt) {
		ok := p.try(func() {
			call.TypeArgs = p.parseTypeArgs()
			if !p.at(lexer.TokenLParen) && !p.atTrailingLambda() {
				p.failf("not a call")
			}
		})
		if !ok {
			return nil, false
		}
	}
	if p.at(lexer.TokenLParen) {
		call.Args = p.parseValueArgs()
	}
	if p.atTrailingLambda() {
		call.Lambda = p.parseTrailingLambda()
	}
	return finish(p, call, start), true
}

func (p *Parser) parseValueArgs() []*ValueArg {
	p.expect(lexer.TokenLParen)
	args := []*ValueArg{}
	for !p.at(lexer.TokenRParen) {
		start := p.start()
		arg := &ValueArg{}
		if p.at(lexer.TokenIdentifier) && p.peek(1).Type == lexer.TokenAssign {
			arg.Name = p.advance().Literal
			p.advance()
		}
		if p.at(lexer.TokenMul) {
			p.advance()
			arg.Spread = true
		}
		arg.Expr = p.parseExpression()
		args = append(args, finish(p, arg, start))
		if !p.at(lexer.TokenComma) {
			break
		}
		p.advance()
	}
	p.expect(lexer.TokenRParen)
	return args
}

func (p *Parser) finishCallableRef(recv *RefReceiver, start int) Expr {
	ref := &CallableRefExpr{Receiver: recv}
	if p.at(lexer.TokenClass) {
		p.advance()
		ref.Class = true
	} else {
		ref.Name = p.expectIdent()
	}
	return finish(p, ref, start)
}

// atExprEnd reports whether no operand follows a jump keyword.
func (p *Parser) atExprEnd() bool {
	tok := p.cur()
	if tok.NewlineBefore {
		return true
	}
	switch tok.Type {
	case lexer.TokenEOF, lexer.TokenRBrace, lexer.TokenRParen, lexer.TokenRBracket,
		lexer.TokenSemicolon, lexer.TokenComma, lexer.TokenElse, lexer.TokenArrow:
		return true
	}
	return false
}

func (p *Parser) parsePrimary() Expr {
	start := p.start()
	tok := p.cur()

	switch tok.Type {
	case lexer.TokenInteger:
		p.advance()
		return finish(p, &ConstExpr{Value: tok.Literal, Kind: ConstInt}, start)
	case lexer.TokenFloat:
		p.advance()
		return finish(p, &ConstExpr{Value: tok.Literal, Kind: ConstFloat}, start)
	case lexer.TokenChar:
		p.advance()
		return finish(p, &ConstExpr{Value: tok.Literal, Kind: ConstChar}, start)
	case lexer.TokenTrue, lexer.TokenFalse:
		p.advance()
		return finish(p, &ConstExpr{Value: tok.Literal, Kind: ConstBoolean}, start)
	case lexer.TokenNull:
		p.advance()
		return finish(p, &ConstExpr{Value: tok.Literal, Kind: ConstNull}, start)
	case lexer.TokenString, lexer.TokenRawString:
		return p.parseStringTemplate()
	case lexer.TokenQuotation:
		return p.parseQuotation()
	case lexer.TokenIdentifier:
		if e, ok := p.splices[tok.Literal]; ok {
			p.advance()
			return e
		}
		if ref := p.tryTypeReceiverRef(); ref != nil {
			return ref
		}
		p.advance()
		return finish(p, &NameExpr{Name: tok.Literal}, start)
	case lexer.TokenThis:
		p.advance()
		this := &ThisExpr{}
		if p.at(lexer.TokenAtLabel) {
			this.Label = p.advance().Literal
		}
		return finish(p, this, start)
	case lexer.TokenSuper:
		p.advance()
		sup := &SuperExpr{}
		if p.at(lexer.TokenLt) && p.adjacent() {
			p.advance()
			sup.TypeArg = p.parseType()
			p.expect(lexer.TokenGt)
		}
		if p.at(lexer.TokenAtLabel) {
			sup.Label = p.advance().Literal
		}
		return finish(p, sup, start)
	case lexer.TokenLParen:
		p.advance()
		inner := p.parseExpression()
		p.expect(lexer.TokenRParen)
		return finish(p, &ParenExpr{Inner: inner}, start)
	case lexer.TokenLBrace:
		return p.parseLambda()
	case lexer.TokenLBracket:
		p.advance()
		coll := &CollectionLiteralExpr{}
		for !p.at(lexer.TokenRBracket) {
			coll.Elements = append(coll.Elements, p.parseExpression())
			if !p.at(lexer.TokenComma) {
				break
			}
			p.advance()
		}
		p.expect(lexer.TokenRBracket)
		return finish(p, coll, start)
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhen:
		return p.parseWhen()
	case lexer.TokenTry:
		return p.parseTry()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenWhile:
		p.advance()
		w := &WhileExpr{}
		p.expect(lexer.TokenLParen)
		w.Cond = p.parseExpression()
		p.expect(lexer.TokenRParen)
		w.Body = p.parseControlBody()
		return finish(p, w, start)
	case lexer.TokenDo:
		p.advance()
		w := &WhileExpr{DoWhile: true}
		w.Body = p.parseControlBody()
		p.expect(lexer.TokenWhile)
		p.expect(lexer.TokenLParen)
		w.Cond = p.parseExpression()
		p.expect(lexer.TokenRParen)
		return finish(p, w, start)
	case lexer.TokenReturn:
		p.advance()
		ret := &ReturnExpr{}
		if p.at(lexer.TokenAtLabel) {
			ret.Label = p.advance().Literal
		}
		if !p.atExprEnd() {
			ret.Value = p.parseExpression()
		}
		return finish(p, ret, start)
	case lexer.TokenBreak:
		p.advance()
		br := &BreakExpr{}
		if p.at(lexer.TokenAtLabel) {
			br.Label = p.advance().Literal
		}
		return finish(p, br, start)
	case lexer.TokenContinue:
		p.advance()
		cont := &ContinueExpr{}
		if p.at(lexer.TokenAtLabel) {
			cont.Label = p.advance().Literal
		}
		return finish(p, cont, start)
	case lexer.TokenThrow:
		p.advance()
		return finish(p, &ThrowExpr{Value: p.parseExpression()}, start)
	case lexer.TokenObject:
		p.advance()
		obj := &ObjectLiteralExpr{}
		if p.at(lexer.TokenColon) {
			p.advance()
			obj.Supers = p.parseSupers()
		}
		obj.Members = p.parseClassBody(false)
		return finish(p, obj, start)
	case lexer.TokenFun:
		fn := p.parseFun(nil, start, true)
		return finish(p, &AnonFuncExpr{Func: fn}, start)
	case lexer.TokenColonColon:
		p.advance()
		return p.finishCallableRef(nil, start)
	}

	p.failf("unexpected %s", describe(tok))
	return nil
}

// tryTypeReceiverRef parses references whose receiver can only be a type,
// such as List<String>::class or String?::class.
func (p *Parser) tryTypeReceiverRef() Expr {
	i := 1
	for p.peek(i).Type == lexer.TokenDot && p.peek(i+1).Type == lexer.TokenIdentifier {
		i += 2
	}
	next := p.peek(i)
	if (next.Type != lexer.TokenLt && next.Type != lexer.TokenQuestion) || next.Span.Start != p.peek(i-1).Span.End {
		return nil
	}
	start := p.start()
	var ref Expr
	p.try(func() {
		recv := &RefReceiver{Type: p.parseSimpleType()}
		for p.at(lexer.TokenQuestion) && p.adjacent() {
			p.advance()
			recv.QuestionMarks++
		}
		hasArgs := false
		for _, piece := range recv.Type.Pieces {
			hasArgs = hasArgs || len(piece.Args) > 0
		}
		if !p.at(lexer.TokenColonColon) || (!hasArgs && recv.QuestionMarks == 0) {
			p.failf("not a type receiver")
		}
		recv = finish(p, recv, start)
		p.advance()
		ref = p.finishCallableRef(recv, start)
	})
	return ref
}

func (p *Parser) parseControlBody() Expr {
	if p.at(lexer.TokenLBrace) {
		return p.parseBlock()
	}
	return p.parseExpression()
}

func (p *Parser) parseIf() Expr {
	start := p.start()
	p.expect(lexer.TokenIf)
	p.expect(lexer.TokenLParen)
	ifx := &IfExpr{Cond: p.parseExpression()}
	p.expect(lexer.TokenRParen)
	if !p.at(lexer.TokenElse) && !p.at(lexer.TokenSemicolon) {
		ifx.Then = p.parseControlBody()
	}
	if p.at(lexer.TokenSemicolon) && p.peek(1).Type == lexer.TokenElse {
		p.advance()
	}
	if p.at(lexer.TokenElse) {
		p.advance()
		ifx.Else = p.parseControlBody()
	}
	return finish(p, ifx, start)
}

func (p *Parser) parseWhen() Expr {
	start := p.start()
	p.expect(lexer.TokenWhen)
	w := &WhenExpr{}
	if p.at(lexer.TokenLParen) {
		p.advance()
		if p.at(lexer.TokenVal) || p.at(lexer.TokenVar) {
			w.SubjectDecl = p.parseProperty(nil, p.start(), false)
		} else {
			w.Subject = p.parseExpression()
		}
		p.expect(lexer.TokenRParen)
	}
	p.expect(lexer.TokenLBrace)
	for {
		p.skipSemis()
		if p.at(lexer.TokenRBrace) {
			break
		}
		estart := p.start()
		entry := &WhenEntry{}
		if p.at(lexer.TokenElse) {
			p.advance()
		} else {
			for {
				entry.Conds = append(entry.Conds, p.parseWhenCond())
				if !p.at(lexer.TokenComma) {
					break
				}
				p.advance()
				if p.at(lexer.TokenArrow) {
					break
				}
			}
		}
		p.expect(lexer.TokenArrow)
		entry.Body = p.parseControlBody()
		w.Entries = append(w.Entries, finish(p, entry, estart))
	}
	p.expect(lexer.TokenRBrace)
	return finish(p, w, start)
}

func (p *Parser) parseWhenCond() *WhenCond {
	start := p.start()
	c := &WhenCond{}
	switch p.cur().Type {
	case lexer.TokenIn, lexer.TokenNotIn:
		c.Kind = CondIn
		c.Not = p.advance().Type == lexer.TokenNotIn
		c.Expr = p.parseExpression()
	case lexer.TokenIs, lexer.TokenNotIs:
		c.Kind = CondIs
		c.Not = p.advance().Type == lexer.TokenNotIs
		c.Type = p.parseType()
	default:
		c.Expr = p.parseExpression()
	}
	return finish(p, c, start)
}

func (p *Parser) parseTry() Expr {
	start := p.start()
	p.expect(lexer.TokenTry)
	t := &TryExpr{Block: p.parseBlock()}
	for p.at(lexer.TokenCatch) {
		cstart := p.start()
		p.advance()
		p.expect(lexer.TokenLParen)
		c := &CatchClause{}
		for p.at(lexer.TokenAt) {
			c.Annotations = append(c.Annotations, p.parseAnnotationSet())
		}
		c.Name = p.expectIdent()
		p.expect(lexer.TokenColon)
		c.Type = p.parseSimpleType()
		p.expect(lexer.TokenRParen)
		c.Block = p.parseBlock()
		t.Catches = append(t.Catches, finish(p, c, cstart))
	}
	if p.at(lexer.TokenFinally) {
		p.advance()
		t.Finally = p.parseBlock()
	}
	if len(t.Catches) == 0 && t.Finally == nil {
		p.failf("expected catch or finally")
	}
	return finish(p, t, start)
}

func (p *Parser) parseFor() Expr {
	start := p.start()
	p.expect(lexer.TokenFor)
	p.expect(lexer.TokenLParen)
	f := &ForExpr{}
	for p.at(lexer.TokenAt) {
		f.Annotations = append(f.Annotations, p.parseAnnotationSet())
	}
	if p.at(lexer.TokenLParen) {
		f.Destructured = true
		f.Vars = p.parseDestructuring()
	} else {
		f.Vars = []*PropertyVar{p.parsePropertyVar()}
	}
	p.expect(lexer.TokenIn)
	f.Iterable = p.parseExpression()
	p.expect(lexer.TokenRParen)
	f.Body = p.parseControlBody()
	return finish(p, f, start)
}

func (p *Parser) parseLambda() *LambdaExpr {
	start := p.start()
	p.expect(lexer.TokenLBrace)
	lam := &LambdaExpr{}
	p.try(func() {
		var params []*LambdaParam
		for !p.at(lexer.TokenArrow) {
			pstart := p.start()
			lp := &LambdaParam{}
			if p.at(lexer.TokenLParen) {
				lp.Destructured = true
				lp.Vars = p.parseDestructuring()
				if p.at(lexer.TokenColon) {
					p.advance()
					lp.DestructType = p.parseType()
				}
			} else {
				lp.Vars = []*PropertyVar{p.parsePropertyVar()}
			}
			params = append(params, finish(p, lp, pstart))
			if !p.at(lexer.TokenComma) {
				break
			}
			p.advance()
		}
		p.expect(lexer.TokenArrow)
		lam.Params = params
		lam.HasArrow = true
	})
	bstart := p.start()
	body := &Block{Stmts: p.parseStatements()}
	lam.Body = finish(p, body, bstart)
	p.expect(lexer.TokenRBrace)
	return finish(p, lam, start)
}

func (p *Parser) parseBlock() *Block {
	start := p.start()
	p.expect(lexer.TokenLBrace)
	b := &Block{Stmts: p.parseStatements()}
	p.expect(lexer.TokenRBrace)
	return finish(p, b, start)
}

func (p *Parser) parseStatements() []Node {
	var stmts []Node
	for {
		p.skipSemis()
		if p.at(lexer.TokenRBrace) || p.at(lexer.TokenEOF) {
			return stmts
		}
		stmts = append(stmts, p.parseStatement())
		p.endStatement()
	}
}

func (p *Parser) parseStatement() Node {
	start := p.start()
	saved := p.pos
	mods := p.parseModifiers()
	switch {
	case p.at(lexer.TokenClass), p.at(lexer.TokenInterface), p.at(lexer.TokenTypeAlias),
		p.at(lexer.TokenVal), p.at(lexer.TokenVar):
		return p.parseDeclarationAfter(mods, start, false)
	case p.at(lexer.TokenFun) && p.peek(1).Type != lexer.TokenLParen:
		return p.parseDeclarationAfter(mods, start, false)
	case p.at(lexer.TokenObject) && p.peek(1).Type == lexer.TokenIdentifier:
		return p.parseDeclarationAfter(mods, start, false)
	}
	p.pos = saved
	return p.parseExpression()
}

func (p *Parser) parseStringTemplate() Expr {
	start := p.start()
	tok := p.advance()
	mode := lexer.TemplateString
	if tok.Type == lexer.TokenRawString {
		mode = lexer.TemplateRaw
	}
	parts, err := lexer.SplitTemplate(p.src, lexer.StringContent(tok), mode)
	if err != nil {
		p.failf("%v", err)
	}
	tmpl := &StringTemplateExpr{Raw: mode == lexer.TemplateRaw}
	for _, part := range parts {
		entry := &TemplateEntry{Kind: part.Kind, Text: part.Text, Value: part.Value}
		entry.Span = part.Span
		switch part.Kind {
		case lexer.PartShortRef:
			name := &NameExpr{Name: part.Text}
			name.Span = position.Span{Start: part.Span.Start + 1, End: part.Span.End}
			entry.Expr = name
		case lexer.PartLongRef:
			entry.Expr = p.sub(part.Inner)
		}
		tmpl.Entries = append(tmpl.Entries, entry)
	}
	return finish(p, tmpl, start)
}

func (p *Parser) parseQuotation() Expr {
	start := p.start()
	tok := p.advance()
	parts, err := lexer.SplitTemplate(p.src, tok.Quote.Content, lexer.TemplateQuotation)
	if err != nil {
		p.failf("%v", err)
	}
	q := &QuotationExpr{Tag: tok.Quote.Tag, Preserve: tok.Quote.Preserve, Content: tok.Quote.Content}
	for _, part := range parts {
		entry := &QuotationEntry{Text: part.Text, Value: part.Value}
		entry.Span = part.Span
		switch part.Kind {
		case lexer.PartText:
			entry.Kind = EntryLiteral
		case lexer.PartEscape, lexer.PartUnicodeEscape:
			entry.Kind = EntryEscape
		case lexer.PartShortRef:
			entry.Kind = EntryShortInterpolation
			name := &NameExpr{Name: part.Text}
			name.Span = position.Span{Start: part.Span.Start + 1, End: part.Span.End}
			entry.Expr = name
		case lexer.PartLongRef:
			entry.Kind = EntryLongInterpolation
			entry.Text = part.Text
			entry.Expr = p.sub(part.Inner)
		}
		q.Entries = append(q.Entries, entry)
	}
	return finish(p, q, start)
}
