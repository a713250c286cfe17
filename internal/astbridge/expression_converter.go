package astbridge

import (
	"unicode/utf8"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/lexer"
	p "github.com/orizon-lang/quasi/internal/parser"
)

var binaryTokens = map[lexer.TokenType]ast.BinaryToken{
	lexer.TokenMul:         ast.TokenMul,
	lexer.TokenDiv:         ast.TokenDiv,
	lexer.TokenMod:         ast.TokenMod,
	lexer.TokenPlus:        ast.TokenAdd,
	lexer.TokenMinus:       ast.TokenSub,
	lexer.TokenIn:          ast.TokenIn,
	lexer.TokenNotIn:       ast.TokenNotIn,
	lexer.TokenGt:          ast.TokenGt,
	lexer.TokenGe:          ast.TokenGte,
	lexer.TokenLt:          ast.TokenLt,
	lexer.TokenLe:          ast.TokenLte,
	lexer.TokenEq:          ast.TokenEq,
	lexer.TokenNe:          ast.TokenNeq,
	lexer.TokenIdentEq:     ast.TokenIdentEq,
	lexer.TokenIdentNe:     ast.TokenIdentNeq,
	lexer.TokenAssign:      ast.TokenAssn,
	lexer.TokenMulAssign:   ast.TokenMulAssn,
	lexer.TokenDivAssign:   ast.TokenDivAssn,
	lexer.TokenModAssign:   ast.TokenModAssn,
	lexer.TokenPlusAssign:  ast.TokenAddAssn,
	lexer.TokenMinusAssign: ast.TokenSubAssn,
	lexer.TokenOr:          ast.TokenOr,
	lexer.TokenAnd:         ast.TokenAnd,
	lexer.TokenElvis:       ast.TokenElvis,
	lexer.TokenRange:       ast.TokenRange,
}

var unaryTokens = map[lexer.TokenType]ast.UnaryToken{
	lexer.TokenMinus:     ast.TokenNeg,
	lexer.TokenPlus:      ast.TokenPos,
	lexer.TokenIncrement: ast.TokenInc,
	lexer.TokenDecrement: ast.TokenDec,
	lexer.TokenNot:       ast.TokenNot,
	lexer.TokenNotNull:   ast.TokenNullDeref,
}

var typeTokens = map[lexer.TokenType]ast.TypeToken{
	lexer.TokenAs:     ast.TokenAs,
	lexer.TokenAsSafe: ast.TokenAsSafe,
	lexer.TokenColon:  ast.TokenCol,
	lexer.TokenIs:     ast.TokenIs,
	lexer.TokenNotIs:  ast.TokenNotIs,
}

var constForms = map[p.ConstKind]ast.ConstForm{
	p.ConstBoolean: ast.FormBoolean,
	p.ConstChar:    ast.FormChar,
	p.ConstInt:     ast.FormInt,
	p.ConstFloat:   ast.FormFloat,
	p.ConstNull:    ast.FormNull,
}

func (c *Converter) exprs(es []p.Expr) []ast.Expr {
	out := make([]ast.Expr, 0, len(es))
	for _, e := range es {
		out = append(out, c.expr(e))
	}
	return out
}

func (c *Converter) expr(e p.Expr) ast.Expr {
	if e == nil || c.err != nil {
		return nil
	}
	switch e := e.(type) {
	case *p.NameExpr:
		if text, ok := c.offsets[e.Span.Start]; ok {
			ext := &ast.ExternalName{Name: text}
			ext.SetTag(e.Span.Start)
			return ext
		}
		return &ast.Name{Name: e.Name}
	case *p.ConstExpr:
		return &ast.Const{Value: e.Value, Form: constForms[e.Kind]}
	case *p.BinaryExpr:
		return c.binary(e)
	case *p.DotExpr:
		tok := ast.TokenDot
		if e.Safe {
			tok = ast.TokenDotSafe
		}
		return &ast.BinaryOp{Lhs: c.expr(e.Receiver), Oper: &ast.TokenOper{Token: tok}, Rhs: c.expr(e.Selector)}
	case *p.UnaryExpr:
		tok, ok := unaryTokens[e.Op]
		if !ok {
			c.fail(e, "unsupported unary operator "+e.Op.String())
			return nil
		}
		return &ast.UnaryOp{Expr: c.expr(e.Operand), Oper: &ast.UnaryOper{Token: tok}, Prefix: e.Prefix}
	case *p.TypeOpExpr:
		tok, ok := typeTokens[e.Op]
		if !ok {
			c.fail(e, "unsupported type operator "+e.Op.String())
			return nil
		}
		return &ast.TypeOp{Lhs: c.expr(e.Left), Oper: &ast.TypeOper{Token: tok}, Rhs: c.typ(e.Type)}
	case *p.CallableRefExpr:
		if e.Class {
			return &ast.ClassRef{Recv: c.recv(e.Receiver)}
		}
		return &ast.CallableRef{Recv: c.recv(e.Receiver), Name: e.Name}
	case *p.ParenExpr:
		return &ast.Paren{Expr: c.expr(e.Inner)}
	case *p.StringTemplateExpr:
		return c.template(e)
	case *p.LambdaExpr:
		return c.lambda(e)
	case *p.Block:
		// control-flow body
		return &ast.Brace{Params: []*ast.BraceParam{}, Block: c.block(e)}
	case *p.ThisExpr:
		return &ast.This{Label: e.Label}
	case *p.SuperExpr:
		return &ast.Super{TypeArg: c.typ(e.TypeArg), Label: e.Label}
	case *p.IfExpr:
		return &ast.If{Expr: c.expr(e.Cond), Body: c.expr(e.Then), ElseBody: c.expr(e.Else)}
	case *p.TryExpr:
		return c.try(e)
	case *p.ForExpr:
		return &ast.For{
			Anns:   c.annotationSets(e.Annotations),
			Vars:   c.propertyVars(e.Vars),
			InExpr: c.expr(e.Iterable),
			Body:   c.expr(e.Body),
		}
	case *p.WhileExpr:
		return &ast.While{Expr: c.expr(e.Cond), Body: c.expr(e.Body), DoWhile: e.DoWhile}
	case *p.WhenExpr:
		return c.when(e)
	case *p.ObjectLiteralExpr:
		return &ast.Object{Parents: c.parents(e.Supers), Members: c.decls(e.Members)}
	case *p.ThrowExpr:
		return &ast.Throw{Expr: c.expr(e.Value)}
	case *p.ReturnExpr:
		return &ast.Return{Label: e.Label, Expr: c.expr(e.Value)}
	case *p.ContinueExpr:
		return &ast.Continue{Label: e.Label}
	case *p.BreakExpr:
		return &ast.Break{Label: e.Label}
	case *p.CollectionLiteralExpr:
		return &ast.CollLit{Exprs: c.exprs(e.Elements)}
	case *p.LabeledExpr:
		return &ast.Labeled{Label: e.Label, Expr: c.expr(e.Body)}
	case *p.AnnotatedExpr:
		return &ast.Annotated{Anns: c.annotationSets(e.Annotations), Expr: c.expr(e.Body)}
	case *p.CallExpr:
		return &ast.Call{
			Expr:     c.expr(e.Callee),
			TypeArgs: c.types(e.TypeArgs),
			Args:     c.valueArgs(e.Args),
			Lambda:   c.trailingLambda(e.Lambda),
		}
	case *p.IndexExpr:
		return &ast.ArrayAccess{Expr: c.expr(e.Receiver), Indices: c.exprs(e.Indices)}
	case *p.AnonFuncExpr:
		fn := &ast.Func{}
		c.fillFunc(fn, e.Func)
		return &ast.AnonFunc{Func: fn}
	case *p.PropertyExpr:
		return &ast.PropertyExpr{Decl: c.property(e.Decl)}
	case *p.QuotationExpr:
		c.fail(e, "nested quotation")
		return nil
	}
	c.fail(e, "unsupported expression")
	return nil
}

func (c *Converter) binary(e *p.BinaryExpr) ast.Expr {
	var oper ast.BinaryOper
	if e.Infix != "" {
		oper = &ast.InfixOper{Str: e.Infix}
	} else {
		tok, ok := binaryTokens[e.Op]
		if !ok {
			c.fail(e, "unsupported binary operator "+e.Op.String())
			return nil
		}
		oper = &ast.TokenOper{Token: tok}
	}
	return &ast.BinaryOp{Lhs: c.expr(e.Left), Oper: oper, Rhs: c.expr(e.Right)}
}

func (c *Converter) recv(r *p.RefReceiver) ast.Recv {
	switch {
	case r == nil:
		return nil
	case r.Expr != nil:
		return &ast.ExprRecv{Expr: c.expr(r.Expr)}
	default:
		return &ast.TypeRecv{Type: c.simpleType(r.Type), QuestionMarks: r.QuestionMarks}
	}
}

func (c *Converter) template(e *p.StringTemplateExpr) *ast.StringTmpl {
	out := &ast.StringTmpl{Elems: make([]ast.TmplElem, 0, len(e.Entries)), Raw: e.Raw}
	for _, entry := range e.Entries {
		switch entry.Kind {
		case lexer.PartText:
			if !utf8.ValidString(entry.Text) {
				c.fail(e, "string literal is not valid UTF-8")
			}
			out.Elems = append(out.Elems, &ast.RegularElem{Str: entry.Text})
		case lexer.PartEscape:
			out.Elems = append(out.Elems, &ast.RegularEscElem{Char: entry.Value})
		case lexer.PartUnicodeEscape:
			out.Elems = append(out.Elems, &ast.UnicodeEscElem{Digits: entry.Text})
		case lexer.PartShortRef:
			out.Elems = append(out.Elems, &ast.ShortTmplElem{Str: entry.Text})
		case lexer.PartLongRef:
			out.Elems = append(out.Elems, &ast.LongTmplElem{Expr: c.expr(entry.Expr)})
		}
	}
	return out
}

func (c *Converter) lambda(e *p.LambdaExpr) *ast.Brace {
	params := make([]*ast.BraceParam, 0, len(e.Params))
	for _, prm := range e.Params {
		params = append(params, &ast.BraceParam{Vars: c.propertyVars(prm.Vars), DestructType: c.typ(prm.DestructType)})
	}
	return &ast.Brace{Params: params, Block: c.block(e.Body)}
}

func (c *Converter) trailingLambda(l *p.TrailingLambda) *ast.TrailLambda {
	if l == nil {
		return nil
	}
	return &ast.TrailLambda{Anns: c.annotationSets(l.Annotations), Label: l.Label, Func: c.lambda(l.Func)}
}

func (c *Converter) try(e *p.TryExpr) *ast.Try {
	out := &ast.Try{Block: c.block(e.Block), Catches: make([]*ast.Catch, 0, len(e.Catches))}
	for _, cc := range e.Catches {
		out.Catches = append(out.Catches, &ast.Catch{
			Anns:    c.annotationSets(cc.Annotations),
			VarName: cc.Name,
			VarType: c.simpleType(cc.Type),
			Block:   c.block(cc.Block),
		})
	}
	if e.Finally != nil {
		out.FinallyBlock = c.block(e.Finally)
	}
	return out
}

func (c *Converter) when(e *p.WhenExpr) *ast.When {
	out := &ast.When{Entries: make([]*ast.WhenEntry, 0, len(e.Entries))}
	switch {
	case e.SubjectDecl != nil:
		out.Expr = &ast.PropertyExpr{Decl: c.property(e.SubjectDecl)}
	case e.Subject != nil:
		out.Expr = c.expr(e.Subject)
	}
	for _, entry := range e.Entries {
		conds := make([]ast.WhenCond, 0, len(entry.Conds))
		for _, cond := range entry.Conds {
			switch cond.Kind {
			case p.CondExpr:
				conds = append(conds, &ast.ExprCond{Expr: c.expr(cond.Expr)})
			case p.CondIn:
				conds = append(conds, &ast.InCond{Expr: c.expr(cond.Expr), Not: cond.Not})
			case p.CondIs:
				conds = append(conds, &ast.IsCond{Type: c.typ(cond.Type), Not: cond.Not})
			}
		}
		out.Entries = append(out.Entries, &ast.WhenEntry{Conds: conds, Body: c.expr(entry.Body)})
	}
	return out
}

func (c *Converter) valueArgs(args []*p.ValueArg) []*ast.ValueArg {
	out := make([]*ast.ValueArg, 0, len(args))
	for _, a := range args {
		out = append(out, &ast.ValueArg{Name: a.Name, Asterisk: a.Spread, Expr: c.expr(a.Expr)})
	}
	return out
}
