package ast

import (
	"errors"
	"testing"
)

// TestTransformationPipeline tests the transformation pipeline functionality.
func TestTransformationPipeline(t *testing.T) {
	expr := add(QuoteInt(1), QuoteInt(2))

	pipeline := NewTransformationPipeline()

	result, err := pipeline.Transform(expr)
	if err != nil {
		t.Errorf("Empty pipeline failed: %v", err)
	}

	if result != expr {
		t.Error("Empty pipeline should return original node")
	}

	pipeline.AddTransformer(&ConstantFoldingTransformer{})
	pipeline.AddTransformer(&ValidatorTransformer{})

	result, err = pipeline.Transform(expr)
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if c, ok := result.(*Const); !ok || c.Value != "3" {
		t.Errorf("Expected folded constant 3, got %s", Serialize(result))
	}
}

// TestConstantFolding tests folding of nested integer and boolean operators.
func TestConstantFolding(t *testing.T) {
	// (2 * 3) == 6 && !false
	expr := &BinaryOp{
		Lhs: &BinaryOp{
			Lhs:  &Paren{Expr: &BinaryOp{Lhs: QuoteInt(2), Oper: &TokenOper{Token: TokenMul}, Rhs: QuoteInt(3)}},
			Oper: &TokenOper{Token: TokenEq},
			Rhs:  QuoteInt(6),
		},
		Oper: &TokenOper{Token: TokenAnd},
		Rhs:  &UnaryOp{Expr: QuoteBool(false), Oper: &UnaryOper{Token: TokenNot}, Prefix: true},
	}

	result, err := (&ConstantFoldingTransformer{}).Transform(expr)
	if err != nil {
		t.Fatalf("Constant folding failed: %v", err)
	}

	if !Equal(result, QuoteBool(true)) {
		t.Errorf("Expected true, got %s", Serialize(result))
	}

	// Names are left alone.
	partial := add(QuoteName("x"), add(QuoteInt(1), QuoteInt(1)))

	result, err = (&ConstantFoldingTransformer{}).Transform(partial)
	if err != nil {
		t.Fatalf("Constant folding failed: %v", err)
	}

	if !Equal(result, add(QuoteName("x"), QuoteInt(2))) {
		t.Errorf("Expected x + 2, got %s", Serialize(result))
	}
}

// TestConstantFoldingDivisionByZero tests error reporting from folding.
func TestConstantFoldingDivisionByZero(t *testing.T) {
	expr := &BinaryOp{Lhs: QuoteInt(1), Oper: &TokenOper{Token: TokenDiv}, Rhs: QuoteInt(0)}

	_, err := (&ConstantFoldingTransformer{}).Transform(expr)

	var te *TransformationError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransformationError, got %v", err)
	}

	if te.Variant != "Expr.BinaryOp" {
		t.Errorf("Expected variant Expr.BinaryOp, got %q", te.Variant)
	}
}

// TestDeadCodeElimination tests constant-condition and jump elimination.
func TestDeadCodeElimination(t *testing.T) {
	ifx := &If{Expr: QuoteBool(false), Body: QuoteName("a"), ElseBody: QuoteName("b")}

	result, err := (&DeadCodeEliminationTransformer{}).Transform(ifx)
	if err != nil {
		t.Fatalf("Dead code elimination failed: %v", err)
	}

	if !Equal(result, QuoteName("b")) {
		t.Errorf("Expected else branch, got %s", Serialize(result))
	}

	block := &Block{Stmts: []Stmt{
		&ExprStmt{Expr: &Return{Expr: QuoteInt(1)}},
		&ExprStmt{Expr: QuoteName("unreachable")},
	}}

	result, err = (&DeadCodeEliminationTransformer{}).Transform(block)
	if err != nil {
		t.Fatalf("Dead code elimination failed: %v", err)
	}

	if got := len(result.(*Block).Stmts); got != 1 {
		t.Errorf("Expected 1 statement, got %d", got)
	}
}

// TestValidatorTransformer tests detection of missing required fields.
func TestValidatorTransformer(t *testing.T) {
	valid := &Func{Name: "f", Body: &ExprBody{Expr: QuoteInt(1)}}
	if _, err := (&ValidatorTransformer{}).Transform(valid); err != nil {
		t.Errorf("Valid function rejected: %v", err)
	}

	missing := &Func{Name: "f", Body: &ExprBody{}}
	if _, err := (&ValidatorTransformer{}).Transform(missing); err == nil {
		t.Error("Expected error for body without expression")
	}

	unnamed := &Property{Vars: []*PropertyVar{{Name: ""}}}
	if _, err := (&ValidatorTransformer{}).Transform(unnamed); err == nil {
		t.Error("Expected error for empty variable name")
	}

	if _, err := (&ValidatorTransformer{}).Transform(&Structured{Form: FormCompanionObject}); err != nil {
		t.Errorf("Unnamed companion object rejected: %v", err)
	}

	if _, err := (&ValidatorTransformer{}).Transform(&Structured{Form: FormClass}); err == nil {
		t.Error("Expected error for unnamed class")
	}

	badText := &StringTmpl{Elems: []TmplElem{&RegularElem{Str: "bad\xffutf"}}}
	if _, err := (&ValidatorTransformer{}).Transform(badText); err == nil {
		t.Error("Expected error for invalid UTF-8 text")
	}
}

// TestPipelineContinueOnError tests the non-stopping pipeline mode.
func TestPipelineContinueOnError(t *testing.T) {
	failing := TransformerFunc(func(Node) (Node, error) { return nil, errors.New("boom") })
	rename := EachNode(func(n Node) (Node, error) {
		if name, ok := n.(*Name); ok {
			return QuoteName(name.Name + "2"), nil
		}
		return n, nil
	})

	pipeline := NewTransformationPipeline(failing, rename)
	pipeline.SetStopOnError(false)

	result, err := pipeline.Transform(QuoteName("x"))
	if err == nil {
		t.Error("Expected the failing step's error")
	}

	if !Equal(result, QuoteName("x2")) {
		t.Errorf("Expected x2, got %s", Serialize(result))
	}
}
