// Package ast - tree transformation infrastructure.
// Transformers rebuild trees through Rewrite, so the input tree is never
// modified. Bundled macros and the expansion pipeline compose them.
package ast

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TransformationError represents an error that occurred during transformation.
type TransformationError struct {
	Message string
	// Variant is the qualified name of the offending node, if known.
	Variant string
}

// NewTransformationError creates a new transformation error.
func NewTransformationError(message string, n Node) *TransformationError {
	te := &TransformationError{Message: message}
	if v, ok := VariantOf(n); ok {
		te.Variant = v.Path
	}
	return te
}

// Error implements the error interface.
func (te *TransformationError) Error() string {
	if te.Variant == "" {
		return "transformation error: " + te.Message
	}
	return fmt.Sprintf("transformation error at %s: %s", te.Variant, te.Message)
}

// Transformer defines the interface for tree transformations.
type Transformer interface {
	// Transform applies the transformation to a node and returns the result.
	Transform(node Node) (Node, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(Node) (Node, error)

// Transform calls f(node).
func (f TransformerFunc) Transform(node Node) (Node, error) { return f(node) }

// EachNode returns a transformer that applies f to every node bottom-up.
func EachNode(f func(Node) (Node, error)) Transformer {
	return TransformerFunc(func(n Node) (Node, error) { return Rewrite(n, f) })
}

// TransformationPipeline represents a sequence of transformations to apply to a tree.
type TransformationPipeline struct {
	transformers []Transformer
	stopOnError  bool
}

// NewTransformationPipeline creates a new transformation pipeline.
func NewTransformationPipeline(transformers ...Transformer) *TransformationPipeline {
	return &TransformationPipeline{
		transformers: transformers,
		stopOnError:  true,
	}
}

// AddTransformer adds a transformer to the pipeline.
func (tp *TransformationPipeline) AddTransformer(transformer Transformer) {
	tp.transformers = append(tp.transformers, transformer)
}

// SetStopOnError configures whether the pipeline should stop on first error.
// When it does not, a failing step is skipped and the last error is returned
// together with the result.
func (tp *TransformationPipeline) SetStopOnError(stop bool) {
	tp.stopOnError = stop
}

// Transform applies all transformations in the pipeline to the given node.
func (tp *TransformationPipeline) Transform(node Node) (Node, error) {
	current := node

	var lastErr error

	for _, transformer := range tp.transformers {
		next, err := transformer.Transform(current)
		if err != nil {
			if tp.stopOnError {
				return nil, fmt.Errorf("transformation failed: %w", err)
			}

			lastErr = err

			continue
		}

		current = next
	}

	return current, lastErr
}

// ConstantFoldingTransformer folds operators applied to INT and BOOLEAN
// constants.
type ConstantFoldingTransformer struct{}

// Transform implements the Transformer interface for constant folding.
func (cft *ConstantFoldingTransformer) Transform(node Node) (Node, error) {
	return Rewrite(node, cft.fold)
}

func (cft *ConstantFoldingTransformer) fold(node Node) (Node, error) {
	switch n := node.(type) {
	case *Paren:
		if c, ok := n.Expr.(*Const); ok {
			return c, nil
		}
	case *UnaryOp:
		return cft.foldUnary(n)
	case *BinaryOp:
		return cft.foldBinary(n)
	}

	return node, nil
}

func (cft *ConstantFoldingTransformer) foldUnary(op *UnaryOp) (Node, error) {
	c, ok := op.Expr.(*Const)
	if !ok || !op.Prefix || op.Oper == nil {
		return op, nil
	}

	switch {
	case op.Oper.Token == TokenNot && c.Form == FormBoolean:
		return QuoteBool(c.Value != "true"), nil
	case op.Oper.Token == TokenNeg && c.Form == FormInt:
		v, err := ParseInt(c.Value)
		if err != nil {
			return op, nil
		}

		return QuoteInt(-v), nil
	}

	return op, nil
}

func (cft *ConstantFoldingTransformer) foldBinary(op *BinaryOp) (Node, error) {
	tok, ok := op.Oper.(*TokenOper)
	if !ok {
		return op, nil
	}

	left, lok := op.Lhs.(*Const)
	right, rok := op.Rhs.(*Const)

	if !lok || !rok || left.Form != right.Form {
		return op, nil
	}

	switch left.Form {
	case FormInt:
		l, err := ParseInt(left.Value)
		if err != nil {
			return op, nil
		}

		r, err := ParseInt(right.Value)
		if err != nil {
			return op, nil
		}

		switch tok.Token {
		case TokenAdd:
			return QuoteInt(l + r), nil
		case TokenSub:
			return QuoteInt(l - r), nil
		case TokenMul:
			return QuoteInt(l * r), nil
		case TokenDiv:
			if r == 0 {
				return nil, NewTransformationError("division by zero", op)
			}

			return QuoteInt(l / r), nil
		case TokenMod:
			if r == 0 {
				return nil, NewTransformationError("modulo by zero", op)
			}

			return QuoteInt(l % r), nil
		case TokenEq:
			return QuoteBool(l == r), nil
		case TokenNeq:
			return QuoteBool(l != r), nil
		case TokenLt:
			return QuoteBool(l < r), nil
		case TokenLte:
			return QuoteBool(l <= r), nil
		case TokenGt:
			return QuoteBool(l > r), nil
		case TokenGte:
			return QuoteBool(l >= r), nil
		}
	case FormBoolean:
		l, r := left.Value == "true", right.Value == "true"

		switch tok.Token {
		case TokenAnd:
			return QuoteBool(l && r), nil
		case TokenOr:
			return QuoteBool(l || r), nil
		case TokenEq:
			return QuoteBool(l == r), nil
		case TokenNeq:
			return QuoteBool(l != r), nil
		}
	}

	return op, nil
}

// ParseInt parses the source text of an INT constant, accepting
// underscores, hex and binary prefixes and an L suffix.
func ParseInt(text string) (int64, error) {
	s := strings.ReplaceAll(text, "_", "")
	s = strings.TrimSuffix(strings.TrimSuffix(s, "L"), "l")

	base := 10

	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	}

	return strconv.ParseInt(s, base, 64)
}

// DeadCodeEliminationTransformer replaces if expressions whose condition is
// a boolean constant by the taken branch, and drops statements after a jump
// in a block.
type DeadCodeEliminationTransformer struct{}

// Transform implements the Transformer interface for dead code elimination.
func (dcet *DeadCodeEliminationTransformer) Transform(node Node) (Node, error) {
	return Rewrite(node, func(n Node) (Node, error) {
		switch n := n.(type) {
		case *If:
			return dcet.eliminateDeadIf(n), nil
		case *Block:
			return dcet.eliminateDeadBlock(n), nil
		}

		return n, nil
	})
}

func (dcet *DeadCodeEliminationTransformer) eliminateDeadIf(ifx *If) Node {
	c, ok := ifx.Expr.(*Const)
	if !ok || c.Form != FormBoolean {
		return ifx
	}

	if c.Value == "true" {
		return ifx.Body
	}

	if ifx.ElseBody != nil {
		return ifx.ElseBody
	}

	return ifx
}

func (dcet *DeadCodeEliminationTransformer) eliminateDeadBlock(block *Block) Node {
	for i, stmt := range block.Stmts {
		es, ok := stmt.(*ExprStmt)
		if !ok {
			continue
		}

		switch es.Expr.(type) {
		case *Return, *Throw, *Break, *Continue:
			if i+1 < len(block.Stmts) {
				return &Block{Stmts: block.Stmts[:i+1]}
			}
		}
	}

	return block
}

// ValidatorTransformer checks that every required field of the tree is set
// and every required name is non-empty. It returns the tree unchanged.
type ValidatorTransformer struct{}

// Transform implements the Transformer interface for validation.
func (vt *ValidatorTransformer) Transform(node Node) (Node, error) {
	var firstErr error

	Inspect(node, func(n Node) bool {
		if firstErr != nil {
			return false
		}

		firstErr = vt.validate(n)

		return firstErr == nil
	})

	if firstErr != nil {
		return nil, firstErr
	}

	return node, nil
}

func (vt *ValidatorTransformer) validate(n Node) error {
	v, ok := VariantOf(n)
	if !ok {
		return NewTransformationError(fmt.Sprintf("unregistered node type %T", n), n)
	}

	rv := reflect.ValueOf(n).Elem()
	s, isStructured := n.(*Structured)

	for _, f := range v.Fields {
		fv := rv.Field(f.Index)
		if fv.Kind() == reflect.String && !utf8.ValidString(fv.String()) {
			return NewTransformationError(fmt.Sprintf("%s is not valid UTF-8", f.Name), n)
		}

		if f.Opt {
			continue
		}

		// Companion objects may be unnamed.
		if isStructured && s.Form == FormCompanionObject && f.Type.Kind() == reflect.String {
			continue
		}

		switch {
		case fv.Kind() == reflect.String && fv.String() == "":
			return NewTransformationError(fmt.Sprintf("%s must not be empty", f.Name), n)
		case (fv.Kind() == reflect.Interface || fv.Kind() == reflect.Ptr) && f.Type.Implements(nodeType) && isNil(fv):
			return NewTransformationError(fmt.Sprintf("%s is required", f.Name), n)
		}
	}

	return nil
}
