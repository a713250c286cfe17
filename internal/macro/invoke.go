package macro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/consteval"
	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/logging"
	"github.com/orizon-lang/quasi/internal/parser"
)

// Invoker runs macro annotations.
type Invoker struct {
	loader  Loader
	eval    consteval.Evaluator
	probing bool
	logger  *slog.Logger
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithEvaluator sets the constant evaluator for annotation arguments.
func WithEvaluator(e consteval.Evaluator) InvokerOption {
	return func(inv *Invoker) { inv.eval = e }
}

// WithConstructorProbing enables running providers that only declare
// constructors.
func WithConstructorProbing(on bool) InvokerOption {
	return func(inv *Invoker) { inv.probing = on }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) InvokerOption {
	return func(inv *Invoker) { inv.logger = logger }
}

// NewInvoker creates an invoker loading classes through loader.
func NewInvoker(loader Loader, opts ...InvokerOption) *Invoker {
	inv := &Invoker{loader: loader, eval: consteval.Folder{}}
	for _, opt := range opts {
		opt(inv)
	}
	inv.logger = logging.Component(inv.logger, "macro")
	return inv
}

// Run resolves ann against imports, loads the class, evaluates the
// annotation arguments and runs the macro on node. Resolution happens
// before anything is loaded, so an ambiguous annotation loads nothing.
func (inv *Invoker) Run(ctx context.Context, ann *parser.Annotation, imports []*parser.ImportDirective, node ast.Node) (ast.Node, error) {
	ctx, span := startInvokeSpan(ctx, ann.Name())
	defer span.End()
	start := time.Now()

	out, class, err := inv.run(ann, imports, node)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if kind, ok := qerrors.KindOf(err); ok {
			outcome = string(kind)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		inv.logger.Debug("macro failed", "annotation", ann.Name(), "class", class, "error", err)
	} else {
		inv.logger.Debug("macro expanded", "annotation", ann.Name(), "class", class)
	}
	span.SetAttributes(attribute.String("macro.class", class), attribute.String("macro.outcome", outcome))
	recordInvocation(ctx, class, outcome, time.Since(start))
	return out, err
}

func (inv *Invoker) run(ann *parser.Annotation, imports []*parser.ImportDirective, node ast.Node) (ast.Node, string, error) {
	name, err := ResolveName(ann, imports)
	if err != nil {
		return nil, "", err
	}
	class, err := inv.loader.Load(name)
	if err != nil {
		return nil, name, err
	}
	args, err := inv.Evaluate(name, ann)
	if err != nil {
		return nil, name, err
	}
	out, err := inv.Invoke(class, args, node)
	return out, name, err
}

// Evaluate evaluates the arguments of ann. An argument that is not
// constant leaves no constructor to match and is a NoMatchingConstructor.
func (inv *Invoker) Evaluate(class string, ann *parser.Annotation) (Args, error) {
	args := Args{Class: class}
	for _, a := range ann.Args {
		v, err := inv.eval.Evaluate(a.Expr, consteval.NoConstraint)
		if err != nil {
			return Args{}, qerrors.NoMatchingConstructor(class, len(ann.Args), []error{err})
		}
		args.Values = append(args.Values, v)
		args.Names = append(args.Names, a.Name)
	}
	return args, nil
}

// Invoke runs class on node. The Expander entry point is used when the
// provider has one; otherwise constructors are probed if enabled.
func (inv *Invoker) Invoke(class *Class, args Args, node ast.Node) (ast.Node, error) {
	p := class.Provider
	switch {
	case p.Expander != nil:
		return call(class.Name, func() (ast.Node, error) { return p.Expander.Expand(node, args) })
	case len(p.Constructors) == 0:
		return nil, qerrors.MethodNotFound(class.Name, "provider has neither an expander nor constructors")
	case !inv.probing:
		return nil, qerrors.MethodNotFound(class.Name,
			"provider has no expander and constructor probing is disabled")
	}

	instance, err := Construct(class.Name, p.Constructors, args.Values)
	if err != nil {
		return nil, err
	}
	entry, err := EntryPoint(class.Name, instance)
	if err != nil {
		return nil, err
	}
	return call(class.Name, func() (ast.Node, error) { return entry(node) })
}

// Construct tries the constructors of arity len(args) in declaration order
// and returns the first instance built without error or panic.
func Construct(class string, ctors []Constructor, args []interface{}) (interface{}, error) {
	var causes []error
	for i, c := range ctors {
		if c.Arity != len(args) || c.New == nil {
			continue
		}
		v, err := construct(c, args)
		if err == nil {
			return v, nil
		}
		causes = append(causes, fmt.Errorf("constructor %d: %w", i, err))
	}
	return nil, qerrors.NoMatchingConstructor(class, len(args), causes)
}

func construct(c Constructor, args []interface{}) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.New(args)
}

// EntryPoint returns the single invoke or apply method of instance.
func EntryPoint(class string, instance interface{}) (func(ast.Node) (ast.Node, error), error) {
	inv, hasInvoke := instance.(Invokable)
	app, hasApply := instance.(Applicable)
	switch {
	case hasInvoke && hasApply:
		return nil, qerrors.MethodNotFound(class, "both invoke and apply are declared")
	case hasInvoke:
		return inv.Invoke, nil
	case hasApply:
		return app.Apply, nil
	}
	return nil, qerrors.MethodNotFound(class, "no invoke or apply method")
}

// call runs a macro entry point. Errors and panics become an
// InvocationFailure, as do a nil result and a tree missing required fields.
func call(class string, f func() (ast.Node, error)) (out ast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, qerrors.InvocationFailure(class, fmt.Errorf("panic: %v", r))
		}
	}()
	out, err = f()
	if err != nil {
		return nil, qerrors.InvocationFailure(class, err)
	}
	if out == nil {
		return nil, qerrors.InvocationFailure(class, errors.New("macro returned no node"))
	}
	if _, err := (&ast.ValidatorTransformer{}).Transform(out); err != nil {
		return nil, qerrors.InvocationFailure(class, err)
	}
	return out, nil
}
