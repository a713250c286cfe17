// Package preprocess runs the quotation and macro passes over parsed files.
//
// For every file the preprocessor registers the file with its session,
// builds the hidden element of each quotation, runs the macro of each
// macro-annotated declaration and finally hands the file to the configured
// extensions. Failures of the error taxonomy are reported to the sink as
// diagnostics and leave their construct uninitialized; any other error
// fails the file.
package preprocess

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/orizon-lang/quasi/internal/astbridge"
	"github.com/orizon-lang/quasi/internal/diagnostic"
	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/hidden"
	"github.com/orizon-lang/quasi/internal/logging"
	"github.com/orizon-lang/quasi/internal/macro"
	"github.com/orizon-lang/quasi/internal/parser"
	"github.com/orizon-lang/quasi/internal/quotation"
	"github.com/orizon-lang/quasi/internal/store"
)

// MacroTarget is the annotation use-site target marking macro annotations.
const MacroTarget = "macro"

// Result is the outcome of preprocessing one file.
type Result struct {
	File    *parser.File
	Overlay *hidden.Overlay
	// Diagnostics holds what was reported for the file.
	Diagnostics []*diagnostic.Diagnostic
}

// Extension runs after the quotation and macro passes of a file.
type Extension interface {
	Process(ctx context.Context, r *Result) error
}

// ExtensionFunc adapts a function to Extension.
type ExtensionFunc func(ctx context.Context, r *Result) error

func (f ExtensionFunc) Process(ctx context.Context, r *Result) error { return f(ctx, r) }

// FilePreprocessor preprocesses files.
type FilePreprocessor struct {
	session     *Session
	invoker     *macro.Invoker
	sink        diagnostic.Sink
	annotations map[string]bool
	extensions  []Extension
	store       store.Store
	logger      *slog.Logger
	closers     []func() error
}

// Option configures a FilePreprocessor.
type Option func(*FilePreprocessor)

// WithSession shares a session between preprocessors.
func WithSession(s *Session) Option {
	return func(p *FilePreprocessor) { p.session = s }
}

// WithSink sets where diagnostics go.
func WithSink(s diagnostic.Sink) Option {
	return func(p *FilePreprocessor) { p.sink = s }
}

// WithMacroAnnotations makes annotations with these simple names macro
// annotations regardless of their use-site target.
func WithMacroAnnotations(names ...string) Option {
	return func(p *FilePreprocessor) {
		for _, n := range names {
			p.annotations[n] = true
		}
	}
}

// WithExtensions appends extensions.
func WithExtensions(exts ...Extension) Option {
	return func(p *FilePreprocessor) { p.extensions = append(p.extensions, exts...) }
}

// WithStore sets the expansion record store of the overlays.
func WithStore(s store.Store) Option {
	return func(p *FilePreprocessor) { p.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *FilePreprocessor) { p.logger = l }
}

// New creates a preprocessor running macros through invoker.
func New(invoker *macro.Invoker, opts ...Option) *FilePreprocessor {
	p := &FilePreprocessor{invoker: invoker, annotations: make(map[string]bool)}
	for _, opt := range opts {
		opt(p)
	}
	if p.session == nil {
		p.session = NewSession()
	}
	if p.sink == nil {
		p.sink = diagnostic.Discard
	}
	if p.store == nil {
		p.store = store.NewMemory()
	}
	p.logger = logging.Component(p.logger, "preprocess")
	return p
}

// Session returns the preprocessor's session.
func (p *FilePreprocessor) Session() *Session { return p.session }

// Store returns the expansion record store.
func (p *FilePreprocessor) Store() store.Store { return p.store }

// Close releases what Setup acquired.
func (p *FilePreprocessor) Close() error {
	var first error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	p.closers = nil
	return first
}

// Process preprocesses f.
func (p *FilePreprocessor) Process(ctx context.Context, f *parser.File) (*Result, error) {
	ctx, span := startFileSpan(ctx, f.Name)
	defer span.End()
	start := time.Now()
	defer func() { recordFile(ctx, time.Since(start)) }()

	p.session.RegisterFile(f)
	r := &Result{
		File:    f,
		Overlay: hidden.New(f, hidden.WithStore(p.store), hidden.WithLogger(p.logger)),
	}

	if err := p.quotations(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quotation pass failed")
		return nil, err
	}
	if err := p.macros(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "macro pass failed")
		return nil, err
	}
	for _, ext := range p.extensions {
		if err := ext.Process(ctx, r); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.Int("constructs", len(r.Overlay.Constructs())),
		attribute.Int("diagnostics", len(r.Diagnostics)),
	)
	p.logger.Debug("preprocessed file", "file", f.Name,
		"constructs", len(r.Overlay.Constructs()), "diagnostics", len(r.Diagnostics))
	return r, nil
}

func (p *FilePreprocessor) quotations(ctx context.Context, r *Result) error {
	for _, q := range parser.Collect[*parser.QuotationExpr](r.File) {
		c := r.Overlay.Register(hidden.KindQuotation, q, q.GetSpan())
		err := r.Overlay.BuildQuotation(c, quotation.Extract(q, r.File.Source.Content))
		if err := p.settle(ctx, r, diagnostic.SiteQuotation, c, err); err != nil {
			return err
		}
	}
	return nil
}

func (p *FilePreprocessor) macros(ctx context.Context, r *Result) error {
	var decls []parser.Decl
	parser.Inspect(r.File, func(n parser.Node) bool {
		if d, ok := n.(parser.Decl); ok {
			decls = append(decls, d)
		}
		return true
	})

	for _, d := range decls {
		ann := p.macroAnnotation(d)
		if ann == nil {
			continue
		}
		c := r.Overlay.Register(hidden.KindMacro, d, ann.GetSpan())
		c.Annotation = ann
		c.Class, _ = macro.ResolveName(ann, r.File.Imports)
		err := p.expand(ctx, r, c, d, ann)
		if err := p.settle(ctx, r, diagnostic.SiteMacro, c, err); err != nil {
			return err
		}
	}
	return nil
}

func (p *FilePreprocessor) expand(ctx context.Context, r *Result, c *hidden.Construct, d parser.Decl, ann *parser.Annotation) error {
	generic, err := astbridge.FromDecl(d)
	if err != nil {
		return err
	}
	node := macro.WithoutAnnotation(generic, ann.Names[len(ann.Names)-1])
	out, err := p.invoker.Run(ctx, ann, r.File.Imports, node)
	if err != nil {
		return err
	}
	return r.Overlay.BuildMacro(c, out)
}

// settle reports a taxonomy failure of c as a diagnostic and returns any
// other error.
func (p *FilePreprocessor) settle(ctx context.Context, r *Result, site diagnostic.Site, c *hidden.Construct, err error) error {
	kind := c.Kind.String()
	if err == nil {
		recordConstruct(ctx, kind, "ok")
		return nil
	}
	if c.Err != err {
		r.Overlay.Fail(c, err)
	}
	d, ok := diagnostic.FromError(site, err, r.File.Source, c.Anchor)
	if !ok {
		recordConstruct(ctx, kind, "fatal")
		return err
	}
	outcome, _ := qerrors.KindOf(err)
	recordConstruct(ctx, kind, string(outcome))
	r.Diagnostics = append(r.Diagnostics, d)
	p.sink.Report(d)
	return nil
}

// macroAnnotation returns the first macro annotation of d: one with the
// macro use-site target, a configured simple name or the name of a macro
// definition known to the session.
func (p *FilePreprocessor) macroAnnotation(d parser.Decl) *parser.Annotation {
	for _, set := range parser.Annotations(modifiers(d)) {
		for _, ann := range set.Annotations {
			if len(ann.Names) == 0 {
				continue
			}
			simple := ann.Names[len(ann.Names)-1]
			if set.Target == MacroTarget || p.annotations[simple] || p.session.IsMacroDefinition(ann.Name()) {
				return ann
			}
		}
	}
	return nil
}

func modifiers(d parser.Decl) []parser.Modifier {
	switch d := d.(type) {
	case *parser.ClassDecl:
		return d.Mods
	case *parser.FunDecl:
		return d.Mods
	case *parser.PropertyDecl:
		return d.Mods
	case *parser.TypeAliasDecl:
		return d.Mods
	}
	return nil
}
