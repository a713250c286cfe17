package preprocess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/quasi/internal/config"
	"github.com/orizon-lang/quasi/internal/diagnostic"
	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/hidden"
	"github.com/orizon-lang/quasi/internal/macro"
	_ "github.com/orizon-lang/quasi/internal/macro/builtin"
	"github.com/orizon-lang/quasi/internal/parser"
)

const manifest = "classes:\n  - name: lib.Double\n    provider: double\n  - name: lib.Trace\n    provider: trace\n"

func classpath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib"+macro.ManifestSuffix), []byte(manifest), 0o644))
	return dir
}

func parse(t *testing.T, name, src string) *parser.File {
	t.Helper()
	f, err := parser.ParseFile(name, src)
	require.NoError(t, err)
	return f
}

type countingLoader struct {
	macro.Loader
	loads int
}

func (l *countingLoader) Load(name string) (*macro.Class, error) {
	l.loads++
	return l.Loader.Load(name)
}

func TestMacroDoublesSeededLiteral(t *testing.T) {
	engine := diagnostic.NewEngine(diagnostic.DefaultConfig())
	inv := macro.NewInvoker(macro.NewClasspathLoader([]string{classpath(t)}), macro.WithConstructorProbing(true))
	p := New(inv, WithSink(engine))

	f := parse(t, "a.kt", "import lib.Double\n\n@macro:Double(2)\nfun f() = 2 + 3\n")
	r, err := p.Process(context.Background(), f)
	require.NoError(t, err)
	require.Empty(t, engine.Diagnostics())

	require.Len(t, r.Overlay.Constructs(), 1)
	c := r.Overlay.Constructs()[0]
	assert.Equal(t, hidden.HiddenBuilt, c.State())
	assert.Equal(t, "lib.Double", c.Class)

	h, ok := r.Overlay.HiddenOf(f.Decls[0])
	require.True(t, ok)
	fn, ok := h.(*parser.FunDecl)
	require.True(t, ok, "%T", h)
	assert.Empty(t, parser.Annotations(fn.Mods))
	sum := fn.ExprBody.(*parser.BinaryExpr)
	assert.Equal(t, "4", sum.Left.(*parser.ConstExpr).Value)
	assert.Equal(t, "3", sum.Right.(*parser.ConstExpr).Value)
	assert.Equal(t, parser.Node(f.Decls[0]), r.Overlay.SourceOf(sum))
}

func TestAmbiguousAnnotationLoadsNothing(t *testing.T) {
	engine := diagnostic.NewEngine(diagnostic.DefaultConfig())
	loader := &countingLoader{Loader: macro.NewClasspathLoader([]string{classpath(t)})}
	p := New(macro.NewInvoker(loader), WithSink(engine), WithMacroAnnotations("Double"))

	f := parse(t, "a.kt", "import a.Double\nimport b.Double\n\n@Double(2)\nfun f() = 2\n")
	r, err := p.Process(context.Background(), f)
	require.NoError(t, err)

	assert.Zero(t, loader.loads)
	ds := engine.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, diagnostic.CodeAmbiguousResolution, ds[0].Code)
	assert.Equal(t, 4, ds[0].Start.Line)
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, ds[0], *r.Diagnostics[0])

	_, ok := r.Overlay.HiddenOf(f.Decls[0])
	assert.False(t, ok)
	assert.Equal(t, hidden.Uninitialized, r.Overlay.Constructs()[0].State())
}

func TestFailuresDoNotStopTheFile(t *testing.T) {
	engine := diagnostic.NewEngine(diagnostic.DefaultConfig())
	inv := macro.NewInvoker(macro.NewClasspathLoader([]string{classpath(t)}))
	p := New(inv, WithSink(engine), WithMacroAnnotations("Missing", "Trace"))

	src := "import lib.Trace\n\n" +
		"val bad = expr`1 +`\n" +
		"val good = expr`2 * 3`\n\n" +
		"@Missing\nfun a() = 1\n\n" +
		"@Trace\nfun b() = 2\n"
	f := parse(t, "a.kt", src)
	r, err := p.Process(context.Background(), f)
	require.NoError(t, err)

	var codes []diagnostic.Code
	for _, d := range engine.Diagnostics() {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []diagnostic.Code{diagnostic.CodeQuotationInit, diagnostic.CodeClassNotFound}, codes)

	states := map[hidden.Kind][]hidden.State{}
	for _, c := range r.Overlay.Constructs() {
		states[c.Kind] = append(states[c.Kind], c.State())
	}
	assert.Equal(t, []hidden.State{hidden.Uninitialized, hidden.HiddenBuilt}, states[hidden.KindQuotation])
	assert.Equal(t, []hidden.State{hidden.Uninitialized, hidden.HiddenBuilt}, states[hidden.KindMacro])
}

func TestStrictModeRejectsProbingProviders(t *testing.T) {
	engine := diagnostic.NewEngine(diagnostic.DefaultConfig())
	inv := macro.NewInvoker(macro.NewClasspathLoader([]string{classpath(t)}))
	p := New(inv, WithSink(engine))

	_, err := p.Process(context.Background(), parse(t, "a.kt", "@macro:lib.Double\nfun f() = 2\n"))
	require.NoError(t, err)
	require.Len(t, engine.Diagnostics(), 1)
	assert.Equal(t, diagnostic.CodeMethodNotFound, engine.Diagnostics()[0].Code)
}

func TestExtensionsRunAndPropagate(t *testing.T) {
	var seen []string
	boom := errors.New("boom")
	p := New(macro.NewInvoker(macro.NewClasspathLoader(nil)),
		WithExtensions(
			ExtensionFunc(func(_ context.Context, r *Result) error {
				seen = append(seen, r.File.Name)
				return nil
			}),
			ExtensionFunc(func(_ context.Context, r *Result) error {
				if r.File.Name == "bad.kt" {
					return boom
				}
				return nil
			}),
		))

	_, err := p.Process(context.Background(), parse(t, "ok.kt", "fun f() = 1\n"))
	require.NoError(t, err)
	_, err = p.Process(context.Background(), parse(t, "bad.kt", "fun f() = 1\n"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"ok.kt", "bad.kt"}, seen)
}

func TestSessionTracksPackagesAndMacroDefinitions(t *testing.T) {
	engine := diagnostic.NewEngine(diagnostic.DefaultConfig())
	p := New(macro.NewInvoker(macro.NewClasspathLoader(nil)), WithSink(engine))
	ctx := context.Background()

	def := parse(t, "defs.kt", "package p\n\nannotation class Log {\n    fun invoke(x: Int) = x\n}\n")
	use := parse(t, "use.kt", "package p\n\n@Log\nfun g() = 1\n")
	other := parse(t, "other.kt", "package q\n\nfun h() = 1\n")
	for _, f := range []*parser.File{def, use, other, use} {
		_, err := p.Process(ctx, f)
		require.NoError(t, err)
	}

	s := p.Session()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, []string{"defs.kt", "use.kt"}, s.FilesInPackage("p"))
	assert.Equal(t, []string{"p", "q"}, s.Packages())
	assert.True(t, s.IsMacroDefinition("Log"))
	assert.True(t, s.IsMacroDefinition("p.Log"))

	require.NotEmpty(t, engine.Diagnostics())
	assert.Equal(t, diagnostic.CodeClassNotFound, engine.Diagnostics()[0].Code)
}

func TestNonTaxonomyErrorFailsTheFile(t *testing.T) {
	loader := loaderFunc(func(string) (*macro.Class, error) { return nil, errors.New("disk on fire") })
	p := New(macro.NewInvoker(loader), WithMacroAnnotations("M"))

	_, err := p.Process(context.Background(), parse(t, "a.kt", "@M\nfun f() = 1\n"))
	require.Error(t, err)
	assert.False(t, qerrors.IsRecoverable(err))
}

type loaderFunc func(string) (*macro.Class, error)

func (f loaderFunc) Load(name string) (*macro.Class, error) { return f(name) }

func TestSetup(t *testing.T) {
	cfg := config.Default()
	cfg.Macro.Classpath = []string{classpath(t)}
	cfg.Macro.ClassLoader = config.LoaderSession
	cfg.Macro.Watch = true
	cfg.Macro.ConstructorProbing = true
	cfg.Macro.Annotations = []string{"Double"}

	engine := diagnostic.NewEngine(diagnostic.DefaultConfig())
	p, err := Setup(cfg, engine, nil)
	require.NoError(t, err)
	defer p.Close()

	r, err := p.Process(context.Background(), parse(t, "a.kt", "import lib.Double\n\n@Double\nfun f() = 21\n"))
	require.NoError(t, err)
	require.Empty(t, engine.Diagnostics())
	h, ok := r.Overlay.HiddenOf(r.File.Decls[0])
	require.True(t, ok)
	assert.Equal(t, "42", h.(*parser.FunDecl).ExprBody.(*parser.ConstExpr).Value)
}
