package preprocess

import (
	"fmt"
	"log/slog"

	"github.com/orizon-lang/quasi/internal/config"
	"github.com/orizon-lang/quasi/internal/diagnostic"
	"github.com/orizon-lang/quasi/internal/macro"
	"github.com/orizon-lang/quasi/internal/store"
)

// Setup builds a preprocessor from cfg: the classpath loader in its
// configured mode, the invoker and the expansion store. Close releases
// them.
func Setup(cfg *config.Config, sink diagnostic.Sink, logger *slog.Logger, opts ...Option) (*FilePreprocessor, error) {
	loaderOpts := []macro.LoaderOption{macro.WithLoaderLogger(logger)}
	if cfg.Macro.ClassLoader == config.LoaderSession {
		loaderOpts = append(loaderOpts, macro.WithSessionCache())
	}
	loader := macro.NewClasspathLoader(cfg.Macro.Classpath, loaderOpts...)
	var closers []func() error
	if cfg.Macro.Watch {
		if err := loader.Watch(); err != nil {
			return nil, fmt.Errorf("watch classpath: %w", err)
		}
		closers = append(closers, loader.Close)
	}

	s, err := store.Open(cfg.Store, logger)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, err
	}
	closers = append(closers, s.Close)

	invoker := macro.NewInvoker(loader,
		macro.WithConstructorProbing(cfg.Macro.ConstructorProbing),
		macro.WithLogger(logger),
	)
	base := []Option{
		WithSink(sink),
		WithStore(s),
		WithLogger(logger),
		WithMacroAnnotations(cfg.Macro.Annotations...),
	}
	p := New(invoker, append(base, opts...)...)
	p.closers = closers
	return p, nil
}
