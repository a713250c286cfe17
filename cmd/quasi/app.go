package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/quasi/internal/cli"
	"github.com/orizon-lang/quasi/internal/config"
	"github.com/orizon-lang/quasi/internal/diagnostic"
	"github.com/orizon-lang/quasi/internal/logging"
	"github.com/orizon-lang/quasi/internal/parser"
	"github.com/orizon-lang/quasi/internal/preprocess"
	"github.com/orizon-lang/quasi/internal/telemetry"
)

// app is the state shared by the commands of one run.
type app struct {
	stdout, stderr io.Writer

	configPath  string
	classpath   []string
	logLevel    string
	metricsFile string
	trace       bool

	cfg      *config.Config
	logger   *slog.Logger
	shutdown telemetry.Shutdown
}

// init loads the configuration, applies the global flags and installs
// logging and telemetry.
func (a *app) init(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if len(a.classpath) > 0 {
		cfg.Macro.Classpath = a.classpath
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.metricsFile != "" {
		cfg.Telemetry.MetricsFile = a.metricsFile
	}
	if a.trace {
		cfg.Telemetry.Trace = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{Level: level, JSON: cfg.Logging.Format == "json", Output: a.stderr})

	a.shutdown, err = telemetry.Init(ctx, telemetry.Config{
		ServiceVersion: cli.Version,
		Metrics:        cfg.Telemetry.Metrics,
		MetricsFile:    cfg.Telemetry.MetricsFile,
		Trace:          cfg.Telemetry.Trace,
		TraceOutput:    a.stderr,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("configured", "classpath", cfg.Macro.Classpath, "class_loader", cfg.Macro.ClassLoader,
		"store", cfg.Store.Kind)
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	err := a.shutdown(ctx)
	a.shutdown = nil
	return err
}

// preprocessor builds a preprocessor reporting to sink.
func (a *app) preprocessor(sink diagnostic.Sink) (*preprocess.FilePreprocessor, error) {
	return preprocess.Setup(a.cfg, sink, a.logger)
}

// source is a file read and parsed by loadFiles.
type source struct {
	path string
	text string
	file *parser.File
}

// loadFiles reads and parses paths concurrently. The result keeps the
// order of paths.
func loadFiles(ctx context.Context, paths []string) ([]*source, error) {
	out := make([]*source, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			f, err := parser.ParseFile(path, string(data))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out[i] = &source{path: path, text: string(data), file: f}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
