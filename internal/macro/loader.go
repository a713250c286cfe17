package macro

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/logging"
)

const (
	// ManifestSuffix marks manifest files inside classpath directories.
	ManifestSuffix = ".macros.yaml"

	// PluginSymbol is the function a plugin exports to register providers.
	// Every key it registers declares a class of the same name.
	PluginSymbol = "RegisterMacros"

	maxManifestSize = 1024 * 1024
)

// Manifest declares the macro classes of a classpath entry.
type Manifest struct {
	// API constrains the engine's APIVersion.
	API     string          `yaml:"api"`
	Classes []ManifestClass `yaml:"classes" validate:"required,min=1,dive"`
}

// ManifestClass binds a class name to a provider key.
type ManifestClass struct {
	Name     string `yaml:"name" validate:"required"`
	Provider string `yaml:"provider" validate:"required"`
	Version  string `yaml:"version" validate:"omitempty,semver"`
}

var manifestValidate = validator.New(validator.WithRequiredStructEnabled())

// ParseManifest decodes and validates a manifest and checks its api
// constraint against APIVersion.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) > maxManifestSize {
		return nil, fmt.Errorf("manifest exceeds %d bytes", maxManifestSize)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := manifestValidate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if m.API != "" {
		c, err := semver.NewConstraint(m.API)
		if err != nil {
			return nil, fmt.Errorf("manifest api %q: %w", m.API, err)
		}
		if !c.Check(semver.MustParse(APIVersion)) {
			return nil, fmt.Errorf("manifest requires api %s, engine provides %s", m.API, APIVersion)
		}
	}
	return &m, nil
}

// Loader finds macro classes by name.
type Loader interface {
	Load(name string) (*Class, error)
}

// declaration is a class declared by a classpath entry.
type declaration struct {
	provider *Provider
	key      string
	version  *semver.Version
}

// entryIndex is the scanned content of one classpath entry.
type entryIndex struct {
	path     string
	classes  map[string]declaration
	problems []string
}

// ClasspathLoader loads classes from an ordered classpath. The first entry
// declaring a class wins. In per-invocation mode every Load scans the
// classpath afresh; in session mode scanned entries are cached until
// Invalidate is called, which a watcher does on classpath changes.
type ClasspathLoader struct {
	classpath []string
	registry  *Registry
	logger    *slog.Logger
	session   bool

	mu         sync.Mutex
	cache      []*entryIndex
	generation int

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// LoaderOption configures a ClasspathLoader.
type LoaderOption func(*ClasspathLoader)

// WithRegistry sets the registry manifests bind provider keys in. The
// default is Providers().
func WithRegistry(r *Registry) LoaderOption {
	return func(l *ClasspathLoader) { l.registry = r }
}

// WithSessionCache caches scanned entries for the life of the loader.
func WithSessionCache() LoaderOption {
	return func(l *ClasspathLoader) { l.session = true }
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *ClasspathLoader) { l.logger = logger }
}

// NewClasspathLoader creates a loader over classpath.
func NewClasspathLoader(classpath []string, opts ...LoaderOption) *ClasspathLoader {
	l := &ClasspathLoader{
		classpath: append([]string(nil), classpath...),
		registry:  providers,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.Component(l.logger, "macro.loader")
	return l
}

// Classpath returns the entries in lookup order.
func (l *ClasspathLoader) Classpath() []string {
	return append([]string(nil), l.classpath...)
}

// Load implements Loader.
func (l *ClasspathLoader) Load(name string) (*Class, error) {
	var problems []string
	for i := range l.classpath {
		idx := l.entry(i)
		problems = append(problems, idx.problems...)
		if d, ok := idx.classes[name]; ok {
			if d.provider == nil {
				return nil, qerrors.Wrap(qerrors.KindClassNotFound,
					fmt.Errorf("provider %q is not registered", d.key),
					fmt.Sprintf("macro class %s declared by %s", name, idx.path),
					map[string]interface{}{"class": name, "provider": d.key})
			}
			return &Class{Name: name, Provider: d.provider, Version: d.version, Origin: idx.path}, nil
		}
	}
	e := qerrors.ClassNotFound(name, l.Classpath())
	if len(problems) > 0 {
		e.Context["problems"] = problems
	}
	return nil, e
}

// entry returns the index of classpath entry i, scanning it unless a
// session cache holds it.
func (l *ClasspathLoader) entry(i int) *entryIndex {
	if !l.session {
		return l.scan(l.classpath[i])
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cache == nil {
		l.cache = make([]*entryIndex, len(l.classpath))
	}
	if l.cache[i] == nil {
		l.cache[i] = l.scan(l.classpath[i])
	}
	return l.cache[i]
}

// Invalidate drops the session cache.
func (l *ClasspathLoader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = nil
	l.generation++
}

// Generation counts invalidations.
func (l *ClasspathLoader) Generation() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

// scan indexes a directory of manifests, a manifest file or a plugin.
// Unreadable parts are recorded as problems and skipped.
func (l *ClasspathLoader) scan(path string) *entryIndex {
	idx := &entryIndex{path: path, classes: make(map[string]declaration)}
	info, err := os.Stat(path)
	if err != nil {
		l.logger.Debug("classpath entry unavailable", "entry", path, "error", err)
		return idx
	}

	switch {
	case info.IsDir():
		files, err := filepath.Glob(filepath.Join(path, "*"+ManifestSuffix))
		if err != nil {
			idx.problem(path, err)
			return idx
		}
		sort.Strings(files)
		for _, f := range files {
			l.scanManifest(idx, f)
		}
	case strings.HasSuffix(path, ".so"):
		l.scanPlugin(idx, path)
	default:
		l.scanManifest(idx, path)
	}
	return idx
}

func (idx *entryIndex) problem(path string, err error) {
	idx.problems = append(idx.problems, fmt.Sprintf("%s: %v", path, err))
}

func (l *ClasspathLoader) scanManifest(idx *entryIndex, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		idx.problem(path, err)
		return
	}
	m, err := ParseManifest(data)
	if err != nil {
		l.logger.Warn("skipping macro manifest", "manifest", path, "error", err)
		idx.problem(path, err)
		return
	}
	for _, c := range m.Classes {
		if _, dup := idx.classes[c.Name]; dup {
			continue
		}
		d := declaration{key: c.Provider}
		d.provider, _ = l.registry.Lookup(c.Provider)
		if c.Version != "" {
			d.version, _ = semver.NewVersion(c.Version)
		}
		idx.classes[c.Name] = d
	}
	l.logger.Debug("scanned macro manifest", "manifest", path, "classes", len(m.Classes))
}

func (l *ClasspathLoader) scanPlugin(idx *entryIndex, path string) {
	reg, err := openPlugin(path)
	if err != nil {
		l.logger.Warn("skipping macro plugin", "plugin", path, "error", err)
		idx.problem(path, err)
		return
	}
	for _, key := range reg.Keys() {
		p, _ := reg.Lookup(key)
		idx.classes[key] = declaration{provider: p, key: key}
	}
}

var (
	pluginMu  sync.Mutex
	pluginReg = make(map[string]*Registry)
)

// openPlugin opens a Go plugin once per process and collects the providers
// its RegisterMacros function registers.
func openPlugin(path string) (*Registry, error) {
	pluginMu.Lock()
	defer pluginMu.Unlock()
	if reg, ok := pluginReg[path]; ok {
		return reg, nil
	}
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup(PluginSymbol)
	if err != nil {
		return nil, err
	}
	var register func(*Registry)
	switch f := sym.(type) {
	case func(*Registry):
		register = f
	case *func(*Registry):
		register = *f
	default:
		return nil, fmt.Errorf("%s has type %T, want func(*macro.Registry)", PluginSymbol, sym)
	}
	reg := NewRegistry()
	register(reg)
	pluginReg[path] = reg
	return reg, nil
}

// Watch invalidates the session cache whenever a classpath entry changes.
// Entries that cannot be watched are logged and skipped.
func (l *ClasspathLoader) Watch() error {
	if !l.session {
		return errors.New("macro: watching requires the session cache")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create classpath watcher: %w", err)
	}
	for _, p := range l.classpath {
		target := p
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			target = filepath.Dir(p)
		}
		if err := w.Add(target); err != nil {
			l.logger.Warn("cannot watch classpath entry", "entry", p, "error", err)
		}
	}
	l.mu.Lock()
	l.watcher = w
	l.done = make(chan struct{})
	l.mu.Unlock()
	go l.watchLoop(w, l.done)
	return nil
}

func (l *ClasspathLoader) watchLoop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			l.logger.Debug("classpath changed", "path", ev.Name, "op", ev.Op.String())
			l.Invalidate()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.logger.Warn("classpath watcher error", "error", err)
		}
	}
}

// Close stops the watcher, if any.
func (l *ClasspathLoader) Close() error {
	l.mu.Lock()
	w, done := l.watcher, l.done
	l.watcher = nil
	l.mu.Unlock()
	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}
