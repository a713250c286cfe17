// Package macro resolves macro annotations and runs their implementations.
//
// A macro annotation names a class. The class is resolved against the
// enclosing file's imports, looked up on the macro classpath and bound to a
// Provider from a Registry. Providers expose the strict Expander entry point
// or, in constructor probing mode, a list of constructors whose instances
// implement exactly one of Invokable and Applicable.
//
// Every failure is a *errors.MetaError of the taxonomy; panics in provider
// code are recovered and reported the same way.
package macro

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/orizon-lang/quasi/internal/ast"
)

// APIVersion is the macro API implemented by this engine. Manifests
// constrain it with their api field.
const APIVersion = "1.2.0"

// Args are the evaluated arguments of a macro annotation.
type Args struct {
	// Class is the resolved class name.
	Class string
	// Values holds the constant values in argument order.
	Values []interface{}
	// Names holds the argument names, "" for positional arguments.
	Names []string
}

// Len returns the number of arguments.
func (a Args) Len() int { return len(a.Values) }

// Int returns argument i as an integer.
func (a Args) Int(i int) (int64, error) {
	if i >= len(a.Values) {
		return 0, fmt.Errorf("argument %d missing", i)
	}
	v, ok := a.Values[i].(int64)
	if !ok {
		return 0, fmt.Errorf("argument %d is %T, not an integer", i, a.Values[i])
	}
	return v, nil
}

// Float returns argument i as a floating point number. Integers convert.
func (a Args) Float(i int) (float64, error) {
	if i >= len(a.Values) {
		return 0, fmt.Errorf("argument %d missing", i)
	}
	switch v := a.Values[i].(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, fmt.Errorf("argument %d is %T, not a number", i, a.Values[i])
}

// String returns argument i as a string.
func (a Args) String(i int) (string, error) {
	if i >= len(a.Values) {
		return "", fmt.Errorf("argument %d missing", i)
	}
	s, ok := a.Values[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d is %T, not a string", i, a.Values[i])
	}
	return s, nil
}

// Expander is the strict macro entry point.
type Expander interface {
	Expand(node ast.Node, args Args) (ast.Node, error)
}

// ExpanderFunc adapts a function to Expander.
type ExpanderFunc func(node ast.Node, args Args) (ast.Node, error)

func (f ExpanderFunc) Expand(node ast.Node, args Args) (ast.Node, error) { return f(node, args) }

// Invokable is an instance exposing an invoke entry point.
type Invokable interface {
	Invoke(node ast.Node) (ast.Node, error)
}

// Applicable is an instance exposing an apply entry point.
type Applicable interface {
	Apply(node ast.Node) (ast.Node, error)
}

// Constructor builds an instance from exactly Arity arguments.
type Constructor struct {
	Arity int
	New   func(args []interface{}) (interface{}, error)
}

// Provider is the implementation behind a macro class.
type Provider struct {
	// Expander is used when set.
	Expander Expander
	// Constructors are probed in declaration order when constructor probing
	// is enabled and Expander is nil.
	Constructors []Constructor
}

// Class is a resolved macro class.
type Class struct {
	Name     string
	Provider *Provider
	// Version is nil when the manifest does not declare one.
	Version *semver.Version
	// Origin is the classpath entry that declared the class.
	Origin string
}

// Registry maps provider keys to providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*Provider)}
}

// Register makes a provider available under key. It panics if key is
// registered twice or p is nil.
func (r *Registry) Register(key string, p *Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p == nil {
		panic("macro: Register provider is nil")
	}
	if _, dup := r.providers[key]; dup {
		panic("macro: Register called twice for provider " + key)
	}
	r.providers[key] = p
}

// Lookup returns the provider registered under key.
func (r *Registry) Lookup(key string) (*Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[key]
	return p, ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.providers))
	for k := range r.providers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var providers = NewRegistry()

// RegisterProvider registers p in the process-wide registry. Provider
// packages call it from init.
func RegisterProvider(key string, p *Provider) {
	providers.Register(key, p)
}

// Providers returns the process-wide registry.
func Providers() *Registry {
	return providers
}

// WithoutAnnotation returns a shallow copy of the declaration n without the
// annotations whose last name segment is simple. Other nodes are returned
// unchanged.
func WithoutAnnotation(n ast.Node, simple string) ast.Node {
	strip := func(mods []ast.Modifier) []ast.Modifier {
		out := make([]ast.Modifier, 0, len(mods))
		for _, m := range mods {
			set, ok := m.(*ast.AnnotationSet)
			if !ok {
				out = append(out, m)
				continue
			}
			kept := make([]*ast.Annotation, 0, len(set.Anns))
			for _, a := range set.Anns {
				if len(a.Names) == 0 || a.Names[len(a.Names)-1] != simple {
					kept = append(kept, a)
				}
			}
			if len(kept) == 0 {
				continue
			}
			c := *set
			c.Anns = kept
			out = append(out, &c)
		}
		return out
	}

	switch d := n.(type) {
	case *ast.Structured:
		c := *d
		c.Mods = strip(d.Mods)
		return &c
	case *ast.Func:
		c := *d
		c.Mods = strip(d.Mods)
		return &c
	case *ast.Property:
		c := *d
		c.Mods = strip(d.Mods)
		return &c
	case *ast.TypeAlias:
		c := *d
		c.Mods = strip(d.Mods)
		return &c
	}
	return n
}

// SimpleName returns the last segment of a dotted class name.
func SimpleName(class string) string {
	for i := len(class) - 1; i >= 0; i-- {
		if class[i] == '.' {
			return class[i+1:]
		}
	}
	return class
}
