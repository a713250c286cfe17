package preprocess

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/orizon-lang/quasi/internal/parser"
)

// Session is the state shared by the files preprocessed together.
type Session struct {
	ID string

	mu       sync.Mutex
	packages map[string][]string
	macros   map[string]bool
}

// NewSession creates an empty session with a fresh ID.
func NewSession() *Session {
	return &Session{
		ID:       uuid.NewString(),
		packages: make(map[string][]string),
		macros:   make(map[string]bool),
	}
}

// RegisterFile records f under its package, along with the macro
// definitions it declares. Registering a file twice has no effect.
func (s *Session) RegisterFile(f *parser.File) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkg := f.PackageName()
	for _, name := range s.packages[pkg] {
		if name == f.Name {
			return
		}
	}
	s.packages[pkg] = append(s.packages[pkg], f.Name)

	for _, c := range parser.Collect[*parser.ClassDecl](f) {
		if !c.IsMacroDefinition() {
			continue
		}
		s.macros[c.Name] = true
		if pkg != "" {
			s.macros[pkg+"."+c.Name] = true
		}
	}
}

// FilesInPackage returns the files registered for pkg in registration
// order. The default package is "".
func (s *Session) FilesInPackage(pkg string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.packages[pkg]...)
}

// Packages returns the registered package names, sorted.
func (s *Session) Packages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.packages))
	for p := range s.packages {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// IsMacroDefinition reports whether name, simple or qualified, names a
// macro definition of a registered file.
func (s *Session) IsMacroDefinition(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.macros[name]
}
