// Package hidden maintains the hidden elements of a file: the re-parsed
// results of its quotations and macro-annotated declarations.
//
// Every node the overlay knows is a record of an arena addressed by ID.
// An original construct owns the ID of its hidden root; a hidden root
// records the original it replaces and every other hidden node records its
// root. Hidden elements live in a synthetic file analyzed in the context of
// the original file.
package hidden

import (
	"fmt"
	"log/slog"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/logging"
	"github.com/orizon-lang/quasi/internal/parser"
	"github.com/orizon-lang/quasi/internal/position"
	"github.com/orizon-lang/quasi/internal/store"
)

// ID addresses a record of the arena.
type ID int

// NoID is the ID of nothing.
const NoID ID = -1

// RoleKind discriminates Role.
type RoleKind int

const (
	RoleOriginal RoleKind = iota
	RoleHiddenDescendant
	RoleHiddenRoot
)

func (k RoleKind) String() string {
	switch k {
	case RoleOriginal:
		return "original"
	case RoleHiddenDescendant:
		return "hidden-descendant"
	case RoleHiddenRoot:
		return "hidden-root"
	}
	return fmt.Sprintf("RoleKind(%d)", int(k))
}

// Role is computed once when a record is created. Ref is the root of a
// hidden descendant and the replaced original of a hidden root.
type Role struct {
	Kind RoleKind
	Ref  ID
}

func (r Role) IsHidden() bool { return r.Kind != RoleOriginal }
func (r Role) IsRoot() bool   { return r.Kind == RoleHiddenRoot }

// Record is one arena entry.
type Record struct {
	ID   ID
	Node parser.Node
	Role Role
	// Hidden is the current hidden root of an original construct.
	Hidden ID
}

// Kind distinguishes the two sorts of construct.
type Kind int

const (
	KindQuotation Kind = iota
	KindMacro
)

func (k Kind) String() string {
	if k == KindMacro {
		return "macro"
	}
	return "quotation"
}

// State is the lifecycle state of a construct.
type State int

const (
	Uninitialized State = iota
	HiddenBuilt
	Expanded
	Collapsed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case HiddenBuilt:
		return "hidden-built"
	case Expanded:
		return "expanded"
	case Collapsed:
		return "collapsed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Construct is a quotation or macro-annotated declaration of the file.
type Construct struct {
	ID   ID
	Kind Kind
	Node parser.Node
	// Anchor is the span diagnostics about the construct point at: the
	// quotation or the triggering annotation.
	Anchor position.Span
	// Annotation is the triggering annotation of a macro construct.
	Annotation *parser.Annotation
	// Class is the resolved macro class.
	Class string

	// Generic is the generic tree the hidden element was built from.
	Generic ast.Node
	// Extras holds the comments of a quoted file.
	Extras *ast.Extras
	// Text is the source the hidden element was parsed from.
	Text string
	// Err is the failure that left the construct uninitialized.
	Err error

	state State
	key   string
	// splices maps placeholder names to the live expressions they stand for.
	splices map[string]parser.Expr
}

// State returns the lifecycle state.
func (c *Construct) State() State { return c.state }

// Key returns the store key of the applied expansion, if any.
func (c *Construct) Key() string { return c.key }

// Overlay holds the hidden elements of one file.
type Overlay struct {
	file      *parser.File
	synthetic *parser.File
	store     store.Store
	logger    *slog.Logger

	records    []Record
	ids        map[parser.Node]ID
	constructs []*Construct
	byID       map[ID]*Construct
	// applied holds the keys of the expansions this overlay made.
	applied map[string]bool
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithStore sets where expansion records are kept. The default is an
// in-memory store.
func WithStore(s store.Store) Option {
	return func(o *Overlay) { o.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Overlay) { o.logger = l }
}

// New creates an empty overlay for file.
func New(file *parser.File, opts ...Option) *Overlay {
	o := &Overlay{
		file:      file,
		synthetic: &parser.File{Name: file.Name + "#hidden", Context: file},
		ids:       make(map[parser.Node]ID),
		byID:      make(map[ID]*Construct),
		applied:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil {
		o.store = store.NewMemory()
	}
	o.logger = logging.Component(o.logger, "hidden")
	return o
}

// File returns the original file.
func (o *Overlay) File() *parser.File { return o.file }

// Synthetic returns the file holding the hidden elements.
func (o *Overlay) Synthetic() *parser.File { return o.synthetic }

// Store returns the expansion record store.
func (o *Overlay) Store() store.Store { return o.store }

// Register adds a construct for node, or returns the existing one.
func (o *Overlay) Register(kind Kind, node parser.Node, anchor position.Span) *Construct {
	id := o.record(node, Role{Kind: RoleOriginal, Ref: NoID})
	if c, ok := o.byID[id]; ok {
		return c
	}
	c := &Construct{ID: id, Kind: kind, Node: node, Anchor: anchor}
	o.constructs = append(o.constructs, c)
	o.byID[id] = c
	return c
}

// Constructs returns the registered constructs in registration order.
func (o *Overlay) Constructs() []*Construct {
	return append([]*Construct(nil), o.constructs...)
}

// Construct returns the construct registered for node.
func (o *Overlay) Construct(node parser.Node) (*Construct, bool) {
	id, ok := o.ids[node]
	if !ok {
		return nil, false
	}
	c, ok := o.byID[id]
	return c, ok
}

// record returns the ID of node, adding it with role if it is new.
func (o *Overlay) record(node parser.Node, role Role) ID {
	if id, ok := o.ids[node]; ok {
		return id
	}
	id := ID(len(o.records))
	o.records = append(o.records, Record{ID: id, Node: node, Role: role, Hidden: NoID})
	o.ids[node] = id
	return id
}

// Record returns the arena entry of id.
func (o *Overlay) Record(id ID) (Record, bool) {
	if id < 0 || int(id) >= len(o.records) {
		return Record{}, false
	}
	return o.records[id], true
}

// RoleOf returns the role of node. Unknown nodes are originals.
func (o *Overlay) RoleOf(node parser.Node) Role {
	if id, ok := o.ids[node]; ok {
		return o.records[id].Role
	}
	return Role{Kind: RoleOriginal, Ref: NoID}
}

// IsHidden reports whether node belongs to a hidden element.
func (o *Overlay) IsHidden(node parser.Node) bool { return o.RoleOf(node).IsHidden() }

// IsRoot reports whether node is the root of a hidden element.
func (o *Overlay) IsRoot(node parser.Node) bool { return o.RoleOf(node).IsRoot() }

// HiddenOf returns the hidden root built for the original construct node.
func (o *Overlay) HiddenOf(node parser.Node) (parser.Node, bool) {
	id, ok := o.ids[node]
	if !ok || o.records[id].Hidden == NoID {
		return nil, false
	}
	return o.records[o.records[id].Hidden].Node, true
}

// OriginalOf returns the original construct a hidden root replaces.
func (o *Overlay) OriginalOf(root parser.Node) (parser.Node, bool) {
	role := o.RoleOf(root)
	if !role.IsRoot() {
		return nil, false
	}
	return o.records[role.Ref].Node, true
}

// SourceOf maps any node to the node of the original file that accounts for
// it: hidden nodes map to the construct their element replaces, originals
// map to themselves.
func (o *Overlay) SourceOf(node parser.Node) parser.Node {
	role := o.RoleOf(node)
	if role.Kind == RoleHiddenDescendant {
		role = o.records[role.Ref].Role
	}
	if role.Kind == RoleHiddenRoot {
		return o.records[role.Ref].Node
	}
	return node
}

// Position returns the original file position accounting for node.
func (o *Overlay) Position(node parser.Node) position.Position {
	src := o.SourceOf(node)
	if o.file.Source == nil {
		return position.Position{Filename: o.file.Name}
	}
	return o.file.Source.Position(src.GetSpan().Start)
}
