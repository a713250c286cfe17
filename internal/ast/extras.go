package ast

import "strings"

// ExtrasMap associates comments and blank lines with nodes.
type ExtrasMap interface {
	ExtrasBefore(n Node) []Extra
	ExtrasWithin(n Node) []Extra
	ExtrasAfter(n Node) []Extra
}

// DocComment returns the first doc comment among the extras before n.
func DocComment(m ExtrasMap, n Node) *Comment {
	if m == nil {
		return nil
	}
	for _, e := range m.ExtrasBefore(n) {
		if c, ok := e.(*Comment); ok && strings.HasPrefix(c.Text, "/**") {
			return c
		}
	}
	return nil
}

// Extras is an ExtrasMap keyed by node identity.
type Extras struct {
	before map[Node][]Extra
	within map[Node][]Extra
	after  map[Node][]Extra
}

// NewExtras creates an empty map.
func NewExtras() *Extras {
	return &Extras{
		before: make(map[Node][]Extra),
		within: make(map[Node][]Extra),
		after:  make(map[Node][]Extra),
	}
}

func (e *Extras) ExtrasBefore(n Node) []Extra { return e.before[n] }
func (e *Extras) ExtrasWithin(n Node) []Extra { return e.within[n] }
func (e *Extras) ExtrasAfter(n Node) []Extra  { return e.after[n] }

// AddBefore appends extras placed before n.
func (e *Extras) AddBefore(n Node, extras ...Extra) {
	e.before[n] = append(e.before[n], extras...)
}

// AddWithin appends extras placed inside n after its last child.
func (e *Extras) AddWithin(n Node, extras ...Extra) {
	e.within[n] = append(e.within[n], extras...)
}

// AddAfter appends extras placed after n.
func (e *Extras) AddAfter(n Node, extras ...Extra) {
	e.after[n] = append(e.after[n], extras...)
}

// Len returns the number of nodes with extras.
func (e *Extras) Len() int {
	seen := make(map[Node]bool)
	for _, m := range []map[Node][]Extra{e.before, e.within, e.after} {
		for n := range m {
			seen[n] = true
		}
	}
	return len(seen)
}
