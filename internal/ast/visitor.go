package ast

import (
	"fmt"
	"reflect"
)

// Visitor is called for every node encountered by Walk. If the result
// visitor w is not nil, Walk visits each of the children of node with w,
// followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses the tree rooted at node in depth-first order.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, c := range Children(node) {
		Walk(v, c)
	}
	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if node != nil && f(node) {
		return f
	}
	return nil
}

// Inspect traverses the tree rooted at node, calling f for each node. If f
// returns false the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	if isNil(reflect.ValueOf(node)) {
		return
	}
	Walk(inspector(f), node)
}

// Children returns the direct children of n in serialization order.
// Absent children are skipped.
func Children(n Node) []Node {
	v, ok := VariantOf(n)
	if !ok {
		return nil
	}
	rv := reflect.ValueOf(n).Elem()
	var out []Node
	for _, f := range v.Fields {
		fv := rv.Field(f.Index)
		switch fv.Kind() {
		case reflect.Interface, reflect.Ptr:
			if fv.Type().Implements(nodeType) && !isNil(fv) {
				out = append(out, fv.Interface().(Node))
			}
		case reflect.Slice:
			if !fv.Type().Elem().Implements(nodeType) {
				continue
			}
			for i := 0; i < fv.Len(); i++ {
				if el := fv.Index(i); !isNil(el) {
					out = append(out, el.Interface().(Node))
				}
			}
		}
	}
	return out
}

// Rewrite rebuilds the tree rooted at n bottom-up. f is called for every
// node after its children have been rewritten and returns the node to put in
// its place. Nodes are copied, never mutated; tags are carried over to the
// copies. A replacement whose type does not fit the parent field is an
// error.
func Rewrite(n Node, f func(Node) (Node, error)) (Node, error) {
	if isNil(reflect.ValueOf(n)) {
		return n, nil
	}
	v, ok := VariantOf(n)
	if !ok {
		return nil, fmt.Errorf("rewrite: unregistered node type %T", n)
	}
	src := reflect.ValueOf(n).Elem()
	dst := reflect.New(v.Type)
	dst.Elem().Set(src)
	for _, field := range v.Fields {
		fv := dst.Elem().Field(field.Index)
		switch fv.Kind() {
		case reflect.Interface, reflect.Ptr:
			if !fv.Type().Implements(nodeType) || isNil(fv) {
				continue
			}
			child, err := rewriteChild(fv, f, v.Path+"."+field.Name)
			if err != nil {
				return nil, err
			}
			fv.Set(child)
		case reflect.Slice:
			if !fv.Type().Elem().Implements(nodeType) || fv.IsNil() {
				continue
			}
			list := reflect.MakeSlice(fv.Type(), fv.Len(), fv.Len())
			for i := 0; i < fv.Len(); i++ {
				el := fv.Index(i)
				if isNil(el) {
					continue
				}
				child, err := rewriteChild(el, f, fmt.Sprintf("%s.%s[%d]", v.Path, field.Name, i))
				if err != nil {
					return nil, err
				}
				list.Index(i).Set(child)
			}
			fv.Set(list)
		}
	}
	return f(dst.Interface().(Node))
}

func rewriteChild(fv reflect.Value, f func(Node) (Node, error), where string) (reflect.Value, error) {
	out, err := Rewrite(fv.Interface().(Node), f)
	if err != nil {
		return reflect.Value{}, err
	}
	if isNil(reflect.ValueOf(out)) {
		return reflect.Zero(fv.Type()), nil
	}
	rv := reflect.ValueOf(out)
	if !rv.Type().AssignableTo(fv.Type()) {
		return reflect.Value{}, fmt.Errorf("rewrite: %T cannot replace %s of type %s", out, where, fv.Type())
	}
	return rv, nil
}
