package parser

import (
	"reflect"
	"sync"
)

var (
	nodeType    = reflect.TypeOf((*Node)(nil)).Elem()
	childFields sync.Map // reflect.Type -> []int
)

// fieldsOf returns the indices of the struct fields of t that can hold
// child nodes.
func fieldsOf(t reflect.Type) []int {
	if cached, ok := childFields.Load(t); ok {
		return cached.([]int)
	}
	var idx []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || f.Tag.Get("walk") == "-" {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Slice {
			ft = ft.Elem()
		}
		if ft.Implements(nodeType) {
			idx = append(idx, i)
		}
	}
	childFields.Store(t, idx)
	return idx
}

// Children returns the direct children of n in field order.
func Children(n Node) []Node {
	v := reflect.ValueOf(n)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil
	}
	v = v.Elem()
	var out []Node
	add := func(fv reflect.Value) {
		if (fv.Kind() == reflect.Ptr || fv.Kind() == reflect.Interface) && fv.IsNil() {
			return
		}
		if c, ok := fv.Interface().(Node); ok {
			out = append(out, c)
		}
	}
	for _, i := range fieldsOf(v.Type()) {
		fv := v.Field(i)
		if fv.Kind() == reflect.Slice {
			for j := 0; j < fv.Len(); j++ {
				add(fv.Index(j))
			}
			continue
		}
		add(fv)
	}
	return out
}

// Inspect traverses the tree rooted at n in depth-first order. If f returns
// false the children of the current node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// Collect returns every node of type T under root, root included.
func Collect[T Node](root Node) []T {
	var out []T
	Inspect(root, func(n Node) bool {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}
