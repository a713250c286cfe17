package ast

import "reflect"

// Equal reports whether a and b are structurally equal. Tags are ignored
// and a nil list equals an empty one.
func Equal(a, b Node) bool {
	return equalNodes(reflect.ValueOf(a), reflect.ValueOf(b))
}

func equalNodes(a, b reflect.Value) bool {
	an, bn := isNil(a), isNil(b)
	if an || bn {
		return an == bn
	}
	if a.Kind() == reflect.Interface {
		a = a.Elem()
	}
	if b.Kind() == reflect.Interface {
		b = b.Elem()
	}
	if a.Type() != b.Type() {
		return false
	}
	v, ok := variantsByType[a.Type().Elem()]
	if !ok {
		return false
	}
	ae, be := a.Elem(), b.Elem()
	for _, f := range v.Fields {
		if !equalValues(ae.Field(f.Index), be.Field(f.Index)) {
			return false
		}
	}
	return true
}

func equalValues(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Interface, reflect.Ptr:
		if a.Type().Implements(nodeType) {
			return equalNodes(a, b)
		}
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return a.Elem().Bool() == b.Elem().Bool()
	case reflect.Slice:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			ai, bi := a.Index(i), b.Index(i)
			if ai.Kind() == reflect.String {
				if ai.String() != bi.String() {
					return false
				}
				continue
			}
			if !equalNodes(ai, bi) {
				return false
			}
		}
		return true
	case reflect.String:
		return a.String() == b.String()
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int32:
		return a.Int() == b.Int()
	}
	return false
}
