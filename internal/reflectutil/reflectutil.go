// Package reflectutil provides utilities for reflection.
package reflectutil

import "reflect"

// Elem returns the value that the interface or pointer v contains.
// It keeps dereferencing until v is neither an interface nor a pointer.
func Elem(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

// IsNil reports whether v is a nil value of a nilable kind.
// It returns false for kinds that can never be nil.
func IsNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}
