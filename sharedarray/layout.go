// File: sharedarray/layout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sharedarray

import (
	"reflect"
	"unsafe"

	"github.com/momentics/dualview/api"
)

// checkLayout verifies A and B may alias the same memory.
func checkLayout[A, B any]() error {
	ta, tb := reflect.TypeFor[A](), reflect.TypeFor[B]()
	switch {
	case ta.Size() != tb.Size():
		return layoutError("element sizes differ", ta, tb)
	case ta.Align() != tb.Align():
		return layoutError("element alignments differ", ta, tb)
	case ta.Size() == 0:
		return layoutError("zero-sized elements cannot be aliased", ta, tb)
	case hasPointers(ta):
		return layoutError("element type "+ta.String()+" contains pointers", ta, tb)
	case hasPointers(tb):
		return layoutError("element type "+tb.String()+" contains pointers", ta, tb)
	}
	return nil
}

func layoutError(msg string, ta, tb reflect.Type) *api.Error {
	return api.NewError(api.ErrCodeConfiguration, "sharedarray: "+msg).
		WithContext("a", ta.String()).
		WithContext("b", tb.String()).
		WithContext("size_a", ta.Size()).
		WithContext("size_b", tb.Size())
}

// hasPointers reports whether values of t hold anything the collector must
// trace. Such memory cannot live in an unscanned mapping nor be reinterpreted.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func aligned(p unsafe.Pointer, align uintptr) bool {
	return uintptr(p)%align == 0
}
