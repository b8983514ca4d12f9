package tinycore

import "reflect"

// ShallowEqual reports whether a and b are equal one level deep:
// struct fields, map values and slice elements are compared with ==
// when comparable and by reference otherwise.
// Nested structs and arrays are compared field by field with the same rule.
// Slices, maps and pointers inside them are never walked.
func ShallowEqual(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)

	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}

	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !sameValue(va.Field(i), vb.Field(i)) {
				return false
			}
		}

		return true
	case reflect.Map:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() == vb.IsNil()
		}

		if va.Len() != vb.Len() {
			return false
		}

		if va.UnsafePointer() == vb.UnsafePointer() {
			return true
		}

		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(iter.Key())
			if !other.IsValid() || !sameValue(iter.Value(), other) {
				return false
			}
		}

		return true
	case reflect.Slice, reflect.Array:
		if va.Kind() == reflect.Slice && va.IsNil() != vb.IsNil() {
			return false
		}

		if va.Len() != vb.Len() {
			return false
		}

		for i := 0; i < va.Len(); i++ {
			if !sameValue(va.Index(i), vb.Index(i)) {
				return false
			}
		}

		return true
	default:
		return sameValue(va, vb)
	}
}

func sameValue(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}

		ea, eb := a.Elem(), b.Elem()
		if ea.Type() != eb.Type() {
			return false
		}

		return sameValue(ea, eb)
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}

		return true
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}

		return true
	default:
		if !a.Comparable() {
			return false
		}

		return a.Equal(b)
	}
}
