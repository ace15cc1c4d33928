package atom

import "reflect"

// defaultEquals decides whether a recomputed value differs from the cached
// one. Scalars compare with ==, pointers and channels by identity, and
// everything else with reflect.DeepEqual. Functions never compare equal.
func defaultEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}

	switch ta.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return a == b
	case reflect.Func:
		return false
	default:
		return reflect.DeepEqual(a, b)
	}
}

// typedEquals adapts a typed equality function to the erased form.
func typedEquals[T any](fn func(T, T) bool) func(a, b any) bool {
	return func(a, b any) bool {
		ta, okA := a.(T)
		tb, okB := b.(T)
		if !okA || !okB {
			return defaultEquals(a, b)
		}
		return fn(ta, tb)
	}
}
