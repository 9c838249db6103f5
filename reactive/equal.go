package reactive

import "reflect"

// EqualFunc reports whether two atom values are the same.
type EqualFunc func(a, b any) bool

// Equal is the default change detection. Comparable values use ==, so
// pointers compare by identity; slices, maps and other non-comparable values
// compare with reflect.DeepEqual. Functions are never equal unless both nil.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return comparableEqual(a, b)
	}
	return reflect.DeepEqual(a, b)
}

func comparableEqual(a, b any) (eq bool) {
	defer func() {
		// structs holding interfaces with non-comparable dynamic values panic on ==
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}
