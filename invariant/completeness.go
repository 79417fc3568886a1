package invariant

import (
	"fmt"
	"reflect"
)

// DiagnoseCompleteness requires a non-empty batch without nil entries.
func DiagnoseCompleteness[T any](batch []T) Diagnostic {
	d := Diagnostic{Invariant: Completeness, BatchSize: len(batch)}
	if len(batch) == 0 {
		d.Count = 1
		d.note("batch is empty")
		return d
	}
	for i, r := range batch {
		if isNil(r) {
			d.add(i, fmt.Sprintf("index %d: nil record", i))
		}
	}
	d.Passed = d.Count == 0
	return d
}

// CheckCompleteness reports whether the batch is non-empty and has no nil
// entries.
func CheckCompleteness[T any](batch []T) bool {
	return emit(DiagnoseCompleteness(batch))
}

// isNil covers nil interfaces as well as typed nil pointers, maps and slices.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
