package invariant

import "fmt"

// Equaler is a record with deep value equality.
type Equaler[T any] interface {
	Equal(other T) bool
}

// DiagnoseIdempotency compares two batches element by element. Every
// differing index is counted, not only the first.
func DiagnoseIdempotency[T Equaler[T]](a, b []T) Diagnostic {
	d := Diagnostic{Invariant: Idempotency, BatchSize: len(a)}
	if len(a) != len(b) {
		diff := len(a) - len(b)
		if diff < 0 {
			diff = -diff
		}
		d.Count = diff
		d.note(fmt.Sprintf("batch sizes differ: %d vs %d", len(a), len(b)))
		return d
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			d.add(i, fmt.Sprintf("index %d differs", i))
		}
	}
	d.Passed = d.Count == 0
	return d
}

// CheckIdempotency reports whether processing produced identical batches.
func CheckIdempotency[T Equaler[T]](a, b []T) bool {
	return emit(DiagnoseIdempotency(a, b))
}
