package invariant

import "fmt"

// Keyed exposes record fields as text by name; absent fields report false.
type Keyed interface {
	Lookup(field string) (string, bool)
}

type scopeID struct {
	value   string
	present bool
}

// DiagnoseUniqueness checks that key never repeats within a scope. An empty
// scopeKey means one global scope. Records without key are skipped; records
// without the scope field share one "absent" scope.
func DiagnoseUniqueness[T Keyed](batch []T, key, scopeKey string) Diagnostic {
	d := Diagnostic{Invariant: Uniqueness, BatchSize: len(batch)}

	type groupKey struct {
		scope scopeID
		value string
	}
	seen := make(map[groupKey][]int)
	var order []groupKey
	for i, r := range batch {
		if isNil(r) {
			continue
		}
		v, ok := r.Lookup(key)
		if !ok {
			continue
		}
		var s scopeID
		if scopeKey != "" {
			s.value, s.present = r.Lookup(scopeKey)
		} else {
			s.present = true
		}
		gk := groupKey{scope: s, value: v}
		if _, exists := seen[gk]; !exists {
			order = append(order, gk)
		}
		seen[gk] = append(seen[gk], i)
	}

	for _, gk := range order {
		idx := seen[gk]
		if len(idx) < 2 {
			continue
		}
		g := DuplicateGroup{
			Key:          key,
			Value:        gk.value,
			ScopeKey:     scopeKey,
			Scope:        gk.scope.value,
			ScopePresent: gk.scope.present,
			Indices:      idx,
		}
		// each repeat after the first occurrence is an offender
		for _, i := range idx[1:] {
			d.Count++
			if len(d.Indices) < MaxReported {
				d.Indices = append(d.Indices, i)
			}
		}
		if len(d.Duplicates) < MaxReported {
			d.Duplicates = append(d.Duplicates, g)
		}
		d.note(fmt.Sprintf("duplicate %s", g))
	}
	d.Passed = d.Count == 0
	return d
}

// CheckUniqueness reports whether key is unique within each scope.
func CheckUniqueness[T Keyed](batch []T, key, scopeKey string) bool {
	return emit(DiagnoseUniqueness(batch, key, scopeKey))
}
