// Package invariant checks properties that must hold across a batch of
// records rather than for one record. Every check is a pure function: it
// returns a bool and hands a Diagnostic to a Reporter, it never panics or
// returns an error for bad data.
package invariant

import "fmt"

// MaxReported caps indices, details and groups kept in a Diagnostic. Count
// always carries the true total.
const MaxReported = 10

// Invariant names.
const (
	Idempotency          = "idempotency"
	MonotonicTimestamps  = "monotonic_timestamps"
	Completeness         = "completeness"
	Uniqueness           = "uniqueness"
	ReferentialIntegrity = "referential_integrity"
)

// DuplicateGroup is one key value that repeats inside one scope.
type DuplicateGroup struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	// ScopeKey is empty for the global scope.
	ScopeKey     string `json:"scope_key,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ScopePresent bool   `json:"scope_present"`
	Indices      []int  `json:"indices"`
}

func (g DuplicateGroup) String() string {
	if g.ScopeKey == "" {
		return fmt.Sprintf("%s=%q at indices %v", g.Key, g.Value, g.Indices)
	}
	scope := fmt.Sprintf("%q", g.Scope)
	if !g.ScopePresent {
		scope = "<absent>"
	}
	return fmt.Sprintf("%s=%q within %s=%s at indices %v", g.Key, g.Value, g.ScopeKey, scope, g.Indices)
}

// Diagnostic is the outcome of one invariant check.
type Diagnostic struct {
	Invariant string `json:"invariant"`
	Passed    bool   `json:"passed"`
	BatchSize int    `json:"batch_size"`
	// Count is the true number of offenders; Indices and Details are capped.
	Count   int      `json:"count"`
	Indices []int    `json:"indices,omitempty"`
	Details []string `json:"details,omitempty"`

	Duplicates []DuplicateGroup `json:"duplicates,omitempty"`

	UnknownSymbols     []string `json:"unknown_symbols,omitempty"`
	UnknownSymbolCount int      `json:"unknown_symbol_count,omitempty"`
	Strict             bool     `json:"strict,omitempty"`
}

// Advisory reports a check that found offenders but still passed.
func (d Diagnostic) Advisory() bool {
	return d.Passed && d.Count > 0
}

func (d *Diagnostic) add(index int, detail string) {
	d.Count++
	if index >= 0 && len(d.Indices) < MaxReported {
		d.Indices = append(d.Indices, index)
	}
	d.note(detail)
}

func (d *Diagnostic) note(detail string) {
	if detail != "" && len(d.Details) < MaxReported {
		d.Details = append(d.Details, detail)
	}
}
