package invariant

import (
	"fmt"
	"sort"
)

// SymbolSet is the universe of known symbols.
type SymbolSet map[string]struct{}

func NewSymbolSet(symbols ...string) SymbolSet {
	s := make(SymbolSet, len(symbols))
	for _, sym := range symbols {
		s[sym] = struct{}{}
	}
	return s
}

func (s SymbolSet) Has(symbol string) bool {
	_, ok := s[symbol]
	return ok
}

func (s SymbolSet) Add(symbols ...string) {
	for _, sym := range symbols {
		s[sym] = struct{}{}
	}
}

func (s SymbolSet) Len() int { return len(s) }

// Sorted returns the members in lexical order.
func (s SymbolSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// SymbolsOf collects the symbols present in batch, e.g. to derive the known
// universe from a market-data batch.
func SymbolsOf[T Keyed](batch []T) SymbolSet {
	s := make(SymbolSet)
	for _, r := range batch {
		if isNil(r) {
			continue
		}
		if sym, ok := r.Lookup("symbol"); ok {
			s[sym] = struct{}{}
		}
	}
	return s
}

// DiagnoseReferentialIntegrity looks up every trade symbol in known. The
// check is advisory and passes unless strict is set.
func DiagnoseReferentialIntegrity[T Keyed](trades []T, known SymbolSet, strict bool) Diagnostic {
	d := Diagnostic{Invariant: ReferentialIntegrity, BatchSize: len(trades), Strict: strict}

	affected := make(map[string][]int)
	var order []string
	for i, r := range trades {
		if isNil(r) {
			continue
		}
		sym, ok := r.Lookup("symbol")
		if !ok || known.Has(sym) {
			continue
		}
		if _, seen := affected[sym]; !seen {
			order = append(order, sym)
		}
		affected[sym] = append(affected[sym], i)
		d.add(i, "")
	}

	d.UnknownSymbolCount = len(order)
	for _, sym := range order {
		if len(d.UnknownSymbols) < MaxReported {
			d.UnknownSymbols = append(d.UnknownSymbols, sym)
		}
		d.note(fmt.Sprintf("unknown symbol %q at indices %v", sym, affected[sym]))
	}
	d.Passed = !strict || d.Count == 0
	return d
}

// CheckReferentialIntegrity reports unknown trade symbols. Without strict
// it always returns true.
func CheckReferentialIntegrity[T Keyed](trades []T, known SymbolSet, strict bool) bool {
	return emit(DiagnoseReferentialIntegrity(trades, known, strict))
}
