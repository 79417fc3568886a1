package rules

import (
	"sort"
	"strings"
)

// ContractID tags a violation with the rule category it belongs to.
type ContractID string

const (
	RequiredFields    ContractID = "REQUIRED_FIELDS"
	SymbolFormat      ContractID = "SYMBOL_FORMAT"
	PriceValidity     ContractID = "PRICE_VALIDITY"
	QuantityValidity  ContractID = "QUANTITY_VALIDITY"
	TimestampValidity ContractID = "TIMESTAMP_VALIDITY"
	VolumeValidity    ContractID = "VOLUME_VALIDITY"
	TradeSpecific     ContractID = "TRADE_SPECIFIC"
)

// Violation is one failed rule on one field.
type Violation struct {
	Contract ContractID `json:"contract"`
	Field    string     `json:"field"`
	Value    string     `json:"value,omitempty"`
	Message  string     `json:"message"`
}

// String renders the violation as "CONTRACT: message".
func (v Violation) String() string {
	return string(v.Contract) + ": " + v.Message
}

// Violations is an ordered list of failed rules.
type Violations []Violation

// Strings returns the rendered messages in order.
func (vs Violations) Strings() []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

// Has reports whether any violation carries the given contract.
func (vs Violations) Has(c ContractID) bool {
	for _, v := range vs {
		if v.Contract == c {
			return true
		}
	}
	return false
}

// ByContract groups violations by contract, preserving order within a group.
func (vs Violations) ByContract() map[ContractID]Violations {
	out := make(map[ContractID]Violations)
	for _, v := range vs {
		out[v.Contract] = append(out[v.Contract], v)
	}
	return out
}

// Fields returns the distinct offending field names, sorted.
func (vs Violations) Fields() []string {
	seen := make(map[string]struct{}, len(vs))
	names := make([]string, 0, len(vs))
	for _, v := range vs {
		if _, ok := seen[v.Field]; ok {
			continue
		}
		seen[v.Field] = struct{}{}
		names = append(names, v.Field)
	}
	sort.Strings(names)
	return names
}

func (vs Violations) String() string {
	return strings.Join(vs.Strings(), "; ")
}
