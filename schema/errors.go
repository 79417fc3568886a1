package schema

import (
	"errors"
	"fmt"
	"strings"

	"dataspine-go/rules"
)

// ErrInvalidRecord matches every construction rejection via errors.Is.
var ErrInvalidRecord = errors.New("invalid record")

// ConstructionError rejects a whole record and lists every failed rule.
type ConstructionError struct {
	Kind       string
	Violations rules.Violations
}

func (e *ConstructionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s rejected: %d violation(s)", e.Kind, len(e.Violations))
	for i, v := range e.Violations {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(v.String())
	}
	return b.String()
}

func (e *ConstructionError) Unwrap() error { return ErrInvalidRecord }

// Fields returns the offending field names.
func (e *ConstructionError) Fields() []string { return e.Violations.Fields() }

func reject(kind string, vs rules.Violations) error {
	if len(vs) == 0 {
		return nil
	}
	return &ConstructionError{Kind: kind, Violations: vs}
}
