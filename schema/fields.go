package schema

import (
	"strconv"

	"github.com/shopspring/decimal"

	"dataspine-go/rules"
)

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptr[T any](v T) *T { return &v }

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqDecimal(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func eqTimestamp(a, b *rules.Timestamp) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func lookupString(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

func lookupDecimal(p *decimal.Decimal) (string, bool) {
	if p == nil {
		return "", false
	}
	return rules.FormatDecimal(*p), true
}

func lookupTimestamp(p *rules.Timestamp) (string, bool) {
	if p == nil {
		return "", false
	}
	return p.String(), true
}

func lookupInt(p *int64) (string, bool) {
	if p == nil {
		return "", false
	}
	return strconv.FormatInt(*p, 10), true
}

// checkDecimal coerces a raw decimal and applies the positive/precision rules.
func checkDecimal(contract rules.ContractID, field string, raw any) (decimal.Decimal, rules.Violations) {
	if raw == nil {
		return decimal.Decimal{}, rules.Violations{rules.Missing(field)}
	}
	d, err := rules.CoerceDecimal(raw)
	if err != nil {
		return decimal.Decimal{}, rules.Violations{rules.NotDecimal(contract, field, raw)}
	}
	return d, rules.CheckPositiveDecimal(contract, field, d)
}

// checkTimestamp coerces a raw timestamp and applies the timestamp rules.
func checkTimestamp(field string, raw any, now rules.Clock) (rules.Timestamp, rules.Violations) {
	if raw == nil {
		return rules.Timestamp{}, rules.Violations{rules.Missing(field)}
	}
	ts, err := rules.CoerceTimestamp(raw)
	if err != nil {
		return rules.Timestamp{}, rules.Violations{rules.UnreadableTimestamp(field, raw, err)}
	}
	return ts, rules.CheckTimestamp(field, ts, now.Now())
}

// checkVolume coerces a raw volume and applies the volume rule.
func checkVolume(field string, raw any) (int64, rules.Violations) {
	if raw == nil {
		return 0, rules.Violations{rules.Missing(field)}
	}
	v, err := rules.CoerceInt(raw)
	if err != nil {
		return 0, rules.Violations{rules.NotInteger(field, raw)}
	}
	return v, rules.CheckVolume(field, v)
}
