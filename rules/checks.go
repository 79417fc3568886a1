package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// CheckSymbol applies the SYMBOL_FORMAT rules. An empty symbol stops the
// check; otherwise length, case and character class are reported separately.
func CheckSymbol(field, symbol string) Violations {
	if symbol == "" {
		return Violations{{
			Contract: SymbolFormat,
			Field:    field,
			Message:  field + " cannot be empty",
		}}
	}
	var out Violations
	if n := utf8.RuneCountInString(symbol); n > MaxSymbolLength {
		out = append(out, Violation{
			Contract: SymbolFormat,
			Field:    field,
			Value:    symbol,
			Message:  fmt.Sprintf("%s must be 1-%d characters, got %d characters", field, MaxSymbolLength, n),
		})
	}
	if symbol != strings.ToUpper(symbol) {
		out = append(out, Violation{
			Contract: SymbolFormat,
			Field:    field,
			Value:    symbol,
			Message:  fmt.Sprintf("%s must be uppercase only, got '%s'", field, symbol),
		})
	}
	if !SymbolPattern.MatchString(symbol) {
		out = append(out, Violation{
			Contract: SymbolFormat,
			Field:    field,
			Value:    symbol,
			Message: fmt.Sprintf("%s must contain only uppercase letters, digits, and periods (no whitespace), got '%s'",
				field, symbol),
		})
	}
	return out
}

// CheckPositiveDecimal rejects values <= 0 and values written with more than
// MaxDecimalPlaces fractional digits. Used for both price and quantity.
func CheckPositiveDecimal(contract ContractID, field string, d decimal.Decimal) Violations {
	var out Violations
	text := FormatDecimal(d)
	if d.Sign() <= 0 {
		out = append(out, Violation{
			Contract: contract,
			Field:    field,
			Value:    text,
			Message:  fmt.Sprintf("%s must be positive, got %s", field, text),
		})
	}
	if d.Exponent() > MaxExponent {
		out = append(out, Violation{
			Contract: contract,
			Field:    field,
			Value:    text,
			Message:  fmt.Sprintf("%s is out of range, got %s", field, text),
		})
	}
	if places := DecimalPlaces(d); places > MaxDecimalPlaces {
		out = append(out, Violation{
			Contract: contract,
			Field:    field,
			Value:    text,
			Message: fmt.Sprintf("%s must have at most %d decimal places, got %d decimal places in %s",
				field, MaxDecimalPlaces, places, text),
		})
	}
	return out
}

// NotDecimal reports a raw value that could not be coerced.
func NotDecimal(contract ContractID, field string, raw any) Violation {
	return Violation{
		Contract: contract,
		Field:    field,
		Value:    fmt.Sprint(raw),
		Message:  fmt.Sprintf("%s must be a valid decimal number, got '%v'", field, raw),
	}
}

// CheckTimestamp applies the TIMESTAMP_VALIDITY rules against now. A
// timestamp without an offset stops the check.
func CheckTimestamp(field string, ts Timestamp, now time.Time) Violations {
	if !ts.Aware() {
		return Violations{{
			Contract: TimestampValidity,
			Field:    field,
			Value:    ts.String(),
			Message:  field + " must be timezone-aware",
		}}
	}
	var out Violations
	if off := ts.Offset(); off != 0 {
		out = append(out, Violation{
			Contract: TimestampValidity,
			Field:    field,
			Value:    ts.String(),
			Message:  fmt.Sprintf("%s must be in UTC, got offset %s", field, formatOffset(off)),
		})
	}
	if limit := now.Add(MaxFutureMinutes * time.Minute); ts.UTC().After(limit) {
		out = append(out, Violation{
			Contract: TimestampValidity,
			Field:    field,
			Value:    ts.String(),
			Message:  fmt.Sprintf("%s cannot be >%dmin in future, got %s", field, MaxFutureMinutes, ts),
		})
	}
	if year := ts.Year(); year < MinValidYear {
		out = append(out, Violation{
			Contract: TimestampValidity,
			Field:    field,
			Value:    ts.String(),
			Message:  fmt.Sprintf("%s cannot be before year %d, got year %d", field, MinValidYear, year),
		})
	}
	return out
}

// UnreadableTimestamp reports a raw timestamp that could not be coerced.
func UnreadableTimestamp(field string, raw any, err error) Violation {
	return Violation{
		Contract: TimestampValidity,
		Field:    field,
		Value:    fmt.Sprint(raw),
		Message:  fmt.Sprintf("%s could not be read: %v", field, err),
	}
}

// CheckNonEmpty rejects empty or whitespace-only strings.
func CheckNonEmpty(contract ContractID, field, s string) Violations {
	if strings.TrimSpace(s) != "" {
		return nil
	}
	return Violations{{
		Contract: contract,
		Field:    field,
		Value:    s,
		Message:  field + " cannot be empty",
	}}
}

// CheckSide accepts exactly BUY or SELL.
func CheckSide(field, side string) Violations {
	for _, s := range ValidSides {
		if side == s {
			return nil
		}
	}
	return Violations{{
		Contract: TradeSpecific,
		Field:    field,
		Value:    side,
		Message:  fmt.Sprintf("%s must be exactly '%s' or '%s', got '%s'", field, SideBuy, SideSell, side),
	}}
}

// CheckVolume rejects negative volume.
func CheckVolume(field string, v int64) Violations {
	if v >= 0 {
		return nil
	}
	return Violations{{
		Contract: VolumeValidity,
		Field:    field,
		Value:    fmt.Sprint(v),
		Message:  fmt.Sprintf("%s must be >= 0, got %d", field, v),
	}}
}

// NotInteger reports a raw volume that is not a whole number.
func NotInteger(field string, raw any) Violation {
	return Violation{
		Contract: VolumeValidity,
		Field:    field,
		Value:    fmt.Sprint(raw),
		Message:  fmt.Sprintf("%s must be a whole number, got '%v'", field, raw),
	}
}

// Missing reports an absent required field.
func Missing(field string) Violation {
	return Violation{
		Contract: RequiredFields,
		Field:    field,
		Message:  "Missing required field " + field,
	}
}

// FormatDecimal prints d with its written precision ("175.4300" stays as is).
// Exponents beyond ±MaxExponent are printed as coefficient and exponent,
// so the text is never longer than the input it came from.
func FormatDecimal(d decimal.Decimal) string {
	exp := d.Exponent()
	switch {
	case exp < -MaxExponent || exp > MaxExponent:
		return d.Coefficient().String() + "e" + strconv.FormatInt(int64(exp), 10)
	case exp < 0:
		return d.StringFixed(-exp)
	}
	return d.String()
}

func formatOffset(off time.Duration) string {
	sign := "+"
	if off < 0 {
		sign = "-"
		off = -off
	}
	h := off / time.Hour
	m := (off % time.Hour) / time.Minute
	return fmt.Sprintf("%s%02d:%02d", sign, h, m)
}
