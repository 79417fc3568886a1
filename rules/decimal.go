package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotDecimal is returned when a raw value cannot be read as an exact decimal.
	ErrNotDecimal = errors.New("not a valid decimal number")
	ErrNotInteger = errors.New("not a whole number")
)

// CoerceDecimal turns a raw feed value into an exact decimal. Text keeps its
// written precision, so "175.4300" has four decimal places. Floats are read
// through their shortest decimal text, never through binary arithmetic.
func CoerceDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Decimal{}, fmt.Errorf("%w: nil", ErrNotDecimal)
		}
		return *x, nil
	case string:
		return parseDecimal(x)
	case json.Number:
		return parseDecimal(x.String())
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int8:
		return decimal.NewFromInt(int64(x)), nil
	case int16:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(x)), 0), nil
	case uint8:
		return decimal.NewFromInt(int64(x)), nil
	case uint16:
		return decimal.NewFromInt(int64(x)), nil
	case uint32:
		return decimal.NewFromInt(int64(x)), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0), nil
	case float64:
		return parseDecimal(strconv.FormatFloat(x, 'f', -1, 64))
	case float32:
		return parseDecimal(strconv.FormatFloat(float64(x), 'f', -1, 32))
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: unsupported type %T", ErrNotDecimal, v)
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrNotDecimal, s)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrNotDecimal, s)
	}
	return d, nil
}

// DecimalPlaces counts the written fractional digits, trailing zeros included.
// The exponent is widened first: -math.MinInt32 does not fit in an int32.
func DecimalPlaces(d decimal.Decimal) int {
	if exp := int64(d.Exponent()); exp < 0 {
		return int(-exp)
	}
	return 0
}

// CoerceInt reads a raw feed value as a whole number. Anything CoerceDecimal
// accepts is allowed as long as it has no fractional part and fits in int64,
// so "100", 100.0 and json.Number("1e3") all pass.
func CoerceInt(v any) (int64, error) {
	d, err := CoerceDecimal(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotInteger, v)
	}
	// 19 位以上必然超出 int64，先挡住再做 big.Int 运算
	if exp := d.Exponent(); exp < -MaxExponent || exp > 18 {
		return 0, fmt.Errorf("%w: %s out of range", ErrNotInteger, FormatDecimal(d))
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s", ErrNotInteger, FormatDecimal(d))
	}
	b := d.BigInt()
	if !b.IsInt64() {
		return 0, fmt.Errorf("%w: %s out of range", ErrNotInteger, FormatDecimal(d))
	}
	return b.Int64(), nil
}
