package rules

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSymbol(t *testing.T) {
	testCases := []struct {
		name      string
		symbol    string
		wantCount int
	}{
		{name: "plain ticker", symbol: "AAPL", wantCount: 0},
		{name: "class share", symbol: "BRK.B", wantCount: 0},
		{name: "single char", symbol: "A", wantCount: 0},
		{name: "ten chars", symbol: "ABCDEFGHIJ", wantCount: 0},
		{name: "empty", symbol: "", wantCount: 1},
		{name: "lowercase", symbol: "aapl", wantCount: 2},                  // case + pattern
		{name: "too long", symbol: "ABCDEFGHIJK", wantCount: 2},            // length + pattern
		{name: "whitespace", symbol: "AA PL", wantCount: 1},                // pattern only
		{name: "long lowercase", symbol: "abcdefghijkl", wantCount: 3},     // all three
		{name: "dash", symbol: "BRK-B", wantCount: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckSymbol("symbol", tc.symbol)
			assert.Len(t, got, tc.wantCount, "violations: %v", got)
			for _, v := range got {
				assert.Equal(t, SymbolFormat, v.Contract)
				assert.Equal(t, "symbol", v.Field)
			}
		})
	}
}

func TestCheckSymbolMessages(t *testing.T) {
	got := CheckSymbol("symbol", "")
	require.Len(t, got, 1)
	assert.Equal(t, "SYMBOL_FORMAT: symbol cannot be empty", got[0].String())

	got = CheckSymbol("symbol", "aapl")
	require.NotEmpty(t, got)
	assert.Contains(t, got[0].Message, "uppercase")

	got = CheckSymbol("symbol", "ABCDEFGHIJK")
	require.NotEmpty(t, got)
	assert.Contains(t, got[0].Message, "1-10")
}

func TestCheckPositiveDecimal(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "four places", value: "175.4300"},
		{name: "smallest tick", value: "0.0001"},
		{name: "integer", value: "10"},
		{name: "negative", value: "-10.50", want: []string{"PRICE_VALIDITY: price must be positive, got -10.50"}},
		{name: "zero", value: "0", want: []string{"PRICE_VALIDITY: price must be positive, got 0"}},
		{name: "five places", value: "175.43001", want: []string{
			"PRICE_VALIDITY: price must have at most 4 decimal places, got 5 decimal places in 175.43001",
		}},
		{name: "trailing zero counts", value: "1.00000", want: []string{
			"PRICE_VALIDITY: price must have at most 4 decimal places, got 5 decimal places in 1.00000",
		}},
		{name: "negative and too precise", value: "-0.00001", want: []string{
			"PRICE_VALIDITY: price must be positive, got -0.00001",
			"PRICE_VALIDITY: price must have at most 4 decimal places, got 5 decimal places in -0.00001",
		}},
		{name: "huge scale", value: "1e-50000000", want: []string{
			"PRICE_VALIDITY: price must have at most 4 decimal places, got 50000000 decimal places in 1e-50000000",
		}},
		{name: "min int32 exponent", value: "1e-2147483648", want: []string{
			"PRICE_VALIDITY: price must have at most 4 decimal places, got 2147483648 decimal places in 1e-2147483648",
		}},
		{name: "huge magnitude", value: "1e100", want: []string{
			"PRICE_VALIDITY: price is out of range, got 1e100",
		}},
		{name: "largest exponent", value: "1e64"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tc.value)
			require.NoError(t, err)
			got := CheckPositiveDecimal(PriceValidity, "price", d)
			assert.Equal(t, tc.want, got.Strings())
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	testCases := []struct {
		value string
		want  string
	}{
		{value: "175.4300", want: "175.4300"},
		{value: "-10.50", want: "-10.50"},
		{value: "12", want: "12"},
		{value: "1.5e3", want: "1500"},
		{value: "25e-70", want: "25e-70"},
		{value: "-3e-2147483648", want: "-3e-2147483648"},
		{value: "7e2147483647", want: "7e2147483647"},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			d, err := decimal.NewFromString(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, FormatDecimal(d))
		})
	}
}

func TestDecimalPlacesWidensExponent(t *testing.T) {
	d, err := CoerceDecimal("1e-2147483648")
	require.NoError(t, err)
	assert.Equal(t, 2147483648, DecimalPlaces(d))
}

func TestCheckTimestamp(t *testing.T) {
	now := time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)

	testCases := []struct {
		name string
		ts   Timestamp
		want []string
	}{
		{name: "now", ts: At(now)},
		{name: "within tolerance", ts: At(now.Add(4 * time.Minute))},
		{name: "exactly at limit", ts: At(now.Add(5 * time.Minute))},
		{name: "explicit zero offset", ts: At(now.In(time.FixedZone("", 0)))},
		{name: "floating", ts: Floating(now), want: []string{
			"TIMESTAMP_VALIDITY: timestamp must be timezone-aware",
		}},
		{name: "non utc offset", ts: At(now.In(tokyo)), want: []string{
			"TIMESTAMP_VALIDITY: timestamp must be in UTC, got offset +09:00",
		}},
		{name: "future", ts: At(now.Add(10 * time.Minute)), want: []string{
			"TIMESTAMP_VALIDITY: timestamp cannot be >5min in future, got 2025-01-15T14:40:00Z",
		}},
		{name: "too old", ts: At(time.Date(1999, 12, 31, 23, 0, 0, 0, time.UTC)), want: []string{
			"TIMESTAMP_VALIDITY: timestamp cannot be before year 2000, got year 1999",
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckTimestamp("timestamp", tc.ts, now)
			assert.Equal(t, tc.want, got.Strings())
		})
	}
}

func TestCheckTimestampReportsEveryRule(t *testing.T) {
	now := time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)
	future := At(time.Date(2030, 1, 1, 0, 0, 0, 0, time.FixedZone("EST", -5*3600)))

	got := CheckTimestamp("timestamp", future, now)
	require.Len(t, got, 2)
	assert.Contains(t, got[0].Message, "-05:00")
	assert.Contains(t, got[1].Message, "future")
}

func TestCheckNonEmpty(t *testing.T) {
	assert.Empty(t, CheckNonEmpty(RequiredFields, "source", "iex_cloud"))
	assert.Len(t, CheckNonEmpty(RequiredFields, "source", ""), 1)

	got := CheckNonEmpty(TradeSpecific, "venue", "   ")
	require.Len(t, got, 1)
	assert.Equal(t, "TRADE_SPECIFIC: venue cannot be empty", got[0].String())
}

func TestCheckSide(t *testing.T) {
	assert.Empty(t, CheckSide("side", "BUY"))
	assert.Empty(t, CheckSide("side", "SELL"))
	for _, bad := range []string{"buy", "Sell", "HOLD", "", " BUY"} {
		got := CheckSide("side", bad)
		require.Len(t, got, 1, "side %q", bad)
		assert.Equal(t, TradeSpecific, got[0].Contract)
	}
}

func TestCheckVolume(t *testing.T) {
	assert.Empty(t, CheckVolume("volume", 0))
	assert.Empty(t, CheckVolume("volume", 2500000))

	got := CheckVolume("volume", -1)
	require.Len(t, got, 1)
	assert.Equal(t, "VOLUME_VALIDITY: volume must be >= 0, got -1", got[0].String())
}

func TestViolationsHelpers(t *testing.T) {
	vs := Violations{
		Missing("price"),
		{Contract: SymbolFormat, Field: "symbol", Message: "symbol cannot be empty"},
		{Contract: SymbolFormat, Field: "symbol", Message: "symbol must be uppercase only, got 'a'"},
	}

	assert.True(t, vs.Has(SymbolFormat))
	assert.False(t, vs.Has(TradeSpecific))
	assert.Equal(t, []string{"price", "symbol"}, vs.Fields())

	grouped := vs.ByContract()
	assert.Len(t, grouped[SymbolFormat], 2)
	assert.Len(t, grouped[RequiredFields], 1)
	assert.Equal(t, "REQUIRED_FIELDS: Missing required field price", vs.Strings()[0])

	var empty Violations
	assert.Nil(t, empty.Strings())
}
