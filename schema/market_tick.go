package schema

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"dataspine-go/rules"
)

const KindMarketTick = "MarketTick"

// RawMarketTick carries untyped feed values before construction.
// Price accepts text, json.Number, decimal.Decimal or numbers; Timestamp
// accepts time.Time, rules.Timestamp or RFC 3339 text; Volume accepts any
// whole number. A nil value is a missing field.
type RawMarketTick struct {
	Symbol    string `json:"symbol"`
	Price     any    `json:"price"`
	Timestamp any    `json:"timestamp"`
	Volume    any    `json:"volume"`
	Source    string `json:"source"`
}

// MarketTickFields is the loosely typed shape of a tick. A nil field is
// absent. It is what storage decoders produce and what the contract
// validator audits.
type MarketTickFields struct {
	Symbol    *string          `json:"symbol"`
	Price     *decimal.Decimal `json:"price"`
	Timestamp *rules.Timestamp `json:"timestamp"`
	Volume    *int64           `json:"volume"`
	Source    *string          `json:"source"`
}

func (f MarketTickFields) clone() MarketTickFields {
	return MarketTickFields{
		Symbol:    clone(f.Symbol),
		Price:     clone(f.Price),
		Timestamp: clone(f.Timestamp),
		Volume:    clone(f.Volume),
		Source:    clone(f.Source),
	}
}

// MarketTick is one observed price/volume sample for a symbol from one source.
type MarketTick struct {
	f MarketTickFields
}

// NewMarketTick validates raw against every field rule and returns either a
// complete tick or a *ConstructionError listing all violations.
func NewMarketTick(raw RawMarketTick) (*MarketTick, error) {
	return NewMarketTickWithClock(raw, rules.NowUTC)
}

// NewMarketTickWithClock is NewMarketTick with an explicit clock for the
// future-timestamp bound.
func NewMarketTickWithClock(raw RawMarketTick, clock rules.Clock) (*MarketTick, error) {
	var vs rules.Violations
	vs = append(vs, rules.CheckSymbol("symbol", raw.Symbol)...)
	price, pv := checkDecimal(rules.PriceValidity, "price", raw.Price)
	vs = append(vs, pv...)
	ts, tv := checkTimestamp("timestamp", raw.Timestamp, clock)
	vs = append(vs, tv...)
	volume, vv := checkVolume("volume", raw.Volume)
	vs = append(vs, vv...)
	vs = append(vs, rules.CheckNonEmpty(rules.RequiredFields, "source", raw.Source)...)
	if err := reject(KindMarketTick, vs); err != nil {
		return nil, err
	}
	return &MarketTick{f: MarketTickFields{
		Symbol:    ptr(raw.Symbol),
		Price:     ptr(price),
		Timestamp: ptr(ts),
		Volume:    ptr(volume),
		Source:    ptr(raw.Source),
	}}, nil
}

// AssembleMarketTick builds a tick from already-typed fields without running
// any rule. Only decoders and tests should use it; audit the result with the
// contract validator before trusting it.
func AssembleMarketTick(f MarketTickFields) *MarketTick {
	return &MarketTick{f: f.clone()}
}

func (m *MarketTick) Symbol() string {
	if m == nil {
		return ""
	}
	return deref(m.f.Symbol)
}

func (m *MarketTick) Price() decimal.Decimal {
	if m == nil {
		return decimal.Decimal{}
	}
	return deref(m.f.Price)
}

// Timestamp returns the observation instant in UTC.
func (m *MarketTick) Timestamp() time.Time {
	if m == nil || m.f.Timestamp == nil {
		return time.Time{}
	}
	return m.f.Timestamp.UTC()
}

func (m *MarketTick) Volume() int64 {
	if m == nil {
		return 0
	}
	return deref(m.f.Volume)
}

func (m *MarketTick) Source() string {
	if m == nil {
		return ""
	}
	return deref(m.f.Source)
}

// Fields returns a copy of the underlying fields.
func (m *MarketTick) Fields() MarketTickFields {
	if m == nil {
		return MarketTickFields{}
	}
	return m.f.clone()
}

// EventTime returns the UTC instant and whether a timestamp is present.
func (m *MarketTick) EventTime() (time.Time, bool) {
	if m == nil || m.f.Timestamp == nil {
		return time.Time{}, false
	}
	return m.f.Timestamp.UTC(), true
}

// Lookup returns a field rendered as text, by its snake_case name.
func (m *MarketTick) Lookup(field string) (string, bool) {
	if m == nil {
		return "", false
	}
	switch field {
	case "symbol":
		return lookupString(m.f.Symbol)
	case "price":
		return lookupDecimal(m.f.Price)
	case "timestamp":
		return lookupTimestamp(m.f.Timestamp)
	case "volume":
		return lookupInt(m.f.Volume)
	case "source":
		return lookupString(m.f.Source)
	default:
		return "", false
	}
}

// Equal compares field by field; decimals compare by value.
func (m *MarketTick) Equal(o *MarketTick) bool {
	if m == nil || o == nil {
		return m == nil && o == nil
	}
	return eqPtr(m.f.Symbol, o.f.Symbol) &&
		eqDecimal(m.f.Price, o.f.Price) &&
		eqTimestamp(m.f.Timestamp, o.f.Timestamp) &&
		eqPtr(m.f.Volume, o.f.Volume) &&
		eqPtr(m.f.Source, o.f.Source)
}

func (m *MarketTick) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.f)
}
