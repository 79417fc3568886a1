package schema

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"dataspine-go/rules"
)

const KindTrade = "Trade"

// Side is the trade direction.
type Side string

const (
	Buy  Side = rules.SideBuy
	Sell Side = rules.SideSell
)

// RawTrade carries untyped feed values before construction.
type RawTrade struct {
	TradeID   string `json:"trade_id"`
	ClientID  string `json:"client_id"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Quantity  any    `json:"quantity"`
	Price     any    `json:"price"`
	Timestamp any    `json:"timestamp"`
	Venue     string `json:"venue"`
}

// TradeFields is the loosely typed shape of a trade; a nil field is absent.
type TradeFields struct {
	TradeID   *string          `json:"trade_id"`
	ClientID  *string          `json:"client_id"`
	Symbol    *string          `json:"symbol"`
	Side      *Side            `json:"side"`
	Quantity  *decimal.Decimal `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
	Timestamp *rules.Timestamp `json:"timestamp"`
	Venue     *string          `json:"venue"`
}

func (f TradeFields) clone() TradeFields {
	return TradeFields{
		TradeID:   clone(f.TradeID),
		ClientID:  clone(f.ClientID),
		Symbol:    clone(f.Symbol),
		Side:      clone(f.Side),
		Quantity:  clone(f.Quantity),
		Price:     clone(f.Price),
		Timestamp: clone(f.Timestamp),
		Venue:     clone(f.Venue),
	}
}

// Trade is one executed trade by a client.
type Trade struct {
	f TradeFields
}

// NewTrade validates raw against every field rule and returns either a
// complete trade or a *ConstructionError listing all violations.
func NewTrade(raw RawTrade) (*Trade, error) {
	return NewTradeWithClock(raw, rules.NowUTC)
}

func NewTradeWithClock(raw RawTrade, clock rules.Clock) (*Trade, error) {
	var vs rules.Violations
	vs = append(vs, rules.CheckNonEmpty(rules.RequiredFields, "trade_id", raw.TradeID)...)
	vs = append(vs, rules.CheckNonEmpty(rules.RequiredFields, "client_id", raw.ClientID)...)
	vs = append(vs, rules.CheckSymbol("symbol", raw.Symbol)...)
	vs = append(vs, rules.CheckSide("side", raw.Side)...)
	qty, qv := checkDecimal(rules.QuantityValidity, "quantity", raw.Quantity)
	vs = append(vs, qv...)
	price, pv := checkDecimal(rules.PriceValidity, "price", raw.Price)
	vs = append(vs, pv...)
	ts, tv := checkTimestamp("timestamp", raw.Timestamp, clock)
	vs = append(vs, tv...)
	vs = append(vs, rules.CheckNonEmpty(rules.RequiredFields, "venue", raw.Venue)...)
	if err := reject(KindTrade, vs); err != nil {
		return nil, err
	}
	return &Trade{f: TradeFields{
		TradeID:   ptr(raw.TradeID),
		ClientID:  ptr(raw.ClientID),
		Symbol:    ptr(raw.Symbol),
		Side:      ptr(Side(raw.Side)),
		Quantity:  ptr(qty),
		Price:     ptr(price),
		Timestamp: ptr(ts),
		Venue:     ptr(raw.Venue),
	}}, nil
}

// AssembleTrade builds a trade without running any rule. Only decoders and
// tests should use it.
func AssembleTrade(f TradeFields) *Trade {
	return &Trade{f: f.clone()}
}

func (t *Trade) TradeID() string {
	if t == nil {
		return ""
	}
	return deref(t.f.TradeID)
}

func (t *Trade) ClientID() string {
	if t == nil {
		return ""
	}
	return deref(t.f.ClientID)
}

func (t *Trade) Symbol() string {
	if t == nil {
		return ""
	}
	return deref(t.f.Symbol)
}

func (t *Trade) Side() Side {
	if t == nil {
		return ""
	}
	return deref(t.f.Side)
}

func (t *Trade) Quantity() decimal.Decimal {
	if t == nil {
		return decimal.Decimal{}
	}
	return deref(t.f.Quantity)
}

func (t *Trade) Price() decimal.Decimal {
	if t == nil {
		return decimal.Decimal{}
	}
	return deref(t.f.Price)
}

// Timestamp returns the execution instant in UTC.
func (t *Trade) Timestamp() time.Time {
	if t == nil || t.f.Timestamp == nil {
		return time.Time{}
	}
	return t.f.Timestamp.UTC()
}

func (t *Trade) Venue() string {
	if t == nil {
		return ""
	}
	return deref(t.f.Venue)
}

// Notional is price times quantity.
func (t *Trade) Notional() decimal.Decimal {
	return t.Price().Mul(t.Quantity())
}

func (t *Trade) Fields() TradeFields {
	if t == nil {
		return TradeFields{}
	}
	return t.f.clone()
}

func (t *Trade) EventTime() (time.Time, bool) {
	if t == nil || t.f.Timestamp == nil {
		return time.Time{}, false
	}
	return t.f.Timestamp.UTC(), true
}

// Lookup returns a field rendered as text, by its snake_case name.
func (t *Trade) Lookup(field string) (string, bool) {
	if t == nil {
		return "", false
	}
	switch field {
	case "trade_id":
		return lookupString(t.f.TradeID)
	case "client_id":
		return lookupString(t.f.ClientID)
	case "symbol":
		return lookupString(t.f.Symbol)
	case "side":
		if t.f.Side == nil {
			return "", false
		}
		return string(*t.f.Side), true
	case "quantity":
		return lookupDecimal(t.f.Quantity)
	case "price":
		return lookupDecimal(t.f.Price)
	case "timestamp":
		return lookupTimestamp(t.f.Timestamp)
	case "venue":
		return lookupString(t.f.Venue)
	default:
		return "", false
	}
}

func (t *Trade) Equal(o *Trade) bool {
	if t == nil || o == nil {
		return t == nil && o == nil
	}
	return eqPtr(t.f.TradeID, o.f.TradeID) &&
		eqPtr(t.f.ClientID, o.f.ClientID) &&
		eqPtr(t.f.Symbol, o.f.Symbol) &&
		eqPtr(t.f.Side, o.f.Side) &&
		eqDecimal(t.f.Quantity, o.f.Quantity) &&
		eqDecimal(t.f.Price, o.f.Price) &&
		eqTimestamp(t.f.Timestamp, o.f.Timestamp) &&
		eqPtr(t.f.Venue, o.f.Venue)
}

func (t *Trade) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.f)
}
