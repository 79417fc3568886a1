// Package validation audits already-built records against the data-quality
// contracts. Unlike construction it never fails: it returns every violation
// so callers can group and report them.
package validation

import (
	"fmt"
	"strings"

	"dataspine-go/infrastructure/logger"
	"dataspine-go/infrastructure/monitor"
	"dataspine-go/rules"
	"dataspine-go/schema"
)

// ContractValidator 对单条记录做完整契约审计。并发安全。
type ContractValidator struct {
	log   *logger.Logger
	mon   *monitor.Monitor
	clock rules.Clock
}

// Option 配置 ContractValidator
type Option func(*ContractValidator)

// WithLogger 设置失败日志输出
func WithLogger(l *logger.Logger) Option {
	return func(v *ContractValidator) {
		if l != nil {
			v.log = l
		}
	}
}

// WithMonitor 设置指标收集器
func WithMonitor(m *monitor.Monitor) Option {
	return func(v *ContractValidator) { v.mon = m }
}

// WithClock 设置“未来时间”判断所用的时钟
func WithClock(c rules.Clock) Option {
	return func(v *ContractValidator) {
		if c != nil {
			v.clock = c
		}
	}
}

func NewContractValidator(opts ...Option) *ContractValidator {
	v := &ContractValidator{
		log:   logger.NewNop(),
		clock: rules.NowUTC,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateMarketTick returns whether md passes every contract and the
// prefixed violation messages in check order.
func (v *ContractValidator) ValidateMarketTick(md *schema.MarketTick) (bool, []string) {
	vs := v.AuditMarketTick(md)
	return len(vs) == 0, vs.Strings()
}

// ValidateTrade is ValidateMarketTick for trades.
func (v *ContractValidator) ValidateTrade(td *schema.Trade) (bool, []string) {
	vs := v.AuditTrade(td)
	return len(vs) == 0, vs.Strings()
}

// AuditMarketTick returns the typed violations of md.
func (v *ContractValidator) AuditMarketTick(md *schema.MarketTick) rules.Violations {
	if md == nil {
		vs := rules.Violations{nilRecord(schema.KindMarketTick)}
		v.report(schema.KindMarketTick, "", vs, nil)
		return vs
	}
	f := md.Fields()
	now := v.clock.Now()

	var vs rules.Violations
	vs = append(vs, required(
		present("symbol", f.Symbol != nil),
		present("price", f.Price != nil),
		present("timestamp", f.Timestamp != nil),
		present("volume", f.Volume != nil),
		present("source", f.Source != nil),
	)...)
	if f.Price != nil {
		vs = append(vs, rules.CheckPositiveDecimal(rules.PriceValidity, "price", *f.Price)...)
	}
	if f.Timestamp != nil {
		vs = append(vs, rules.CheckTimestamp("timestamp", *f.Timestamp, now)...)
	}
	if f.Symbol != nil {
		vs = append(vs, rules.CheckSymbol("symbol", *f.Symbol)...)
	}
	if f.Volume != nil {
		vs = append(vs, rules.CheckVolume("volume", *f.Volume)...)
	}
	if f.Source != nil {
		vs = append(vs, rules.CheckNonEmpty(rules.RequiredFields, "source", *f.Source)...)
	}

	v.report(schema.KindMarketTick, md.Symbol(), vs, map[string]interface{}{
		"source": md.Source(),
	})
	return vs
}

// AuditTrade returns the typed violations of td. Quantity is checked both
// for precision (QUANTITY_VALIDITY) and positivity as a trade rule.
func (v *ContractValidator) AuditTrade(td *schema.Trade) rules.Violations {
	if td == nil {
		vs := rules.Violations{nilRecord(schema.KindTrade)}
		v.report(schema.KindTrade, "", vs, nil)
		return vs
	}
	f := td.Fields()
	now := v.clock.Now()

	var vs rules.Violations
	vs = append(vs, required(
		present("trade_id", f.TradeID != nil),
		present("client_id", f.ClientID != nil),
		present("symbol", f.Symbol != nil),
		present("side", f.Side != nil),
		present("quantity", f.Quantity != nil),
		present("price", f.Price != nil),
		present("timestamp", f.Timestamp != nil),
		present("venue", f.Venue != nil),
	)...)
	if f.Price != nil {
		vs = append(vs, rules.CheckPositiveDecimal(rules.PriceValidity, "price", *f.Price)...)
	}
	if f.Quantity != nil {
		vs = append(vs, rules.CheckPositiveDecimal(rules.QuantityValidity, "quantity", *f.Quantity)...)
	}
	if f.Timestamp != nil {
		vs = append(vs, rules.CheckTimestamp("timestamp", *f.Timestamp, now)...)
	}
	if f.Symbol != nil {
		vs = append(vs, rules.CheckSymbol("symbol", *f.Symbol)...)
	}
	if f.ClientID != nil {
		vs = append(vs, rules.CheckNonEmpty(rules.RequiredFields, "client_id", *f.ClientID)...)
	}
	vs = append(vs, tradeSpecific(f)...)

	v.report(schema.KindTrade, td.Symbol(), vs, map[string]interface{}{
		"trade_id":  td.TradeID(),
		"client_id": td.ClientID(),
	})
	return vs
}

func tradeSpecific(f schema.TradeFields) rules.Violations {
	var vs rules.Violations
	if f.Side != nil {
		vs = append(vs, rules.CheckSide("side", string(*f.Side))...)
	}
	if f.Quantity != nil && f.Quantity.Sign() <= 0 {
		vs = append(vs, rules.Violation{
			Contract: rules.TradeSpecific,
			Field:    "quantity",
			Value:    rules.FormatDecimal(*f.Quantity),
			Message:  fmt.Sprintf("quantity must be positive, got %s", rules.FormatDecimal(*f.Quantity)),
		})
	}
	if f.TradeID != nil {
		vs = append(vs, rules.CheckNonEmpty(rules.TradeSpecific, "trade_id", *f.TradeID)...)
	}
	if f.Venue != nil {
		vs = append(vs, rules.CheckNonEmpty(rules.TradeSpecific, "venue", *f.Venue)...)
	}
	return vs
}

type presence struct {
	field string
	ok    bool
}

func present(field string, ok bool) presence { return presence{field: field, ok: ok} }

func required(ps ...presence) rules.Violations {
	var vs rules.Violations
	for _, p := range ps {
		if !p.ok {
			vs = append(vs, rules.Missing(p.field))
		}
	}
	return vs
}

func nilRecord(kind string) rules.Violation {
	return rules.Violation{
		Contract: rules.RequiredFields,
		Message:  "record is nil, expected " + kind,
	}
}

func (v *ContractValidator) report(kind, symbol string, vs rules.Violations, fields map[string]interface{}) {
	contracts := make([]string, len(vs))
	for i, x := range vs {
		contracts[i] = string(x.Contract)
	}
	v.mon.RecordAudit(kind, contracts)
	if len(vs) == 0 {
		return
	}
	v.log.LogViolation(kind, symbol, vs.Strings(), fields)
}

// Summarize groups messages by their contract prefix, e.g. for reports.
func Summarize(messages []string) map[rules.ContractID]int {
	out := make(map[rules.ContractID]int)
	for _, m := range messages {
		id, _, ok := strings.Cut(m, ": ")
		if !ok {
			continue
		}
		out[rules.ContractID(id)]++
	}
	return out
}
