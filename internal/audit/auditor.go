// Package audit runs one validation pass over raw and stored batches:
// construct, re-audit, filter, then check every batch invariant.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dataspine-go/infrastructure/logger"
	"dataspine-go/internal/batchfile"
	"dataspine-go/infrastructure/monitor"
	"dataspine-go/invariant"
	"dataspine-go/rules"
	"dataspine-go/schema"
	"dataspine-go/validation"
)

// Input 一次运行的输入
type Input struct {
	Ticks  []schema.RawMarketTick
	Trades []schema.RawTrade
	// Stored 来自存储回放的成交，未经构造校验
	Stored []*schema.Trade

	// 无法解码的行，各自计为对应批次的被拒记录
	BadTicks  []batchfile.LineError
	BadTrades []batchfile.LineError
	BadStored []batchfile.LineError
}

// Auditor 审计器，可复用，不持有批次状态
type Auditor struct {
	log      *logger.Logger
	mon      *monitor.Monitor
	extra    []invariant.Reporter
	reporter invariant.Multi
	clock    rules.Clock
	newID    func() string
}

// pass 一次运行内共享的时钟和契约校验器
type pass struct {
	clock     rules.Clock
	validator *validation.ContractValidator
	log       *logger.Logger
}

type Option func(*Auditor)

func WithLogger(l *logger.Logger) Option {
	return func(a *Auditor) {
		if l != nil {
			a.log = l
		}
	}
}

func WithMonitor(m *monitor.Monitor) Option {
	return func(a *Auditor) { a.mon = m }
}

func WithClock(c rules.Clock) Option {
	return func(a *Auditor) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithReporter adds a reporter, e.g. an alert manager, next to the log and
// metrics reporters.
func WithReporter(r invariant.Reporter) Option {
	return func(a *Auditor) {
		if r != nil {
			a.extra = append(a.extra, r)
		}
	}
}

func withIDs(f func() string) Option {
	return func(a *Auditor) { a.newID = f }
}

func NewAuditor(opts ...Option) *Auditor {
	a := &Auditor{
		log:   logger.NewNop(),
		clock: rules.NowUTC,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.reporter = append(invariant.Multi{
		invariant.LogReporter{Log: a.log},
		invariant.MetricsReporter{Mon: a.mon},
	}, a.extra...)
	return a
}

// Run audits in. Bad records never make Run fail; they are reported. Only
// invalid options or a cancelled ctx return an error.
func (a *Auditor) Run(ctx context.Context, in Input, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	started := time.Now()
	rep := &Report{
		RunID:     a.newID(),
		Mode:      opts.Mode,
		Client:    opts.Client,
		StartedAt: a.clock.Now(),
	}
	if !opts.Window.IsZero() {
		w := opts.Window
		rep.Window = &w
	}
	log := a.log.WithFields(map[string]interface{}{"run_id": rep.RunID})
	// now 在整次运行内冻结，重复规范化与契约审计使用同一个未来时间上限
	clock := rules.FixedClock(rep.StartedAt)
	p := pass{
		clock: clock,
		validator: validation.NewContractValidator(
			validation.WithLogger(log),
			validation.WithMonitor(a.mon),
			validation.WithClock(clock),
		),
		log: log,
	}
	quiet := pass{clock: clock}

	a.unreadable(log, &rep.Ticks, schema.KindMarketTick, in.BadTicks)
	a.unreadable(log, &rep.Trades, schema.KindTrade, in.BadTrades)
	a.unreadable(log, &rep.Replayed, schema.KindTrade, in.BadStored)

	ticks := a.buildTicks(p, in.Ticks, opts, &rep.Ticks)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	live := a.buildTrades(p, in.Trades, opts, &rep.Trades)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trades := append(live[:len(live):len(live)], a.replay(p, in.Stored, opts, &rep.Replayed)...)

	check := func(batch string, d invariant.Diagnostic) {
		invariant.Emit(a.reporter, d)
		rep.Invariants = append(rep.Invariants, InvariantResult{Batch: batch, Diagnostic: d})
	}
	if len(in.Ticks) > 0 {
		// 相同原始输入再规范化一次，结果必须一致
		again := a.buildTicks(quiet, in.Ticks, opts, nil)
		check(schema.KindMarketTick, invariant.DiagnoseCompleteness(ticks))
		check(schema.KindMarketTick, invariant.DiagnoseMonotonicTimestamps(ticks))
		check(schema.KindMarketTick, invariant.DiagnoseIdempotency(ticks, again))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(in.Trades) > 0 || len(in.Stored) > 0 {
		known := opts.Known
		if known == nil {
			known = invariant.SymbolsOf(ticks)
		}
		check(schema.KindTrade, invariant.DiagnoseCompleteness(trades))
		check(schema.KindTrade, invariant.DiagnoseMonotonicTimestamps(trades))
		check(schema.KindTrade, invariant.DiagnoseUniqueness(trades, opts.UniqueKey, opts.UniqueScope))
		check(schema.KindTrade, invariant.DiagnoseReferentialIntegrity(trades, known, opts.Strict))
		if len(in.Trades) > 0 {
			again := a.buildTrades(quiet, in.Trades, opts, nil)
			check(schema.KindTrade, invariant.DiagnoseIdempotency(live, again))
		}
	}

	rep.Passed = len(rep.Failed()) == 0 && len(rep.Replayed.Rejected) == 0 && len(rep.Replayed.Unreadable) == 0
	if opts.FailOnRejected && rep.Rejected() > 0 {
		rep.Passed = false
	}
	rep.FinishedAt = a.clock.Now()
	a.mon.ObserveRun(time.Since(started), rep.FinishedAt)

	log.LogBatchSummary(map[string]interface{}{
		"run_id":   rep.RunID,
		"mode":     string(rep.Mode),
		"ticks":    rep.Ticks.Accepted,
		"trades":   rep.Trades.Accepted + rep.Replayed.Accepted,
		"rejected": rep.Rejected(),
		"passed":   rep.Passed,
	})
	return rep, nil
}

// buildTicks constructs, audits and filters raw ticks. A nil stats runs
// quietly, which is how the idempotency pass re-normalises the input.
func (a *Auditor) buildTicks(p pass, raws []schema.RawMarketTick, opts Options, stats *BatchReport) []*schema.MarketTick {
	quiet := stats == nil
	if quiet {
		stats = &BatchReport{}
	} else {
		a.mon.ObserveBatch(schema.KindMarketTick, len(raws))
	}
	stats.Received = len(raws) + len(stats.Unreadable)

	out := make([]*schema.MarketTick, 0, len(raws))
	for i, raw := range raws {
		md, err := schema.NewMarketTickWithClock(raw, p.clock)
		if err != nil {
			if !quiet {
				a.reject(p.log, stats, i, raw.Symbol, err)
			}
			continue
		}
		if !quiet {
			a.mon.RecordConstructed(schema.KindMarketTick, true)
		}
		if opts.Mode == ModeBackfill && !opts.Window.Contains(md.Timestamp()) {
			stats.Filtered++
			continue
		}
		if !quiet {
			if vs := p.validator.AuditMarketTick(md); len(vs) > 0 {
				stats.Rejected = append(stats.Rejected, Rejection{Index: i, Kind: schema.KindMarketTick, Key: md.Symbol(), Violations: vs})
				continue
			}
		}
		out = append(out, md)
	}
	stats.Accepted = len(out)
	return out
}

func (a *Auditor) buildTrades(p pass, raws []schema.RawTrade, opts Options, stats *BatchReport) []*schema.Trade {
	quiet := stats == nil
	if quiet {
		stats = &BatchReport{}
	} else {
		a.mon.ObserveBatch(schema.KindTrade, len(raws))
	}
	stats.Received = len(raws) + len(stats.Unreadable)

	out := make([]*schema.Trade, 0, len(raws))
	for i, raw := range raws {
		td, err := schema.NewTradeWithClock(raw, p.clock)
		if err != nil {
			if !quiet {
				a.reject(p.log, stats, i, raw.TradeID, err)
			}
			continue
		}
		if !quiet {
			a.mon.RecordConstructed(schema.KindTrade, true)
		}
		if !keepTrade(td, opts) {
			stats.Filtered++
			continue
		}
		if !quiet {
			if vs := p.validator.AuditTrade(td); len(vs) > 0 {
				stats.Rejected = append(stats.Rejected, Rejection{Index: i, Kind: schema.KindTrade, Key: td.TradeID(), Violations: vs})
				continue
			}
		}
		out = append(out, td)
	}
	stats.Accepted = len(out)
	return out
}

// replay audits stored trades that never went through construction.
func (a *Auditor) replay(p pass, stored []*schema.Trade, opts Options, stats *BatchReport) []*schema.Trade {
	stats.Received = len(stored) + len(stats.Unreadable)
	if len(stored) > 0 {
		a.mon.ObserveBatch("replay", len(stored))
	}
	out := make([]*schema.Trade, 0, len(stored))
	for i, td := range stored {
		if vs := p.validator.AuditTrade(td); len(vs) > 0 {
			stats.Rejected = append(stats.Rejected, Rejection{Index: i, Kind: schema.KindTrade, Key: td.TradeID(), Violations: vs})
			continue
		}
		if !keepTrade(td, opts) {
			stats.Filtered++
			continue
		}
		out = append(out, td)
	}
	stats.Accepted = len(out)
	return out
}

func keepTrade(td *schema.Trade, opts Options) bool {
	if opts.Client != "" && td.ClientID() != opts.Client {
		return false
	}
	if opts.Mode == ModeBackfill && !opts.Window.Contains(td.Timestamp()) {
		return false
	}
	return true
}

func (a *Auditor) reject(log *logger.Logger, stats *BatchReport, index int, key string, err error) {
	var ce *schema.ConstructionError
	if !errors.As(err, &ce) {
		log.LogError(err, map[string]interface{}{"index": index})
		return
	}
	a.mon.RecordConstructed(ce.Kind, false)
	stats.Rejected = append(stats.Rejected, Rejection{Index: index, Kind: ce.Kind, Key: key, Violations: ce.Violations})
	log.LogRejection(ce.Kind, index, ce.Violations.Strings(), map[string]interface{}{"key": key})
}

// unreadable 记录解码失败的行；它们没有记录下标，日志里用 -1 并附上行号
func (a *Auditor) unreadable(log *logger.Logger, stats *BatchReport, kind string, bad []batchfile.LineError) {
	for _, le := range bad {
		a.mon.RecordConstructed(kind, false)
		stats.Unreadable = append(stats.Unreadable, le)
		log.LogRejection(kind, -1, []string{le.Error()}, map[string]interface{}{"line": le.Line})
	}
}
