package invariant

import (
	"sync"

	"dataspine-go/infrastructure/logger"
	"dataspine-go/infrastructure/monitor"
)

// Reporter receives every Diagnostic produced by a Check function.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// LogReporter writes failures and advisory findings as invariant_violation
// events; clean passes go to debug.
type LogReporter struct {
	Log *logger.Logger
}

func (r LogReporter) Report(d Diagnostic) {
	if r.Log == nil {
		return
	}
	if d.Count == 0 {
		r.Log.Debug("invariant passed")
		return
	}
	fields := map[string]interface{}{
		"passed":     d.Passed,
		"batch_size": d.BatchSize,
		"details":    d.Details,
	}
	if len(d.Duplicates) > 0 {
		fields["duplicates"] = d.Duplicates
	}
	if d.Invariant == ReferentialIntegrity {
		fields["unknown_symbols"] = d.UnknownSymbols
		fields["unknown_symbol_count"] = d.UnknownSymbolCount
		fields["strict_mode"] = d.Strict
	}
	r.Log.LogInvariant(d.Invariant, d.Count, d.Indices, fields)
}

// MetricsReporter counts checks and offenders.
type MetricsReporter struct {
	Mon *monitor.Monitor
}

func (r MetricsReporter) Report(d Diagnostic) {
	r.Mon.RecordInvariant(d.Invariant, d.Passed, d.Count)
	if d.Invariant == ReferentialIntegrity {
		r.Mon.UpdateUnknownSymbols(d.UnknownSymbolCount)
	}
}

// Multi fans a Diagnostic out to several reporters in order.
type Multi []Reporter

func (m Multi) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

// Collector keeps every Diagnostic it receives. Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.diags = append(c.diags, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of what has been collected.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.diags...)
}

var (
	defaultMu       sync.RWMutex
	defaultReporter Reporter = LogReporter{Log: logger.NewNop()}
)

// DefaultReporter returns the reporter used by the Check functions.
func DefaultReporter() Reporter {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultReporter
}

// SetDefaultReporter swaps the reporter used by the Check functions and
// returns the previous one. A nil r restores a silent reporter.
func SetDefaultReporter(r Reporter) Reporter {
	if r == nil {
		r = LogReporter{Log: logger.NewNop()}
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultReporter
	defaultReporter = r
	return prev
}

// Emit hands d to r and returns d.Passed.
func Emit(r Reporter, d Diagnostic) bool {
	if r != nil {
		r.Report(d)
	}
	return d.Passed
}

func emit(d Diagnostic) bool {
	return Emit(DefaultReporter(), d)
}
