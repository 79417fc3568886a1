package audit

import (
	"fmt"
	"time"

	"dataspine-go/invariant"
)

// Mode 运行模式
type Mode string

const (
	ModeLive     Mode = "live"
	ModeBackfill Mode = "backfill"
)

// ParseMode accepts "live" or "backfill".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLive, ModeBackfill:
		return Mode(s), nil
	}
	return "", fmt.Errorf("mode must be live or backfill, got %q", s)
}

const dateLayout = "2006-01-02"

// Window is a half-open UTC interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseWindow reads YYYY-MM-DD dates; end is inclusive, so the window runs
// to midnight after it. Empty strings leave that side open.
func ParseWindow(start, end string) (Window, error) {
	var w Window
	if start != "" {
		t, err := time.ParseInLocation(dateLayout, start, time.UTC)
		if err != nil {
			return w, fmt.Errorf("start date %q: want YYYY-MM-DD", start)
		}
		w.Start = t
	}
	if end != "" {
		t, err := time.ParseInLocation(dateLayout, end, time.UTC)
		if err != nil {
			return w, fmt.Errorf("end date %q: want YYYY-MM-DD", end)
		}
		w.End = t.AddDate(0, 0, 1)
	}
	if !w.Start.IsZero() && !w.End.IsZero() && !w.Start.Before(w.End) {
		return w, fmt.Errorf("start %s is after end %s", start, end)
	}
	return w, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

func (w Window) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// Options 控制一次审计运行
type Options struct {
	Mode Mode
	// Client 非空时只保留该客户的成交
	Client string
	// Window 仅在 backfill 模式下生效
	Window Window
	// Known 为空时从本批行情推导
	Known       invariant.SymbolSet
	Strict      bool
	UniqueKey   string
	UniqueScope string
	// FailOnRejected 存在被拒记录时判定整批失败
	FailOnRejected bool
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeLive
	}
	if o.UniqueKey == "" {
		o.UniqueKey = "trade_id"
	}
	return o
}

// Validate checks option combinations before a run.
func (o Options) Validate() error {
	if _, err := ParseMode(string(o.withDefaults().Mode)); err != nil {
		return err
	}
	if o.Mode == ModeBackfill && (o.Window.Start.IsZero() || o.Window.End.IsZero()) {
		return fmt.Errorf("backfill requires both start and end dates")
	}
	if o.Mode == ModeLive && !o.Window.IsZero() {
		return fmt.Errorf("start/end dates only apply to backfill")
	}
	return nil
}
