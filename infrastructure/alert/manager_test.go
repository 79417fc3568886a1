package alert

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"dataspine-go/infrastructure/logger"
	"dataspine-go/invariant"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClock() *stepClock {
	return &stepClock{t: time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)}
}

func TestNewManager(t *testing.T) {
	ch := NewMockChannel("test")
	mgr := NewManager([]Channel{ch}, 5*time.Minute, nil)

	channels := mgr.GetChannels()
	if len(channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(channels))
	}
	if channels[0] != "test" {
		t.Errorf("channel name = %s, want test", channels[0])
	}
}

func TestSendAlert(t *testing.T) {
	clock := newClock()
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, 5*time.Minute, clock)

	err := mgr.SendAlert(Alert{
		Level:   LevelInfo,
		Message: "test message",
		Fields:  map[string]interface{}{"key": "value"},
	})
	if err != nil {
		t.Fatalf("SendAlert failed: %v", err)
	}
	if mock.Count() != 1 {
		t.Fatalf("expected 1 alert, got %d", mock.Count())
	}

	alert := mock.GetAlerts()[0]
	if alert.Level != LevelInfo {
		t.Errorf("level = %s, want INFO", alert.Level)
	}
	if alert.Fields["key"] != "value" {
		t.Errorf("field key = %v, want value", alert.Fields["key"])
	}
	if !alert.Timestamp.Equal(clock.Now()) {
		t.Errorf("timestamp = %v, want clock time", alert.Timestamp)
	}
}

func TestThrottling(t *testing.T) {
	clock := newClock()
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, time.Minute, clock)

	for i := 0; i < 3; i++ {
		_ = mgr.SendAlert(Alert{Level: LevelWarning, Message: "same"})
	}
	if mock.Count() != 1 {
		t.Fatalf("expected 1 alert after throttling, got %d", mock.Count())
	}

	_ = mgr.SendAlert(Alert{Level: LevelWarning, Message: "other"})
	if mock.Count() != 2 {
		t.Fatalf("different messages should not be throttled, got %d", mock.Count())
	}

	clock.Advance(time.Minute)
	_ = mgr.SendAlert(Alert{Level: LevelWarning, Message: "same"})
	if mock.Count() != 3 {
		t.Fatalf("expected alert after interval, got %d", mock.Count())
	}

	mgr.ResetThrottle()
	_ = mgr.SendAlert(Alert{Level: LevelWarning, Message: "same"})
	if mock.Count() != 4 {
		t.Fatalf("expected alert after reset, got %d", mock.Count())
	}
}

func TestChannelErrors(t *testing.T) {
	bad := NewMockChannel("bad")
	bad.SetShouldError(true)

	mgr := NewManager([]Channel{bad}, 0, nil)
	err := mgr.SendAlert(Alert{Level: LevelError, Message: "x"})
	if err == nil || !strings.Contains(err.Error(), "channel bad failed") {
		t.Fatalf("expected channel error, got %v", err)
	}

	good := NewMockChannel("good")
	mgr.AddChannel(good)
	if err := mgr.SendAlert(Alert{Level: LevelError, Message: "y"}); err != nil {
		t.Fatalf("partial failure should not error, got %v", err)
	}
	if good.Count() != 1 {
		t.Fatalf("good channel should receive alert")
	}
}

func TestReportInvariant(t *testing.T) {
	tests := []struct {
		name      string
		diag      invariant.Diagnostic
		wantCount int
		wantLevel Level
	}{
		{
			name:      "通过不告警",
			diag:      invariant.Diagnostic{Invariant: invariant.Completeness, Passed: true, BatchSize: 3},
			wantCount: 0,
		},
		{
			name: "失败发 ERROR",
			diag: invariant.Diagnostic{Invariant: invariant.Uniqueness, Count: 2, Indices: []int{1, 3},
				BatchSize: 4, Details: []string{"duplicate a", "duplicate b"}},
			wantCount: 1,
			wantLevel: LevelError,
		},
		{
			name: "advisory 发 WARNING",
			diag: invariant.Diagnostic{Invariant: invariant.ReferentialIntegrity, Passed: true, Count: 1,
				Indices: []int{0}, BatchSize: 1},
			wantCount: 1,
			wantLevel: LevelWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockChannel("mock")
			mgr := NewManager([]Channel{mock}, time.Hour, newClock())
			mgr.Report(tt.diag)
			if mock.Count() != tt.wantCount {
				t.Fatalf("alerts = %d, want %d", mock.Count(), tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}
			a := mock.GetAlerts()[0]
			if a.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", a.Level, tt.wantLevel)
			}
			if a.Fields["invariant"] != tt.diag.Invariant {
				t.Errorf("invariant field = %v", a.Fields["invariant"])
			}
		})
	}
}

func TestReportThrottlesPerInvariant(t *testing.T) {
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, time.Hour, newClock())

	var r invariant.Reporter = mgr
	r.Report(invariant.Diagnostic{Invariant: invariant.Uniqueness, Count: 1, BatchSize: 2})
	r.Report(invariant.Diagnostic{Invariant: invariant.Uniqueness, Count: 5, BatchSize: 9})
	r.Report(invariant.Diagnostic{Invariant: invariant.Completeness, Count: 1})

	if mock.Count() != 2 {
		t.Fatalf("expected one alert per invariant, got %d", mock.Count())
	}
}

func TestLogChannel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ch := NewLogChannel("log", logger.Wrap(zap.New(core)))

	if err := ch.Send(Alert{Level: LevelCritical, Message: "boom", Fields: map[string]interface{}{"k": 1}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel || entries[0].Message != "boom" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if ch.Name() != "log" {
		t.Errorf("name = %s", ch.Name())
	}
}

func TestConsoleChannel(t *testing.T) {
	var buf bytes.Buffer
	ch := NewConsoleChannel("console", &buf)
	err := ch.Send(Alert{
		Level:     LevelWarning,
		Message:   "check",
		Timestamp: time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC),
		Fields:    map[string]interface{}{"b": 2, "a": 1},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "[WARNING]") || !strings.Contains(out, "2025-01-15 14:00:00 - check") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "| a=1 b=2") {
		t.Errorf("fields should be sorted, got %q", out)
	}
}

func TestConcurrentAlerts(t *testing.T) {
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, 0, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mgr.SendAlert(Alert{Level: LevelInfo, Message: "concurrent"})
		}()
	}
	wg.Wait()

	if mock.Count() == 0 {
		t.Fatal("expected alerts to be delivered")
	}
}
