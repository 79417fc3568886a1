package alert

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"dataspine-go/invariant"
	"dataspine-go/rules"
)

// Level 告警级别
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// Alert 告警信息
type Alert struct {
	Level     Level
	Key       string                 // 限流 key，为空时用 Level+Message
	Message   string                 // 告警消息
	Timestamp time.Time              // 告警时间
	Fields    map[string]interface{} // 附加字段
}

func (a Alert) throttleKey() string {
	if a.Key != "" {
		return a.Key
	}
	return fmt.Sprintf("%s:%s", a.Level, a.Message)
}

// Channel 告警通道接口
type Channel interface {
	Send(alert Alert) error
	Name() string
}

// Throttler 告警限流器
type Throttler struct {
	lastSent map[string]time.Time
	interval time.Duration
	clock    rules.Clock
	mu       sync.Mutex
}

// NewThrottler 创建限流器
func NewThrottler(interval time.Duration, clock rules.Clock) *Throttler {
	if clock == nil {
		clock = rules.NowUTC
	}
	return &Throttler{
		lastSent: make(map[string]time.Time),
		interval: interval,
		clock:    clock,
	}
}

// Allow 检查是否允许发送（限流）
func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	last, exists := t.lastSent[key]
	if !exists || now.Sub(last) >= t.interval {
		t.lastSent[key] = now
		return true
	}
	return false
}

// Clear 清空所有限流记录
func (t *Throttler) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSent = make(map[string]time.Time)
}

// Manager 告警管理器。实现 invariant.Reporter，把批次不变量失败转成告警。
type Manager struct {
	channels []Channel
	throttle *Throttler
	clock    rules.Clock
	mu       sync.RWMutex
}

// NewManager 创建告警管理器
func NewManager(channels []Channel, throttleInterval time.Duration, clock rules.Clock) *Manager {
	if clock == nil {
		clock = rules.NowUTC
	}
	return &Manager{
		channels: channels,
		throttle: NewThrottler(throttleInterval, clock),
		clock:    clock,
	}
}

// SendAlert 发送告警。被限流时静默返回 nil；所有通道都失败才返回错误。
func (m *Manager) SendAlert(alert Alert) error {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = m.clock.Now()
	}
	if !m.throttle.Allow(alert.throttleKey()) {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var lastErr error
	successCount := 0
	for _, ch := range m.channels {
		if err := ch.Send(alert); err != nil {
			lastErr = fmt.Errorf("channel %s failed: %w", ch.Name(), err)
		} else {
			successCount++
		}
	}
	if successCount == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

// Report 实现 invariant.Reporter。通过的检查不告警；
// 非严格模式下发现问题（advisory）发 WARNING，失败发 ERROR。
func (m *Manager) Report(d invariant.Diagnostic) {
	if d.Count == 0 {
		return
	}
	level, verb := LevelError, "failed"
	if d.Passed {
		level, verb = LevelWarning, "advisory"
	}
	fields := map[string]interface{}{
		"invariant":  d.Invariant,
		"count":      d.Count,
		"indices":    d.Indices,
		"batch_size": d.BatchSize,
	}
	if len(d.Details) > 0 {
		fields["details"] = strings.Join(d.Details, "; ")
	}
	// 告警失败不影响校验结果
	_ = m.SendAlert(Alert{
		Level:   level,
		Key:     string(level) + ":" + d.Invariant,
		Message: fmt.Sprintf("invariant %s %s: %d offender(s) in batch of %d", d.Invariant, verb, d.Count, d.BatchSize),
		Fields:  fields,
	})
}

// AddChannel 添加告警通道
func (m *Manager) AddChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, ch)
}

// GetChannels 获取所有通道名
func (m *Manager) GetChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name())
	}
	return names
}

// ResetThrottle 重置限流器
func (m *Manager) ResetThrottle() {
	m.throttle.Clear()
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
