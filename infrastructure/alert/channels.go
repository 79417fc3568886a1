package alert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dataspine-go/infrastructure/logger"
)

// LogChannel 结构化日志告警通道
type LogChannel struct {
	log  *logger.Logger
	name string
}

// NewLogChannel 创建日志告警通道
func NewLogChannel(name string, l *logger.Logger) *LogChannel {
	if l == nil {
		l = logger.NewNop()
	}
	return &LogChannel{log: l, name: name}
}

// Send 发送告警到日志
func (c *LogChannel) Send(alert Alert) error {
	fields := make([]zap.Field, 0, len(alert.Fields)+3)
	fields = append(fields,
		zap.String("alert_level", string(alert.Level)),
		zap.String("channel", c.name),
		zap.Time("alert_ts", alert.Timestamp),
	)
	for _, k := range sortedKeys(alert.Fields) {
		fields = append(fields, zap.Any(k, alert.Fields[k]))
	}
	switch alert.Level {
	case LevelError, LevelCritical:
		c.log.Error(alert.Message, fields...)
	case LevelWarning:
		c.log.Warn(alert.Message, fields...)
	default:
		c.log.Info(alert.Message, fields...)
	}
	return nil
}

// Name 返回通道名称
func (c *LogChannel) Name() string {
	return c.name
}

// ConsoleChannel 控制台告警通道（彩色输出）
type ConsoleChannel struct {
	name string
	out  io.Writer
	mu   sync.Mutex
}

// NewConsoleChannel 创建控制台告警通道，out 为空时写 stderr
func NewConsoleChannel(name string, out io.Writer) *ConsoleChannel {
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleChannel{name: name, out: out}
}

// Send 发送告警到控制台（带颜色）
func (c *ConsoleChannel) Send(alert Alert) error {
	colorReset := "\033[0m"
	var colorCode string
	switch alert.Level {
	case LevelInfo:
		colorCode = "\033[32m" // 绿色
	case LevelWarning:
		colorCode = "\033[33m" // 黄色
	case LevelError:
		colorCode = "\033[31m" // 红色
	case LevelCritical:
		colorCode = "\033[35m" // 紫色
	default:
		colorCode = colorReset
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]%s %s - %s",
		colorCode, alert.Level, colorReset,
		alert.Timestamp.Format("2006-01-02 15:04:05"),
		alert.Message,
	)
	if len(alert.Fields) > 0 {
		b.WriteString(" |")
		for _, k := range sortedKeys(alert.Fields) {
			fmt.Fprintf(&b, " %s=%v", k, alert.Fields[k])
		}
	}
	b.WriteByte('\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, b.String())
	return err
}

// Name 返回通道名称
func (c *ConsoleChannel) Name() string {
	return c.name
}

var errMockChannel = errors.New("mock error")

// MockChannel 模拟告警通道（用于测试），并发安全
type MockChannel struct {
	name      string
	alerts    []Alert
	shouldErr bool
	mu        sync.Mutex
}

// NewMockChannel 创建模拟告警通道
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name}
}

// Send 记录告警（用于测试验证）
func (c *MockChannel) Send(alert Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shouldErr {
		return errMockChannel
	}
	c.alerts = append(c.alerts, alert)
	return nil
}

// Name 返回通道名称
func (c *MockChannel) Name() string {
	return c.name
}

// GetAlerts 获取所有接收到的告警
func (c *MockChannel) GetAlerts() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Alert(nil), c.alerts...)
}

// SetShouldError 设置是否返回错误
func (c *MockChannel) SetShouldError(shouldErr bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shouldErr = shouldErr
}

// Count 返回接收到的告警数量
func (c *MockChannel) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alerts)
}
