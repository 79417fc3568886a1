package logger

import (
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dataspine-go/monitor/logschema"
)

// Logger 封装zap日志器，提供结构化日志功能
type Logger struct {
	*zap.Logger
	config Config
}

// Config 日志配置
type Config struct {
	Level      string   `yaml:"level" env:"LEVEL" validate:"omitempty,oneof=debug info warn error"`
	Outputs    []string `yaml:"outputs" env:"OUTPUTS" envSeparator:"," validate:"dive,oneof=stdout stderr file"`
	OutputFile string   `yaml:"output_file" env:"OUTPUT_FILE"`
	// ErrorFile 错误日志单独文件
	ErrorFile string `yaml:"error_file" env:"ERROR_FILE"`
	Format    string `yaml:"format" env:"FORMAT" validate:"omitempty,oneof=json console"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Outputs: []string{"stdout"},
		Format:  "json",
	}
}

// New 按配置组装 zap core：每个输出一个 core，错误日志可单独落文件
func New(cfg Config) (*Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}

	console := cfg.Format == "console"
	var cores []zapcore.Core
	for _, out := range cfg.Outputs {
		switch out {
		case "stdout":
			cores = append(cores, zapcore.NewCore(newEncoder(console), zapcore.Lock(os.Stdout), level))
		case "stderr":
			cores = append(cores, zapcore.NewCore(newEncoder(console), zapcore.Lock(os.Stderr), level))
		case "file":
			if cfg.OutputFile == "" {
				continue
			}
			w, err := openAppend(cfg.OutputFile)
			if err != nil {
				return nil, err
			}
			// 文件始终写 JSON
			cores = append(cores, zapcore.NewCore(newEncoder(false), w, level))
		default:
			return nil, fmt.Errorf("unknown log output %q", out)
		}
	}
	if cfg.ErrorFile != "" {
		w, err := openAppend(cfg.ErrorFile)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(newEncoder(false), w, zapcore.ErrorLevel))
	}

	z := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{Logger: z, config: cfg}, nil
}

func newEncoder(console bool) zapcore.Encoder {
	if console {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(ec)
}

func openAppend(path string) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return zapcore.AddSync(f), nil
}

// NewNop returns a logger that drops everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), config: DefaultConfig()}
}

// Wrap adapts an existing zap logger, e.g. one built on an observer core.
func Wrap(z *zap.Logger) *Logger {
	if z == nil {
		return NewNop()
	}
	return &Logger{Logger: z, config: DefaultConfig()}
}

// WithFields 添加字段返回新的logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.With(toZap(fields)...),
		config: l.config,
	}
}

// LogViolation 记录单条记录的契约违规
func (l *Logger) LogViolation(kind, symbol string, errs []string, fields map[string]interface{}) {
	l.emit(zapcore.WarnLevel, logschema.EventContractViolation, merge(fields, map[string]interface{}{
		"kind":        kind,
		"symbol":      symbol,
		"error_count": len(errs),
		"errors":      errs,
	}))
}

// LogRejection 记录构造失败被拒绝的输入
func (l *Logger) LogRejection(kind string, index int, errs []string, fields map[string]interface{}) {
	l.emit(zapcore.WarnLevel, logschema.EventRecordRejected, merge(fields, map[string]interface{}{
		"kind":        kind,
		"index":       index,
		"error_count": len(errs),
		"errors":      errs,
	}))
}

// LogInvariant 记录批次不变量失败
func (l *Logger) LogInvariant(name string, count int, indices []int, fields map[string]interface{}) {
	l.emit(zapcore.WarnLevel, logschema.EventInvariantViolation, merge(fields, map[string]interface{}{
		"invariant": name,
		"count":     count,
		"indices":   indices,
	}))
}

// LogBatchSummary 记录一次审计运行的汇总
func (l *Logger) LogBatchSummary(fields map[string]interface{}) {
	l.emit(zapcore.InfoLevel, logschema.EventBatchSummary, merge(fields, nil))
}

// LogError 记录错误并附带上下文
func (l *Logger) LogError(err error, context map[string]interface{}) {
	fields := merge(context, map[string]interface{}{"error": err.Error()})
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	l.Error("error_event", toZap(fields)...)
}

// Close 关闭日志器
func (l *Logger) Close() error {
	return l.Sync()
}

// emit 的 fields 必须是本包拥有的副本
func (l *Logger) emit(level zapcore.Level, event string, fields map[string]interface{}) {
	if err := logschema.Validate(event, fields); err != nil {
		fields["schema_error"] = err.Error()
	}
	fields["event"] = event
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if ce := l.Check(level, event); ce != nil {
		ce.Write(toZap(fields)...)
	}
}

// toZap 按 key 排序，保证输出稳定
func toZap(fields map[string]interface{}) []zap.Field {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	zapFields := make([]zap.Field, 0, len(fields))
	for _, k := range keys {
		zapFields = append(zapFields, zap.Any(k, fields[k]))
	}
	return zapFields
}

// merge 复制调用方字段再叠加 extra，不修改调用方的 map
func merge(fields, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+len(extra)+2)
	for k, v := range fields {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
