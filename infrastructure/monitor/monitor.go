package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器。所有方法对 nil 接收者安全，
// 未配置监控时调用方可以直接传 nil。
type Monitor struct {
	registry *prometheus.Registry

	// 记录指标
	recordsConstructed *prometheus.CounterVec
	recordsRejected    *prometheus.CounterVec
	recordsAudited     *prometheus.CounterVec
	contractViolations *prometheus.CounterVec

	// 批次指标
	invariantChecks    *prometheus.CounterVec
	invariantOffenders *prometheus.CounterVec
	unknownSymbols     prometheus.Gauge
	batchSize          *prometheus.HistogramVec
	auditDuration      prometheus.Histogram
	lastRun            prometheus.Gauge
}

// Config 监控配置
type Config struct {
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	Subsystem string `yaml:"subsystem" env:"SUBSYSTEM"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "dataspine",
		Subsystem: "validation",
	}
}

// New 创建新的Monitor实例，使用独立的 registry
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,

		recordsConstructed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "records_constructed_total",
			Help:      "构造成功的记录数",
		}, []string{"kind"}),
		recordsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "records_rejected_total",
			Help:      "构造失败被拒绝的记录数",
		}, []string{"kind"}),
		recordsAudited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "records_audited_total",
			Help:      "契约审计的记录数，按结果区分",
		}, []string{"kind", "result"}),
		contractViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "contract_violations_total",
			Help:      "契约违规条数",
		}, []string{"kind", "contract"}),

		invariantChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "invariant_checks_total",
			Help:      "批次不变量检查次数",
		}, []string{"invariant", "outcome"}),
		invariantOffenders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "invariant_offenders_total",
			Help:      "不变量失败涉及的元素数",
		}, []string{"invariant"}),
		unknownSymbols: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "unknown_symbols",
			Help:      "最近一批中未知 symbol 的数量",
		}),
		batchSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "batch_size",
			Help:      "批次大小分布",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 7),
		}, []string{"kind"}),
		auditDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "audit_duration_seconds",
			Help:      "一次审计运行耗时（秒）",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "last_run_timestamp_seconds",
			Help:      "最近一次审计完成时间",
		}),
	}
}

// RecordConstructed 记录构造结果
func (m *Monitor) RecordConstructed(kind string, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.recordsConstructed.WithLabelValues(kind).Inc()
		return
	}
	m.recordsRejected.WithLabelValues(kind).Inc()
}

// RecordAudit 记录一次契约审计，contracts 为每条违规的契约 ID（可重复）
func (m *Monitor) RecordAudit(kind string, contracts []string) {
	if m == nil {
		return
	}
	if len(contracts) == 0 {
		m.recordsAudited.WithLabelValues(kind, "pass").Inc()
		return
	}
	m.recordsAudited.WithLabelValues(kind, "fail").Inc()
	for _, c := range contracts {
		m.contractViolations.WithLabelValues(kind, c).Inc()
	}
}

// RecordInvariant 记录一次不变量检查
func (m *Monitor) RecordInvariant(name string, passed bool, offenders int) {
	if m == nil {
		return
	}
	outcome := "pass"
	if !passed {
		outcome = "fail"
	}
	m.invariantChecks.WithLabelValues(name, outcome).Inc()
	if offenders > 0 {
		m.invariantOffenders.WithLabelValues(name).Add(float64(offenders))
	}
}

func (m *Monitor) UpdateUnknownSymbols(n int) {
	if m == nil {
		return
	}
	m.unknownSymbols.Set(float64(n))
}

func (m *Monitor) ObserveBatch(kind string, size int) {
	if m == nil {
		return
	}
	m.batchSize.WithLabelValues(kind).Observe(float64(size))
}

// ObserveRun 记录一次审计运行的耗时与完成时间
func (m *Monitor) ObserveRun(elapsed time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.auditDuration.Observe(elapsed.Seconds())
	m.lastRun.Set(float64(finished.Unix()))
}

// Handler 返回HTTP handler用于暴露指标；nil 时暴露一个空 registry
func (m *Monitor) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}
