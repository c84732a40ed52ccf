package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	registry *prometheus.Registry

	// 周期指标
	cyclesTotal   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	backoffTotal  *prometheus.CounterVec
	runnerRunning prometheus.Gauge

	// 合成指标
	synthesisTotal    *prometheus.CounterVec
	synthesisDuration *prometheus.HistogramVec

	// 渲染指标
	rendersTotal *prometheus.CounterVec

	// 保留指标
	artifactsDeleted prometheus.Counter
	artifactsStored  prometheus.Gauge

	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// synthesisBuckets 覆盖远程 API 的秒级与树莓派本地推理的十几分钟级
var synthesisBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 900, 1200, 1800}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.cyclesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of continuous-mode cycles by outcome",
		},
		[]string{"outcome"},
	)

	c.cycleDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Continuous-mode cycle duration in seconds",
			Buckets:   synthesisBuckets,
		},
		[]string{"outcome"},
	)

	c.backoffTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backoff_seconds_total",
			Help:      "Total time spent in backoff after failed cycles",
		},
		[]string{"kind"},
	)

	c.runnerRunning = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runner_running",
			Help:      "1 while the continuous runner is running",
		},
	)

	c.synthesisTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_total",
			Help:      "Total number of image synthesis calls",
		},
		[]string{"provider", "status"},
	)

	c.synthesisDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Image synthesis duration in seconds",
			Buckets:   synthesisBuckets,
		},
		[]string{"provider"},
	)

	c.rendersTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total number of render target calls",
		},
		[]string{"target", "status"},
	)

	c.artifactsDeleted = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_deleted_total",
			Help:      "Total number of artifacts removed by retention",
		},
	)

	c.artifactsStored = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifacts_stored",
			Help:      "Number of artifacts currently stored",
		},
	)

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of status server HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Status server HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// Registry 返回底层注册表
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 返回 /metrics 处理器
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// =============================================================================
// 🔁 周期指标记录
// =============================================================================

// RecordCycle 记录一个连续运行周期
func (c *Collector) RecordCycle(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.cyclesTotal.WithLabelValues(outcome).Inc()
	c.cycleDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordBackoff 记录退避等待
func (c *Collector) RecordBackoff(kind string, d time.Duration) {
	if c == nil {
		return
	}
	c.backoffTotal.WithLabelValues(kind).Add(d.Seconds())
}

// SetRunnerRunning 设置运行器运行状态
func (c *Collector) SetRunnerRunning(running bool) {
	if c == nil {
		return
	}
	if running {
		c.runnerRunning.Set(1)
	} else {
		c.runnerRunning.Set(0)
	}
}

// =============================================================================
// 🎨 合成与渲染指标记录
// =============================================================================

// RecordSynthesis 记录一次图像合成
func (c *Collector) RecordSynthesis(provider string, success bool, duration time.Duration) {
	if c == nil {
		return
	}
	c.synthesisTotal.WithLabelValues(provider, outcomeStatus(success)).Inc()
	c.synthesisDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordRender 记录一次渲染
func (c *Collector) RecordRender(target string, success bool) {
	if c == nil {
		return
	}
	c.rendersTotal.WithLabelValues(target, outcomeStatus(success)).Inc()
}

// =============================================================================
// 🗂️ 保留指标记录
// =============================================================================

// RecordCleanup 记录保留策略执行结果
func (c *Collector) RecordCleanup(deleted, stored int) {
	if c == nil {
		return
	}
	c.artifactsDeleted.Add(float64(deleted))
	c.artifactsStored.Set(float64(stored))
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func outcomeStatus(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
