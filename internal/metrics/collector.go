// Package metrics provides internal metrics collection.
// Each Collector owns its own Prometheus registry unless WithRegistry is given.
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
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// LLM 指标（规范化委托）
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec

	// 规范化指标
	normalizationsTotal   *prometheus.CounterVec
	normalizationDuration *prometheus.HistogramVec

	// 偏好更新指标
	contextUpdatesTotal *prometheus.CounterVec
	streamSubscribers   prometheus.Gauge

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 存储指标
	storeOperationsTotal   *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec

	// 数据库指标
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec

	registry *prometheus.Registry
	runtime  bool
	logger   *zap.Logger
}

// Option 配置 Collector
type Option func(*Collector)

// WithRegistry 使用指定的注册表，默认每个 Collector 独立一个
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Collector) { c.registry = reg }
}

// WithRuntimeMetrics 同时注册 Go 运行时与进程指标
func WithRuntimeMetrics() Option {
	return func(c *Collector) { c.runtime = true }
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger, opts ...Option) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{logger: logger.With(zap.String("component", "metrics"))}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	if c.runtime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		)
	}

	f := factory{auto: promauto.With(c.registry), namespace: namespace}
	sizeBuckets := prometheus.ExponentialBuckets(100, 10, 8)

	// HTTP
	c.httpRequestsTotal = f.counter("http_requests_total", "Total number of HTTP requests", "method", "path", "status")
	c.httpRequestDuration = f.histogram("http_request_duration_seconds", "HTTP request duration in seconds", prometheus.DefBuckets, "method", "path")
	c.httpRequestSize = f.histogram("http_request_size_bytes", "HTTP request size in bytes", sizeBuckets, "method", "path")
	c.httpResponseSize = f.histogram("http_response_size_bytes", "HTTP response size in bytes", sizeBuckets, "method", "path")

	// LLM 委托
	c.llmRequestsTotal = f.counter("llm_requests_total", "Total number of LLM requests", "provider", "model", "status")
	c.llmRequestDuration = f.histogram("llm_request_duration_seconds", "LLM request duration in seconds",
		[]float64{0.1, 0.25, 0.5, 1, 2, 5, 10}, "provider", "model")
	c.llmTokensUsed = f.counter("llm_tokens_used_total", "Total number of tokens used", "provider", "model", "type")

	// 规范化，source: cache, synonym, delegate, fallback
	c.normalizationsTotal = f.counter("normalizations_total", "Total number of normalized inputs by resolution source", "source")
	c.normalizationDuration = f.histogram("normalization_duration_seconds", "Normalization duration in seconds",
		[]float64{0.0005, 0.005, 0.05, 0.25, 1, 2.5, 10}, "source")

	// 偏好更新
	c.contextUpdatesTotal = f.counter("context_updates_total", "Total number of user context updates", "status")
	c.streamSubscribers = f.auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_subscribers",
		Help:      "Number of active snapshot feed subscribers",
	})

	// 缓存
	c.cacheHits = f.counter("cache_hits_total", "Total number of cache hits", "cache_type")
	c.cacheMisses = f.counter("cache_misses_total", "Total number of cache misses", "cache_type")

	// 存储
	c.storeOperationsTotal = f.counter("store_operations_total", "Total number of preference store operations", "backend", "operation", "status")
	c.storeOperationDuration = f.histogram("store_operation_duration_seconds", "Preference store operation duration in seconds",
		prometheus.DefBuckets, "backend", "operation")
	c.dbConnectionsOpen = f.gauge("db_connections_open", "Number of open database connections", "database")
	c.dbConnectionsIdle = f.gauge("db_connections_idle", "Number of idle database connections", "database")

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// Registry 返回指标注册表
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 返回暴露本注册表的 /metrics 处理器
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

type factory struct {
	auto      promauto.Factory
	namespace string
}

func (f factory) counter(name, help string, labels ...string) *prometheus.CounterVec {
	return f.auto.NewCounterVec(prometheus.CounterOpts{Namespace: f.namespace, Name: name, Help: help}, labels)
}

func (f factory) histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return f.auto.NewHistogramVec(prometheus.HistogramOpts{Namespace: f.namespace, Name: name, Help: help, Buckets: buckets}, labels)
}

func (f factory) gauge(name, help string, labels ...string) *prometheus.GaugeVec {
	return f.auto.NewGaugeVec(prometheus.GaugeOpts{Namespace: f.namespace, Name: name, Help: help}, labels)
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🤖 LLM 与规范化指标记录
// =============================================================================

// RecordLLMRequest 记录 LLM 请求
func (c *Collector) RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int) {
	c.llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	c.llmTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	c.llmTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}

// RecordNormalization 记录一次规范化及其命中来源
func (c *Collector) RecordNormalization(source string, duration time.Duration) {
	c.normalizationsTotal.WithLabelValues(source).Inc()
	c.normalizationDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// =============================================================================
// 🧊 偏好更新指标记录
// =============================================================================

// RecordContextUpdate 记录一次偏好更新结果
func (c *Collector) RecordContextUpdate(status string) {
	c.contextUpdatesTotal.WithLabelValues(status).Inc()
}

// RecordStreamSubscribers 记录当前订阅者数量
func (c *Collector) RecordStreamSubscribers(n int) {
	c.streamSubscribers.Set(float64(n))
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 🗄️ 存储指标记录
// =============================================================================

// RecordStoreOperation 记录偏好存储操作
func (c *Collector) RecordStoreOperation(backend, operation, status string, duration time.Duration) {
	c.storeOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	c.storeOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

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
