package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shengyanli1982/bookbff-go/internal/breaker"
)

// ErrNilRegistry 注册器为空
var ErrNilRegistry = errors.New("registry cannot be nil")

// 相关书籍熔断器决策标签
const (
	DecisionAllowed  = "allowed"
	DecisionProbe    = "probe"
	DecisionRejected = "rejected"
)

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

// prometheusCollector 基于 Prometheus 的指标收集器实现
type prometheusCollector struct {
	name     string
	registry *prometheus.Registry

	// 对外 HTTP 指标
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	httpRequestSizeBytes  *prometheus.HistogramVec
	httpResponseSizeBytes *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec

	// 透传上游指标
	upstreamRequestsTotal      *prometheus.CounterVec
	upstreamRequestDuration    *prometheus.HistogramVec
	upstreamErrorsTotal        *prometheus.CounterVec
	upstreamBreakerState       *prometheus.GaugeVec
	upstreamBreakerTransitions *prometheus.CounterVec

	// 相关书籍熔断器指标
	breakerDecisionsTotal   *prometheus.CounterVec
	breakerOutcomesTotal    *prometheus.CounterVec
	breakerTransitionsTotal *prometheus.CounterVec
	breakerState            prometheus.Gauge
	breakerStoreErrorsTotal *prometheus.CounterVec

	rateLimitRejectionsTotal *prometheus.CounterVec
}

// NewPrometheusCollectorWithRegistry 创建使用指定注册器的 Prometheus 指标收集器
func NewPrometheusCollectorWithRegistry(config *Config, registry *prometheus.Registry) (MetricsCollector, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if registry == nil {
		return nil, ErrNilRegistry
	}

	c := &prometheusCollector{
		name:     "prometheus",
		registry: registry,
	}
	if err := c.initMetrics(config.Namespace, config.Subsystem); err != nil {
		return nil, err
	}
	return c, nil
}

// initMetrics 创建并注册所有指标
func (c *prometheusCollector) initMetrics(namespace, subsystem string) error {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}
	}
	histogram := func(name, help string, buckets []float64) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets}
	}

	c.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts(opts("http_requests_total", "Total number of HTTP requests")),
		[]string{"forward_name", "method", "route", "status_code"})
	c.httpRequestDuration = prometheus.NewHistogramVec(
		histogram("http_request_duration_seconds", "HTTP request duration in seconds", durationBuckets),
		[]string{"forward_name", "method", "route"})
	c.httpRequestSizeBytes = prometheus.NewHistogramVec(
		histogram("http_request_size_bytes", "HTTP request size in bytes", prometheus.ExponentialBuckets(100, 10, 7)),
		[]string{"forward_name", "method", "route"})
	c.httpResponseSizeBytes = prometheus.NewHistogramVec(
		histogram("http_response_size_bytes", "HTTP response size in bytes", prometheus.ExponentialBuckets(100, 10, 7)),
		[]string{"forward_name", "method", "route", "status_code"})
	c.httpErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts(opts("http_errors_total", "Total number of request handling errors")),
		[]string{"forward_name", "error_type"})

	c.upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts(opts("upstream_requests_total", "Total number of upstream requests")),
		[]string{"upstream_name", "method", "status_code"})
	c.upstreamRequestDuration = prometheus.NewHistogramVec(
		histogram("upstream_request_duration_seconds", "Upstream request duration in seconds", durationBuckets),
		[]string{"upstream_name", "method"})
	c.upstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts(opts("upstream_errors_total", "Total number of upstream errors")),
		[]string{"upstream_name", "error_type"})
	c.upstreamBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts(opts("upstream_circuit_breaker_state", "Upstream circuit breaker state (0=closed, 1=half-open, 2=open)")),
		[]string{"upstream_name"})
	c.upstreamBreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts(opts("upstream_circuit_breaker_state_changes_total", "Total number of upstream circuit breaker state changes")),
		[]string{"upstream_name", "from_state", "to_state"})

	c.breakerDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts(opts("related_books_breaker_decisions_total", "Related-books breaker decisions")),
		[]string{"decision"})
	c.breakerOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts(opts("related_books_breaker_outcomes_total", "Recommendation call outcomes")),
		[]string{"outcome"})
	c.breakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts(opts("related_books_breaker_transitions_total", "Related-books breaker phase transitions")),
		[]string{"from_state", "to_state"})
	c.breakerState = prometheus.NewGauge(
		prometheus.GaugeOpts(opts("related_books_breaker_state", "Related-books breaker phase (0=closed, 1=probing, 2=open)")))
	c.breakerStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts(opts("related_books_breaker_store_errors_total", "Breaker state store failures")),
		[]string{"store"})

	c.rateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts(opts("rate_limit_rejections_total", "Total number of rate limit rejections")),
		[]string{"forward_name", "limit_type"})

	collectors := []prometheus.Collector{
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.httpRequestSizeBytes,
		c.httpResponseSizeBytes,
		c.httpErrorsTotal,
		c.upstreamRequestsTotal,
		c.upstreamRequestDuration,
		c.upstreamErrorsTotal,
		c.upstreamBreakerState,
		c.upstreamBreakerTransitions,
		c.breakerDecisionsTotal,
		c.breakerOutcomesTotal,
		c.breakerTransitionsTotal,
		c.breakerState,
		c.breakerStoreErrorsTotal,
		c.rateLimitRejectionsTotal,
	}
	for _, collector := range collectors {
		if err := c.registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordResponse 记录对外 HTTP 响应
func (c *prometheusCollector) RecordResponse(forwardName, method, route string, statusCode int, duration time.Duration, requestSize, responseSize int64) {
	code := strconv.Itoa(statusCode)

	c.httpRequestsTotal.WithLabelValues(forwardName, method, route, code).Inc()
	c.httpRequestDuration.WithLabelValues(forwardName, method, route).Observe(duration.Seconds())
	if requestSize > 0 {
		c.httpRequestSizeBytes.WithLabelValues(forwardName, method, route).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		c.httpResponseSizeBytes.WithLabelValues(forwardName, method, route, code).Observe(float64(responseSize))
	}
}

// RecordError 记录对外请求处理错误
func (c *prometheusCollector) RecordError(forwardName, errorType string) {
	c.httpErrorsTotal.WithLabelValues(forwardName, errorType).Inc()
}

// RecordUpstreamResponse 记录透传上游响应
func (c *prometheusCollector) RecordUpstreamResponse(upstreamName, method string, statusCode int, duration time.Duration) {
	c.upstreamRequestsTotal.WithLabelValues(upstreamName, method, strconv.Itoa(statusCode)).Inc()
	c.upstreamRequestDuration.WithLabelValues(upstreamName, method).Observe(duration.Seconds())
}

// RecordUpstreamError 记录透传上游错误
func (c *prometheusCollector) RecordUpstreamError(upstreamName, errorType string) {
	c.upstreamErrorsTotal.WithLabelValues(upstreamName, errorType).Inc()
}

// RecordUpstreamBreakerStateChange 记录透传上游熔断器状态变化
func (c *prometheusCollector) RecordUpstreamBreakerStateChange(upstreamName, fromState, toState string, state int) {
	c.upstreamBreakerTransitions.WithLabelValues(upstreamName, fromState, toState).Inc()
	c.upstreamBreakerState.WithLabelValues(upstreamName).Set(float64(state))
}

// RecordRateLimitRejection 记录限流拒绝
func (c *prometheusCollector) RecordRateLimitRejection(forwardName, limitType string) {
	c.rateLimitRejectionsTotal.WithLabelValues(forwardName, limitType).Inc()
}

// OnDecision 记录相关书籍熔断器决策，并同步阶段
func (c *prometheusCollector) OnDecision(phase breaker.Phase) {
	c.breakerDecisionsTotal.WithLabelValues(DecisionLabel(phase)).Inc()
	c.breakerState.Set(float64(phase))
}

// OnOutcome 记录推荐服务调用结果
func (c *prometheusCollector) OnOutcome(outcome breaker.Outcome) {
	c.breakerOutcomesTotal.WithLabelValues(outcome.String()).Inc()
}

// OnTransition 记录相关书籍熔断器阶段变化
func (c *prometheusCollector) OnTransition(from, to breaker.Phase) {
	c.breakerTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	c.breakerState.Set(float64(to))
}

// OnStoreError 记录状态存储失败
func (c *prometheusCollector) OnStoreError(storeType string) {
	c.breakerStoreErrorsTotal.WithLabelValues(storeType).Inc()
}

// GetRegistry 获取 Prometheus 注册器
func (c *prometheusCollector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Name 获取收集器名称
func (c *prometheusCollector) Name() string {
	return c.name
}

// Close 关闭收集器
func (c *prometheusCollector) Close() error {
	return nil
}

// DecisionLabel 返回熔断器决策的指标标签
func DecisionLabel(phase breaker.Phase) string {
	switch phase {
	case breaker.PhaseProbing:
		return DecisionProbe
	case breaker.PhaseOpen:
		return DecisionRejected
	default:
		return DecisionAllowed
	}
}
