package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shengyanli1982/bookbff-go/internal/breaker"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// MetricsCollector 代表指标收集器接口
// 同时实现 breaker.Observer，用于采集相关书籍熔断器的决策、结果和状态转换。
type MetricsCollector interface {
	breaker.Observer

	// RecordResponse 记录对外 HTTP 响应
	// route 为路由分类（related_books、status、passthrough 路由前缀），避免路径基数膨胀
	RecordResponse(forwardName, method, route string, statusCode int, duration time.Duration, requestSize, responseSize int64)

	// RecordError 记录对外请求处理错误
	RecordError(forwardName, errorType string)

	// RecordUpstreamResponse 记录透传上游响应
	RecordUpstreamResponse(upstreamName, method string, statusCode int, duration time.Duration)

	// RecordUpstreamError 记录透传上游错误
	RecordUpstreamError(upstreamName, errorType string)

	// RecordUpstreamBreakerStateChange 记录透传上游熔断器状态变化
	// state: 0=关闭, 1=半开, 2=开启
	RecordUpstreamBreakerStateChange(upstreamName, fromState, toState string, state int)

	// RecordRateLimitRejection 记录限流拒绝
	RecordRateLimitRejection(forwardName, limitType string)

	// GetRegistry 获取 Prometheus 注册器
	GetRegistry() *prometheus.Registry

	// Name 获取收集器名称
	Name() string

	// Close 关闭收集器并清理资源
	Close() error
}

// MetricsCollectorFactory 代表指标收集器工厂接口
type MetricsCollectorFactory interface {
	// Create 根据配置创建指标收集器
	Create(config *Config) (MetricsCollector, error)
}

// Config 代表指标收集器配置
type Config struct {
	Type      string `yaml:"type" json:"type"` // prometheus 或 noop
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Subsystem string `yaml:"subsystem" json:"subsystem"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Type:      NoopType,
		Enabled:   true,
		Namespace: constants.MetricsNamespace,
	}
}
