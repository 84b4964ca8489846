package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shengyanli1982/bookbff-go/internal/breaker"
)

// noopCollector 空操作指标收集器，禁用指标时使用
type noopCollector struct {
	registry *prometheus.Registry
}

// NewNoopCollector 创建空操作指标收集器
func NewNoopCollector() MetricsCollector {
	return &noopCollector{registry: prometheus.NewRegistry()}
}

func (c *noopCollector) RecordResponse(string, string, string, int, time.Duration, int64, int64) {}
func (c *noopCollector) RecordError(string, string)                                              {}
func (c *noopCollector) RecordUpstreamResponse(string, string, int, time.Duration)               {}
func (c *noopCollector) RecordUpstreamError(string, string)                                      {}
func (c *noopCollector) RecordUpstreamBreakerStateChange(string, string, string, int)            {}
func (c *noopCollector) RecordRateLimitRejection(string, string)                                 {}
func (c *noopCollector) OnDecision(breaker.Phase)                                                {}
func (c *noopCollector) OnOutcome(breaker.Outcome)                                               {}
func (c *noopCollector) OnTransition(breaker.Phase, breaker.Phase)                               {}
func (c *noopCollector) OnStoreError(string)                                                     {}

// GetRegistry 返回空注册器
func (c *noopCollector) GetRegistry() *prometheus.Registry {
	return c.registry
}

func (c *noopCollector) Name() string {
	return NoopType
}

func (c *noopCollector) Close() error {
	return nil
}
