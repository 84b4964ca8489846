package metrics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// 注册器相关错误定义
var (
	ErrCollectorAlreadyRegistered = errors.New("collector already registered")
	ErrCollectorNotFound          = errors.New("collector not found")
	ErrEmptyCollectorName         = errors.New("collector name cannot be empty")
)

// MetricsRegistry 代表指标注册管理器，多个收集器共享一个 Prometheus 注册器
type MetricsRegistry struct {
	mu         sync.RWMutex
	registry   *prometheus.Registry
	collectors map[string]MetricsCollector
}

var (
	globalRegistry *MetricsRegistry
	registryOnce   sync.Once
)

// GetGlobalRegistry 获取全局注册器，附带 Go 运行时和进程指标
func GetGlobalRegistry() *MetricsRegistry {
	registryOnce.Do(func() {
		globalRegistry = NewMetricsRegistry()
		globalRegistry.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return globalRegistry
}

// NewMetricsRegistry 创建独立的注册器，测试中使用
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		registry:   prometheus.NewRegistry(),
		collectors: make(map[string]MetricsCollector),
	}
}

// CreateSharedCollector 创建并登记使用共享注册器的收集器
func (r *MetricsRegistry) CreateSharedCollector(name string, config *Config) (MetricsCollector, error) {
	if name == "" {
		return nil, ErrEmptyCollectorName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collectors[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectorAlreadyRegistered, name)
	}

	collector, err := NewFactory(r.registry).Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create collector %s: %w", name, err)
	}

	r.collectors[name] = collector
	return collector, nil
}

// GetCollector 获取指定名称的收集器
func (r *MetricsRegistry) GetCollector(name string) (MetricsCollector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	collector, exists := r.collectors[name]
	return collector, exists
}

// UnregisterCollector 关闭并注销收集器
func (r *MetricsRegistry) UnregisterCollector(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	collector, exists := r.collectors[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectorNotFound, name)
	}
	if err := collector.Close(); err != nil {
		return fmt.Errorf("failed to close collector %s: %w", name, err)
	}
	delete(r.collectors, name)
	return nil
}

// GetRegistry 获取 Prometheus 注册器
func (r *MetricsRegistry) GetRegistry() *prometheus.Registry {
	return r.registry
}

// CollectorCount 获取已登记收集器的数量
func (r *MetricsRegistry) CollectorCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.collectors)
}
