package metrics

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// 工厂相关错误定义
var (
	ErrInvalidMetricsType    = errors.New("invalid metrics type")
	ErrNilConfig             = errors.New("metrics config cannot be nil")
	ErrInvalidConfig         = errors.New("invalid metrics config")
	ErrMetricsTypeEmpty      = errors.New("metrics type cannot be empty")
	ErrMetricsNamespaceEmpty = errors.New("metrics namespace cannot be empty")
)

// NoopType 空操作收集器类型
const NoopType = "noop"

var metricNamePart = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// metricsFactory 代表指标收集器工厂实现
type metricsFactory struct {
	registry *prometheus.Registry
}

// NewFactory 创建指标收集器工厂，prometheus 类型的收集器注册到 registry
func NewFactory(registry *prometheus.Registry) MetricsCollectorFactory {
	return &metricsFactory{registry: registry}
}

// Create 根据配置创建对应的指标收集器
func (f *metricsFactory) Create(config *Config) (MetricsCollector, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if !config.Enabled {
		return NewNoopCollector(), nil
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch config.Type {
	case NoopType:
		return NewNoopCollector(), nil
	case constants.MetricsTypePrometheus:
		registry := f.registry
		if registry == nil {
			registry = prometheus.NewRegistry()
		}
		return NewPrometheusCollectorWithRegistry(config, registry)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidMetricsType, config.Type)
	}
}

// validateConfig 验证配置的有效性
func validateConfig(config *Config) error {
	if config.Type == "" {
		return ErrMetricsTypeEmpty
	}
	if config.Namespace == "" {
		return ErrMetricsNamespaceEmpty
	}
	if !metricNamePart.MatchString(config.Namespace) {
		return fmt.Errorf("invalid namespace format: %s", config.Namespace)
	}
	if config.Subsystem != "" && !metricNamePart.MatchString(config.Subsystem) {
		return fmt.Errorf("invalid subsystem format: %s", config.Subsystem)
	}
	return nil
}
