package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/breaker"
	"github.com/shengyanli1982/bookbff-go/internal/client"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
	"github.com/shengyanli1982/bookbff-go/internal/metrics"
	"github.com/shengyanli1982/bookbff-go/internal/recommend"
	"github.com/shengyanli1982/bookbff-go/internal/upstream"
	"github.com/sony/gobreaker"
)

// Runtime 代表转发服务共享的运行时组件
// 同一进程内所有转发服务共用一个相关书籍熔断器和一组上游客户端。
type Runtime struct {
	Config    *config.Config
	Store     breaker.StateStore
	Guard     *breaker.Guard
	Recommend *recommend.Service
	Upstreams *upstream.Registry
	Metrics   metrics.MetricsCollector

	clients         map[string]client.HTTPClient
	recommendClient client.HTTPClient
	logger          logr.Logger
}

// RuntimeOption 代表运行时的可选配置
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	store breaker.StateStore
	clock func() time.Time
}

// WithStateStore 使用外部创建的状态存储，不再按配置创建
func WithStateStore(store breaker.StateStore) RuntimeOption {
	return func(o *runtimeOptions) {
		o.store = store
	}
}

// WithBreakerClock 设置相关书籍熔断器的时间来源
func WithBreakerClock(now func() time.Time) RuntimeOption {
	return func(o *runtimeOptions) {
		o.clock = now
	}
}

// NewRuntime 根据配置创建运行时组件
func NewRuntime(ctx context.Context, cfg *config.Config, collector metrics.MetricsCollector, logger logr.Logger, opts ...RuntimeOption) (*Runtime, error) {
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}

	options := runtimeOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	rt := &Runtime{
		Config:  cfg,
		Metrics: collector,
		clients: make(map[string]client.HTTPClient, len(cfg.Upstreams)),
		logger:  logger,
	}

	store := options.store
	if store == nil {
		var err error
		store, err = breaker.NewStore(ctx, &cfg.Breaker.Store, logger.WithName("breaker"))
		if err != nil {
			return nil, fmt.Errorf("failed to create breaker state store: %w", err)
		}
	}
	rt.Store = store

	guard, err := breaker.NewGuard(store,
		time.Duration(cfg.Breaker.OpenInterval)*time.Millisecond,
		breaker.WithObserver(collector),
		breaker.WithLogger(logger.WithName("breaker")),
		breaker.WithClock(options.clock))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Guard = guard

	factory := client.NewFactory()

	rt.recommendClient, err = factory.Create(clientConfig(cfg.Recommend.HTTPClient))
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to create recommendation client: %w", err)
	}
	client.SetLogger(rt.recommendClient, logger.WithName("recommend"))

	rt.Recommend, err = recommend.NewService(guard, rt.recommendClient, &cfg.Recommend, logger.WithName("recommend"))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.Upstreams, err = upstream.NewRegistry(cfg.Upstreams, logger.WithName("upstream"),
		func(name string, from, to gobreaker.State) {
			collector.RecordUpstreamBreakerStateChange(name, from.String(), to.String(), int(to))
		})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	for i := range cfg.Upstreams {
		up := &cfg.Upstreams[i]
		c, err := factory.Create(clientConfig(up.HTTPClient))
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to create client for upstream '%s': %w", up.Name, err)
		}
		client.SetLogger(c, logger.WithName("upstream").WithValues("upstream", up.Name))
		rt.clients[up.Name] = c
	}

	logger.Info("Runtime initialized",
		"store", store.Type(),
		"open_interval_ms", cfg.Breaker.OpenInterval,
		"recommend_url", cfg.Recommend.URL,
		"upstreams", len(cfg.Upstreams))

	return rt, nil
}

// clientConfig 未配置时使用空配置
func clientConfig(c *config.HTTPClientConfig) *config.HTTPClientConfig {
	if c == nil {
		return &config.HTTPClientConfig{KeepAlive: constants.DefaultKeepAlive}
	}
	return c
}

// Client 获取上游对应的HTTP客户端
func (r *Runtime) Client(upstreamName string) (client.HTTPClient, bool) {
	c, ok := r.clients[upstreamName]
	return c, ok
}

// Close 关闭所有客户端和状态存储
func (r *Runtime) Close() error {
	var errs []error
	for name, c := range r.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client for upstream '%s': %w", name, err))
		}
	}
	if r.recommendClient != nil {
		if err := r.recommendClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close recommendation client: %w", err))
		}
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close breaker state store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SharedCollector 获取或创建全局共享的 Prometheus 指标收集器
func SharedCollector() (metrics.MetricsCollector, error) {
	registry := metrics.GetGlobalRegistry()
	if collector, ok := registry.GetCollector(constants.MetricsCollectorGlobal); ok {
		return collector, nil
	}
	collector, err := registry.CreateSharedCollector(constants.MetricsCollectorGlobal, &metrics.Config{
		Type:      constants.MetricsTypePrometheus,
		Enabled:   true,
		Namespace: constants.MetricsNamespace,
	})
	if errors.Is(err, metrics.ErrCollectorAlreadyRegistered) {
		if existing, ok := registry.GetCollector(constants.MetricsCollectorGlobal); ok {
			return existing, nil
		}
	}
	return collector, err
}
