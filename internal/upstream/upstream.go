// Package upstream 管理书籍、客户等透传上游服务及其进程内熔断器
package upstream

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/client"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/sony/gobreaker"
)

// 上游相关错误定义
var (
	ErrBreakerOpen     = errors.New("upstream circuit breaker is open")
	ErrUnknownUpstream = errors.New("unknown upstream")
	ErrNilConfig       = errors.New("upstream config cannot be nil")
)

// errServerStatus 标记 5xx 响应为熔断器失败，响应本身仍透传给调用方
var errServerStatus = errors.New("upstream returned server error")

// Upstream 代表一个透传上游服务
type Upstream struct {
	Name    string
	URL     string
	Config  *config.UpstreamConfig
	breaker *gobreaker.CircuitBreaker
}

// New 根据配置创建上游服务，未配置熔断器时不做保护
func New(cfg *config.UpstreamConfig, onChange StateChangeFunc) (*Upstream, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	u := &Upstream{
		Name:   cfg.Name,
		URL:    cfg.URL,
		Config: cfg,
	}
	if cfg.Breaker != nil {
		u.breaker = gobreaker.NewCircuitBreaker(SettingsFromConfig(cfg.Name, cfg.Breaker, onChange))
	}
	return u, nil
}

// Target 返回客户端请求目标
func (u *Upstream) Target() *client.Target {
	return &client.Target{Name: u.Name, URL: u.URL, Headers: u.Config.Headers}
}

// HasBreaker 判断是否配置了熔断器
func (u *Upstream) HasBreaker() bool {
	return u.breaker != nil
}

// State 返回熔断器状态，未配置时视为关闭
func (u *Upstream) State() gobreaker.State {
	if u.breaker == nil {
		return gobreaker.StateClosed
	}
	return u.breaker.State()
}

// ExecuteWithBreaker 在熔断器保护下执行请求
// 传输错误和 5xx 响应计为失败，5xx 响应仍原样返回。
func (u *Upstream) ExecuteWithBreaker(fn func() (*http.Response, error)) (*http.Response, error) {
	if u.breaker == nil {
		return fn()
	}

	result, err := u.breaker.Execute(func() (interface{}, error) {
		resp, err := fn()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %s: %v", ErrBreakerOpen, u.Name, err)
	case errors.Is(err, errServerStatus):
		return result.(*http.Response), nil
	case err != nil:
		return nil, err
	}
	return result.(*http.Response), nil
}

// Registry 按名称索引的上游服务集合
type Registry struct {
	upstreams map[string]*Upstream
}

// NewRegistry 根据配置创建全部上游服务
func NewRegistry(cfgs []config.UpstreamConfig, logger logr.Logger, onChange StateChangeFunc) (*Registry, error) {
	r := &Registry{upstreams: make(map[string]*Upstream, len(cfgs))}

	notify := func(name string, from, to gobreaker.State) {
		logger.Info("Upstream circuit breaker state changed", "upstream", name, "from", from.String(), "to", to.String())
		if onChange != nil {
			onChange(name, from, to)
		}
	}

	for i := range cfgs {
		u, err := New(&cfgs[i], notify)
		if err != nil {
			return nil, fmt.Errorf("failed to create upstream '%s': %w", cfgs[i].Name, err)
		}
		r.upstreams[u.Name] = u
	}
	return r, nil
}

// Get 按名称查找上游服务
func (r *Registry) Get(name string) (*Upstream, error) {
	u, ok := r.upstreams[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUpstream, name)
	}
	return u, nil
}

// States 返回所有上游熔断器状态
func (r *Registry) States() map[string]string {
	states := make(map[string]string, len(r.upstreams))
	for name, u := range r.upstreams {
		if u.HasBreaker() {
			states[name] = u.State().String()
		}
	}
	return states
}
