package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
	"github.com/shengyanli1982/bookbff-go/internal/headers"
)

// 客户端相关错误定义
var (
	ErrNilRequest   = errors.New(constants.ErrMsgNilRequest)
	ErrNilUpstream  = errors.New(constants.ErrMsgNilUpstream)
	ErrClientClosed = errors.New(constants.ErrMsgClientClosed)
)

var clientSeq atomic.Uint64

// httpClient HTTP客户端实现
type httpClient struct {
	name           string
	client         *http.Client
	pool           *ConnectionPool
	proxyHandler   *ProxyHandler
	config         *config.HTTPClientConfig
	closed         atomic.Bool
	headerOperator headers.HeaderOperator
	logger         logr.Logger
}

// NewHTTPClient 创建新的HTTP客户端实例
func NewHTTPClient(cfg *config.HTTPClientConfig) (HTTPClient, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	pool := NewConnectionPool(cfg)
	proxyHandler := NewProxyHandler(cfg.Proxy)
	pool.GetTransport().Proxy = proxyHandler.GetProxyFunc()

	requestTimeout := constants.DefaultRequestTimeout
	if cfg.Timeout != nil && cfg.Timeout.Request > 0 {
		requestTimeout = cfg.Timeout.Request
	}

	return &httpClient{
		name: fmt.Sprintf("http-client-%d", clientSeq.Add(1)),
		client: &http.Client{
			Transport: pool.GetTransport(),
			Timeout:   time.Duration(requestTimeout) * time.Millisecond,
		},
		pool:           pool,
		proxyHandler:   proxyHandler,
		config:         cfg,
		headerOperator: headers.NewOperator(),
		logger:         logr.Discard(),
	}, nil
}

// Do 执行HTTP请求到指定目标服务
func (c *httpClient) Do(req *http.Request, target *Target) (*http.Response, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if req == nil {
		return nil, ErrNilRequest
	}
	if target == nil {
		return nil, ErrNilUpstream
	}

	if err := c.prepareRequest(req, target); err != nil {
		c.logger.Error(err, "Failed to prepare request", "target", target.Name)
		return nil, fmt.Errorf("failed to prepare request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.V(1).Info("HTTP request failed",
			"target", target.Name,
			"url", req.URL.String(),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error())
		return nil, err
	}

	c.logger.V(1).Info("HTTP request completed",
		"target", target.Name,
		"url", req.URL.String(),
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	return resp, nil
}

// prepareRequest 将请求改写到目标服务并应用头部操作
// 注意：此方法会修改传入的http.Request
func (c *httpClient) prepareRequest(req *http.Request, target *Target) error {
	if target.URL == "" {
		return fmt.Errorf("target URL cannot be empty for '%s'", target.Name)
	}

	targetURL, err := url.Parse(target.URL)
	if err == nil && targetURL.Scheme == "" {
		targetURL, err = url.Parse(constants.DefaultScheme + target.URL)
	}
	if err != nil {
		return fmt.Errorf("invalid target URL '%s': %w", target.URL, err)
	}
	if targetURL.Host == "" {
		return fmt.Errorf("target URL must include host: %s", target.URL)
	}

	req.URL.Scheme = targetURL.Scheme
	req.URL.Host = targetURL.Host

	// 目标 URL 带路径时替换请求路径，否则保留请求原路径
	if targetURL.Path != "" && targetURL.Path != "/" {
		req.URL.Path = targetURL.Path
		req.URL.RawPath = targetURL.RawPath
		if targetURL.RawQuery != "" {
			req.URL.RawQuery = targetURL.RawQuery
		}
	}

	if len(target.Headers) > 0 {
		if err := c.headerOperator.Process(req.Header, target.Headers); err != nil {
			return fmt.Errorf("failed to process headers: %w", err)
		}
	}

	c.setDefaultHeaders(req)
	return nil
}

// setDefaultHeaders 设置默认HTTP头部
func (c *httpClient) setDefaultHeaders(req *http.Request) {
	if req.Header.Get(constants.HeaderUserAgent) == "" {
		agent := c.config.Agent
		if agent == "" {
			agent = constants.UserAgent
		}
		req.Header.Set(constants.HeaderUserAgent, agent)
	}

	if c.config.KeepAlive == 0 {
		req.Header.Set(constants.HeaderConnection, constants.ConnectionClose)
	} else {
		req.Header.Set(constants.HeaderConnection, constants.ConnectionKeepAlive)
	}

	// 保持原始Host头部用于代理
	if req.Header.Get(constants.HeaderXForwardedHost) == "" && req.Host != "" {
		req.Header.Set(constants.HeaderXForwardedHost, req.Host)
	}
}

// Close 关闭客户端并清理资源
func (c *httpClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.pool.Close()
}

// Name 获取客户端名称
func (c *httpClient) Name() string {
	return c.name
}

// SetLogger 设置日志记录器
func (c *httpClient) SetLogger(logger logr.Logger) {
	c.logger = logger
}

// SetLogger 为支持的客户端设置日志记录器
func SetLogger(c HTTPClient, logger logr.Logger) {
	if l, ok := c.(interface{ SetLogger(logr.Logger) }); ok {
		l.SetLogger(logger)
	}
}
