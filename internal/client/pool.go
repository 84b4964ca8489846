package client

import (
	"net"
	"net/http"
	"time"

	"github.com/shengyanli1982/bookbff-go/internal/config"
)

// ConnectionPool 连接池管理器
type ConnectionPool struct {
	transport *http.Transport
}

// NewConnectionPool 创建新的连接池实例
func NewConnectionPool(cfg *config.HTTPClientConfig) *ConnectionPool {
	dialer := &net.Dialer{
		KeepAlive: time.Duration(cfg.KeepAlive) * time.Millisecond,
	}

	transport := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// KeepAlive 为 0 时禁用连接复用
		DisableKeepAlives: cfg.KeepAlive == 0,
	}

	if cfg.Connect != nil {
		transport.MaxIdleConns = cfg.Connect.IdleTotal
		transport.MaxIdleConnsPerHost = cfg.Connect.IdlePerHost
		transport.MaxConnsPerHost = cfg.Connect.MaxPerHost
	}

	if cfg.Timeout != nil {
		if cfg.Timeout.Connect > 0 {
			dialer.Timeout = time.Duration(cfg.Timeout.Connect) * time.Millisecond
		}
		if cfg.Timeout.Idle > 0 {
			transport.IdleConnTimeout = time.Duration(cfg.Timeout.Idle) * time.Millisecond
		}
	}
	transport.DialContext = dialer.DialContext

	return &ConnectionPool{transport: transport}
}

// GetTransport 获取HTTP传输层
func (p *ConnectionPool) GetTransport() *http.Transport {
	return p.transport
}

// Close 关闭空闲连接
func (p *ConnectionPool) Close() error {
	p.transport.CloseIdleConnections()
	return nil
}
