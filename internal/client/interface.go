package client

import (
	"net/http"

	"github.com/shengyanli1982/bookbff-go/internal/config"
)

// HTTPClient 代表HTTP客户端接口
type HTTPClient interface {
	// Do 执行HTTP请求到指定目标服务
	Do(req *http.Request, target *Target) (*http.Response, error)

	// Close 关闭客户端并清理资源
	Close() error

	// Name 获取客户端名称
	Name() string
}

// HTTPClientFactory 代表HTTP客户端工厂接口
type HTTPClientFactory interface {
	// Create 根据配置创建HTTP客户端
	Create(config *config.HTTPClientConfig) (HTTPClient, error)
}

// Target 代表请求的目标服务
// URL 只含主机时保留请求原路径，含路径时使用该路径
type Target struct {
	Name    string
	URL     string
	Headers []config.HeaderOpConfig
}
