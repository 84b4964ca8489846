package client

import (
	"net/http"
	"net/url"

	"github.com/shengyanli1982/bookbff-go/internal/config"
)

// ProxyHandler 出站代理处理器
type ProxyHandler struct {
	proxyURL *url.URL
}

// NewProxyHandler 创建代理处理器，未配置或地址无效时回退到环境变量
func NewProxyHandler(proxyConfig *config.ProxyConfig) *ProxyHandler {
	if proxyConfig == nil || proxyConfig.URL == "" {
		return &ProxyHandler{}
	}

	parsedURL, err := url.Parse(proxyConfig.URL)
	if err != nil {
		return &ProxyHandler{}
	}
	return &ProxyHandler{proxyURL: parsedURL}
}

// GetProxyFunc 获取代理函数
func (p *ProxyHandler) GetProxyFunc() func(*http.Request) (*url.URL, error) {
	if p.proxyURL == nil {
		return http.ProxyFromEnvironment
	}
	return http.ProxyURL(p.proxyURL)
}

// IsEnabled 检查是否配置了代理
func (p *ProxyHandler) IsEnabled() bool {
	return p.proxyURL != nil
}

// GetProxyURL 获取代理URL
func (p *ProxyHandler) GetProxyURL() string {
	if p.proxyURL == nil {
		return ""
	}
	return p.proxyURL.String()
}
