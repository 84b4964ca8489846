package config

// Config 代表主配置结构体，包含HTTP服务器、上游服务、推荐服务和熔断器的完整配置
type Config struct {
	HTTPServer HTTPServerConfig `yaml:"httpServer" json:"httpServer" validate:"required"`
	Upstreams  []UpstreamConfig `yaml:"upstreams" json:"upstreams" validate:"dive"`
	Recommend  RecommendConfig  `yaml:"recommend" json:"recommend"`
	Breaker    BreakerConfig    `yaml:"breaker" json:"breaker"`
}

// HTTPServerConfig 代表HTTP服务器配置，包含转发服务和管理服务设置
type HTTPServerConfig struct {
	Forwards []ForwardConfig `yaml:"forwards" json:"forwards" validate:"required,dive"`
	Admin    AdminConfig     `yaml:"admin" json:"admin"`
}

// ForwardConfig 代表转发服务配置，定义单个对外服务实例的参数
type ForwardConfig struct {
	Name      string           `yaml:"name" json:"name" validate:"required"`
	Port      int              `yaml:"port" json:"port" validate:"required,min=1,max=65535"`
	Address   string           `yaml:"address" json:"address"`
	RateLimit *RateLimitConfig `yaml:"ratelimit,omitempty" json:"ratelimit,omitempty"`
	Timeout   *TimeoutConfig   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Routes    []RouteConfig    `yaml:"routes,omitempty" json:"routes,omitempty" validate:"dive"`
}

// RouteConfig 代表路径前缀到上游服务的透传映射
type RouteConfig struct {
	Prefix   string `yaml:"prefix" json:"prefix" validate:"required,startswith=/"`
	Upstream string `yaml:"upstream" json:"upstream" validate:"required"`
}

// AdminConfig 代表管理服务配置，用于健康检查、熔断器状态和监控指标暴露
type AdminConfig struct {
	Port    int            `yaml:"port" json:"port" validate:"min=1,max=65535"`
	Address string         `yaml:"address" json:"address"`
	Timeout *TimeoutConfig `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// RateLimitConfig 代表限流配置，控制请求频率和突发流量
type RateLimitConfig struct {
	PerSecond int `yaml:"perSecond" json:"perSecond" validate:"omitempty,min=1,max=65535"`
	Burst     int `yaml:"burst" json:"burst" validate:"omitempty,min=1,max=65535"`
	Idle      int `yaml:"idle,omitempty" json:"idle,omitempty" validate:"omitempty,min=1000,max=86400000"` // 单位：毫秒
}

// TimeoutConfig 代表超时配置，定义各种操作的超时时间（单位：毫秒）
type TimeoutConfig struct {
	Idle    int `yaml:"idle,omitempty" json:"idle,omitempty" validate:"omitempty,min=1000,max=86400000"`
	Read    int `yaml:"read,omitempty" json:"read,omitempty" validate:"omitempty,min=1000,max=86400000"`
	Write   int `yaml:"write,omitempty" json:"write,omitempty" validate:"omitempty,min=1000,max=86400000"`
	Connect int `yaml:"connect,omitempty" json:"connect,omitempty" validate:"omitempty,min=1000,max=86400000"`
	Request int `yaml:"request,omitempty" json:"request,omitempty" validate:"omitempty,min=1000,max=86400000"`
}

// UpstreamConfig 代表上游服务配置，定义书籍、客户等后端服务的连接参数
type UpstreamConfig struct {
	Name       string                 `yaml:"name" json:"name" validate:"required"`
	URL        string                 `yaml:"url" json:"url" validate:"required,http_url"`
	Headers    []HeaderOpConfig       `yaml:"headers,omitempty" json:"headers,omitempty" validate:"dive"`
	Breaker    *UpstreamBreakerConfig `yaml:"breaker,omitempty" json:"breaker,omitempty"`
	HTTPClient *HTTPClientConfig      `yaml:"httpClient,omitempty" json:"httpClient,omitempty"`
}

// HeaderOpConfig 代表HTTP头部操作配置，用于修改转发请求的头部信息
type HeaderOpConfig struct {
	Op    string `yaml:"op" json:"op" validate:"required,oneof=insert replace remove"`
	Key   string `yaml:"key" json:"key" validate:"required"`
	Value string `yaml:"value,omitempty" json:"value,omitempty" validate:"header_conditional"`
}

// UpstreamBreakerConfig 代表透传上游的进程内熔断器配置
type UpstreamBreakerConfig struct {
	Threshold   float64 `yaml:"threshold,omitempty" json:"threshold,omitempty" validate:"omitempty,min=0.01,max=1.0"`
	Cooldown    int     `yaml:"cooldown,omitempty" json:"cooldown,omitempty" validate:"omitempty,min=1000,max=3600000"` // 单位：毫秒
	MaxRequests uint32  `yaml:"maxRequests,omitempty" json:"maxRequests,omitempty" validate:"omitempty,min=1,max=100"`
	Interval    int     `yaml:"interval,omitempty" json:"interval,omitempty" validate:"omitempty,min=1000,max=3600000"` // 单位：毫秒
}

// RecommendConfig 代表推荐服务（相关书籍）调用配置
// URL 为端点模板，必须包含 {isbn} 占位符
type RecommendConfig struct {
	URL        string            `yaml:"url" json:"url" validate:"required,http_url,isbn_template"`
	Timeout    int               `yaml:"timeout" json:"timeout" validate:"min=100,max=60000"` // 单位：毫秒
	HTTPClient *HTTPClientConfig `yaml:"httpClient,omitempty" json:"httpClient,omitempty"`
}

// BreakerConfig 代表相关书籍熔断器配置
type BreakerConfig struct {
	OpenInterval int         `yaml:"openInterval" json:"openInterval" validate:"min=1000,max=86400000"` // 单位：毫秒
	Store        StoreConfig `yaml:"store" json:"store"`
}

// StoreConfig 代表熔断器状态存储配置
type StoreConfig struct {
	Type  string       `yaml:"type" json:"type" validate:"oneof=file memory redis badger"`
	Path  string       `yaml:"path,omitempty" json:"path,omitempty"`
	Key   string       `yaml:"key,omitempty" json:"key,omitempty"`
	Redis *RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// RedisConfig 代表 Redis 连接配置
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr" validate:"required,hostname_port"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty" validate:"min=0,max=15"`
}

// HTTPClientConfig 代表HTTP客户端配置，控制与上游服务的连接行为
type HTTPClientConfig struct {
	Agent     string         `yaml:"agent" json:"agent"`
	KeepAlive int            `yaml:"keepalive" json:"keepalive" validate:"min=0,max=600000"` // 单位：毫秒
	Connect   *ConnectConfig `yaml:"connect,omitempty" json:"connect,omitempty"`
	Timeout   *TimeoutConfig `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Proxy     *ProxyConfig   `yaml:"proxy,omitempty" json:"proxy,omitempty"`
}

// ConnectConfig 代表连接池配置，控制HTTP连接的复用和管理
type ConnectConfig struct {
	IdleTotal   int `yaml:"idleTotal" json:"idleTotal" validate:"min=0,max=1000"`
	IdlePerHost int `yaml:"idlePerHost" json:"idlePerHost" validate:"min=0,max=100"`
	MaxPerHost  int `yaml:"maxPerHost" json:"maxPerHost" validate:"min=0,max=500"`
}

// ProxyConfig 代表代理配置，设置HTTP代理服务器
type ProxyConfig struct {
	URL string `yaml:"url" json:"url" validate:"required,url"`
}
