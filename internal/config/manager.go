package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
	"gopkg.in/yaml.v3"
)

// 全局验证器实例，用于配置验证
var validate = validator.New()

// Manager 代表配置管理器，负责配置文件的加载、验证和管理
type Manager struct {
	config     *Config             // 当前加载的配置实例
	configPath string              // 配置文件的绝对路径
	validator  *validator.Validate // 配置验证器
}

// NewManager 创建新的配置管理器实例
func NewManager() (*Manager, error) {
	var err error
	// 注册自定义验证器
	err = validate.RegisterValidation("header_conditional", validateHeaderConditional)
	if err != nil {
		return nil, err
	}
	err = validate.RegisterValidation("http_url", validateHTTPURL)
	if err != nil {
		return nil, err
	}
	err = validate.RegisterValidation("isbn_template", validateISBNTemplate)
	if err != nil {
		return nil, err
	}

	return &Manager{
		validator: validate,
	}, nil
}

// LoadFromFile 从指定路径加载配置文件并进行验证
// configPath: 配置文件路径
func (m *Manager) LoadFromFile(configPath string) error {
	// 检查文件是否存在
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := m.LoadFromBytes(data); err != nil {
		return err
	}

	m.configPath, _ = filepath.Abs(configPath)
	return nil
}

// LoadFromBytes 解析 YAML 内容，填充默认值后验证
func (m *Manager) LoadFromBytes(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	m.SetDefaults(&config)

	if err := m.validator.Struct(&config); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := m.validateReferences(&config); err != nil {
		return fmt.Errorf("config reference validation failed: %w", err)
	}

	m.config = &config
	return nil
}

// validateReferences 验证配置中的引用关系和跨字段约束
// config: 待验证的配置实例
func (m *Manager) validateReferences(config *Config) error {
	// 构建上游服务名称映射，用于快速查找
	upstreamNames := make(map[string]bool, len(config.Upstreams))
	for _, upstream := range config.Upstreams {
		if upstreamNames[upstream.Name] {
			return fmt.Errorf("duplicate upstream name '%s'", upstream.Name)
		}
		upstreamNames[upstream.Name] = true
	}

	forwardNames := make(map[string]bool, len(config.HTTPServer.Forwards))
	for _, forward := range config.HTTPServer.Forwards {
		if forwardNames[forward.Name] {
			return fmt.Errorf("duplicate forward service name '%s'", forward.Name)
		}
		forwardNames[forward.Name] = true

		prefixes := make(map[string]bool, len(forward.Routes))
		for _, route := range forward.Routes {
			if !upstreamNames[route.Upstream] {
				return fmt.Errorf("forward service '%s' route '%s' references unknown upstream '%s'",
					forward.Name, route.Prefix, route.Upstream)
			}
			if prefixes[route.Prefix] {
				return fmt.Errorf("forward service '%s' has duplicate route prefix '%s'",
					forward.Name, route.Prefix)
			}
			prefixes[route.Prefix] = true
		}
	}

	return validateStore(&config.Breaker.Store)
}

// validateStore 按存储类型检查必填字段
func validateStore(store *StoreConfig) error {
	switch store.Type {
	case constants.StoreTypeFile, constants.StoreTypeBadger:
		if store.Path == "" {
			return fmt.Errorf("breaker store type '%s' requires a path", store.Type)
		}
	case constants.StoreTypeRedis:
		if store.Redis == nil || store.Redis.Addr == "" {
			return fmt.Errorf("breaker store type '%s' requires redis.addr", store.Type)
		}
		if store.Key == "" {
			return fmt.Errorf("breaker store type '%s' requires a key", store.Type)
		}
	}
	return nil
}

// GetConfig 返回当前加载的配置实例
func (m *Manager) GetConfig() *Config {
	return m.config
}

// GetConfigPath 返回当前配置文件的绝对路径
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// SetDefaults 为配置设置默认值，确保所有必需字段都有合理的默认值
// config: 待设置默认值的配置实例
func (m *Manager) SetDefaults(config *Config) {
	m.setForwardDefaults(config)
	m.setAdminDefaults(config)
	m.setUpstreamDefaults(config)
	m.setRecommendDefaults(config)
	m.setBreakerDefaults(config)
}

// setForwardDefaults 设置转发服务的默认值
func (m *Manager) setForwardDefaults(config *Config) {
	for i := range config.HTTPServer.Forwards {
		forward := &config.HTTPServer.Forwards[i]
		if forward.Address == "" {
			forward.Address = constants.DefaultAddress
		}
		if forward.RateLimit == nil {
			forward.RateLimit = &RateLimitConfig{
				PerSecond: constants.DefaultRatePerSecond,
				Burst:     constants.DefaultRateBurst,
			}
		}
		forward.Timeout = fillServerTimeout(forward.Timeout)
	}
}

// setAdminDefaults 设置管理服务的默认值
func (m *Manager) setAdminDefaults(config *Config) {
	admin := &config.HTTPServer.Admin
	if admin.Port == 0 {
		admin.Port = constants.DefaultAdminPort
	}
	if admin.Address == "" {
		admin.Address = constants.DefaultAddress
	}
	admin.Timeout = fillServerTimeout(admin.Timeout)
}

// setUpstreamDefaults 设置上游服务的默认值
func (m *Manager) setUpstreamDefaults(config *Config) {
	for i := range config.Upstreams {
		upstream := &config.Upstreams[i]
		if upstream.Breaker != nil {
			if upstream.Breaker.Threshold == 0 {
				upstream.Breaker.Threshold = constants.DefaultBreakerThreshold
			}
			if upstream.Breaker.Cooldown == 0 {
				upstream.Breaker.Cooldown = constants.DefaultBreakerCooldown
			}
			if upstream.Breaker.MaxRequests == 0 {
				upstream.Breaker.MaxRequests = constants.DefaultBreakerMaxRequests
			}
			if upstream.Breaker.Interval == 0 {
				upstream.Breaker.Interval = constants.DefaultBreakerInterval
			}
		}
		upstream.HTTPClient = fillHTTPClient(upstream.HTTPClient, constants.DefaultForwardRequestTimeout)
	}
}

// setRecommendDefaults 设置推荐服务调用的默认值
func (m *Manager) setRecommendDefaults(config *Config) {
	recommend := &config.Recommend
	if recommend.URL == "" {
		recommend.URL = constants.DefaultRecommendURL
	}
	if recommend.Timeout == 0 {
		recommend.Timeout = constants.DefaultRecommendTimeout
	}
	recommend.HTTPClient = fillHTTPClient(recommend.HTTPClient, constants.DefaultForwardRequestTimeout)
}

// setBreakerDefaults 设置熔断器及其状态存储的默认值
func (m *Manager) setBreakerDefaults(config *Config) {
	breaker := &config.Breaker
	if breaker.OpenInterval == 0 {
		breaker.OpenInterval = constants.DefaultOpenInterval
	}

	store := &breaker.Store
	if store.Type == "" {
		store.Type = constants.DefaultStoreType
	}
	switch store.Type {
	case constants.StoreTypeFile:
		if store.Path == "" {
			store.Path = constants.DefaultStorePath
		}
	case constants.StoreTypeRedis:
		if store.Key == "" {
			store.Key = constants.DefaultStoreKey
		}
		if store.Redis == nil {
			store.Redis = &RedisConfig{Addr: constants.DefaultRedisAddr}
		} else if store.Redis.Addr == "" {
			store.Redis.Addr = constants.DefaultRedisAddr
		}
	case constants.StoreTypeBadger:
		if store.Key == "" {
			store.Key = constants.DefaultStoreKey
		}
	}
}

// fillServerTimeout 补齐服务端超时配置中为零的字段
func fillServerTimeout(t *TimeoutConfig) *TimeoutConfig {
	if t == nil {
		t = &TimeoutConfig{}
	}
	if t.Idle == 0 {
		t.Idle = constants.DefaultIdleTimeout
	}
	if t.Read == 0 {
		t.Read = constants.DefaultReadTimeout
	}
	if t.Write == 0 {
		t.Write = constants.DefaultWriteTimeout
	}
	if t.Connect == 0 {
		t.Connect = constants.DefaultConnectTimeout
	}
	if t.Request == 0 {
		t.Request = constants.DefaultRequestTimeout
	}
	return t
}

// fillHTTPClient 补齐客户端配置，request 为请求超时的默认值
func fillHTTPClient(c *HTTPClientConfig, request int) *HTTPClientConfig {
	if c == nil {
		c = &HTTPClientConfig{}
	}
	if c.Agent == "" {
		c.Agent = constants.UserAgent
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = constants.DefaultKeepAlive
	}
	if c.Connect == nil {
		c.Connect = &ConnectConfig{}
	}
	if c.Connect.IdleTotal == 0 {
		c.Connect.IdleTotal = constants.DefaultIdleTotal
	}
	if c.Connect.IdlePerHost == 0 {
		c.Connect.IdlePerHost = constants.DefaultIdlePerHost
	}
	if c.Connect.MaxPerHost == 0 {
		c.Connect.MaxPerHost = constants.DefaultMaxPerHost
	}
	if c.Timeout == nil {
		c.Timeout = &TimeoutConfig{}
	}
	if c.Timeout.Connect == 0 {
		c.Timeout.Connect = constants.DefaultConnectTimeout
	}
	if c.Timeout.Request == 0 {
		c.Timeout.Request = request
	}
	if c.Timeout.Idle == 0 {
		c.Timeout.Idle = constants.DefaultIdleTimeout
	}
	if c.Timeout.Read == 0 {
		c.Timeout.Read = constants.DefaultReadTimeout
	}
	if c.Timeout.Write == 0 {
		c.Timeout.Write = constants.DefaultWriteTimeout
	}
	return c
}

// validateHeaderConditional 验证头部操作配置的条件必填字段
func validateHeaderConditional(fl validator.FieldLevel) bool {
	header, ok := fl.Parent().Interface().(HeaderOpConfig)
	if !ok {
		return true
	}

	switch header.Op {
	case constants.HeaderOpInsert, constants.HeaderOpReplace:
		return header.Value != ""
	case constants.HeaderOpRemove:
		return true
	default:
		return false
	}
}

// validateHTTPURL 验证URL必须使用HTTP或HTTPS协议
func validateHTTPURL(fl validator.FieldLevel) bool {
	urlStr := fl.Field().String()
	if urlStr == "" {
		return false
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	// 检查协议必须是http或https（大小写不敏感）
	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != constants.ProtocolHTTP && scheme != constants.ProtocolHTTPS {
		return false
	}

	return parsedURL.Host != ""
}

// validateISBNTemplate 验证推荐端点模板包含 ISBN 占位符
func validateISBNTemplate(fl validator.FieldLevel) bool {
	return strings.Contains(fl.Field().String(), constants.ISBNPlaceholder)
}
