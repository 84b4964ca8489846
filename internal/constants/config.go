package constants

const (
	// Command line flags - 命令行标志

	// FlagConfig 配置文件路径参数名
	FlagConfig = "config"

	// FlagJSON JSON日志格式参数名
	FlagJSON = "json"

	// FlagRelease 发布模式参数名
	FlagRelease = "release"

	// Flag short aliases - 短参数别名

	// FlagConfigShort 配置文件路径短参数
	FlagConfigShort = "c"

	// FlagJSONShort JSON日志格式短参数
	FlagJSONShort = "j"

	// FlagReleaseShort 发布模式短参数
	FlagReleaseShort = "r"
)

const (
	// Limits and constraints - 限制和约束

	// MinTimeout 最小超时时间（毫秒）
	MinTimeout = 1000

	// MaxTimeout 最大超时时间（毫秒，24小时）
	MaxTimeout = 86400000

	// MinPort 最小端口号
	MinPort = 1

	// MaxPort 最大端口号
	MaxPort = 65535

	// MaxRequests 熔断器半开状态最大请求数
	MaxRequests = 100
)

const (
	// Default configuration values - 配置默认值

	// DefaultAddress 默认绑定地址
	DefaultAddress = "0.0.0.0"

	// DefaultForwardPort 默认转发端口
	DefaultForwardPort = 3000

	// DefaultAdminPort 默认管理端口
	DefaultAdminPort = 9000

	// DefaultRequestTimeout 默认HTTP请求超时时间（毫秒）
	DefaultRequestTimeout = 60000

	// DefaultIdleTimeout 默认空闲超时（毫秒）
	DefaultIdleTimeout = 60000

	// DefaultReadTimeout 默认读取超时（毫秒）
	DefaultReadTimeout = 30000

	// DefaultWriteTimeout 默认写入超时（毫秒）
	DefaultWriteTimeout = 30000

	// DefaultConnectTimeout 默认连接超时（毫秒）
	DefaultConnectTimeout = 10000

	// DefaultForwardRequestTimeout 默认转发请求超时（毫秒）
	DefaultForwardRequestTimeout = 30000

	// DefaultKeepAlive 默认Keep-Alive时间（毫秒）
	DefaultKeepAlive = 60000

	// DefaultRatePerSecond 默认每秒请求数
	DefaultRatePerSecond = 100

	// DefaultRateBurst 默认突发请求数
	DefaultRateBurst = 200

	// DefaultRateIdle 令牌桶空闲多久后被清理，单位毫秒
	DefaultRateIdle = 300000

	// DefaultBreakerThreshold 默认熔断器阈值
	DefaultBreakerThreshold = 0.5

	// DefaultBreakerCooldown 默认熔断器冷却时间（毫秒）
	DefaultBreakerCooldown = 30000

	// DefaultBreakerMaxRequests 默认熔断器最大请求数
	DefaultBreakerMaxRequests = 3

	// DefaultBreakerInterval 默认熔断器间隔（毫秒）
	DefaultBreakerInterval = 10000

	// DefaultBreakerMinRequests 触发熔断前的最小请求数
	DefaultBreakerMinRequests = 5

	// DefaultIdleTotal 默认总空闲连接数
	DefaultIdleTotal = 100

	// DefaultIdlePerHost 默认每主机空闲连接数
	DefaultIdlePerHost = 10

	// DefaultMaxPerHost 默认每主机最大连接数
	DefaultMaxPerHost = 50
)

const (
	// Related books circuit breaker defaults - 相关书籍熔断器默认值

	// DefaultOpenInterval 熔断器开启后阻断请求的时长（毫秒）
	DefaultOpenInterval = 60000

	// DefaultRecommendTimeout 推荐服务调用超时（毫秒）
	DefaultRecommendTimeout = 3000

	// DefaultRecommendURL 推荐服务端点模板
	DefaultRecommendURL = "http://localhost:3000/recommended-titles/isbn/{isbn}"

	// DefaultStoreType 默认状态存储类型
	DefaultStoreType = StoreTypeFile

	// DefaultStorePath 默认状态文件路径
	DefaultStorePath = "/tmp/related_books_circuit.json"

	// DefaultStoreKey 默认状态存储键
	DefaultStoreKey = "bookbff:related_books_circuit"

	// DefaultRedisAddr 默认 Redis 地址
	DefaultRedisAddr = "localhost:6379"
)

const (
	// State store types - 状态存储类型

	// StoreTypeFile 文件存储（原子重命名）
	StoreTypeFile = "file"

	// StoreTypeMemory 进程内存储（单实例部署）
	StoreTypeMemory = "memory"

	// StoreTypeRedis Redis 共享存储
	StoreTypeRedis = "redis"

	// StoreTypeBadger BadgerDB 嵌入式存储
	StoreTypeBadger = "badger"
)
