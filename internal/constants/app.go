// Package constants 定义项目中使用的应用级常量
package constants

const (
	// Application metadata - 应用程序元数据

	// DefaultVersion 应用程序默认版本号
	DefaultVersion = "0.0.0"

	// AppName 应用程序名称
	AppName = "BookBFF"

	// UserAgent 默认HTTP用户代理字符串
	UserAgent = "BookBFF/1.0"

	// DefaultConfigPath 默认配置文件路径
	DefaultConfigPath = "./config.yaml"
)

const (
	// Exit codes - 程序退出码

	// ExitFailure 程序异常退出码
	ExitFailure = -1

	// ExitSuccess 程序正常退出码
	ExitSuccess = 0
)

const (
	// Metrics collector constants - 指标收集器常量

	// MetricsCollectorGlobal 全局指标收集器名称
	MetricsCollectorGlobal = "global"

	// MetricsTypePrometheus Prometheus指标类型
	MetricsTypePrometheus = "prometheus"

	// MetricsNamespace 指标命名空间
	MetricsNamespace = "bookbff"
)

const (
	// Related books endpoint - 相关书籍端点

	// RelatedBooksSuffix 相关书籍路径后缀
	RelatedBooksSuffix = "/related-books"

	// BooksPrefix 书籍路径前缀
	BooksPrefix = "/books"

	// StatusPath 健康检查路径
	StatusPath = "/status"

	// StatusText 健康检查响应文本
	StatusText = "OK"

	// ISBNPlaceholder 推荐服务端点模板中的 ISBN 占位符
	ISBNPlaceholder = "{isbn}"
)
