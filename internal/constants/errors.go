package constants

const (
	// Error messages - 错误消息

	// ErrMsgServerAlreadyStarted 服务器已启动错误消息
	ErrMsgServerAlreadyStarted = "server already started"

	// ErrMsgServerNotStarted 服务器未启动错误消息
	ErrMsgServerNotStarted = "server not started"

	// ErrMsgNilRequest 空请求错误消息
	ErrMsgNilRequest = "request cannot be nil"

	// ErrMsgNilUpstream 空上游错误消息
	ErrMsgNilUpstream = "upstream cannot be nil"

	// ErrMsgClientClosed 客户端已关闭错误消息
	ErrMsgClientClosed = "client is closed"

	// ErrMsgNilStore 空状态存储错误消息
	ErrMsgNilStore = "state store cannot be nil"

	// ErrMsgUnknownStoreType 未知状态存储类型错误消息
	ErrMsgUnknownStoreType = "unknown state store type"
)

const (
	// Circuit breaker taxonomy - 熔断器错误分类

	// ErrMsgCircuitOpen 本地熔断器开启，未发起网络请求
	ErrMsgCircuitOpen = "circuit open"

	// ErrMsgDownstreamTimeout 下游请求超时
	ErrMsgDownstreamTimeout = "downstream timeout"

	// ErrMsgDownstreamUnavailable 下游自身报告不可用
	ErrMsgDownstreamUnavailable = "downstream unavailable"

	// ErrMsgDownstreamUnexpected 下游返回非预期状态
	ErrMsgDownstreamUnexpected = "downstream unexpected status"
)

const (
	// Client facing messages - 客户端响应消息

	// MsgCircuitOpen 熔断器开启时的响应消息
	MsgCircuitOpen = "Circuit open — try later"

	// MsgDownstreamTimeout 推荐服务超时的响应消息
	MsgDownstreamTimeout = "External service timeout"

	// MsgDownstreamUnavailable 推荐服务自身熔断时的响应消息
	MsgDownstreamUnavailable = "Circuit open (downstream unavailable)"

	// MsgDownstreamUnexpected 推荐服务返回非预期状态的响应消息前缀
	MsgDownstreamUnexpected = "Unexpected downstream status"

	// MsgTooManyRequests 客户端请求被限流
	MsgTooManyRequests = "too many requests from this IP"

	// MsgUpstreamBreakerOpen 透传上游熔断器开启
	MsgUpstreamBreakerOpen = "upstream circuit breaker is open"

	// MsgNoRoute 无匹配透传路由
	MsgNoRoute = "no route matches the request path"

	// MsgUpstreamFailed 透传上游请求失败
	MsgUpstreamFailed = "upstream request failed"

	// MsgUpstreamTimeout 透传上游请求超时
	MsgUpstreamTimeout = "upstream request timed out"

	// MsgInvalidRequest 请求体无法读取
	MsgInvalidRequest = "failed to read request body"
)

const (
	// Error types for metrics - 指标错误类型

	// ErrorTypeProcessing 处理错误类型
	ErrorTypeProcessing = "processing_error"

	// ErrorTypeNoRoute 无匹配路由错误类型
	ErrorTypeNoRoute = "no_route"

	// ErrorTypeExecution 执行错误类型
	ErrorTypeExecution = "execution_error"

	// ErrorTypeBreakerOpen 上游熔断器开启错误类型
	ErrorTypeBreakerOpen = "breaker_open"

	// ErrorTypeTimeout 上游超时错误类型
	ErrorTypeTimeout = "timeout"

	// ErrorTypeUnknown 未知错误类型
	ErrorTypeUnknown = "unknown"
)
