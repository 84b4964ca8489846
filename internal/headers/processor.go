package headers

import (
	"net/http"
	"strings"

	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// hopByHopHeaders 逐跳头部，透传时不转发
var hopByHopHeaders = []string{
	constants.HeaderConnection,
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Processor 代表HTTP头部处理器，负责透传请求的头部整理
type Processor struct {
	operator HeaderOperator
}

// NewProcessor 创建新的HTTP头部处理器
func NewProcessor() *Processor {
	return &Processor{
		operator: NewOperator(),
	}
}

// NewProcessorWithOperator 使用指定操作器创建处理器
func NewProcessorWithOperator(operator HeaderOperator) *Processor {
	return &Processor{
		operator: operator,
	}
}

// ApplyToRequest 将头部操作应用到HTTP请求
func (p *Processor) ApplyToRequest(req *http.Request, ops []config.HeaderOpConfig) error {
	if req == nil {
		return ErrNilHeader
	}
	return p.operator.Process(req.Header, ops)
}

// ApplyFromUpstreamConfig 从上游配置应用头部操作
func (p *Processor) ApplyFromUpstreamConfig(req *http.Request, upstreamConfig *config.UpstreamConfig) error {
	if req == nil {
		return ErrNilHeader
	}
	if upstreamConfig == nil || len(upstreamConfig.Headers) == 0 {
		return nil
	}
	return p.operator.Process(req.Header, upstreamConfig.Headers)
}

// ApplyForwarded 追加客户端地址并记录原始协议
func (p *Processor) ApplyForwarded(req *http.Request, clientIP, scheme string) error {
	if req == nil {
		return ErrNilHeader
	}

	ops := make([]config.HeaderOpConfig, 0, 2)
	if clientIP != "" {
		if prior := req.Header.Get(constants.HeaderXForwardedFor); prior != "" {
			req.Header.Set(constants.HeaderXForwardedFor, prior+", "+clientIP)
		} else {
			req.Header.Set(constants.HeaderXForwardedFor, clientIP)
		}
		ops = append(ops, config.HeaderOpConfig{Op: constants.HeaderOpInsert, Key: constants.HeaderXRealIP, Value: clientIP})
	}
	if scheme != "" {
		ops = append(ops, config.HeaderOpConfig{Op: constants.HeaderOpInsert, Key: constants.HeaderXForwardedProto, Value: scheme})
	}

	return p.operator.Process(req.Header, ops)
}

// StripHopByHop 删除逐跳头部，包括 Connection 中声明的头部
func StripHopByHop(h http.Header) {
	for _, value := range h.Values(constants.HeaderConnection) {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}

// GetOperator 获取内部使用的头部操作器
func (p *Processor) GetOperator() HeaderOperator {
	return p.operator
}
