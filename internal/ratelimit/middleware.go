package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
	"github.com/shengyanli1982/bookbff-go/internal/response"
)

// RejectFunc 请求被限流时的回调
type RejectFunc func(c *gin.Context, clientIP string)

// Middleware 按客户端 IP 限流的 gin 中间件
type Middleware struct {
	limiter  RateLimiter
	onReject RejectFunc
}

// NewMiddleware 创建限流中间件
func NewMiddleware(limiter RateLimiter, onReject RejectFunc) *Middleware {
	return &Middleware{limiter: limiter, onReject: onReject}
}

// Handler 返回 gin 中间件函数
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ClientIP(c.Request)
		if ip == "" || m.limiter.Allow(ip) {
			c.Next()
			return
		}

		if m.onReject != nil {
			m.onReject(c, ip)
		}
		response.Error(response.CodeRateLimit, constants.MsgTooManyRequests).
			WithDetail(map[string]interface{}{"type": "ipLimit"}).
			JSON(c, http.StatusTooManyRequests)
		c.Abort()
	}
}
