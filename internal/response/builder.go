// Package response 提供对外接口的统一响应格式
//
// 透传和管理接口使用基于 httptool.BaseHttpResponse 的信封格式：
//
//	response.Error(response.CodeCircuitBreaker, "upstream circuit breaker is open").
//		WithDetail(detail).
//		JSON(c, http.StatusServiceUnavailable)
//
// 相关书籍接口的错误沿用移动端 BFF 透传的简单消息格式：
//
//	response.Message(c, http.StatusGatewayTimeout, "External service timeout")
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shengyanli1982/toolkit/pkg/httptool"
)

// 响应代码常量定义
const (
	// CodeSuccess 表示操作成功
	CodeSuccess = 0

	// 1000-1999: 客户端错误
	CodeBadRequest = 1000 // 请求参数错误
	CodeNotFound   = 1003 // 资源未找到
	CodeRateLimit  = 1004 // 请求频率限制

	// 2000-2999: 服务器错误
	CodeInternalError      = 2000 // 服务器内部错误
	CodeBadGateway         = 2001 // 网关错误
	CodeServiceUnavailable = 2002 // 服务不可用
	CodeGatewayTimeout     = 2003 // 网关超时

	// 3000-3999: 熔断相关错误
	CodeCircuitBreaker = 3000 // 上游熔断器开启
)

// MessageBody 相关书籍接口的错误响应体
type MessageBody struct {
	Message string `json:"message"`
}

// ResponseBuilder 信封格式响应构建器
type ResponseBuilder struct {
	response *httptool.BaseHttpResponse
}

// Success 创建成功响应构建器
func Success(data interface{}) *ResponseBuilder {
	return &ResponseBuilder{
		response: &httptool.BaseHttpResponse{
			Code: CodeSuccess,
			Data: data,
		},
	}
}

// Error 创建错误响应构建器
func Error(code int64, message string) *ResponseBuilder {
	return &ResponseBuilder{
		response: &httptool.BaseHttpResponse{
			Code:         code,
			ErrorMessage: message,
		},
	}
}

// WithDetail 添加错误详细信息
func (r *ResponseBuilder) WithDetail(detail interface{}) *ResponseBuilder {
	r.response.ErrorDetail = detail
	return r
}

// JSON 将响应写入 gin.Context
func (r *ResponseBuilder) JSON(c *gin.Context, httpStatus int) {
	c.JSON(httpStatus, r.response)
}

// GetResponse 获取底层的 BaseHttpResponse
func (r *ResponseBuilder) GetResponse() *httptool.BaseHttpResponse {
	return r.response
}

// OK 返回成功响应（HTTP 200）
func OK(c *gin.Context, data interface{}) {
	Success(data).JSON(c, http.StatusOK)
}

// NoContent 返回无响应体的 204
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Message 以 {"message": ...} 格式返回错误
func Message(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, MessageBody{Message: message})
}

// Raw 原样返回下游响应体
func Raw(c *gin.Context, httpStatus int, contentType string, body []byte) {
	if contentType == "" {
		contentType = gin.MIMEJSON
	}
	c.Data(httpStatus, contentType, body)
}

// NotFound 返回资源未找到错误响应（HTTP 404）
func NotFound(c *gin.Context, message string) {
	Error(CodeNotFound, message).JSON(c, http.StatusNotFound)
}

// TooManyRequests 返回请求过多错误响应（HTTP 429）
func TooManyRequests(c *gin.Context, message string) {
	Error(CodeRateLimit, message).JSON(c, http.StatusTooManyRequests)
}

// InternalServerError 返回服务器内部错误响应（HTTP 500）
func InternalServerError(c *gin.Context, message string) {
	Error(CodeInternalError, message).JSON(c, http.StatusInternalServerError)
}

// BadGateway 返回网关错误响应（HTTP 502）
func BadGateway(c *gin.Context, message string) {
	Error(CodeBadGateway, message).JSON(c, http.StatusBadGateway)
}

// ServiceUnavailable 返回服务不可用错误响应（HTTP 503）
func ServiceUnavailable(c *gin.Context, message string) {
	Error(CodeServiceUnavailable, message).JSON(c, http.StatusServiceUnavailable)
}

// GatewayTimeout 返回网关超时错误响应（HTTP 504）
func GatewayTimeout(c *gin.Context, message string) {
	Error(CodeGatewayTimeout, message).JSON(c, http.StatusGatewayTimeout)
}
