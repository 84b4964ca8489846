package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/breaker"
	"github.com/shengyanli1982/bookbff-go/internal/client"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
	"github.com/shengyanli1982/bookbff-go/internal/headers"
	"github.com/shengyanli1982/bookbff-go/internal/ratelimit"
	"github.com/shengyanli1982/bookbff-go/internal/response"
	"github.com/shengyanli1982/bookbff-go/internal/upstream"
)

const (
	// MaxRequestBodySize 透传请求体的最大大小（64MB）
	MaxRequestBodySize = 64 << 20

	// StatusClientClosedRequest 客户端在响应前断开
	StatusClientClosedRequest = 499

	// 指标中的路由分类
	routeStatus       = "status"
	routeRelatedBooks = "related_books"
	routeUnmatched    = "unmatched"
)

// 透传响应体复制缓冲区
var copyBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 32*1024)
		return &buf
	},
}

// route 代表已解析的透传路由
type route struct {
	prefix   string
	upstream *upstream.Upstream
	client   client.HTTPClient
}

// matches 判断路径是否落在路由前缀下
func (r *route) matches(path string) bool {
	if !strings.HasPrefix(path, r.prefix) {
		return false
	}
	return len(path) == len(r.prefix) || strings.HasSuffix(r.prefix, "/") || path[len(r.prefix)] == '/'
}

// ForwardService 代表对外服务，处理相关书籍、健康检查和透传请求
type ForwardService struct {
	mu        sync.RWMutex
	config    *config.ForwardConfig
	runtime   *Runtime
	logger    logr.Logger
	processor *headers.Processor
	limiter   *ratelimit.Middleware
	buckets   ratelimit.RateLimiter
	sweeper   *ratelimit.Sweeper
	routes    []*route

	running bool
}

// NewForwardService 创建对外服务
func NewForwardService(cfg *config.ForwardConfig, rt *Runtime, logger logr.Logger) (*ForwardService, error) {
	s := &ForwardService{
		config:    cfg,
		runtime:   rt,
		logger:    logger.WithName("forward").WithValues("forward", cfg.Name),
		processor: headers.NewProcessor(),
	}

	if cfg.RateLimit != nil {
		limiter, err := ratelimit.FromConfig(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		s.buckets = limiter
		s.limiter = ratelimit.NewMiddleware(limiter, func(c *gin.Context, clientIP string) {
			s.logger.V(1).Info("Rate limit exceeded for IP", "ip", clientIP, "path", c.Request.URL.Path)
			rt.Metrics.RecordRateLimitRejection(cfg.Name, "ip")
		})
		s.sweeper = ratelimit.NewSweeper(limiter, ratelimit.IdleFromConfig(cfg.RateLimit), func(removed, remaining int) {
			if removed > 0 {
				s.logger.V(1).Info("Idle rate limit buckets removed", "removed", removed, "remaining", remaining)
			}
		})
	}

	for _, rc := range cfg.Routes {
		up, err := rt.Upstreams.Get(rc.Upstream)
		if err != nil {
			return nil, fmt.Errorf("route '%s': %w", rc.Prefix, err)
		}
		c, ok := rt.Client(rc.Upstream)
		if !ok {
			return nil, fmt.Errorf("route '%s': no client for upstream '%s'", rc.Prefix, rc.Upstream)
		}
		s.routes = append(s.routes, &route{prefix: rc.Prefix, upstream: up, client: c})
	}

	// 最长前缀优先
	sort.SliceStable(s.routes, func(i, j int) bool {
		return len(s.routes[i].prefix) > len(s.routes[j].prefix)
	})

	return s, nil
}

// RegisterGroup 实现orbit.Service接口
func (s *ForwardService) RegisterGroup(g *gin.RouterGroup) {
	if s.limiter != nil {
		g.Use(s.limiter.Handler())
	}
	g.Any("/*path", s.handleForward)
}

// handleForward 按路径分发请求
func (s *ForwardService) handleForward(c *gin.Context) {
	start := time.Now()
	path := c.Request.URL.Path
	label := routeUnmatched

	switch isbn, ok := relatedBooksISBN(path); {
	case path == constants.StatusPath:
		label = routeStatus
		s.handleStatus(c)
	case ok:
		label = routeRelatedBooks
		s.handleRelatedBooks(c, isbn)
	default:
		if r := s.match(path); r != nil {
			label = r.prefix
			s.handlePassthrough(c, r)
		} else {
			s.runtime.Metrics.RecordError(s.config.Name, constants.ErrorTypeNoRoute)
			response.Error(response.CodeNotFound, constants.MsgNoRoute).
				WithDetail(map[string]interface{}{"path": path}).
				JSON(c, http.StatusNotFound)
		}
	}

	s.runtime.Metrics.RecordResponse(s.config.Name, c.Request.Method, label,
		c.Writer.Status(), time.Since(start), requestSize(c.Request), int64(c.Writer.Size()))
}

// relatedBooksISBN 解析 /books/{isbn}/related-books 中的 ISBN
func relatedBooksISBN(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, constants.BooksPrefix+"/")
	if !ok {
		return "", false
	}
	isbn, ok := strings.CutSuffix(rest, constants.RelatedBooksSuffix)
	if !ok || isbn == "" || strings.Contains(isbn, "/") {
		return "", false
	}
	return isbn, true
}

// match 查找路径对应的透传路由
func (s *ForwardService) match(path string) *route {
	for _, r := range s.routes {
		if r.matches(path) {
			return r
		}
	}
	return nil
}

// handleStatus 健康检查
func (s *ForwardService) handleStatus(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Header("Allow", "GET, HEAD")
		c.Status(http.StatusMethodNotAllowed)
		return
	}
	c.String(http.StatusOK, constants.StatusText)
}

// handleRelatedBooks 查询相关书籍
func (s *ForwardService) handleRelatedBooks(c *gin.Context, isbn string) {
	if c.Request.Method != http.MethodGet {
		c.Header("Allow", http.MethodGet)
		response.Message(c, http.StatusMethodNotAllowed, fmt.Sprintf("Method \"%s\" not allowed.", c.Request.Method))
		return
	}

	result, err := s.runtime.Recommend.Related(c.Request.Context(), isbn)
	if err != nil {
		s.writeRelatedBooksError(c, isbn, err)
		return
	}

	if result.Empty() {
		response.NoContent(c)
		return
	}
	response.Raw(c, http.StatusOK, result.ContentType, result.Body)
}

// writeRelatedBooksError 将推荐调用错误映射为响应
func (s *ForwardService) writeRelatedBooksError(c *gin.Context, isbn string, err error) {
	var statusErr *breaker.StatusError

	switch {
	case errors.Is(err, breaker.ErrCircuitOpen):
		response.Message(c, http.StatusServiceUnavailable, constants.MsgCircuitOpen)
	case errors.Is(err, breaker.ErrDownstreamTimeout):
		response.Message(c, http.StatusGatewayTimeout, constants.MsgDownstreamTimeout)
	case errors.Is(err, breaker.ErrDownstreamUnavailable):
		response.Message(c, http.StatusServiceUnavailable, constants.MsgDownstreamUnavailable)
	case errors.As(err, &statusErr):
		response.Message(c, http.StatusServiceUnavailable,
			fmt.Sprintf("%s %d", constants.MsgDownstreamUnexpected, statusErr.StatusCode))
	case errors.Is(err, breaker.ErrDownstreamUnexpected):
		// 未拿到响应的传输错误
		response.Message(c, http.StatusServiceUnavailable, constants.MsgDownstreamUnexpected)
	case errors.Is(err, context.Canceled):
		s.logger.V(1).Info("Client went away before related books were ready", "isbn", isbn)
		c.Status(StatusClientClosedRequest)
		return
	default:
		s.logger.Error(err, "Related books request failed", "isbn", isbn)
		s.runtime.Metrics.RecordError(s.config.Name, constants.ErrorTypeProcessing)
		response.InternalServerError(c, err.Error())
		return
	}

	s.logger.V(1).Info("Related books request failed", "isbn", isbn, "error", err.Error())
}

// handlePassthrough 将请求透传到路由对应的上游
func (s *ForwardService) handlePassthrough(c *gin.Context, r *route) {
	up := r.upstream

	proxyReq, err := s.createProxyRequest(c.Request)
	if err != nil {
		s.logger.V(1).Info("Failed to build upstream request", "upstream", up.Name, "error", err.Error())
		s.runtime.Metrics.RecordError(s.config.Name, constants.ErrorTypeProcessing)
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		response.Error(response.CodeBadRequest, constants.MsgInvalidRequest).
			WithDetail(map[string]interface{}{"error": err.Error()}).
			JSON(c, status)
		return
	}

	start := time.Now()
	resp, err := up.ExecuteWithBreaker(func() (*http.Response, error) {
		return r.client.Do(proxyReq, up.Target())
	})
	if err != nil {
		s.writeUpstreamError(c, up, err)
		return
	}
	defer resp.Body.Close()

	s.runtime.Metrics.RecordUpstreamResponse(up.Name, c.Request.Method, resp.StatusCode, time.Since(start))
	s.logger.V(1).Info("Request forwarded",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"upstream", up.Name,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds())

	s.forwardResponse(c, resp)
}

// writeUpstreamError 将透传失败映射为信封格式响应
func (s *ForwardService) writeUpstreamError(c *gin.Context, up *upstream.Upstream, err error) {
	detail := map[string]interface{}{"upstream": up.Name}

	switch {
	case errors.Is(err, upstream.ErrBreakerOpen):
		s.runtime.Metrics.RecordUpstreamError(up.Name, constants.ErrorTypeBreakerOpen)
		response.Error(response.CodeCircuitBreaker, constants.MsgUpstreamBreakerOpen).
			WithDetail(detail).
			JSON(c, http.StatusServiceUnavailable)
	case errors.Is(err, context.Canceled):
		c.Status(StatusClientClosedRequest)
	case isTimeout(err):
		s.runtime.Metrics.RecordUpstreamError(up.Name, constants.ErrorTypeTimeout)
		response.Error(response.CodeGatewayTimeout, constants.MsgUpstreamTimeout).
			WithDetail(detail).
			JSON(c, http.StatusGatewayTimeout)
	default:
		s.runtime.Metrics.RecordUpstreamError(up.Name, constants.ErrorTypeExecution)
		s.logger.Error(err, "Upstream request failed", "upstream", up.Name, "path", c.Request.URL.Path)
		response.Error(response.CodeBadGateway, constants.MsgUpstreamFailed).
			WithDetail(detail).
			JSON(c, http.StatusBadGateway)
	}
}

var errBodyTooLarge = errors.New("request body too large")

// createProxyRequest 复制客户端请求用于透传
func (s *ForwardService) createProxyRequest(original *http.Request) (*http.Request, error) {
	var body io.Reader
	if original.Body != nil {
		defer original.Body.Close()

		data, err := io.ReadAll(io.LimitReader(original.Body, MaxRequestBodySize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if len(data) > MaxRequestBodySize {
			return nil, fmt.Errorf("%w: limit %d bytes", errBodyTooLarge, MaxRequestBodySize)
		}
		if len(data) > 0 {
			body = bytes.NewReader(data)
		}
	}

	// URL 由客户端改写到上游地址
	proxyReq, err := http.NewRequestWithContext(original.Context(), original.Method, original.URL.RequestURI(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy request: %w", err)
	}

	proxyReq.Header = original.Header.Clone()
	headers.StripHopByHop(proxyReq.Header)
	proxyReq.Header.Set(constants.HeaderXForwardedHost, original.Host)

	if err := s.processor.ApplyForwarded(proxyReq, ratelimit.ClientIP(original), scheme(original)); err != nil {
		return nil, err
	}
	return proxyReq, nil
}

// forwardResponse 复制上游响应
func (s *ForwardService) forwardResponse(c *gin.Context, resp *http.Response) {
	headers.StripHopByHop(resp.Header)
	for name, values := range resp.Header {
		for _, value := range values {
			c.Writer.Header().Add(name, value)
		}
	}
	c.Status(resp.StatusCode)

	buf := copyBufferPool.Get().(*[]byte)
	defer copyBufferPool.Put(buf)

	if _, err := io.CopyBuffer(c.Writer, resp.Body, *buf); err != nil {
		s.logger.Error(err, "Failed to copy response body")
	}
}

// Run 启动服务
func (s *ForwardService) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	if s.sweeper != nil {
		s.sweeper.Start()
	}
	s.logger.Info("Forward service started", "routes", len(s.routes))
}

// Stop 停止服务，运行时组件由 Server 统一释放
func (s *ForwardService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	s.logger.Info("Forward service stopped")
}

// IsRunning 检查服务是否运行中
func (s *ForwardService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// scheme 获取客户端请求协议
func scheme(req *http.Request) string {
	if req.TLS != nil {
		return constants.ProtocolHTTPS
	}
	return constants.ProtocolHTTP
}

// requestSize 获取请求体大小
func requestSize(req *http.Request) int64 {
	if req.ContentLength > 0 {
		return req.ContentLength
	}
	return 0
}
