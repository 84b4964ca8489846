package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shengyanli1982/bookbff-go/internal/breaker"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
	"github.com/shengyanli1982/bookbff-go/internal/response"
)

// redacted 敏感配置的替换值
const redacted = "***"

// BreakerView 代表相关书籍熔断器的管理视图
type BreakerView struct {
	Store          string            `json:"store"`
	Phase          string            `json:"phase"`
	Open           bool              `json:"open"`
	OpenedAt       *time.Time        `json:"opened_at,omitempty"`
	OpenIntervalMs int64             `json:"open_interval_ms"`
	RetryAfterMs   int64             `json:"retry_after_ms,omitempty"`
	Upstreams      map[string]string `json:"upstreams,omitempty"`
}

// AdminService 代表管理服务
type AdminService struct {
	mu        sync.RWMutex
	runtime   *Runtime
	server    *Server
	registry  prometheus.Gatherer
	logger    logr.Logger
	version   string
	startTime time.Time
	now       func() time.Time
	running   bool
}

// NewAdminService 创建管理服务
func NewAdminService(rt *Runtime, server *Server, registry prometheus.Gatherer, version string, logger logr.Logger) *AdminService {
	return &AdminService{
		runtime:   rt,
		server:    server,
		registry:  registry,
		logger:    logger.WithName("admin"),
		version:   version,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// RegisterGroup 实现orbit.Service接口
func (s *AdminService) RegisterGroup(g *gin.RouterGroup) {
	g.GET("/metrics", s.handleMetrics)
	g.GET("/breaker", s.handleBreaker)
	g.GET("/status", s.handleStatus)
	g.GET("/info", s.handleInfo)
	g.GET("/config", s.handleConfig)
}

// handleMetrics 输出 Prometheus 指标
func (s *AdminService) handleMetrics(c *gin.Context) {
	if s.registry == nil {
		response.Error(response.CodeNotFound, "metrics registry not available").JSON(c, http.StatusNotFound)
		return
	}
	promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}).ServeHTTP(c.Writer, c.Request)
}

// handleBreaker 返回持久化的熔断器记录及当前阶段
func (s *AdminService) handleBreaker(c *gin.Context) {
	response.OK(c, s.breakerView(c))
}

// breakerView 读取熔断器状态
func (s *AdminService) breakerView(c *gin.Context) BreakerView {
	guard := s.runtime.Guard
	state, phase := guard.Snapshot(c.Request.Context())

	view := BreakerView{
		Store:          guard.Store().Type(),
		Phase:          phase.String(),
		Open:           state.Open,
		OpenIntervalMs: guard.OpenInterval().Milliseconds(),
		Upstreams:      s.runtime.Upstreams.States(),
	}
	if state.Open {
		openedAt := state.OpenedAt.UTC()
		view.OpenedAt = &openedAt
	}
	if phase == breaker.PhaseOpen {
		view.RetryAfterMs = (guard.OpenInterval() - s.now().Sub(state.OpenedAt)).Milliseconds()
	}
	return view
}

// handleStatus 返回服务器运行状态
func (s *AdminService) handleStatus(c *gin.Context) {
	status := gin.H{
		"service": gin.H{
			"name":       constants.AppName,
			"version":    s.version,
			"uptime":     time.Since(s.startTime).Seconds(),
			"start_time": s.startTime.Format(time.RFC3339),
		},
		"breaker": s.breakerView(c),
	}

	if s.server != nil {
		forwards := make(map[string]interface{})
		for name, fs := range s.server.ForwardServers() {
			forwards[name] = gin.H{
				"running":  fs.IsRunning(),
				"endpoint": fs.GetEndpoint(),
			}
		}
		status["forward_servers"] = forwards
		if admin := s.server.GetAdminServer(); admin != nil {
			status["admin_server"] = gin.H{
				"running":  admin.IsRunning(),
				"endpoint": admin.GetEndpoint(),
			}
		}
	}

	response.OK(c, status)
}

// handleInfo 返回构建和运行时信息
func (s *AdminService) handleInfo(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response.OK(c, gin.H{
		"application": gin.H{
			"name":        constants.AppName,
			"version":     s.version,
			"description": "Book service edge with a persisted related-books circuit breaker",
		},
		"build": gin.H{
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
		},
		"runtime": gin.H{
			"uptime":     time.Since(s.startTime).Seconds(),
			"goroutines": runtime.NumGoroutine(),
			"heap_alloc": m.HeapAlloc,
			"sys":        m.Sys,
			"gc_cycles":  m.NumGC,
		},
	})
}

// handleConfig 返回去除敏感信息后的配置
func (s *AdminService) handleConfig(c *gin.Context) {
	if s.runtime.Config == nil {
		response.NotFound(c, "configuration not available")
		return
	}

	sanitized, err := sanitizeConfig(s.runtime.Config)
	if err != nil {
		s.logger.Error(err, "Failed to sanitize configuration")
		response.InternalServerError(c, "failed to render configuration")
		return
	}
	response.OK(c, sanitized)
}

// sanitizeConfig 复制配置并隐藏凭据
func sanitizeConfig(cfg *config.Config) (*config.Config, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	var copied config.Config
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, err
	}

	if r := copied.Breaker.Store.Redis; r != nil && r.Password != "" {
		r.Password = redacted
	}
	for i := range copied.Upstreams {
		for j, op := range copied.Upstreams[i].Headers {
			if isSensitiveHeader(op.Key) && op.Value != "" {
				copied.Upstreams[i].Headers[j].Value = redacted
			}
		}
	}
	return &copied, nil
}

// isSensitiveHeader 判断头部是否携带凭据
func isSensitiveHeader(key string) bool {
	switch http.CanonicalHeaderKey(key) {
	case "Authorization", "Proxy-Authorization", "Cookie", "X-Api-Key":
		return true
	}
	return false
}

// Run 启动管理服务
func (s *AdminService) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.running = true
		s.logger.Info("Admin service started")
	}
}

// Stop 停止管理服务
func (s *AdminService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		s.logger.Info("Admin service stopped")
	}
}

// IsRunning 检查服务是否运行中
func (s *AdminService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
