package server

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/orbit"
)

// AdminServer 代表管理服务器，提供指标、熔断器状态和运行信息
type AdminServer struct {
	endpoint   string
	httpEngine *orbit.Engine
	closeOnce  sync.Once
	config     *config.AdminConfig
	logger     logr.Logger
	service    *AdminService
}

// NewAdminServer 创建管理服务器
func NewAdminServer(debug bool, logger logr.Logger, cfg *config.AdminConfig, svc *AdminService) *AdminServer {
	engineCfg := orbit.NewConfig().
		WithLogger(&logger).
		WithAddress(cfg.Address).
		WithPort(uint16(cfg.Port))
	if t := cfg.Timeout; t != nil {
		engineCfg = engineCfg.
			WithHttpIdleTimeout(uint32(t.Idle)).
			WithHttpReadHeaderTimeout(uint32(t.Read)).
			WithHttpReadTimeout(uint32(t.Read)).
			WithHttpWriteTimeout(uint32(t.Write))
	}

	if !debug {
		engineCfg.WithRelease()
	}

	engine := orbit.NewEngine(engineCfg, adminOptions(debug))
	engine.RegisterService(svc)

	return &AdminServer{
		endpoint:   fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		httpEngine: engine,
		config:     cfg,
		logger:     logger,
		service:    svc,
	}
}

// adminOptions 管理引擎的内置功能
// 不含 orbit 自带的 /metrics，指标由 AdminService 输出
func adminOptions(debug bool) *orbit.Options {
	opts := orbit.NewOptions().EnableHealthCheck()
	if debug {
		opts.EnablePProf()
	}
	return opts
}

// Start 启动管理服务器
func (s *AdminServer) Start() {
	if s.httpEngine.IsRunning() {
		s.logger.Error(ErrServerAlreadyStarted, "Admin server is already started")
		return
	}

	s.logger.Info("Starting admin server", "endpoint", s.endpoint)
	s.service.Run()
	s.httpEngine.Run()
	s.closeOnce = sync.Once{}
}

// Stop 停止管理服务器
func (s *AdminServer) Stop() {
	if !s.httpEngine.IsRunning() {
		s.logger.Info("Admin server is not running")
		return
	}

	s.closeOnce.Do(func() {
		s.httpEngine.Stop()
		s.service.Stop()
		s.logger.Info("Admin server stopped", "endpoint", s.endpoint)
	})
}

// IsRunning 检查管理服务器是否正在运行
func (s *AdminServer) IsRunning() bool {
	return s.httpEngine.IsRunning()
}

// GetEndpoint 获取服务器监听地址
func (s *AdminServer) GetEndpoint() string {
	return s.endpoint
}

// GetConfig 获取管理服务配置
func (s *AdminServer) GetConfig() *config.AdminConfig {
	return s.config
}
