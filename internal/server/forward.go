package server

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/orbit"
)

// ForwardServer 代表对外服务器
type ForwardServer struct {
	name       string
	endpoint   string
	httpEngine *orbit.Engine
	closeOnce  sync.Once
	config     *config.ForwardConfig
	logger     logr.Logger
	service    *ForwardService
}

// NewForwardServer 创建对外服务器
func NewForwardServer(debug bool, logger logr.Logger, cfg *config.ForwardConfig, rt *Runtime) (*ForwardServer, error) {
	svc, err := NewForwardService(cfg, rt, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize forward service '%s': %w", cfg.Name, err)
	}

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

	opts := orbit.EmptyOptions()
	if !debug {
		engineCfg.WithRelease()
	}

	engine := orbit.NewEngine(engineCfg, opts)
	engine.RegisterService(svc)

	return &ForwardServer{
		name:       cfg.Name,
		endpoint:   fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		httpEngine: engine,
		config:     cfg,
		logger:     logger,
		service:    svc,
	}, nil
}

// Start 启动服务器
func (s *ForwardServer) Start() {
	if s.httpEngine.IsRunning() {
		s.logger.Error(ErrServerAlreadyStarted, "Forward server is already started", "name", s.name)
		return
	}

	s.logger.Info("Starting forward server", "name", s.name, "endpoint", s.endpoint)
	s.service.Run()
	s.httpEngine.Run()
	s.closeOnce = sync.Once{}
}

// Stop 停止服务器
func (s *ForwardServer) Stop() {
	if !s.httpEngine.IsRunning() {
		s.logger.Info("Forward server is not running", "name", s.name)
		return
	}

	s.closeOnce.Do(func() {
		s.httpEngine.Stop()
		s.service.Stop()
		s.logger.Info("Forward server stopped", "name", s.name)
	})
}

// IsRunning 检查服务器是否正在运行
func (s *ForwardServer) IsRunning() bool {
	return s.httpEngine.IsRunning()
}

// GetEndpoint 获取服务器监听地址
func (s *ForwardServer) GetEndpoint() string {
	return s.endpoint
}

// GetConfig 获取服务配置
func (s *ForwardServer) GetConfig() *config.ForwardConfig {
	return s.config
}

// GetService 获取服务实例
func (s *ForwardServer) GetService() *ForwardService {
	return s.service
}
