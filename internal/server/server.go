// Package server 实现对外服务和管理服务
package server

import (
	"sync"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

// Server 代表主服务器，管理对外服务器和管理服务器，并持有共享的运行时组件
type Server struct {
	lock           sync.RWMutex
	forwardServers map[string]*ForwardServer
	adminServer    *AdminServer
	runtime        *Runtime
	logger         logr.Logger
}

// NewServer 根据运行时中的配置创建全部服务器
func NewServer(debug bool, logger logr.Logger, rt *Runtime, gatherer prometheus.Gatherer, version string) (*Server, error) {
	srv := &Server{
		forwardServers: make(map[string]*ForwardServer),
		runtime:        rt,
		logger:         logger,
	}

	httpCfg := &rt.Config.HTTPServer
	for i := range httpCfg.Forwards {
		fs, err := NewForwardServer(debug, logger, &httpCfg.Forwards[i], rt)
		if err != nil {
			return nil, err
		}
		srv.forwardServers[fs.name] = fs
	}

	adminSvc := NewAdminService(rt, srv, gatherer, version, logger)
	srv.adminServer = NewAdminServer(debug, logger, &httpCfg.Admin, adminSvc)

	return srv, nil
}

// Start 启动所有服务器
func (s *Server) Start() {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, fs := range s.forwardServers {
		fs.Start()
	}
	s.adminServer.Start()
	s.logger.Info("All servers started", "forwards", len(s.forwardServers))
}

// Stop 停止所有服务器并释放运行时组件
func (s *Server) Stop() {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, fs := range s.forwardServers {
		fs.Stop()
	}
	s.adminServer.Stop()

	if err := s.runtime.Close(); err != nil {
		s.logger.Error(err, "Failed to release runtime resources")
	}
	s.logger.Info("All servers stopped")
}

// GetForwardServer 根据名称获取对外服务器
func (s *Server) GetForwardServer(name string) *ForwardServer {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.forwardServers[name]
}

// ForwardServers 返回对外服务器快照
func (s *Server) ForwardServers() map[string]*ForwardServer {
	s.lock.RLock()
	defer s.lock.RUnlock()

	servers := make(map[string]*ForwardServer, len(s.forwardServers))
	for name, fs := range s.forwardServers {
		servers[name] = fs
	}
	return servers
}

// GetAdminServer 获取管理服务器
func (s *Server) GetAdminServer() *AdminServer {
	return s.adminServer
}
