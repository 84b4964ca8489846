package ratelimit

import (
	"sync"
	"time"

	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// SweepFunc 每轮清理后的回调
type SweepFunc func(removed, remaining int)

// Sweeper 定期清理空闲的令牌桶，限制按 IP 建立的键数量
type Sweeper struct {
	mu       sync.Mutex
	limiter  RateLimiter
	interval time.Duration
	idle     time.Duration
	onSweep  SweepFunc
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSweeper 创建清理器，每 idle/2 检查一次
func NewSweeper(limiter RateLimiter, idle time.Duration, onSweep SweepFunc) *Sweeper {
	return &Sweeper{
		limiter:  limiter,
		interval: idle / 2,
		idle:     idle,
		onSweep:  onSweep,
	}
}

// IdleFromConfig 返回配置的空闲时长，未配置时取默认值
func IdleFromConfig(cfg *config.RateLimitConfig) time.Duration {
	if cfg != nil && cfg.Idle > 0 {
		return time.Duration(cfg.Idle) * time.Millisecond
	}
	return time.Duration(constants.DefaultRateIdle) * time.Millisecond
}

// Start 启动后台清理，重复调用无效果
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.loop(s.stopCh, s.doneCh)
}

// Stop 停止清理并等待后台协程退出
func (s *Sweeper) Stop() {
	s.mu.Lock()
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh, s.doneCh = nil, nil
	s.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}

func (s *Sweeper) loop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			removed := s.limiter.Sweep(s.idle)
			if s.onSweep != nil {
				s.onSweep(removed, s.limiter.Len())
			}
		}
	}
}
