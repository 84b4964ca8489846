package ratelimit

import (
	"errors"

	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// 工厂相关错误定义
var (
	ErrInvalidPerSecond = errors.New("perSecond must be greater than 0")
	ErrInvalidBurst     = errors.New("burst must be greater than 0")
)

// rateLimitFactory 代表限流器工厂实现
type rateLimitFactory struct{}

// NewFactory 创建新的限流器工厂实例
func NewFactory() RateLimiterFactory {
	return &rateLimitFactory{}
}

// Create 根据配置创建限流器
func (f *rateLimitFactory) Create(perSecond float64, burst int) (RateLimiter, error) {
	if perSecond <= 0 {
		return nil, ErrInvalidPerSecond
	}
	if burst <= 0 {
		return nil, ErrInvalidBurst
	}

	return NewTokenBucketLimiter(perSecond, burst), nil
}

// FromConfig 从转发服务限流配置创建限流器，未填写的字段取默认值
func FromConfig(cfg *config.RateLimitConfig) (RateLimiter, error) {
	perSecond, burst := constants.DefaultRatePerSecond, constants.DefaultRateBurst
	if cfg != nil {
		if cfg.PerSecond > 0 {
			perSecond = cfg.PerSecond
		}
		if cfg.Burst > 0 {
			burst = cfg.Burst
		}
	}
	return NewFactory().Create(float64(perSecond), burst)
}
