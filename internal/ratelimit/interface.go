// Package ratelimit 提供按客户端 IP 的令牌桶限流
package ratelimit

import "time"

// RateLimiter 代表按键限流器
type RateLimiter interface {
	// Allow 检查指定key是否允许通过
	Allow(key string) bool

	// Sweep 清理超过 idle 未访问的键，返回清理数量
	Sweep(idle time.Duration) int

	// Len 返回当前跟踪的键数量
	Len() int

	// Type 获取限流器类型
	Type() string
}

// RateLimiterFactory 代表限流器工厂接口
type RateLimiterFactory interface {
	// Create 根据配置创建限流器
	Create(perSecond float64, burst int) (RateLimiter, error)
}
