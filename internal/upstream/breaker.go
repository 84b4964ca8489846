package upstream

import (
	"time"

	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
	"github.com/sony/gobreaker"
)

// StateChangeFunc 熔断器状态变化回调
type StateChangeFunc func(name string, from, to gobreaker.State)

// readyToTrip 返回按失败比例触发熔断的判断函数
func readyToTrip(threshold float64) func(counts gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests < constants.DefaultBreakerMinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= threshold
	}
}

// DefaultSettings 返回默认的熔断器设置
func DefaultSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: constants.DefaultBreakerMaxRequests,
		Interval:    time.Duration(constants.DefaultBreakerInterval) * time.Millisecond,
		Timeout:     time.Duration(constants.DefaultBreakerCooldown) * time.Millisecond,
		ReadyToTrip: readyToTrip(constants.DefaultBreakerThreshold),
	}
}

// SettingsFromConfig 从配置创建熔断器设置
func SettingsFromConfig(name string, cfg *config.UpstreamBreakerConfig, onChange StateChangeFunc) gobreaker.Settings {
	settings := DefaultSettings(name)
	if onChange != nil {
		settings.OnStateChange = onChange
	}
	if cfg == nil {
		return settings
	}

	// 半开状态下允许通过的最大请求数
	if cfg.MaxRequests > 0 {
		settings.MaxRequests = cfg.MaxRequests
	}
	// 闭合状态下统计周期重置间隔
	if cfg.Interval > 0 {
		settings.Interval = time.Duration(cfg.Interval) * time.Millisecond
	}
	// 开启状态持续时间
	if cfg.Cooldown > 0 {
		settings.Timeout = time.Duration(cfg.Cooldown) * time.Millisecond
	}
	if cfg.Threshold > 0 {
		settings.ReadyToTrip = readyToTrip(cfg.Threshold)
	}

	return settings
}
