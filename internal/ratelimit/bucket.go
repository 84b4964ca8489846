package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucketEntry 单个键的令牌桶及最近访问时间
type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucketLimiter 按键维护 x/time/rate 令牌桶
type TokenBucketLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucketEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// NewTokenBucketLimiter 创建新的令牌桶限流器
func NewTokenBucketLimiter(perSecond float64, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		buckets: make(map[string]*bucketEntry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow 检查指定key是否允许通过
func (l *TokenBucketLimiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	entry, ok := l.buckets[key]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// Sweep 清理超过 idle 未访问的令牌桶，返回清理数量
func (l *TokenBucketLimiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	removed := 0
	for key, entry := range l.buckets {
		if entry.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len 返回当前令牌桶数量
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Type 获取限流器类型
func (l *TokenBucketLimiter) Type() string {
	return "token_bucket"
}
