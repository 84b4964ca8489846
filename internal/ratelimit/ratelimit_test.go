package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter_Allow(t *testing.T) {
	limiter := NewTokenBucketLimiter(2.0, 5)
	base := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("10.0.0.1"), "request %d within burst", i+1)
	}
	assert.False(t, limiter.Allow("10.0.0.1"))

	// 0.5 秒补充一个令牌
	base = base.Add(500 * time.Millisecond)
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
}

func TestTokenBucketLimiter_IndependentKeys(t *testing.T) {
	limiter := NewTokenBucketLimiter(1.0, 1)

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"))
	assert.False(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("b"))

	assert.Equal(t, 2, limiter.Len())
	assert.Equal(t, "token_bucket", limiter.Type())
}

func TestTokenBucketLimiter_Sweep(t *testing.T) {
	limiter := NewTokenBucketLimiter(1.0, 1)
	base := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return base }

	limiter.Allow("old")
	base = base.Add(10 * time.Minute)
	limiter.Allow("fresh")
	assert.Equal(t, 2, limiter.Len())

	assert.Equal(t, 1, limiter.Sweep(5*time.Minute))
	assert.Equal(t, 1, limiter.Len())
	assert.True(t, limiter.Allow("old"))
}

func TestTokenBucketLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewTokenBucketLimiter(1.0, 10)

	var wg sync.WaitGroup
	var allowed atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("shared") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, allowed.Load(), int32(11))
	assert.GreaterOrEqual(t, allowed.Load(), int32(10))
}

func TestFactory(t *testing.T) {
	_, err := NewFactory().Create(0, 1)
	assert.ErrorIs(t, err, ErrInvalidPerSecond)
	_, err = NewFactory().Create(1, 0)
	assert.ErrorIs(t, err, ErrInvalidBurst)

	limiter, err := FromConfig(nil)
	require.NoError(t, err)
	assert.NotNil(t, limiter)

	limiter, err = FromConfig(&config.RateLimitConfig{PerSecond: 1, Burst: 1})
	require.NoError(t, err)
	assert.True(t, limiter.Allow("k"))
	assert.False(t, limiter.Allow("k"))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.168.1.10:5000", "192.168.1.10"},
		{"remote addr without port", nil, "192.168.1.10", "192.168.1.10"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.2:1", "203.0.113.5"},
		{"invalid forwarded falls back", map[string]string{"X-Forwarded-For": "garbage", "X-Real-IP": "198.51.100.7"}, "10.0.0.2:1", "198.51.100.7"},
		{"real ip", map[string]string{"X-Real-IP": "2001:db8::1"}, "10.0.0.2:1", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/books", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var rejected []string
	mw := NewMiddleware(NewTokenBucketLimiter(0.001, 2), func(c *gin.Context, ip string) {
		rejected = append(rejected, ip)
	})

	router := gin.New()
	router.Use(mw.Handler())
	router.GET("/books", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	w := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "ipLimit")
	assert.Equal(t, []string{"10.0.0.1"}, rejected)

	// 其他客户端不受影响
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)

	// 无法解析地址时不限流
	assert.Equal(t, http.StatusOK, send("").Code)
}

func TestSweeper_DropsIdleBuckets(t *testing.T) {
	limiter := NewTokenBucketLimiter(1.0, 1)
	var mu sync.Mutex
	base := time.Unix(1700000000, 0)
	limiter.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return base
	}

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		limiter.Allow(ip)
	}

	var swept atomic.Int32
	sweeper := NewSweeper(limiter, 40*time.Millisecond, func(removed, remaining int) {
		swept.Add(int32(removed))
	})
	sweeper.Start()
	sweeper.Start()
	defer sweeper.Stop()

	// 未超过空闲时长时保留
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 3, limiter.Len())

	mu.Lock()
	base = base.Add(time.Minute)
	mu.Unlock()
	limiter.Allow("10.0.0.9")

	require.Eventually(t, func() bool {
		return limiter.Len() == 1 && swept.Load() == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweeper_StopIsIdempotent(t *testing.T) {
	sweeper := NewSweeper(NewTokenBucketLimiter(1.0, 1), 20*time.Millisecond, nil)
	sweeper.Stop()

	sweeper.Start()
	sweeper.Stop()
	sweeper.Stop()

	// 停止后可再次启动
	sweeper.Start()
	sweeper.Stop()
}

func TestIdleFromConfig(t *testing.T) {
	assert.Equal(t, 5*time.Minute, IdleFromConfig(nil))
	assert.Equal(t, 5*time.Minute, IdleFromConfig(&config.RateLimitConfig{PerSecond: 1}))
	assert.Equal(t, 2*time.Second, IdleFromConfig(&config.RateLimitConfig{Idle: 2000}))
}
