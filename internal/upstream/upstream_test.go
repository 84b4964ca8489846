package upstream

import (
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(code int) func() (*http.Response, error) {
	return func() (*http.Response, error) {
		return &http.Response{StatusCode: code, Body: http.NoBody}, nil
	}
}

func TestSettingsFromConfig(t *testing.T) {
	settings := SettingsFromConfig("books", nil, nil)
	assert.Equal(t, "books", settings.Name)
	assert.Equal(t, uint32(3), settings.MaxRequests)
	assert.Equal(t, 30*time.Second, settings.Timeout)
	assert.Equal(t, 10*time.Second, settings.Interval)

	settings = SettingsFromConfig("books", &config.UpstreamBreakerConfig{
		Threshold:   0.8,
		Cooldown:    5000,
		MaxRequests: 1,
		Interval:    2000,
	}, nil)
	assert.Equal(t, uint32(1), settings.MaxRequests)
	assert.Equal(t, 5*time.Second, settings.Timeout)
	assert.Equal(t, 2*time.Second, settings.Interval)

	// 请求数不足时不触发
	assert.False(t, settings.ReadyToTrip(gobreaker.Counts{Requests: 4, TotalFailures: 4}))
	assert.False(t, settings.ReadyToTrip(gobreaker.Counts{Requests: 10, TotalFailures: 7}))
	assert.True(t, settings.ReadyToTrip(gobreaker.Counts{Requests: 10, TotalFailures: 8}))
}

func TestUpstream_WithoutBreaker(t *testing.T) {
	u, err := New(&config.UpstreamConfig{Name: "customers", URL: "http://customers.internal"}, nil)
	require.NoError(t, err)
	assert.False(t, u.HasBreaker())
	assert.Equal(t, gobreaker.StateClosed, u.State())

	for i := 0; i < 20; i++ {
		resp, err := u.ExecuteWithBreaker(respond(http.StatusInternalServerError))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}

	target := u.Target()
	assert.Equal(t, "customers", target.Name)
	assert.Equal(t, "http://customers.internal", target.URL)
}

func TestUpstream_ServerErrorsTripBreaker(t *testing.T) {
	var mu sync.Mutex
	var transitions []gobreaker.State

	u, err := New(&config.UpstreamConfig{
		Name:    "books",
		URL:     "http://books.internal",
		Breaker: &config.UpstreamBreakerConfig{Threshold: 0.5, Cooldown: 60000},
	}, func(name string, from, to gobreaker.State) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "books", name)
		transitions = append(transitions, to)
	})
	require.NoError(t, err)
	require.True(t, u.HasBreaker())

	// 5xx 响应原样返回，同时计为失败
	for i := 0; i < 5; i++ {
		resp, err := u.ExecuteWithBreaker(respond(http.StatusBadGateway))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateOpen, u.State())

	called := false
	_, err = u.ExecuteWithBreaker(func() (*http.Response, error) {
		called = true
		return respond(http.StatusOK)()
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)

	mu.Lock()
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
	mu.Unlock()
}

func TestUpstream_TransportErrorsCount(t *testing.T) {
	u, err := New(&config.UpstreamConfig{
		Name:    "books",
		URL:     "http://books.internal",
		Breaker: &config.UpstreamBreakerConfig{Threshold: 1.0},
	}, nil)
	require.NoError(t, err)

	dialErr := errors.New("connection refused")
	for i := 0; i < 5; i++ {
		_, err := u.ExecuteWithBreaker(func() (*http.Response, error) { return nil, dialErr })
		assert.ErrorIs(t, err, dialErr)
	}
	assert.Equal(t, gobreaker.StateOpen, u.State())
}

func TestUpstream_ClientErrorsDoNotTrip(t *testing.T) {
	u, err := New(&config.UpstreamConfig{
		Name:    "books",
		URL:     "http://books.internal",
		Breaker: &config.UpstreamBreakerConfig{},
	}, nil)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		resp, err := u.ExecuteWithBreaker(respond(http.StatusNotFound))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateClosed, u.State())
}

func TestRegistry(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNilConfig)

	registry, err := NewRegistry([]config.UpstreamConfig{
		{Name: "books", URL: "http://books.internal", Breaker: &config.UpstreamBreakerConfig{}},
		{Name: "customers", URL: "http://customers.internal"},
	}, logr.Discard(), nil)
	require.NoError(t, err)

	books, err := registry.Get("books")
	require.NoError(t, err)
	assert.Equal(t, "http://books.internal", books.URL)

	_, err = registry.Get("orders")
	assert.ErrorIs(t, err, ErrUnknownUpstream)

	assert.Equal(t, map[string]string{"books": "closed"}, registry.States())
}
