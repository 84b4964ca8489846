package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClientConfig() *config.HTTPClientConfig {
	return &config.HTTPClientConfig{
		Agent:     constants.UserAgent,
		KeepAlive: 60000,
		Connect:   &config.ConnectConfig{IdleTotal: 10, IdlePerHost: 2, MaxPerHost: 5},
		Timeout:   &config.TimeoutConfig{Connect: 1000, Request: 1000, Idle: 60000},
	}
}

func newTestClient(t *testing.T) HTTPClient {
	t.Helper()
	c, err := NewFactory().Create(testClientConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestHTTPClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/books":
			w.Header().Set("X-Seen-Agent", r.Header.Get("User-Agent"))
			w.Header().Set("X-Seen-Client", r.Header.Get("X-Client-Type"))
			_, _ = w.Write([]byte("books:" + r.URL.RawQuery))
		case "/recommended-titles/isbn/123":
			_, _ = w.Write([]byte("related"))
		case "/slow":
			time.Sleep(1500 * time.Millisecond)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t)

	t.Run("base target keeps request path", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "http://bff.local/books?page=2", nil)
		require.NoError(t, err)

		resp, err := client.Do(req, &Target{
			Name:    "books",
			URL:     server.URL,
			Headers: []config.HeaderOpConfig{{Op: "insert", Key: "X-Client-Type", Value: "web"}},
		})
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "books:page=2", string(body))
		assert.Equal(t, constants.UserAgent, resp.Header.Get("X-Seen-Agent"))
		assert.Equal(t, "web", resp.Header.Get("X-Seen-Client"))
	})

	t.Run("target with path replaces request path", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, err)

		resp, err := client.Do(req, &Target{Name: "recommend", URL: server.URL + "/recommended-titles/isbn/123"})
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "related", string(body))
	})

	t.Run("request timeout", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "/slow", nil)
		require.NoError(t, err)

		_, err = client.Do(req, &Target{Name: "slow", URL: server.URL})
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "Timeout") || strings.Contains(err.Error(), "deadline"))
	})

	t.Run("context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/books", nil)
		require.NoError(t, err)

		_, err = client.Do(req, &Target{Name: "books", URL: server.URL})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHTTPClient_InvalidArguments(t *testing.T) {
	client := newTestClient(t)
	req, err := http.NewRequest(http.MethodGet, "/books", nil)
	require.NoError(t, err)

	_, err = client.Do(nil, &Target{Name: "x", URL: "http://x"})
	assert.ErrorIs(t, err, ErrNilRequest)

	_, err = client.Do(req, nil)
	assert.ErrorIs(t, err, ErrNilUpstream)

	_, err = client.Do(req, &Target{Name: "empty"})
	assert.Error(t, err)

	_, err = client.Do(req, &Target{Name: "nohost", URL: "http:///path"})
	assert.Error(t, err)
}

func TestHTTPClient_Close(t *testing.T) {
	c, err := NewHTTPClient(testClientConfig())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.Name(), "http-client-"))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	req, err := http.NewRequest(http.MethodGet, "/books", nil)
	require.NoError(t, err)
	_, err = c.Do(req, &Target{Name: "books", URL: "http://localhost"})
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestFactory_NilConfig(t *testing.T) {
	_, err := NewFactory().Create(nil)
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestConnectionPool(t *testing.T) {
	cfg := testClientConfig()
	pool := NewConnectionPool(cfg)
	transport := pool.GetTransport()

	assert.Equal(t, 10, transport.MaxIdleConns)
	assert.Equal(t, 2, transport.MaxIdleConnsPerHost)
	assert.Equal(t, 5, transport.MaxConnsPerHost)
	assert.Equal(t, time.Minute, transport.IdleConnTimeout)
	assert.False(t, transport.DisableKeepAlives)
	assert.NoError(t, pool.Close())

	cfg.KeepAlive = 0
	assert.True(t, NewConnectionPool(cfg).GetTransport().DisableKeepAlives)
}

func TestProxyHandler(t *testing.T) {
	handler := NewProxyHandler(&config.ProxyConfig{URL: "http://proxy.example.com:8080"})
	assert.True(t, handler.IsEnabled())
	assert.Equal(t, "http://proxy.example.com:8080", handler.GetProxyURL())

	req, err := http.NewRequest(http.MethodGet, "http://books.internal/", nil)
	require.NoError(t, err)
	proxyURL, err := handler.GetProxyFunc()(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.example.com:8080", proxyURL.Host)

	disabled := NewProxyHandler(nil)
	assert.False(t, disabled.IsEnabled())
	assert.Empty(t, disabled.GetProxyURL())
	assert.NotNil(t, disabled.GetProxyFunc())

	invalid := NewProxyHandler(&config.ProxyConfig{URL: "://bad"})
	assert.False(t, invalid.IsEnabled())
}
