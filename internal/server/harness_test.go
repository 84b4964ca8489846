package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shengyanli1982/bookbff-go/internal/breaker"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/metrics"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// echoReply 透传上游的回显内容
type echoReply struct {
	Upstream  string `json:"upstream"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Query     string `json:"query"`
	Body      string `json:"body"`
	Client    string `json:"client"`
	Forwarded string `json:"forwarded"`
	RealIP    string `json:"real_ip"`
	Auth      string `json:"auth"`
}

// harness 对外服务测试环境
type harness struct {
	t               *testing.T
	router          *gin.Engine
	service         *ForwardService
	runtime         *Runtime
	store           *breaker.MemoryStore
	clock           *testClock
	registry        *prometheus.Registry
	recommendStatus *atomic.Int32
	recommendHits   *atomic.Int32
	booksServer     *httptest.Server
}

const harnessConfig = `
httpServer:
  forwards:
    - name: web
      port: 8080
%s
      routes:
        - prefix: /books
          upstream: books
        - prefix: /customers
          upstream: customers
  admin:
    port: 9090
upstreams:
  - name: books
    url: %s
    headers:
      - op: insert
        key: X-Client-Type
        value: web
      - op: remove
        key: Authorization
    breaker:
      threshold: 1.0
      cooldown: 60000
  - name: customers
    url: %s
recommend:
  url: %s/recommended-titles/isbn/{isbn}
  timeout: 200
breaker:
  openInterval: 60000
  store:
    type: redis
    redis:
      addr: localhost:6379
      password: s3cret
`

func echoUpstream(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/boom") {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", name)
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
		}
		_ = json.NewEncoder(w).Encode(echoReply{
			Upstream:  name,
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Body:      string(body),
			Client:    r.Header.Get("X-Client-Type"),
			Forwarded: r.Header.Get("X-Forwarded-For"),
			RealIP:    r.Header.Get("X-Real-IP"),
			Auth:      r.Header.Get("Authorization"),
		})
	}
}

// newHarness 创建测试环境，rateLimit 为空时使用默认限流
func newHarness(t *testing.T, rateLimit string) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		t:               t,
		store:           breaker.NewMemoryStore(),
		clock:           &testClock{now: time.Unix(1700000000, 0)},
		registry:        prometheus.NewRegistry(),
		recommendStatus: &atomic.Int32{},
		recommendHits:   &atomic.Int32{},
	}
	h.recommendStatus.Store(http.StatusOK)

	recommendServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.recommendHits.Add(1)
		if strings.HasSuffix(r.URL.Path, "/slow") {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		code := int(h.recommendStatus.Load())
		if code == http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"isbn":"978-0544003415","title":"The Hobbit"}]`)
			return
		}
		w.WriteHeader(code)
	}))
	t.Cleanup(recommendServer.Close)

	h.booksServer = httptest.NewServer(echoUpstream("books"))
	t.Cleanup(h.booksServer.Close)
	customersServer := httptest.NewServer(echoUpstream("customers"))
	t.Cleanup(customersServer.Close)

	manager, err := config.NewManager()
	require.NoError(t, err)
	require.NoError(t, manager.LoadFromBytes([]byte(fmt.Sprintf(harnessConfig,
		rateLimit, h.booksServer.URL, customersServer.URL, recommendServer.URL))))

	collector, err := metrics.NewPrometheusCollectorWithRegistry(&metrics.Config{
		Type:      "prometheus",
		Enabled:   true,
		Namespace: "bookbff",
	}, h.registry)
	require.NoError(t, err)

	h.runtime, err = NewRuntime(context.Background(), manager.GetConfig(), collector, logr.Discard(),
		WithStateStore(h.store), WithBreakerClock(h.clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.runtime.Close() })

	h.service, err = NewForwardService(&manager.GetConfig().HTTPServer.Forwards[0], h.runtime, logr.Discard())
	require.NoError(t, err)

	h.router = gin.New()
	h.service.RegisterGroup(&h.router.RouterGroup)
	return h
}

// do 发送请求到对外服务
func (h *harness) do(method, target string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.RemoteAddr = "203.0.113.9:41000"
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) get(target string) *httptest.ResponseRecorder {
	return h.do(http.MethodGet, target, nil, nil)
}
