package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fileStoreConfig = `
httpServer:
  forwards:
    - name: web
      port: %d
      routes:
        - prefix: /books
          upstream: %s
  admin:
    port: %d
upstreams:
  - name: books
    url: http://127.0.0.1:1
breaker:
  openInterval: 60000
  store:
    type: file
    path: %s
`

func loadConfig(t *testing.T, routeUpstream, statePath string) *config.Config {
	t.Helper()
	return loadConfigWithPorts(t, 8080, 9090, routeUpstream, statePath)
}

func loadConfigWithPorts(t *testing.T, forwardPort, adminPort int, routeUpstream, statePath string) *config.Config {
	t.Helper()
	manager, err := config.NewManager()
	require.NoError(t, err)
	require.NoError(t, manager.LoadFromBytes([]byte(fmt.Sprintf(fileStoreConfig,
		forwardPort, routeUpstream, adminPort, statePath))))
	return manager.GetConfig()
}

// freePort 获取本机空闲端口
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestNewRuntime_FileStore(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "breaker-state.json")
	cfg := loadConfig(t, "books", statePath)

	rt, err := NewRuntime(context.Background(), cfg, nil, logr.Discard())
	require.NoError(t, err)

	assert.Equal(t, "file", rt.Store.Type())
	assert.Equal(t, time.Minute, rt.Guard.OpenInterval())
	assert.Equal(t, "noop", rt.Metrics.Name())

	_, ok := rt.Client("books")
	assert.True(t, ok)
	_, ok = rt.Client("customers")
	assert.False(t, ok)

	// 状态写入文件，重建运行时后仍然可见
	openedAt := time.Unix(1700000000, 0)
	require.NoError(t, rt.Store.Save(context.Background(), true, openedAt))
	require.NoError(t, rt.Close())

	_, err = os.Stat(statePath)
	require.NoError(t, err)

	rt, err = NewRuntime(context.Background(), cfg, nil, logr.Discard())
	require.NoError(t, err)
	defer rt.Close()

	state := rt.Store.Load(context.Background())
	assert.True(t, state.Open)
	assert.True(t, state.OpenedAt.Equal(openedAt))
}

func TestNewForwardService_UnknownUpstream(t *testing.T) {
	cfg := loadConfig(t, "books", filepath.Join(t.TempDir(), "state.json"))
	rt, err := NewRuntime(context.Background(), cfg, nil, logr.Discard())
	require.NoError(t, err)
	defer rt.Close()

	forward := cfg.HTTPServer.Forwards[0]
	forward.Routes = []config.RouteConfig{{Prefix: "/orders", Upstream: "orders"}}

	_, err = NewForwardService(&forward, rt, logr.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/orders")
}

func TestNewServer_CreatesServers(t *testing.T) {
	cfg := loadConfig(t, "books", filepath.Join(t.TempDir(), "state.json"))
	rt, err := NewRuntime(context.Background(), cfg, nil, logr.Discard())
	require.NoError(t, err)

	srv, err := NewServer(false, logr.Discard(), rt, nil, "test")
	require.NoError(t, err)

	fs := srv.GetForwardServer("web")
	require.NotNil(t, fs)
	assert.Equal(t, "0.0.0.0:8080", fs.GetEndpoint())
	assert.False(t, fs.IsRunning())
	assert.Nil(t, srv.GetForwardServer("mobile"))
	assert.Len(t, srv.ForwardServers(), 1)
	require.NotNil(t, srv.GetAdminServer())

	srv.Stop()
}

func TestServer_StartServeStop(t *testing.T) {
	forwardPort, adminPort := freePort(t), freePort(t)
	cfg := loadConfigWithPorts(t, forwardPort, adminPort, "books", filepath.Join(t.TempDir(), "state.json"))

	// 同一进程内多次创建服务器
	for _, debug := range []bool{true, false} {
		rt, err := NewRuntime(context.Background(), cfg, nil, logr.Discard())
		require.NoError(t, err)
		idle, err := NewServer(debug, logr.Discard(), rt, prometheus.NewRegistry(), "test")
		require.NoError(t, err)
		idle.Stop()
	}

	rt, err := NewRuntime(context.Background(), cfg, nil, logr.Discard())
	require.NoError(t, err)
	srv, err := NewServer(false, logr.Discard(), rt, prometheus.NewRegistry(), "test")
	require.NoError(t, err)

	srv.Start()
	defer srv.Stop()

	get := func(port int, path string) (int, string) {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", port, path))
		if err != nil {
			return 0, ""
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	require.Eventually(t, func() bool {
		code, body := get(forwardPort, "/status")
		return code == http.StatusOK && body == "OK"
	}, 5*time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		code, _ := get(adminPort, "/metrics")
		return code == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	code, body := get(adminPort, "/breaker")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"store":"file"`)

	assert.True(t, srv.GetForwardServer("web").IsRunning())
	assert.True(t, srv.GetAdminServer().IsRunning())
}

func TestSharedCollector(t *testing.T) {
	first, err := SharedCollector()
	require.NoError(t, err)
	second, err := SharedCollector()
	require.NoError(t, err)
	assert.Same(t, first, second)
}
