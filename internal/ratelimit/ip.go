package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// ClientIP 获取请求的客户端地址
// 依次使用 X-Forwarded-For 的首个有效地址、X-Real-IP 和 RemoteAddr。
func ClientIP(req *http.Request) string {
	if xff := req.Header.Get(constants.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); net.ParseIP(first) != nil {
			return first
		}
	}

	if xri := strings.TrimSpace(req.Header.Get(constants.HeaderXRealIP)); net.ParseIP(xri) != nil {
		return xri
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
