package server

import (
	"context"
	"errors"
	"net"

	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// 服务器相关错误定义
var (
	ErrServerAlreadyStarted = errors.New(constants.ErrMsgServerAlreadyStarted)
	ErrServerNotStarted     = errors.New(constants.ErrMsgServerNotStarted)
)

// isTimeout 判断上游错误是否为超时
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
