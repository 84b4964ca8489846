package breaker

import (
	"errors"
	"fmt"

	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// 熔断器错误分类
var (
	ErrCircuitOpen           = errors.New(constants.ErrMsgCircuitOpen)
	ErrDownstreamTimeout     = errors.New(constants.ErrMsgDownstreamTimeout)
	ErrDownstreamUnavailable = errors.New(constants.ErrMsgDownstreamUnavailable)
	ErrDownstreamUnexpected  = errors.New(constants.ErrMsgDownstreamUnexpected)
)

// 存储相关错误定义
var (
	ErrNilStore         = errors.New(constants.ErrMsgNilStore)
	ErrUnknownStoreType = errors.New(constants.ErrMsgUnknownStoreType)
)

// StatusError 携带下游状态码的错误，Unwrap 返回对应的分类错误
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Err.Error(), e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewStatusError 创建携带状态码的错误
func NewStatusError(statusCode int, err error) *StatusError {
	return &StatusError{StatusCode: statusCode, Err: err}
}

// ErrorForOutcome 返回结果分类对应的错误，成功和空结果返回 nil
func ErrorForOutcome(outcome Outcome) error {
	switch outcome {
	case OutcomeTimeout:
		return ErrDownstreamTimeout
	case OutcomeUnavailable:
		return ErrDownstreamUnavailable
	case OutcomeUnexpected:
		return ErrDownstreamUnexpected
	default:
		return nil
	}
}
