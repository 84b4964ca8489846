package headers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// 头部操作相关错误定义
var (
	ErrInvalidOperation = errors.New("invalid header operation")
	ErrEmptyHeaderKey   = errors.New("header key cannot be empty")
	ErrNilHeader        = errors.New("header cannot be nil")
)

// HeaderOperator 代表HTTP头部操作器接口
type HeaderOperator interface {
	// Process 按配置顺序批量处理HTTP头部操作
	Process(headers http.Header, ops []config.HeaderOpConfig) error

	// ProcessSingle 处理单个HTTP头部操作
	ProcessSingle(headers http.Header, op config.HeaderOpConfig) error
}

// defaultOperator 代表默认头部操作器实现
type defaultOperator struct{}

// NewOperator 创建新的HTTP头部操作器
func NewOperator() HeaderOperator {
	return &defaultOperator{}
}

func (o *defaultOperator) Process(headers http.Header, ops []config.HeaderOpConfig) error {
	if headers == nil {
		return ErrNilHeader
	}

	for i, op := range ops {
		if err := o.ProcessSingle(headers, op); err != nil {
			return fmt.Errorf("header operation %d failed: %w", i, err)
		}
	}
	return nil
}

func (o *defaultOperator) ProcessSingle(headers http.Header, op config.HeaderOpConfig) error {
	if headers == nil {
		return ErrNilHeader
	}

	key := strings.TrimSpace(op.Key)
	if key == "" {
		return ErrEmptyHeaderKey
	}

	switch strings.ToLower(op.Op) {
	case constants.HeaderOpInsert:
		// 已存在时不覆盖
		if headers.Get(key) == "" {
			headers.Set(key, op.Value)
		}
	case constants.HeaderOpReplace:
		headers.Set(key, op.Value)
	case constants.HeaderOpRemove:
		headers.Del(key)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOperation, op.Op)
	}
	return nil
}
