// Package breaker 实现相关书籍推荐调用的持久化熔断器
//
// 熔断器本身不持有进程内状态，每次决策都从 StateStore 重新读取记录，
// 每次状态转换都写回存储，因此多个进程共享同一存储时观察到的是同一个熔断器。
package breaker

import (
	"time"
)

// State 代表持久化的熔断器记录
type State struct {
	Open     bool      // 熔断器是否处于开启状态
	OpenedAt time.Time // 最近一次进入开启状态的时间，关闭时为零值
}

// Closed 返回关闭状态的记录
func Closed() State {
	return State{}
}

// PhaseAt 根据当前时间和开启时长计算熔断器所处阶段
func (s State) PhaseAt(now time.Time, openInterval time.Duration) Phase {
	if !s.Open {
		return PhaseClosed
	}
	if now.Sub(s.OpenedAt) < openInterval {
		return PhaseOpen
	}
	return PhaseProbing
}

// Phase 代表熔断器决策阶段
type Phase int

const (
	// PhaseClosed 正常放行
	PhaseClosed Phase = iota
	// PhaseProbing 开启时长已过，放行探测请求
	PhaseProbing
	// PhaseOpen 快速失败，不发起网络请求
	PhaseOpen
)

// String 返回阶段名称
func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseProbing:
		return "probing"
	case PhaseOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Outcome 代表一次下游调用的结果分类
type Outcome int

const (
	// OutcomeSuccess 下游返回有效数据
	OutcomeSuccess Outcome = iota
	// OutcomeEmpty 下游明确表示没有数据
	OutcomeEmpty
	// OutcomeTimeout 下游在限定时间内未响应
	OutcomeTimeout
	// OutcomeUnavailable 下游报告自身不可用
	OutcomeUnavailable
	// OutcomeUnexpected 下游返回其他状态
	OutcomeUnexpected
)

// String 返回结果分类名称
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Opens 判断该结果是否使熔断器进入开启状态
func (o Outcome) Opens() bool {
	return o != OutcomeSuccess && o != OutcomeEmpty
}
