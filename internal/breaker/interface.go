package breaker

import (
	"context"
	"time"
)

// StateStore 代表熔断器状态存储接口
type StateStore interface {
	// Load 读取当前记录，记录缺失或无法解析时返回关闭状态，不返回错误
	Load(ctx context.Context) State

	// Save 原子地覆盖记录，并发读取只会看到旧记录或新记录
	Save(ctx context.Context, open bool, openedAt time.Time) error

	// Type 返回存储类型名称
	Type() string

	// Close 释放存储持有的资源
	Close() error
}

// Observer 代表熔断器事件观察者，用于指标采集
type Observer interface {
	// OnDecision 记录一次放行或拒绝决策
	OnDecision(phase Phase)

	// OnOutcome 记录一次下游调用结果
	OnOutcome(outcome Outcome)

	// OnTransition 记录阶段变化
	OnTransition(from, to Phase)

	// OnStoreError 记录存储操作失败
	OnStoreError(storeType string)
}
