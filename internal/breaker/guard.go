package breaker

import (
	"context"
	"time"

	"github.com/go-logr/logr"
)

// Guard 代表持久化熔断器，每次决策读取存储，每次转换写回存储
// Guard 不持有锁，多个进程共享存储时以最后一次写入为准
type Guard struct {
	store        StateStore
	openInterval time.Duration
	now          func() time.Time
	observer     Observer
	logger       logr.Logger
}

// Option 代表 Guard 的可选配置
type Option func(*Guard)

// WithClock 设置时间来源
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// WithObserver 设置事件观察者
func WithObserver(observer Observer) Option {
	return func(g *Guard) {
		g.observer = observer
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger logr.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// NewGuard 创建熔断器
func NewGuard(store StateStore, openInterval time.Duration, opts ...Option) (*Guard, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	g := &Guard{
		store:        store,
		openInterval: openInterval,
		now:          time.Now,
		logger:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Allow 判断是否放行本次调用
// 开启且未满开启时长时返回 ErrCircuitOpen；已满开启时长时返回 PhaseProbing 并放行，
// 决策本身不修改记录，并发的探测请求都会被放行。
func (g *Guard) Allow(ctx context.Context) (Phase, error) {
	state := g.store.Load(ctx)
	phase := state.PhaseAt(g.now(), g.openInterval)

	if g.observer != nil {
		g.observer.OnDecision(phase)
	}

	if phase == PhaseOpen {
		g.logger.V(1).Info("Circuit open, failing fast",
			"opened_at", state.OpenedAt,
			"open_interval_ms", g.openInterval.Milliseconds())
		return phase, ErrCircuitOpen
	}

	if phase == PhaseProbing {
		g.logger.V(1).Info("Open interval elapsed, allowing probe", "opened_at", state.OpenedAt)
	}
	return phase, nil
}

// Record 根据调用结果持久化状态转换，返回写入的目标阶段
// phase 为 Allow 返回的阶段。存储写入失败仅记录日志，不影响调用方。
func (g *Guard) Record(ctx context.Context, phase Phase, outcome Outcome) Phase {
	if g.observer != nil {
		g.observer.OnOutcome(outcome)
	}

	var err error
	next := PhaseClosed
	if outcome.Opens() {
		next = PhaseOpen
		err = g.store.Save(ctx, true, g.now())
	} else {
		err = g.store.Save(ctx, false, time.Time{})
	}

	if err != nil {
		g.logger.Error(err, "Failed to persist breaker state",
			"store", g.store.Type(),
			"outcome", outcome.String(),
			"target", next.String())
		if g.observer != nil {
			g.observer.OnStoreError(g.store.Type())
		}
	}

	if next != phase {
		g.logger.Info("Circuit breaker transition",
			"from", phase.String(),
			"to", next.String(),
			"outcome", outcome.String())
		if g.observer != nil {
			g.observer.OnTransition(phase, next)
		}
	}

	return next
}

// Snapshot 返回当前记录及其阶段
func (g *Guard) Snapshot(ctx context.Context) (State, Phase) {
	state := g.store.Load(ctx)
	return state, state.PhaseAt(g.now(), g.openInterval)
}

// OpenInterval 返回开启时长
func (g *Guard) OpenInterval() time.Duration {
	return g.openInterval
}

// Store 返回底层状态存储
func (g *Guard) Store() StateStore {
	return g.store
}
