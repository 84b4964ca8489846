package breaker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// MemoryStore 进程内状态存储，仅适用于单实例部署
type MemoryStore struct {
	state atomic.Pointer[State]
}

// NewMemoryStore 创建进程内状态存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) State {
	if p := s.state.Load(); p != nil {
		return *p
	}
	return Closed()
}

// Save 每次写入替换为新的记录指针
func (s *MemoryStore) Save(_ context.Context, open bool, openedAt time.Time) error {
	next := State{Open: open}
	if open {
		next.OpenedAt = openedAt
	}
	s.state.Store(&next)
	return nil
}

func (s *MemoryStore) Type() string {
	return constants.StoreTypeMemory
}

func (s *MemoryStore) Close() error {
	return nil
}
