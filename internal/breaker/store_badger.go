package breaker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// BadgerStore 基于嵌入式 BadgerDB 的状态存储
type BadgerStore struct {
	db     *badger.DB
	key    []byte
	logger logr.Logger
}

// badgerLogger 将 BadgerDB 内部日志转接到 logr
type badgerLogger struct {
	logger logr.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(nil, fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.V(1).Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.V(2).Info(fmt.Sprintf(format, args...))
}

// OpenBadgerStore 打开 BadgerDB 状态存储，path 为空时使用内存模式
func OpenBadgerStore(path, key string, logger logr.Logger) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(&badgerLogger{logger: logger.WithName("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &BadgerStore{db: db, key: []byte(key), logger: logger}, nil
}

// Load 在只读事务中读取状态键
func (s *BadgerStore) Load(_ context.Context) State {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Error(err, "Failed to read breaker state, treating as closed", "key", string(s.key))
		}
		return Closed()
	}

	state, err := decodeState(data)
	if err != nil {
		s.logger.V(1).Info("Malformed breaker state, treating as closed", "key", string(s.key), "error", err.Error())
		return Closed()
	}
	return state
}

// Save 在读写事务中覆盖状态键，事务提交前的内容对读取方不可见
func (s *BadgerStore) Save(_ context.Context, open bool, openedAt time.Time) error {
	data, err := encodeState(State{Open: open, OpenedAt: openedAt})
	if err != nil {
		return fmt.Errorf("failed to encode breaker state: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	}); err != nil {
		return fmt.Errorf("failed to save breaker state to badger: %w", err)
	}
	return nil
}

func (s *BadgerStore) Type() string {
	return constants.StoreTypeBadger
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// putRaw 直接写入原始字节，用于测试损坏记录
func (s *BadgerStore) putRaw(data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	})
}
