package breaker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// FileStore 基于本地文件的状态存储，写入采用临时文件加重命名
type FileStore struct {
	path   string
	logger logr.Logger
}

// NewFileStore 创建文件状态存储
func NewFileStore(path string, logger logr.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load 读取状态文件
func (s *FileStore) Load(_ context.Context) State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error(err, "Failed to read breaker state, treating as closed", "path", s.path)
		}
		return Closed()
	}

	state, err := decodeState(data)
	if err != nil {
		s.logger.V(1).Info("Malformed breaker state, treating as closed", "path", s.path, "error", err.Error())
		return Closed()
	}
	return state
}

// Save 将状态写入同目录下的唯一临时文件，落盘后重命名覆盖目标文件
func (s *FileStore) Save(_ context.Context, open bool, openedAt time.Time) error {
	data, err := encodeState(State{Open: open, OpenedAt: openedAt})
	if err != nil {
		return fmt.Errorf("failed to encode breaker state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Type 返回存储类型
func (s *FileStore) Type() string {
	return constants.StoreTypeFile
}

// Close 文件存储无需释放资源
func (s *FileStore) Close() error {
	return nil
}

// Path 返回状态文件路径
func (s *FileStore) Path() string {
	return s.path
}
