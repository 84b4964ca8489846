package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// RedisStore 基于 Redis 的共享状态存储，多个实例共用同一个键
type RedisStore struct {
	client *redis.Client
	key    string
	owned  bool // 客户端由存储创建时，Close 负责关闭
	logger logr.Logger
}

// NewRedisStore 使用已有客户端创建状态存储，客户端生命周期由调用方管理
func NewRedisStore(client *redis.Client, key string, logger logr.Logger) *RedisStore {
	return &RedisStore{client: client, key: key, logger: logger}
}

// DialRedisStore 创建客户端并校验连通性
func DialRedisStore(ctx context.Context, addr, password string, db int, key string, logger logr.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s: %w", addr, err)
	}

	store := NewRedisStore(client, key, logger)
	store.owned = true
	return store, nil
}

// Load 读取状态键，键不存在或读取失败时返回关闭状态
func (s *RedisStore) Load(ctx context.Context) State {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Error(err, "Failed to read breaker state, treating as closed", "key", s.key)
		}
		return Closed()
	}

	state, err := decodeState(data)
	if err != nil {
		s.logger.V(1).Info("Malformed breaker state, treating as closed", "key", s.key, "error", err.Error())
		return Closed()
	}
	return state
}

// Save 在事务中写入唯一临时键并重命名到目标键
func (s *RedisStore) Save(ctx context.Context, open bool, openedAt time.Time) error {
	data, err := encodeState(State{Open: open, OpenedAt: openedAt})
	if err != nil {
		return fmt.Errorf("failed to encode breaker state: %w", err)
	}

	tmpKey := s.key + ":tmp:" + uuid.NewString()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tmpKey, data, 0)
		pipe.Rename(ctx, tmpKey, s.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save breaker state to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Type() string {
	return constants.StoreTypeRedis
}

// Close 关闭自建的客户端
func (s *RedisStore) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}
