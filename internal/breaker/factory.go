package breaker

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// NewStore 根据配置创建状态存储
func NewStore(ctx context.Context, cfg *config.StoreConfig, logger logr.Logger) (StateStore, error) {
	if cfg == nil {
		return nil, ErrNilStore
	}

	logger = logger.WithName("store").WithValues("type", cfg.Type)

	switch cfg.Type {
	case constants.StoreTypeFile, "":
		return NewFileStore(cfg.Path, logger), nil
	case constants.StoreTypeMemory:
		return NewMemoryStore(), nil
	case constants.StoreTypeRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis store requires redis config: %w", ErrNilStore)
		}
		return DialRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Key, logger)
	case constants.StoreTypeBadger:
		return OpenBadgerStore(cfg.Path, cfg.Key, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStoreType, cfg.Type)
	}
}
