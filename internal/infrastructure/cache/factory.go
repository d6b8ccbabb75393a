package cache

import (
	"go.uber.org/zap"

	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/infrastructure/config"
)

// NewIdempotencyStore creates an idempotency store from configuration.
// Redis is used when enabled; otherwise, or when Redis is unreachable,
// the store falls back to the in-memory implementation.
func NewIdempotencyStore(cfg config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	if !cfg.Enabled {
		logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}

	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory idempotency store",
			zap.String("addr", cfg.Addr()),
			zap.Error(err))
		return NewInMemoryIdempotencyStore()
	}

	logger.Info("using redis idempotency store", zap.String("addr", cfg.Addr()))
	return store
}
