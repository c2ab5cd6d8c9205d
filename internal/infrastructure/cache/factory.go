package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lodgehr/backend/internal/domain/shared"
	"github.com/lodgehr/backend/internal/infrastructure/config"
)

// NewIdempotencyStore creates the save-dedup store for the configured
// deployment. With Redis enabled the store is shared across instances;
// otherwise an in-memory store is used and a warning is logged, since
// duplicate detection then only holds within one process.
func NewIdempotencyStore(cfg config.RedisConfig, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Enabled {
		logger.Warn("using in-memory save dedup store; duplicate step saves are only detected within this instance")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis idempotency store: %w", err)
	}
	logger.Info("using Redis save dedup store", zap.String("addr", cfg.RedisAddr()))
	return store, nil
}
