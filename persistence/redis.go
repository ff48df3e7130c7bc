package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Storage = (*RedisStorage)(nil)

// RedisStorage stores each value as a plain string key without expiry.
type RedisStorage struct {
	client redis.Cmdable
	logger *zap.Logger
}

func NewRedisStorage(client redis.Cmdable, logger *zap.Logger) *RedisStorage {
	return &RedisStorage{
		client: client,
		logger: logger,
	}
}

func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to load cart from redis", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return data, true, nil
}

func (r *RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		r.logger.Error("Failed to save cart to redis", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}
