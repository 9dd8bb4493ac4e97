package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisCmdable is the part of *redis.Client the cache needs.
type redisCmdable interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisClient stores JSON encoded values of T with a fixed expiration.
type RedisClient[T any] struct {
	client     redisCmdable
	logger     zerolog.Logger
	expiration time.Duration
}

func NewRedisClient[T any](
	client redisCmdable,
	logger zerolog.Logger,
	expiration time.Duration,
) *RedisClient[T] {
	return &RedisClient[T]{
		client:     client,
		logger:     logger.With().Str("component", "RedisClient").Logger(),
		expiration: expiration,
	}
}

func (c *RedisClient[T]) Set(
	ctx context.Context,
	key string,
	value T,
) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error().
			Ctx(ctx).
			Err(err).
			Msg("failed to marshal value for cache")
		return fmt.Errorf("marshal: %w", err)
	}

	c.logger.Debug().
		Ctx(ctx).
		Str("key", key).
		Int("size", len(data)).
		Dur("expiration", c.expiration).
		Msg("writing to cache")

	if err := c.client.Set(ctx, key, data, c.expiration).Err(); err != nil {
		c.logger.Error().
			Ctx(ctx).
			Str("key", key).
			Err(err).
			Msg("cache write failed")
		return err
	}
	return nil
}
