package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/team-hierarchy-service/internal/config"
)

// ErrNotConfigured signals an optional dependency that was not wired.
var ErrNotConfigured = errors.New("dependency not configured")

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return ErrNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}

// GetString fetches a string key; a miss returns empty with no error.
func (r *Redis) GetString(ctx context.Context, key string) (string, error) {
	if r == nil || r.Client == nil {
		return "", ErrNotConfigured
	}
	val, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// SetString stores a string key with a TTL.
func (r *Redis) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if r == nil || r.Client == nil {
		return ErrNotConfigured
	}
	return r.Client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if r == nil || r.Client == nil {
		return ErrNotConfigured
	}
	return r.Client.Del(ctx, key).Err()
}

// PushList appends a value to a list key.
func (r *Redis) PushList(ctx context.Context, key, value string) error {
	if r == nil || r.Client == nil {
		return ErrNotConfigured
	}
	return r.Client.RPush(ctx, key, value).Err()
}
