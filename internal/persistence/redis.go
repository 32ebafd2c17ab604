package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nexusops/sla-service/internal/config"
)

// Redis owns the shared go-redis client. Connection failures at startup are
// logged, not fatal: the only consumer is the metrics cache, which degrades
// to recomputation.
type Redis struct {
	client *redis.Client
}

// NewRedis dials redis with the configured address and database.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
		return &Redis{client: client}
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	return &Redis{client: client}
}

// Ping reports connectivity for readiness probes.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("redis client not configured")
	}
	return r.client.Ping(ctx).Err()
}

// Close shuts the client down.
func (r *Redis) Close() {
	if r != nil && r.client != nil {
		_ = r.client.Close()
	}
}
