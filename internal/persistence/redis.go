package persistence

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/config"
)

// ErrRedisNotConfigured is returned by a Redis with no client.
var ErrRedisNotConfigured = errors.New("redis client not configured")

// Redis carries follow-up messages to waiting askers over pub/sub. It tracks
// whether the last round trip succeeded so readiness can report it.
type Redis struct {
	Client  *redis.Client
	logger  *zap.Logger
	healthy atomic.Bool
}

// NewRedis builds the client. An unreachable server is logged, not fatal:
// readiness reports it and publishes fail per event.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Redis{
		Client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		logger: logger.Named("redis"),
	}
	if err := r.Ping(ctx); err != nil {
		r.logger.Warn("unable to reach redis; follow-ups will fail until it recovers", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		r.logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}
	return r
}

// Publish sends message on channel. It satisfies notify.Publisher.
func (r *Redis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	if r == nil || r.Client == nil {
		cmd := redis.NewIntCmd(ctx)
		cmd.SetErr(ErrRedisNotConfigured)
		return cmd
	}
	cmd := r.Client.Publish(ctx, channel, message)
	r.observe(cmd.Err())
	return cmd
}

// Ping verifies connectivity and records the outcome.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return ErrRedisNotConfigured
	}
	err := r.Client.Ping(ctx).Err()
	r.observe(err)
	return err
}

// Healthy reports whether the last Ping or Publish succeeded.
func (r *Redis) Healthy() bool {
	return r != nil && r.healthy.Load()
}

func (r *Redis) observe(err error) {
	if was := r.healthy.Swap(err == nil); was && err != nil {
		r.logger.Warn("redis became unreachable", zap.Error(err))
	}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}
