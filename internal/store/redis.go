package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/logger"
)

// RedisKV maps the primitives one-to-one onto redis SADD/SMEMBERS/HSET/HGET/HGETALL.
type RedisKV struct {
	client redis.UniversalClient
}

// NewRedisKV wraps an existing client.
func NewRedisKV(client redis.UniversalClient) *RedisKV {
	return &RedisKV{client: client}
}

// OpenRedis dials redis and pings it once. A failed ping is logged but not
// fatal: the client reconnects on the next command.
func OpenRedis(ctx context.Context, cfg coreconfig.RedisConfig) *RedisKV {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	start := time.Now()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Store.Warn("redis ping failed",
			slog.String("event", "store.connect"),
			slog.String("driver", coreconfig.StorageRedis),
			slog.String("host", cfg.Host),
			slog.Int("port", cfg.Port),
			slog.String("err", err.Error()),
		)
	} else {
		logger.Store.Info("redis connected",
			slog.String("event", "store.connect"),
			slog.String("driver", coreconfig.StorageRedis),
			slog.String("host", cfg.Host),
			slog.Int("port", cfg.Port),
			slog.Int("db", cfg.DB),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return NewRedisKV(client)
}

func (r *RedisKV) SAdd(ctx context.Context, key, member string) error {
	return r.client.SAdd(ctx, key, member).Err()
}

func (r *RedisKV) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.client.SMembers(ctx, key).Result()
}

func (r *RedisKV) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, 2*len(fields))
	for f, v := range fields {
		args = append(args, f, v)
	}
	return r.client.HSet(ctx, key, args...).Err()
}

func (r *RedisKV) HGet(ctx context.Context, key, field string) (string, bool, error) {
	v, err := r.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisKV) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return r.client.HGetAll(ctx, key).Result()
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}
