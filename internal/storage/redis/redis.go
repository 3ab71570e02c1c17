package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialnet/internal/config"
	"socialnet/internal/storage"

	"github.com/redis/go-redis/v9"
)

// RedisRepo is the shared expiring counter store behind the brute-force
// guard and the rate limiter. Every method reports an unreachable server as
// storage.ErrCacheUnavailable so callers can fail open instead of failing
// the request.
type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, cfg *config.Config) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return &RedisRepo{}, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{client: client}, nil
}

// Count returns the current value of a counter, 0 if the key does not exist.
func (r *RedisRepo) Count(ctx context.Context, key string) (int64, error) {
	const op = "storage.redis.Count"

	if r.client == nil {
		return 0, storage.ErrCacheUnavailable
	}

	n, err := r.client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("%s: %w", op, storage.ErrCacheUnavailable)
	}

	return n, nil
}

// Incr atomically increments a counter and (re)arms its expiry in a single
// pipelined round trip, so concurrent failures cannot lose updates.
func (r *RedisRepo) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	const op = "storage.redis.Incr"

	if r.client == nil {
		return 0, storage.ErrCacheUnavailable
	}

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrCacheUnavailable)
	}

	return incr.Val(), nil
}

// TTL returns the remaining lifetime of a key. Missing keys report zero.
func (r *RedisRepo) TTL(ctx context.Context, key string) (time.Duration, error) {
	const op = "storage.redis.TTL"

	if r.client == nil {
		return 0, storage.ErrCacheUnavailable
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrCacheUnavailable)
	}
	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}

func (r *RedisRepo) SetWithTTL(ctx context.Context, key string, value int64, ttl time.Duration) error {
	const op = "storage.redis.SetWithTTL"

	if r.client == nil {
		return storage.ErrCacheUnavailable
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrCacheUnavailable)
	}

	return nil
}

func (r *RedisRepo) Delete(ctx context.Context, key string) error {
	const op = "storage.redis.Delete"

	if r.client == nil {
		return storage.ErrCacheUnavailable
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrCacheUnavailable)
	}

	return nil
}

// * Close закрывает соединение с базой данных.
func (r *RedisRepo) Close() {
	if r.client != nil {
		r.client.Close()
	}
}
