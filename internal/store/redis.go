package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "wandermate:cache:"

// RedisCache stores entries with SET EX so Redis owns expiry.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(addr string, db int) *RedisCache {
	return &RedisCache{rdb: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

// Ping checks the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, redisKeyPrefix+key, value, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+key).Err()
}

// Clear removes only keys under this application's prefix.
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
