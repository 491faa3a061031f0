package session

import (
	"context"
	"errors"

	"todo-app/cache"

	"github.com/go-redis/redis/v8"
)

// RedisKV stores session keys under a per-profile prefix. Keys never expire;
// the server decides when a token stops being valid.
type RedisKV struct {
	client cache.RedisClientInterface
	prefix string
}

func NewRedisKV(client cache.RedisClientInterface, profile string) *RedisKV {
	return &RedisKV{client: client, prefix: "session:" + profile + ":"}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, r.prefix+k)
	}
	return r.client.Del(ctx, full...).Err()
}
