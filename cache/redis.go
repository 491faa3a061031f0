package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"todo-app/entity"
)

var (
	Ctx context.Context = context.Background()

	RedisClient RedisClientInterface
)

// TaskListTTL bounds how stale a cached task list can get.
const TaskListTTL = 5 * time.Minute

type RedisClientInterface interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Decr(ctx context.Context, key string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

func InitRedis(addr string) error {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if _, err := client.Ping(Ctx).Result(); err != nil {
		return err
	}
	RedisClient = client
	return nil
}

// Enabled reports whether a Redis client is configured.
func Enabled() bool {
	return RedisClient != nil
}

func Get(key string) (string, error) {
	if RedisClient == nil {
		return "", redis.Nil
	}
	return RedisClient.Get(Ctx, key).Result()
}

func Set(key string, value string, ttl time.Duration) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Set(Ctx, key, value, ttl).Err()
}

func Delete(keys ...string) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Del(Ctx, keys...).Err()
}

func TaskListKey(userID int) string {
	return fmt.Sprintf("tasks:user:%d", userID)
}

// GetTaskList returns the cached task list of the user. ok is false on a
// miss, an undecodable entry or when caching is disabled.
func GetTaskList(userID int) (tasks []entity.Task, ok bool) {
	raw, err := Get(TaskListKey(userID))
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, false
	}
	return tasks, true
}

func SetTaskList(userID int, tasks []entity.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return Set(TaskListKey(userID), string(data), TaskListTTL)
}

// InvalidateTasks drops the cached task list after a mutation.
func InvalidateTasks(userID int) error {
	return Delete(TaskListKey(userID))
}
