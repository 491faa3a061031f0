package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"todo-app/cache"
	"todo-app/common"
)

// KeyFunc names the bucket a request is counted against. ok=false skips limiting.
type KeyFunc func(r *http.Request) (key string, ok bool)

// ByUser buckets authenticated requests per user.
func ByUser(r *http.Request) (string, bool) {
	id, ok := common.UserIDFromContext(r.Context())
	if !ok {
		return "", false
	}
	return fmt.Sprintf("ratelimit:user:%d", id), true
}

// ByIP buckets requests per client address and route, for unauthenticated endpoints.
func ByIP(r *http.Request) (string, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return fmt.Sprintf("ratelimit:ip:%s:%s", host, r.URL.Path), true
}

// ByEmail buckets requests by the "email" field of a JSON body and route.
// The body is restored for the handler. Requests without an email are not limited here.
func ByEmail(r *http.Request) (string, bool) {
	if r.Body == nil {
		return "", false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	var req struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &req) != nil {
		return "", false
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return "", false
	}
	return fmt.Sprintf("ratelimit:email:%s:%s", email, r.URL.Path), true
}

// RateLimiter is a fixed window counter in Redis. A nil client disables it.
type RateLimiter struct {
	RedisClient cache.RedisClientInterface
	Limit       int
	Window      time.Duration
	Key         KeyFunc
	Log         *zap.Logger
}

func NewRateLimiter(redisClient cache.RedisClientInterface, limit int, window time.Duration, key KeyFunc, log *zap.Logger) *RateLimiter {
	if key == nil {
		key = ByUser
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{
		RedisClient: redisClient,
		Limit:       limit,
		Window:      window,
		Key:         key,
		Log:         log,
	}
}

func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.RedisClient == nil {
			next.ServeHTTP(w, req)
			return
		}
		key, ok := r.Key(req)
		if !ok {
			next.ServeHTTP(w, req)
			return
		}

		ctx := req.Context()
		count, err := r.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			// fail open, a Redis outage must not take the API down
			r.Log.Warn("Rate limit check failed", zap.String("key", key), zap.Error(err))
			next.ServeHTTP(w, req)
			return
		}
		if count == 1 {
			r.RedisClient.Expire(ctx, key, r.Window)
		}
		ttl, err := r.RedisClient.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = r.Window
		}

		remaining := r.Limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-Rate-Limit-Limit", strconv.Itoa(r.Limit))
		w.Header().Set("X-Rate-Limit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-Rate-Limit-Reset", strconv.FormatInt(int64(ttl.Seconds()), 10))

		if int(count) > r.Limit {
			w.Header().Set("Retry-After", strconv.FormatInt(int64(ttl.Seconds()), 10))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, req)
	})
}

// Status reports what is left in the current window for key.
func (r *RateLimiter) Status(ctx context.Context, key string) (remaining int, reset time.Duration, err error) {
	if r.RedisClient == nil {
		return r.Limit, 0, nil
	}
	count, err := r.RedisClient.Get(ctx, key).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("read rate limit: %w", err)
	}
	reset, err = r.RedisClient.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read rate limit ttl: %w", err)
	}
	if reset < 0 {
		reset = 0
	}
	remaining = r.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, reset, nil
}
