// Package config loads the server settings from the environment and the
// client settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Server struct {
	Port               string
	DatabaseURL        string
	DBDriver           string
	JWTSecret          string
	JWTExpires         time.Duration
	RedisAddr          string
	CORSAllowedOrigins []string
	ResendAPIKey       string
	FromEmail          string
	LogFile            string
	LogLevel           string
	RateLimit          int
	APIRateLimit       int
	RateWindow         time.Duration
	NotifyWorkers      int
	DueScanInterval    time.Duration
}

// LoadServer reads .env (if present) and then the process environment.
func LoadServer() (*Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Server{
		Port:               envOr("SERVER_PORT", "8080"),
		DatabaseURL:        envOr("DATABASE_URL", "todo.db"),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		JWTSecret:          os.Getenv("JWT_SECRET_KEY"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		CORSAllowedOrigins: splitAndTrim(envOr("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		ResendAPIKey:       os.Getenv("RESEND_API_KEY"),
		FromEmail:          envOr("FROM_EMAIL", "Todo App <onboarding@resend.dev>"),
		LogFile:            envOr("LOG_FILE", "logs/app.log"),
		LogLevel:           envOr("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.JWTExpires, err = durationEnv("JWT_EXPIRES", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateWindow, err = durationEnv("RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.DueScanInterval, err = durationEnv("DUE_SCAN_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = intEnv("RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.APIRateLimit, err = intEnv("API_RATE_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.NotifyWorkers, err = intEnv("NOTIFY_WORKERS", 3); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET_KEY is required")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// durationEnv accepts Go durations ("90s") or a bare number of seconds.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
