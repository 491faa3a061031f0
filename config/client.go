package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL             = "http://localhost:8080"
	DefaultCheckInterval      = 60
	DefaultBackgroundInterval = 900
)

// Client holds the CLI and dashboard settings.
type Client struct {
	APIURL  string `toml:"api_url"`
	Profile string `toml:"profile"`

	// SessionStore is "file" or "redis".
	SessionStore string `toml:"session_store"`
	SessionFile  string `toml:"session_file"`
	RedisAddr    string `toml:"redis_addr"`

	Notifications             bool `toml:"notifications"`
	CheckIntervalSeconds      int  `toml:"check_interval_seconds"`
	BackgroundIntervalSeconds int  `toml:"background_interval_seconds"`
	Push                      bool `toml:"push"`

	LogFile     string `toml:"log_file"`
	LogLevel    string `toml:"log_level"`
	MetricsAddr string `toml:"metrics_addr"`

	ConfigFile string `toml:"-"`
}

func (c *Client) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

func (c *Client) BackgroundInterval() time.Duration {
	return time.Duration(c.BackgroundIntervalSeconds) * time.Second
}

// ConfigDir is ~/.config/todo-app, or $XDG_CONFIG_HOME/todo-app.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".todo-app"
	}
	return filepath.Join(dir, "todo-app")
}

// LoadClient layers defaults, the TOML file, TODO_* variables and flags, in
// that order.
func LoadClient(fs *flag.FlagSet, args []string) (*Client, error) {
	cfg := &Client{}
	setClientDefaults(cfg)

	path := os.Getenv("TODO_CONFIG")
	if path == "" {
		path = filepath.Join(ConfigDir(), "config.toml")
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
	}

	loadClientEnv(cfg)

	if fs != nil {
		fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "API base URL")
		fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "Session profile name")
		fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("parsing flags: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setClientDefaults(cfg *Client) {
	cfg.APIURL = DefaultAPIURL
	cfg.Profile = "default"
	cfg.SessionStore = "file"
	cfg.SessionFile = filepath.Join(ConfigDir(), "session.json")
	cfg.Notifications = true
	cfg.CheckIntervalSeconds = DefaultCheckInterval
	cfg.BackgroundIntervalSeconds = DefaultBackgroundInterval
	cfg.Push = true
	cfg.LogFile = filepath.Join(ConfigDir(), "todo.log")
	cfg.LogLevel = "info"
}

func loadClientEnv(cfg *Client) {
	if v := os.Getenv("TODO_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TODO_PROFILE"); v != "" {
		cfg.Profile = v
	}
	if v := os.Getenv("TODO_SESSION_STORE"); v != "" {
		cfg.SessionStore = v
	}
	if v := os.Getenv("TODO_SESSION_FILE"); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv("TODO_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("TODO_NOTIFICATIONS"); v != "" {
		cfg.Notifications = boolFromString(v)
	}
	if v := os.Getenv("TODO_PUSH"); v != "" {
		cfg.Push = boolFromString(v)
	}
	if v := os.Getenv("TODO_CHECK_INTERVAL"); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			cfg.CheckIntervalSeconds = i
		}
	}
	if v := os.Getenv("TODO_BACKGROUND_INTERVAL"); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			cfg.BackgroundIntervalSeconds = i
		}
	}
	if v := os.Getenv("TODO_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("TODO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TODO_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}

func (c *Client) validate() error {
	switch c.SessionStore {
	case "file":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("session_store redis needs redis_addr")
		}
	default:
		return fmt.Errorf("unknown session_store %q", c.SessionStore)
	}
	if c.CheckIntervalSeconds <= 0 || c.BackgroundIntervalSeconds <= 0 {
		return fmt.Errorf("check intervals must be positive")
	}
	return nil
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
