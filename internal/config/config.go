package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `yaml:"port"`
	// Base URL of the remote blog API, without a trailing slash
	APIURL     string        `yaml:"api_url"`
	APITimeout time.Duration `yaml:"api_timeout"`
	// Session cookie
	SessionSecret        string        `yaml:"session_secret"`
	SessionCheckInterval time.Duration `yaml:"session_check_interval"`
	CookieSecure         bool          `yaml:"cookie_secure"`
	// Activity log
	SQLitePath string `yaml:"sqlite_path"`
	LogLevel   string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Port:                 "3000",
		APITimeout:           10 * time.Second,
		SessionCheckInterval: 60 * time.Second,
		SQLitePath:           "data/blog.db",
		LogLevel:             "info",
	}
}

func LoadConfig() (*Config, error) {
	// A missing .env is fine; the environment may be set by the supervisor.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Port = port
	}
	if apiURL := os.Getenv("API_URL"); apiURL != "" {
		c.APIURL = apiURL
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		c.SessionSecret = secret
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		c.SQLitePath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}

	if v := os.Getenv("SESSION_CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_CHECK_INTERVAL %q: %w", v, err)
		}
		c.SessionCheckInterval = d
	}
	if v := os.Getenv("API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid API_TIMEOUT %q: %w", v, err)
		}
		c.APITimeout = d
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid COOKIE_SECURE %q: %w", v, err)
		}
		c.CookieSecure = secure
	}

	return nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.APIURL == "" {
		return fmt.Errorf("API_URL is not set")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is not set")
	}
	if c.SessionCheckInterval <= 0 {
		return fmt.Errorf("SESSION_CHECK_INTERVAL must be positive")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}
	return nil
}
