package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the process-wide configuration, loaded from a TOML file and then
// overlaid with ANYCRAWL_* environment variables (env always wins).
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Redis    RedisConfig    `toml:"redis"`
	Database DatabaseConfig `toml:"database"`
	Crawler  CrawlerConfig  `toml:"crawler"`
	Proxy    ProxyConfig    `toml:"proxy"`
	Storage  StorageConfig  `toml:"storage"`
	AI       AIConfig       `toml:"ai"`
	Auth     AuthConfig     `toml:"auth"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type RedisConfig struct {
	URL string `toml:"url"`
}

// DatabaseConfig holds the dialect-agnostic SQL connection settings for C4.
type DatabaseConfig struct {
	Dialect string `toml:"dialect"` // "postgresql" or "sqlite"
	DSN     string `toml:"dsn"`
}

type CrawlerConfig struct {
	Headless        bool   `toml:"headless"`
	IgnoreSSLError  bool   `toml:"ignore_ssl_error"`
	UserAgent       string `toml:"user_agent"`
	KeepAlive       bool   `toml:"keep_alive"`
	MinConcurrency  int    `toml:"min_concurrency"`
	MaxConcurrency  int    `toml:"max_concurrency"`
	DefaultTimeout  time.Duration `toml:"default_timeout"`
}

type ProxyConfig struct {
	TierURLs   string `toml:"tier_urls"`   // comma-separated tier list
	ConfigPath string `toml:"config_path"` // rules file path
}

type StorageConfig struct {
	Kind            string `toml:"kind"` // "local" or "s3"
	Bucket          string `toml:"bucket"`
	SignedURLTTL    time.Duration `toml:"signed_url_ttl"`
}

type AIConfig struct {
	ConfigPath          string `toml:"config_path"`
	DefaultLLMModel     string `toml:"default_llm_model"`
	DefaultExtractModel string `toml:"default_extract_model"`
	AnthropicAPIKey     string `toml:"anthropic_api_key"`
	GeminiAPIKey        string `toml:"gemini_api_key"`
}

type AuthConfig struct {
	Enabled        bool `toml:"enabled"`
	CreditsEnabled bool `toml:"credits_enabled"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`
	Format string   `toml:"format"`
	Output []string `toml:"output"`
}

// Default returns a Config populated with the defaults named in spec §4/§6.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Host: "0.0.0.0"},
		Redis:  RedisConfig{URL: "redis://127.0.0.1:6379/0"},
		Database: DatabaseConfig{
			Dialect: "sqlite",
			DSN:     "file:anycrawl.db?cache=shared&_pragma=busy_timeout(5000)",
		},
		Crawler: CrawlerConfig{
			Headless:       true,
			IgnoreSSLError: false,
			UserAgent:      "AnyCrawl/1.0",
			KeepAlive:      true,
			MinConcurrency: 10,
			MaxConcurrency: 50,
			DefaultTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{Kind: "local", SignedURLTTL: 3600 * time.Second},
		Auth:    AuthConfig{Enabled: false, CreditsEnabled: false},
		Logging: LoggingConfig{Level: "info", Format: "text", Output: []string{"stdout"}},
	}
}

// Load reads a TOML config file (if path is non-empty and exists) on top of
// Default(), then applies ANYCRAWL_* environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ANYCRAWL_API_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("ANYCRAWL_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("ANYCRAWL_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("ANYCRAWL_DB_DIALECT"); v != "" {
		cfg.Database.Dialect = v
	}
	if v := os.Getenv("ANYCRAWL_MIN_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.MinConcurrency = n
		}
	}
	if v := os.Getenv("ANYCRAWL_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.MaxConcurrency = n
		}
	}
	if v := os.Getenv("ANYCRAWL_HEADLESS"); v != "" {
		cfg.Crawler.Headless = parseBool(v, cfg.Crawler.Headless)
	}
	if v := os.Getenv("ANYCRAWL_IGNORE_SSL_ERROR"); v != "" {
		cfg.Crawler.IgnoreSSLError = parseBool(v, cfg.Crawler.IgnoreSSLError)
	}
	if v := os.Getenv("ANYCRAWL_USER_AGENT"); v != "" {
		cfg.Crawler.UserAgent = v
	}
	if v := os.Getenv("ANYCRAWL_KEEP_ALIVE"); v != "" {
		cfg.Crawler.KeepAlive = parseBool(v, cfg.Crawler.KeepAlive)
	}
	if v := os.Getenv("ANYCRAWL_PROXY_URL"); v != "" {
		cfg.Proxy.TierURLs = v
	}
	if v := os.Getenv("ANYCRAWL_PROXY_CONFIG"); v != "" {
		cfg.Proxy.ConfigPath = v
	}
	if v := os.Getenv("ANYCRAWL_STORAGE"); v != "" {
		cfg.Storage.Kind = v
	}
	if v := os.Getenv("ANYCRAWL_AI_CONFIG_PATH"); v != "" {
		cfg.AI.ConfigPath = v
	}
	if v := os.Getenv("DEFAULT_LLM_MODEL"); v != "" {
		cfg.AI.DefaultLLMModel = v
	}
	if v := os.Getenv("DEFAULT_EXTRACT_MODEL"); v != "" {
		cfg.AI.DefaultExtractModel = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AI.AnthropicAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.AI.GeminiAPIKey = v
	}
	if v := os.Getenv("ANYCRAWL_API_AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = parseBool(v, cfg.Auth.Enabled)
	}
	if v := os.Getenv("ANYCRAWL_API_CREDITS_ENABLED"); v != "" {
		cfg.Auth.CreditsEnabled = parseBool(v, cfg.Auth.CreditsEnabled)
	}
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}
