// Package config provides configuration management for the market-data service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	errs "wealthwatch/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ProviderConfig holds market-data source configuration.
type ProviderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds outbound call rate limiting configuration.
type RateLimitConfig struct {
	Strategy string        `mapstructure:"strategy"` // "interval", "bucket"
	Interval time.Duration `mapstructure:"interval"`
	Rate     float64       `mapstructure:"rate"`  // bucket: tokens per second
	Burst    int           `mapstructure:"burst"` // bucket: maximum burst
}

// CacheConfig holds cache backend configuration.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RefreshConfig holds background refresh configuration.
type RefreshConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	Currencies []string      `mapstructure:"currencies"`
}

// MetricsConfig holds the metrics endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/wealthwatch"
	}
	return filepath.Join(home, ".config", "wealthwatch")
}

// Load loads configuration from the specified directory.
// Missing config files are not an error; defaults and environment
// variables (prefix WEALTHWATCH_) still apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	v.SetEnvPrefix("WEALTHWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("provider.timeout", "10s")

	v.SetDefault("rate_limit.strategy", "interval")
	v.SetDefault("rate_limit.interval", "200ms")
	v.SetDefault("rate_limit.rate", 5.0)
	v.SetDefault("rate_limit.burst", 1)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "300s")

	v.SetDefault("refresh.interval", "5m")
	v.SetDefault("refresh.currencies", []string{
		"USD", "CNY", "HKD", "SGD", "EUR", "GBP", "JPY", "AUD", "BTC",
	})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9185")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(DefaultConfigDir(), "logs", "wealthwatch.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
}

// Validate checks the configuration for invalid values. All failures
// wrap errs.ErrConfigInvalid.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return errs.Wrap(errs.ErrConfigInvalid, "provider.base_url must not be empty")
	}
	switch c.RateLimit.Strategy {
	case "interval", "bucket":
	default:
		return errs.Wrapf(errs.ErrConfigInvalid, "rate_limit.strategy must be \"interval\" or \"bucket\", got %q", c.RateLimit.Strategy)
	}
	if c.RateLimit.Strategy == "bucket" && c.RateLimit.Rate <= 0 {
		return errs.Wrap(errs.ErrConfigInvalid, "rate_limit.rate must be > 0 for the bucket strategy")
	}
	if c.Cache.TTL <= 0 {
		return errs.Wrap(errs.ErrConfigInvalid, "cache.ttl must be > 0")
	}
	if c.Refresh.Interval <= 0 {
		return errs.Wrap(errs.ErrConfigInvalid, "refresh.interval must be > 0")
	}
	if len(c.Refresh.Currencies) == 0 {
		return errs.Wrap(errs.ErrConfigInvalid, "refresh.currencies must not be empty")
	}
	return nil
}
