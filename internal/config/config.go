// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all crawler configuration knobs loaded via Viper.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Status  StatusConfig  `mapstructure:"status"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SiteConfig identifies the library site being crawled.
type SiteConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// CrawlerConfig governs pool sizing and walk behavior.
type CrawlerConfig struct {
	Workers                int `mapstructure:"workers"`
	DelayMs                int `mapstructure:"delay_ms"`
	MaxConsecutiveFailures int `mapstructure:"max_consecutive_failures"`
	MinBodyBytes           int `mapstructure:"min_body_bytes"`
}

// HTTPConfig configures fetch timeout and retry behavior.
type HTTPConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
}

// StorageConfig sets the root of the on-disk page archive.
type StorageConfig struct {
	Root string `mapstructure:"root"`
}

// CatalogConfig points at the directory holding catalog JSON exports.
type CatalogConfig struct {
	Dir string `mapstructure:"dir"`
}

// StatusConfig controls the embedded status server.
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://shamela.ws")
	v.SetDefault("crawler.workers", 10)
	v.SetDefault("crawler.delay_ms", 350)
	v.SetDefault("crawler.max_consecutive_failures", 5)
	v.SetDefault("crawler.min_body_bytes", 500)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (compatible; bookcrawler/1.0)")
	v.SetDefault("http.timeout_seconds", 20)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 1000)
	v.SetDefault("http.backoff_max_ms", 30000)
	v.SetDefault("storage.root", "data")
	v.SetDefault("catalog.dir", "data")
	v.SetDefault("status.enabled", true)
	v.SetDefault("status.addr", ":8080")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL")
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("crawler.workers must be > 0")
	}
	if c.Crawler.DelayMs < 0 {
		return fmt.Errorf("crawler.delay_ms must be >= 0")
	}
	if c.Crawler.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("crawler.max_consecutive_failures must be > 0")
	}
	if c.Crawler.MinBodyBytes < 0 {
		return fmt.Errorf("crawler.min_body_bytes must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Storage.Root == "" {
		return fmt.Errorf("storage.root must be set")
	}
	if c.Status.Enabled && c.Status.Addr == "" {
		return fmt.Errorf("status.addr must be set when the status server is enabled")
	}
	return nil
}

// Delay is the per-worker pause between page fetches.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Crawler.DelayMs) * time.Millisecond
}

// HTTPTimeout converts the configured fetch timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffInitial is the first retry backoff step.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax caps the exponential retry backoff.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}
