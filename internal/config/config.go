package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName               string        `mapstructure:"app_name"`
	Env                   string        `mapstructure:"app_env"`
	LogLevel              string        `mapstructure:"log_level"`
	APIBaseURL            string        `mapstructure:"api_base_url"`
	HeroesPath            string        `mapstructure:"heroes_path"`
	HTTPTimeoutSeconds    int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout           time.Duration `mapstructure:"-"`
	PublishersFile        string        `mapstructure:"publishers_file"`
	PublishTimeoutSeconds int64         `mapstructure:"publish_timeout_seconds"`
	PublishTimeout        time.Duration `mapstructure:"-"`
	MetricsTextfile       string        `mapstructure:"metrics_textfile"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "hero-records")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "http://localhost:8080")
	v.SetDefault("heroes_path", "api/heroes")
	v.SetDefault("http_timeout_seconds", 10)
	v.SetDefault("publishers_file", "")
	v.SetDefault("publish_timeout_seconds", 5)
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/messages.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize validates numeric settings and derives the duration fields.
func (cfg *Config) normalize() error {
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	cfg.HeroesPath = strings.Trim(strings.TrimSpace(cfg.HeroesPath), "/")
	if cfg.HeroesPath == "" {
		return fmt.Errorf("heroes_path is required")
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.PublishTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid publish_timeout_seconds (must be positive seconds)")
	}
	cfg.PublishTimeout = time.Duration(cfg.PublishTimeoutSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
