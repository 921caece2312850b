package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Version is the application version, overridden at build time.
var Version = "0.1.0-dev"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Search    SearchConfig    `mapstructure:"search"`
	Session   SessionConfig   `mapstructure:"session"`
	Theme     ThemeConfig     `mapstructure:"theme"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path      string `mapstructure:"path"`
	Ephemeral bool   `mapstructure:"ephemeral"` // keep state in memory only
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// CatalogConfig holds settings for the TMDB catalog provider.
type CatalogConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Language     string `mapstructure:"language"`
	Timeout      int    `mapstructure:"timeout"` // seconds
}

// SearchConfig holds search input settings.
type SearchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms"`
}

// Debounce returns the quiet period before raw search input is committed.
func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// SessionConfig holds settings for the placeholder login flow.
type SessionConfig struct {
	LoginLatencyMS int `mapstructure:"login_latency_ms"`
}

// LoginLatency returns the simulated login delay.
func (c SessionConfig) LoginLatency() time.Duration {
	return time.Duration(c.LoginLatencyMS) * time.Millisecond
}

// ThemeConfig holds display preferences.
type ThemeConfig struct {
	// PreferDark is the ambient dark-mode preference used when nothing is persisted.
	PreferDark bool `mapstructure:"prefer_dark"`
}

// SchedulerConfig holds background task settings.
type SchedulerConfig struct {
	TrendingRefreshCron string `mapstructure:"trending_refresh_cron"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8420,
		},
		Database: DatabaseConfig{
			Path: "./data/moviedeck.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Catalog: CatalogConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p",
			Language:     "en-US",
			Timeout:      15,
		},
		Search: SearchConfig{
			DebounceMS: 500,
		},
		Session: SessionConfig{
			LoginLatencyMS: 800,
		},
		Scheduler: SchedulerConfig{
			TrendingRefreshCron: "0 */6 * * *",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.moviedeck")
	}

	v.SetEnvPrefix("MOVIEDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Catalog.APIKey == "" {
		cfg.Catalog.APIKey = EmbeddedTMDBKey
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.ephemeral", false)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("catalog.api_key", "")
	v.SetDefault("catalog.base_url", d.Catalog.BaseURL)
	v.SetDefault("catalog.image_base_url", d.Catalog.ImageBaseURL)
	v.SetDefault("catalog.language", d.Catalog.Language)
	v.SetDefault("catalog.timeout", d.Catalog.Timeout)

	v.SetDefault("search.debounce_ms", d.Search.DebounceMS)
	v.SetDefault("session.login_latency_ms", d.Session.LoginLatencyMS)
	v.SetDefault("theme.prefer_dark", false)
	v.SetDefault("scheduler.trending_refresh_cron", d.Scheduler.TrendingRefreshCron)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
