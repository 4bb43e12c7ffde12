// Package config loads rental-arb server configuration from an optional
// YAML file and ARB_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	SMTP     SMTPConfig     `yaml:"smtp" mapstructure:"smtp"`
	Market   MarketConfig   `yaml:"market" mapstructure:"market"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	BaseURL        string   `yaml:"base_url" mapstructure:"base_url"`
	DevMode        bool     `yaml:"dev_mode" mapstructure:"dev_mode"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AuthConfig configures authentication.
type AuthConfig struct {
	AdminEmail string `yaml:"admin_email" mapstructure:"admin_email"`
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port string `yaml:"port" mapstructure:"port"`
	User string `yaml:"user" mapstructure:"user"`
	Pass string `yaml:"pass" mapstructure:"pass"`
	From string `yaml:"from" mapstructure:"from"`
}

// MarketConfig configures the comparables provider.
type MarketConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the provider request timeout.
func (m MarketConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSecs) * time.Second
}

// CacheConfig configures the optional Redis comparables cache.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns how long cached comparables stay valid.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// ScoringConfig configures background rescoring.
type ScoringConfig struct {
	RescoreSchedule string `yaml:"rescore_schedule" mapstructure:"rescore_schedule"`
	Concurrency     int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// AnalysisConfig configures saved ROI analyses.
type AnalysisConfig struct {
	SaveTimeoutSecs int `yaml:"save_timeout_secs" mapstructure:"save_timeout_secs"`
}

// SaveTimeout returns the bound on a single save.
func (a AnalysisConfig) SaveTimeout() time.Duration {
	return time.Duration(a.SaveTimeoutSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultDBPath returns ~/.rental-arb/arb.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "config: home directory")
	}
	return filepath.Join(home, ".rental-arb", "arb.db"), nil
}

// Load reads configuration from file and environment. An empty path
// searches for arb.yaml in the working directory and ~/.config/arb.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("arb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "arb"))
		}
	}

	// Environment
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so env overrides reach Unmarshal.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("store.path", "")
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", "587")
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.pass", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("market.base_url", "")
	v.SetDefault("market.api_key", "")
	v.SetDefault("market.requests_per_second", 2.0)
	v.SetDefault("market.burst", 1)
	v.SetDefault("market.timeout_secs", 30)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("scoring.rescore_schedule", "@daily")
	v.SetDefault("scoring.concurrency", 4)
	v.SetDefault("analysis.save_timeout_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Store.Path == "" {
		p, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.Store.Path = p
	}

	return &cfg, nil
}
