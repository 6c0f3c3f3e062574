// Package config loads wordlens configuration.
//
// Values come from, in increasing priority:
//  1. built-in defaults
//  2. a yaml config file (--config, ./wordlens.yaml or ~/.config/wordlens/wordlens.yaml)
//  3. WORDLENS_* environment variables (database.path -> WORDLENS_DATABASE_PATH)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of all environment overrides.
const EnvPrefix = "WORDLENS"

// Config is the root configuration structure.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Translate TranslateConfig `mapstructure:"translate"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Server    ServerConfig    `mapstructure:"server"`
	Badge     BadgeConfig     `mapstructure:"badge"`
}

// DatabaseConfig points at the SQLite file holding the word list.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// DSN returns the go-sqlite3 data source name. Immediate transactions make
// every read-modify-write cycle take the write lock up front.
func (c DatabaseConfig) DSN() string {
	if c.Path == ":memory:" {
		return c.Path
	}
	return fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000", c.Path)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// TranslateConfig selects and tunes the translation provider.
type TranslateConfig struct {
	Provider string        `mapstructure:"provider"` // google or openai
	Endpoint string        `mapstructure:"endpoint"`
	Source   string        `mapstructure:"source"`
	Target   string        `mapstructure:"target"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Breaker  BreakerConfig `mapstructure:"breaker"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
}

// BreakerConfig tunes the circuit breaker around the provider.
type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// OpenAIConfig configures the optional OpenAI provider.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// FetchConfig controls how pages are downloaded.
type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// IngestConfig tunes multi-page scans.
type IngestConfig struct {
	Pool          string        `mapstructure:"pool"` // fixed or ants
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	TabIdleTimeout  time.Duration `mapstructure:"tab_idle_timeout"` // zero keeps tabs until deleted
}

// BadgeConfig controls the transient "+1" badge.
type BadgeConfig struct {
	Duration time.Duration `mapstructure:"duration"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "wordlens.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("translate.provider", "google")
	v.SetDefault("translate.endpoint", "https://translate.googleapis.com/translate_a/single")
	v.SetDefault("translate.source", "en")
	v.SetDefault("translate.target", "zh-CN")
	v.SetDefault("translate.timeout", 10*time.Second)
	v.SetDefault("translate.breaker.max_failures", 5)
	v.SetDefault("translate.breaker.open_timeout", 30*time.Second)
	v.SetDefault("translate.openai.model", "gpt-4o-mini")

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_body_bytes", 10*1024*1024)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	v.SetDefault("ingest.pool", "fixed")
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.batch_size", 50)
	v.SetDefault("ingest.flush_interval", 100*time.Millisecond)

	v.SetDefault("server.port", 8787)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", time.Duration(0))
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.tab_idle_timeout", 30*time.Minute)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:8787", "http://127.0.0.1:8787"})

	v.SetDefault("badge.duration", 2*time.Second)
}

// Load reads configuration. cfgFile may be empty, in which case the default
// search paths are used and a missing file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("wordlens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "wordlens"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// no config file: defaults and env only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Translate.OpenAI.APIKey == "" {
		cfg.Translate.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate checks for configuration errors that would only surface later.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	switch c.Translate.Provider {
	case "google", "openai", "noop":
	default:
		return fmt.Errorf("translate.provider must be google, openai or noop, got %q", c.Translate.Provider)
	}
	if c.Translate.Provider == "openai" && c.Translate.OpenAI.APIKey == "" {
		return fmt.Errorf("translate.openai.api_key (or OPENAI_API_KEY) is required for the openai provider")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be positive")
	}
	if c.Ingest.Pool != "fixed" && c.Ingest.Pool != "ants" {
		return fmt.Errorf("ingest.pool must be fixed or ants, got %q", c.Ingest.Pool)
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
